// Package requests 处理请求数据和表单验证
package requests

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/thedevsaddam/govalidator"
)

// ChatMessage 会话中的单条消息
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatUser 调用方身份，上游管道依赖其中的邮箱
type ChatUser struct {
	Email string `json:"email"`
}

// ChatRequest OpenAI 风格的聊天补全请求
type ChatRequest struct {
	Model    string        `json:"model"`
	Messages []ChatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
	User     ChatUser      `json:"user"`
}

// UserMessage 取最后一条用户消息作为发往管道的输入
func (r *ChatRequest) UserMessage() string {
	for i := len(r.Messages) - 1; i >= 0; i-- {
		if r.Messages[i].Role == "user" {
			return r.Messages[i].Content
		}
	}
	// 没有 user 角色时退回最后一条消息
	if len(r.Messages) > 0 {
		return r.Messages[len(r.Messages)-1].Content
	}
	return ""
}

// ValidateChat 校验聊天请求
func ValidateChat(c *gin.Context) (*ChatRequest, error) {
	var req ChatRequest

	// 1. 首先绑定 JSON
	if err := c.ShouldBindJSON(&req); err != nil {
		return nil, fmt.Errorf("解析 JSON 失败: %w", err)
	}

	// 2. 验证规则
	rules := govalidator.MapData{
		"messages": []string{"required"},
	}

	// 3. 验证消息
	messages := govalidator.MapData{
		"messages": []string{
			"required:消息列表不能为空",
		},
	}

	opts := govalidator.Options{
		Data:     &req,
		Rules:    rules,
		Messages: messages,
	}

	validator := govalidator.New(opts)
	if errs := validator.ValidateStruct(); len(errs) > 0 {
		return nil, fmt.Errorf("验证失败: %v", errs)
	}

	// 4. 额外的消息内容验证
	if len(req.Messages) == 0 {
		return nil, fmt.Errorf("消息列表不能为空")
	}
	if req.UserMessage() == "" {
		return nil, fmt.Errorf("消息内容不能为空")
	}

	return &req, nil
}
