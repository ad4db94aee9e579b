package pipeline

import (
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"difypipe/app/models/exchange"
	"difypipe/app/repositories"
	"difypipe/app/requests"
	"difypipe/pkg/database"
	"difypipe/pkg/dify"
	"difypipe/pkg/logger"
	"difypipe/pkg/response"
)

// ChatController 聊天补全控制器，把 OpenAI 风格的请求接到 Dify 管道上
type ChatController struct{}

// NewChatController 创建控制器实例
func NewChatController() *ChatController {
	return &ChatController{}
}

// Completions 处理聊天补全请求
// POST /v1/chat/completions
func (cc *ChatController) Completions(c *gin.Context) {
	pipe := dify.Pipe
	if pipe == nil {
		response.Abort500(c, "管道未初始化，请检查配置")
		return
	}

	// 1. 请求验证
	req, err := requests.ValidateChat(c)
	if err != nil {
		response.BadRequest(c, err, "请求参数验证失败")
		return
	}

	// 2. 请求前透传钩子
	pipe.Inlet(gin.H{"model": req.Model, "stream": req.Stream}, gin.H{"email": req.User.Email})

	// 3. 发起交换
	start := time.Now()
	seq, err := pipe.Exchange(c.Request.Context(), req.UserMessage(), req.User.Email)
	if err != nil {
		var missingErr *dify.MissingCallerIdentityError
		if errors.As(err, &missingErr) {
			response.Abort400(c, "缺少调用方身份 user.email")
			return
		}
		response.ServerError(c, err, "管道调用失败")
		return
	}

	// 4. 消费片段序列，按请求方式选择流式或聚合输出
	if req.Stream && pipe.Streaming() {
		cc.streamFragments(c, pipe, req, seq, start)
		return
	}
	cc.aggregateFragments(c, pipe, req, seq, start)
}

// streamFragments 把管道片段包装成 OpenAI 风格的 SSE 块转发给客户端
func (cc *ChatController) streamFragments(c *gin.Context, pipe *dify.Pipeline, req *requests.ChatRequest, seq iter.Seq[dify.Fragment], start time.Time) {
	w := c.Writer
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	c.Status(http.StatusOK)
	w.Flush()

	id := "chatcmpl-" + uuid.New().String()
	created := time.Now().Unix()
	count, size := 0, 0
	hadError := false

	for fragment := range seq {
		text := fragmentText(fragment)
		count++
		size += len(text)
		if isErrorFragment(fragment) {
			hadError = true
		}

		chunk := StreamChunk{
			ID:      id,
			Object:  "chat.completion.chunk",
			Created: created,
			Model:   req.Model,
			Choices: []StreamChoice{{Delta: Delta{Content: text}}},
		}
		data, err := json.Marshal(chunk)
		if err != nil {
			logger.LogIf(err)
			continue
		}
		if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
			// 客户端断开，停止消费
			break
		}
		w.Flush()
	}

	fmt.Fprint(w, "data: [DONE]\n\n")
	w.Flush()

	pipe.Outlet(gin.H{"fragments": count}, gin.H{"email": req.User.Email})
	cc.record(c, pipe, req, count, size, hadError, start)
}

// aggregateFragments 聚合所有片段，返回一个完整的 JSON 响应
func (cc *ChatController) aggregateFragments(c *gin.Context, pipe *dify.Pipeline, req *requests.ChatRequest, seq iter.Seq[dify.Fragment], start time.Time) {
	var builder strings.Builder
	var rawJSON interface{}
	count := 0
	hadError := false

	for fragment := range seq {
		count++
		if isErrorFragment(fragment) {
			hadError = true
		}
		if fragment.JSON != nil {
			rawJSON = fragment.JSON
			continue
		}
		builder.WriteString(fragment.Text)
	}

	pipe.Outlet(gin.H{"fragments": count}, gin.H{"email": req.User.Email})
	cc.record(c, pipe, req, count, builder.Len(), hadError, start)

	// blocking 模式只会产出一个 JSON 片段，原样透传
	if rawJSON != nil && builder.Len() == 0 {
		response.JSON(c, rawJSON)
		return
	}

	response.JSON(c, ChatCompletionResponse{
		ID:      "chatcmpl-" + uuid.New().String(),
		Object:  "chat.completion",
		Created: time.Now().Unix(),
		Model:   req.Model,
		Choices: []Choice{{
			Message:      requests.ChatMessage{Role: "assistant", Content: builder.String()},
			FinishReason: "stop",
		}},
	})
}

// record 交换记录落库，未启用数据库时直接跳过
func (cc *ChatController) record(c *gin.Context, pipe *dify.Pipeline, req *requests.ChatRequest, fragments, size int, hadError bool, start time.Time) {
	if !database.Enabled() {
		return
	}

	status := exchange.StatusOK
	if hadError {
		status = exchange.StatusError
	}

	repo := repositories.NewExchangeRepository()
	err := repo.Create(c.Request.Context(), &exchange.Exchange{
		UserEmail:  req.User.Email,
		Mode:       string(pipe.Mode()),
		Question:   req.UserMessage(),
		AnswerSize: size,
		Fragments:  fragments,
		Status:     status,
		DurationMS: time.Since(start).Milliseconds(),
	})
	if err != nil {
		logger.ErrorString("Exchange", "落库失败", err.Error())
	}
}

// fragmentText 片段的文本形式，blocking 模式的 JSON 片段序列化后返回
func fragmentText(fragment dify.Fragment) string {
	if fragment.JSON != nil {
		data, err := json.Marshal(fragment.JSON)
		if err != nil {
			return fragment.Text
		}
		return string(data)
	}
	return fragment.Text
}

// isErrorFragment 错误片段以固定前缀输出，借此标记交换状态
func isErrorFragment(fragment dify.Fragment) bool {
	return strings.HasPrefix(fragment.Text, "API request failed")
}
