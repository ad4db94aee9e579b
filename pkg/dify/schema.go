// Package dify 实现与 Dify API 交互的消息管道
//
// 管道把一条聊天消息转发给 Dify，并把响应以片段序列的形式返回：
// blocking 模式返回一个完整的 JSON 片段，streaming 模式逐行解码
// SSE 事件流，产出多个文本片段。
package dify

import (
	"strings"
)

// Mode Dify 请求模式，同时决定请求体的结构和上游的接口路径
type Mode string

const (
	ModeWorkflow   Mode = "workflow"
	ModeAgent      Mode = "agent"
	ModeChat       Mode = "chat"
	ModeCompletion Mode = "completion"
)

// 响应模式
const (
	ResponseModeStreaming = "streaming"
	ResponseModeBlocking  = "blocking"
)

// ParseMode 解析请求模式字符串，无法识别时返回 InvalidModeError
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeWorkflow, ModeAgent, ModeChat, ModeCompletion:
		return Mode(s), nil
	}
	return "", &InvalidModeError{Mode: s}
}

// RequestBody 发往 Dify 的请求体
// 结构随模式变化（chat 模式必须带空的 query，workflow 模式不能带），
// 因此使用 map 而不是固定结构体
type RequestBody map[string]interface{}

// BuildSchema 按模式生成请求体的基础结构
// 这里只搭出骨架，用户消息和调用方身份由每次调用单独填充
func BuildSchema(mode Mode, inputKey, responseMode, user string) (RequestBody, error) {
	switch mode {
	case ModeWorkflow:
		return RequestBody{
			"inputs":        map[string]interface{}{},
			"response_mode": responseMode,
			"user":          user,
		}, nil
	case ModeAgent:
		return RequestBody{
			"inputs":        map[string]interface{}{},
			"query":         inputKey,
			"response_mode": responseMode,
			"user":          user,
		}, nil
	case ModeChat:
		return RequestBody{
			"inputs":        map[string]interface{}{},
			"query":         "",
			"response_mode": responseMode,
			"user":          user,
		}, nil
	case ModeCompletion:
		return RequestBody{
			"inputs":        map[string]interface{}{},
			"response_mode": responseMode,
			"user":          user,
		}, nil
	}
	return nil, &InvalidModeError{Mode: string(mode)}
}

// EndpointFor 解析模式对应的上游接口地址
// 模式校验与 BuildSchema 相互独立，两边必须保持一致
func EndpointFor(mode Mode, hostURL string) (string, error) {
	base := strings.TrimRight(hostURL, "/")
	switch mode {
	case ModeWorkflow:
		return base + "/v1/workflows/run", nil
	case ModeAgent, ModeChat:
		return base + "/v1/chat-messages", nil
	case ModeCompletion:
		return base + "/v1/completion-messages", nil
	}
	return "", &InvalidModeError{Mode: string(mode)}
}

// Copy 复制请求体，inputs 子表单独复制
// 每次调用必须拿到独立副本，避免并发调用时互相污染共享模板
func (b RequestBody) Copy() RequestBody {
	dup := make(RequestBody, len(b))
	for k, v := range b {
		if inputs, ok := v.(map[string]interface{}); ok {
			inner := make(map[string]interface{}, len(inputs))
			for ik, iv := range inputs {
				inner[ik] = iv
			}
			dup[k] = inner
			continue
		}
		dup[k] = v
	}
	return dup
}
