// Package pipeline 管道相关的 API 控制器
package pipeline

import (
	"difypipe/app/requests"
)

// ChatCompletionResponse OpenAI 风格的非流式响应
type ChatCompletionResponse struct {
	ID      string   `json:"id"`
	Object  string   `json:"object"`
	Created int64    `json:"created"`
	Model   string   `json:"model"`
	Choices []Choice `json:"choices"`
}

// Choice 单个补全结果
type Choice struct {
	Index        int                  `json:"index"`
	Message      requests.ChatMessage `json:"message"`
	FinishReason string               `json:"finish_reason"`
}

// StreamChunk 流式响应中的单个 SSE 数据对象
type StreamChunk struct {
	ID      string         `json:"id"`
	Object  string         `json:"object"`
	Created int64          `json:"created"`
	Model   string         `json:"model"`
	Choices []StreamChoice `json:"choices"`
}

// StreamChoice 流式响应中的单个增量
type StreamChoice struct {
	Index        int     `json:"index"`
	Delta        Delta   `json:"delta"`
	FinishReason *string `json:"finish_reason"`
}

// Delta 增量内容
type Delta struct {
	Role    string `json:"role,omitempty"`
	Content string `json:"content,omitempty"`
}
