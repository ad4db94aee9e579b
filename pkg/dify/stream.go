package dify

import (
	"bufio"
	"encoding/json"
	"io"
	"strings"

	"github.com/spf13/cast"

	"difypipe/pkg/logger"
)

// SSE 事件行前缀
const dataPrefix = "data: "

// streamEvent Dify SSE 事件，只提取需要的字段
// Answer 用指针以区分字段缺失和空字符串
type streamEvent struct {
	Event  string  `json:"event"`
	Answer *string `json:"answer"`
	Data   struct {
		Text    string                 `json:"text"`
		Outputs map[string]interface{} `json:"outputs"`
	} `json:"data"`
}

// decodeStream 逐行读取 SSE 流并按事件类型分发片段
//
// 单行解析失败只记录日志并跳过，绝不中断整个流；
// 未知事件类型静默忽略
func decodeStream(r io.Reader, yield func(Fragment) bool) {
	scanner := bufio.NewScanner(r)
	// 放大缓冲，上游的单个事件可能超过默认的 64KB
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := scanner.Text()
		if line == "" || !strings.HasPrefix(line, dataPrefix) {
			continue
		}

		var ev streamEvent
		payload := strings.TrimPrefix(line, dataPrefix)
		if err := json.Unmarshal([]byte(payload), &ev); err != nil {
			logger.WarnString("Dify", "Stream", "解析事件行失败: "+line)
			continue
		}

		var text string
		switch ev.Event {
		case "text_chunk":
			text = ev.Data.Text
		case "agent_message", "message", "completion":
			if ev.Answer != nil {
				text = *ev.Answer
			} else {
				text = ev.Data.Text
			}
		case "workflow_finished":
			text = cast.ToString(ev.Data.Outputs["output"])
		default:
			continue
		}

		if !yield(Fragment{Text: text}) {
			return
		}
	}

	if err := scanner.Err(); err != nil {
		logger.ErrorString("Dify", "Stream", "读取响应流失败: "+err.Error())
	}
}
