package dify

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"iter"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"difypipe/pkg/logger"
)

// Pipe 全局管道对象，由 bootstrap.SetupPipeline 初始化
var Pipe *Pipeline

// Config 管道配置，进程启动时从环境变量填充一次，之后只读
type Config struct {
	AppName      string        // 应用展示名称
	HostURL      string        // Dify 服务基础地址
	APIKey       string        // Dify API 密钥
	UserInputKey string        // 用户消息写入 inputs 时使用的键名
	UserInputs   string        // 额外静态输入，JSON 对象字符串
	Mode         Mode          // 请求模式
	ResponseMode string        // streaming 或 blocking
	VerifySSL    bool          // 是否校验上游 TLS 证书
	Timeout      time.Duration // 单次请求超时时间
}

// Fragment 一次交换产出的单个片段
// streaming 模式下 Text 为解码出的文本；blocking 模式下 JSON 为
// 解析后的完整响应。错误信息也以 Text 片段的形式输出
type Fragment struct {
	Text string
	JSON interface{}
}

// Pipeline 消息管道
// 除只读配置外不持有任何跨调用状态，每次 Exchange 都是独立的
type Pipeline struct {
	config   *Config
	schema   RequestBody // 预构建的请求体模板，调用时复制后填充
	endpoint string
	client   *resty.Client
}

// NewPipeline 创建管道实例
// 模式无效时返回 InvalidModeError，不会创建出半可用的管道
func NewPipeline(config *Config) (*Pipeline, error) {
	schema, err := BuildSchema(config.Mode, config.UserInputKey, config.ResponseMode, "")
	if err != nil {
		return nil, err
	}

	endpoint, err := EndpointFor(config.Mode, config.HostURL)
	if err != nil {
		return nil, err
	}

	client := resty.New().SetTimeout(config.Timeout)
	if !config.VerifySSL {
		client.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}

	return &Pipeline{
		config:   config,
		schema:   schema,
		endpoint: endpoint,
		client:   client,
	}, nil
}

// Name 管道展示名称
func (p *Pipeline) Name() string {
	return p.config.AppName
}

// Mode 管道的请求模式
func (p *Pipeline) Mode() Mode {
	return p.config.Mode
}

// Streaming 管道是否以流式方式消费上游响应
func (p *Pipeline) Streaming() bool {
	return p.config.ResponseMode == ResponseModeStreaming
}

// OnStart 宿主框架的启动回调，仅记录日志
func (p *Pipeline) OnStart() {
	logger.InfoString("Pipeline", "OnStart", p.config.AppName)
}

// OnStop 宿主框架的停止回调，仅记录日志
func (p *Pipeline) OnStop() {
	logger.InfoString("Pipeline", "OnStop", p.config.AppName)
}

// Inlet 请求前的透传钩子，原样返回请求体
func (p *Pipeline) Inlet(body map[string]interface{}, user map[string]interface{}) map[string]interface{} {
	logger.DebugJSON("Pipeline", "Inlet", body)
	return body
}

// Outlet 响应后的透传钩子，原样返回响应体
func (p *Pipeline) Outlet(body map[string]interface{}, user map[string]interface{}) map[string]interface{} {
	logger.DebugJSON("Pipeline", "Outlet", body)
	return body
}

// buildBody 组装单次调用的请求体
//
// 合并顺序：先写入用户消息，再合并配置的额外静态输入。
// 也就是说额外输入在键冲突时会覆盖用户消息字段，与上游管道的
// 行为保持一致，不要调整这个顺序。
func (p *Pipeline) buildBody(userMessage, callerEmail string) (RequestBody, error) {
	if callerEmail == "" {
		return nil, &MissingCallerIdentityError{}
	}

	body := p.schema.Copy()
	inputs := body["inputs"].(map[string]interface{})

	switch p.config.Mode {
	case ModeWorkflow:
		inputs[p.config.UserInputKey] = userMessage
	case ModeAgent, ModeChat:
		body["query"] = userMessage
	case ModeCompletion:
		inputs["query"] = userMessage
	}
	body["user"] = callerEmail

	if p.config.UserInputs != "" {
		extra := map[string]interface{}{}
		if err := json.Unmarshal([]byte(p.config.UserInputs), &extra); err != nil {
			return nil, &InvalidExtraInputsError{Raw: p.config.UserInputs, Err: err}
		}
		for k, v := range extra {
			inputs[k] = v
		}
	}

	return body, nil
}

// Exchange 执行一次完整的消息交换，返回片段的惰性序列
//
// 组装阶段的致命错误（身份缺失、额外输入非法）直接返回 error；
// 网络和解析错误都会被吸收成片段，调用方拿到的永远是一个确定
// 会结束的片段序列。序列绑定在本次网络连接上，只能消费一次
func (p *Pipeline) Exchange(ctx context.Context, userMessage, callerEmail string) (iter.Seq[Fragment], error) {
	body, err := p.buildBody(userMessage, callerEmail)
	if err != nil {
		return nil, err
	}

	return func(yield func(Fragment) bool) {
		req := p.client.R().
			SetContext(ctx).
			SetHeader("Authorization", "Bearer "+p.config.APIKey).
			SetHeader("Content-Type", "application/json").
			SetBody(body)

		if p.Streaming() {
			// 流式模式下不让 resty 读完响应体，逐行消费
			req.SetDoNotParseResponse(true)
		}

		resp, err := req.Post(p.endpoint)
		if err != nil {
			yield(Fragment{Text: fmt.Sprintf("API request failed: %v", err)})
			return
		}

		if p.Streaming() {
			p.decodeStreaming(resp, yield)
			return
		}
		p.decodeBlocking(resp, yield)
	}, nil
}

// decodeBlocking 解码 blocking 模式的完整响应
func (p *Pipeline) decodeBlocking(resp *resty.Response, yield func(Fragment) bool) {
	// 非 200 先输出错误片段，之后照常尝试解析响应体
	if resp.StatusCode() != http.StatusOK {
		if !yield(Fragment{Text: fmt.Sprintf("API request failed with status code %d: %s", resp.StatusCode(), resp.String())}) {
			return
		}
	}

	var parsed interface{}
	if err := json.Unmarshal(resp.Body(), &parsed); err != nil {
		yield(Fragment{Text: "Failed to parse JSON response. Raw response: " + resp.String()})
		return
	}
	yield(Fragment{JSON: parsed})
}

// decodeStreaming 逐行解码 SSE 事件流
func (p *Pipeline) decodeStreaming(resp *resty.Response, yield func(Fragment) bool) {
	raw := resp.RawBody()
	if raw == nil {
		yield(Fragment{Text: "API request failed: empty response body"})
		return
	}
	defer raw.Close()

	var reader io.Reader = raw
	if resp.StatusCode() != http.StatusOK {
		// 非 200 也要继续解码，先整体读入以便同时给出错误片段
		buf, _ := io.ReadAll(raw)
		if !yield(Fragment{Text: fmt.Sprintf("API request failed with status code %d: %s", resp.StatusCode(), string(buf))}) {
			return
		}
		reader = bytes.NewReader(buf)
	}

	decodeStream(reader, yield)
}
