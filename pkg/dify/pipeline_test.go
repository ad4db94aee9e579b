package dify

import (
	"context"
	"encoding/json"
	"fmt"
	"iter"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testConfig 返回指向测试服务器的管道配置
func testConfig(host string, mode Mode, responseMode string) *Config {
	return &Config{
		AppName:      "Test Pipeline",
		HostURL:      host,
		APIKey:       "test-api-key",
		UserInputKey: "input",
		UserInputs:   "",
		Mode:         mode,
		ResponseMode: responseMode,
		VerifySSL:    true,
		Timeout:      5 * time.Second,
	}
}

// collect 完整消费一个片段序列
func collect(seq iter.Seq[Fragment]) []Fragment {
	var fragments []Fragment
	for f := range seq {
		fragments = append(fragments, f)
	}
	return fragments
}

// texts 取出所有片段的文本
func texts(fragments []Fragment) []string {
	out := make([]string, 0, len(fragments))
	for _, f := range fragments {
		out = append(out, f.Text)
	}
	return out
}

// sseServer 返回一个按行吐出 SSE 数据的测试服务器
func sseServer(t *testing.T, status int, lines []string, gotBody *RequestBody) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-api-key", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		if gotBody != nil {
			require.NoError(t, json.NewDecoder(r.Body).Decode(gotBody))
		}

		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(status)
		flusher := w.(http.Flusher)
		for _, line := range lines {
			fmt.Fprintf(w, "%s\n\n", line)
			flusher.Flush()
		}
	}))
}

func TestExchangeStreamingWorkflow(t *testing.T) {
	var gotBody RequestBody
	srv := sseServer(t, http.StatusOK, []string{
		`data: {"event":"text_chunk","data":{"text":"A"}}`,
		`data: {"event":"workflow_finished","data":{"outputs":{"output":"DONE"}}}`,
	}, &gotBody)
	defer srv.Close()

	pipe, err := NewPipeline(testConfig(srv.URL, ModeWorkflow, ResponseModeStreaming))
	require.NoError(t, err)

	seq, err := pipe.Exchange(context.Background(), "hello", "alice@example.com")
	require.NoError(t, err)

	assert.Equal(t, []string{"A", "DONE"}, texts(collect(seq)))

	// workflow 模式下用户消息写入 inputs[user_input_key]
	inputs := gotBody["inputs"].(map[string]interface{})
	assert.Equal(t, "hello", inputs["input"])
	assert.Equal(t, "alice@example.com", gotBody["user"])
	assert.Equal(t, ResponseModeStreaming, gotBody["response_mode"])
}

func TestExchangeChatPopulatesQuery(t *testing.T) {
	var gotBody RequestBody
	srv := sseServer(t, http.StatusOK, []string{
		`data: {"event":"message","answer":"hey"}`,
	}, &gotBody)
	defer srv.Close()

	pipe, err := NewPipeline(testConfig(srv.URL, ModeChat, ResponseModeStreaming))
	require.NoError(t, err)

	seq, err := pipe.Exchange(context.Background(), "hi", "bob@example.com")
	require.NoError(t, err)

	assert.Equal(t, []string{"hey"}, texts(collect(seq)))
	assert.Equal(t, "hi", gotBody["query"])
	assert.Equal(t, map[string]interface{}{}, gotBody["inputs"])
}

func TestExchangeCompletionPopulatesInputsQuery(t *testing.T) {
	var gotBody RequestBody
	srv := sseServer(t, http.StatusOK, []string{
		`data: {"event":"completion","data":{"text":"done"}}`,
	}, &gotBody)
	defer srv.Close()

	pipe, err := NewPipeline(testConfig(srv.URL, ModeCompletion, ResponseModeStreaming))
	require.NoError(t, err)

	seq, err := pipe.Exchange(context.Background(), "write a poem", "bob@example.com")
	require.NoError(t, err)

	assert.Equal(t, []string{"done"}, texts(collect(seq)))
	inputs := gotBody["inputs"].(map[string]interface{})
	assert.Equal(t, "write a poem", inputs["query"])
}

// 额外静态输入在键冲突时覆盖用户消息，这是既有的合并顺序，
// 不是笔误。调整 buildBody 的合并顺序会破坏这条用例
func TestExchangeExtraInputsOverrideUserMessage(t *testing.T) {
	var gotBody RequestBody
	srv := sseServer(t, http.StatusOK, nil, &gotBody)
	defer srv.Close()

	config := testConfig(srv.URL, ModeWorkflow, ResponseModeStreaming)
	config.UserInputs = `{"input": "override", "lang": "zh"}`

	pipe, err := NewPipeline(config)
	require.NoError(t, err)

	seq, err := pipe.Exchange(context.Background(), "hello", "alice@example.com")
	require.NoError(t, err)
	collect(seq)

	inputs := gotBody["inputs"].(map[string]interface{})
	assert.Equal(t, "override", inputs["input"])
	assert.Equal(t, "zh", inputs["lang"])
}

func TestExchangeMissingCallerIdentity(t *testing.T) {
	pipe, err := NewPipeline(testConfig("http://localhost:1", ModeWorkflow, ResponseModeStreaming))
	require.NoError(t, err)

	_, err = pipe.Exchange(context.Background(), "hello", "")
	var missingErr *MissingCallerIdentityError
	require.ErrorAs(t, err, &missingErr)
}

func TestExchangeInvalidExtraInputs(t *testing.T) {
	config := testConfig("http://localhost:1", ModeWorkflow, ResponseModeStreaming)
	config.UserInputs = `{not json`

	pipe, err := NewPipeline(config)
	require.NoError(t, err)

	_, err = pipe.Exchange(context.Background(), "hello", "alice@example.com")
	var extraErr *InvalidExtraInputsError
	require.ErrorAs(t, err, &extraErr)
	assert.Equal(t, `{not json`, extraErr.Raw)
}

func TestExchangeMalformedLineDoesNotAbortStream(t *testing.T) {
	srv := sseServer(t, http.StatusOK, []string{
		`data: {"event":"text_chunk","data":{"text":"A"}}`,
		`data: {broken`,
		`data: {"event":"text_chunk","data":{"text":"B"}}`,
	}, nil)
	defer srv.Close()

	pipe, err := NewPipeline(testConfig(srv.URL, ModeWorkflow, ResponseModeStreaming))
	require.NoError(t, err)

	seq, err := pipe.Exchange(context.Background(), "hello", "alice@example.com")
	require.NoError(t, err)

	assert.Equal(t, []string{"A", "B"}, texts(collect(seq)))
}

func TestExchangeIgnoresUnknownEvents(t *testing.T) {
	srv := sseServer(t, http.StatusOK, []string{
		`data: {"event":"workflow_started","data":{}}`,
		`data: {"event":"node_finished","data":{}}`,
		`data: {"event":"text_chunk","data":{"text":"only"}}`,
		`: keep-alive comment`,
	}, nil)
	defer srv.Close()

	pipe, err := NewPipeline(testConfig(srv.URL, ModeWorkflow, ResponseModeStreaming))
	require.NoError(t, err)

	seq, err := pipe.Exchange(context.Background(), "hello", "alice@example.com")
	require.NoError(t, err)

	assert.Equal(t, []string{"only"}, texts(collect(seq)))
}

func TestExchangeStreamingNon200StillDecodes(t *testing.T) {
	srv := sseServer(t, http.StatusBadRequest, []string{
		`data: {"event":"text_chunk","data":{"text":"partial"}}`,
	}, nil)
	defer srv.Close()

	pipe, err := NewPipeline(testConfig(srv.URL, ModeWorkflow, ResponseModeStreaming))
	require.NoError(t, err)

	seq, err := pipe.Exchange(context.Background(), "hello", "alice@example.com")
	require.NoError(t, err)

	fragments := collect(seq)
	require.Len(t, fragments, 2)
	assert.Contains(t, fragments[0].Text, "API request failed with status code 400")
	assert.Equal(t, "partial", fragments[1].Text)
}

func TestExchangeBlocking(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"data":{"outputs":{"output":"all good"}}}`)
	}))
	defer srv.Close()

	pipe, err := NewPipeline(testConfig(srv.URL, ModeWorkflow, ResponseModeBlocking))
	require.NoError(t, err)

	seq, err := pipe.Exchange(context.Background(), "hello", "alice@example.com")
	require.NoError(t, err)

	fragments := collect(seq)
	require.Len(t, fragments, 1)

	parsed := fragments[0].JSON.(map[string]interface{})
	data := parsed["data"].(map[string]interface{})
	outputs := data["outputs"].(map[string]interface{})
	assert.Equal(t, "all good", outputs["output"])
}

func TestExchangeBlockingNonJSONBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<html>definitely not json</html>")
	}))
	defer srv.Close()

	pipe, err := NewPipeline(testConfig(srv.URL, ModeWorkflow, ResponseModeBlocking))
	require.NoError(t, err)

	seq, err := pipe.Exchange(context.Background(), "hello", "alice@example.com")
	require.NoError(t, err)

	fragments := collect(seq)
	require.Len(t, fragments, 1)
	assert.Contains(t, fragments[0].Text, "Failed to parse JSON response")
	assert.Contains(t, fragments[0].Text, "definitely not json")
}

func TestExchangeBlockingNon200StillDecodes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, `{"code":"internal_error"}`)
	}))
	defer srv.Close()

	pipe, err := NewPipeline(testConfig(srv.URL, ModeWorkflow, ResponseModeBlocking))
	require.NoError(t, err)

	seq, err := pipe.Exchange(context.Background(), "hello", "alice@example.com")
	require.NoError(t, err)

	fragments := collect(seq)
	require.Len(t, fragments, 2)
	assert.Contains(t, fragments[0].Text, "API request failed with status code 500")
	parsed := fragments[1].JSON.(map[string]interface{})
	assert.Equal(t, "internal_error", parsed["code"])
}

func TestExchangeTransportError(t *testing.T) {
	// 先起服务器再关掉，拿到一个必然拒绝连接的地址
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	pipe, err := NewPipeline(testConfig(url, ModeWorkflow, ResponseModeStreaming))
	require.NoError(t, err)

	seq, err := pipe.Exchange(context.Background(), "hello", "alice@example.com")
	require.NoError(t, err)

	fragments := collect(seq)
	require.Len(t, fragments, 1)
	assert.Contains(t, fragments[0].Text, "API request failed")
}

func TestNewPipelineInvalidMode(t *testing.T) {
	config := testConfig("http://localhost", Mode("bogus"), ResponseModeStreaming)
	_, err := NewPipeline(config)
	var invalidErr *InvalidModeError
	require.ErrorAs(t, err, &invalidErr)
}
