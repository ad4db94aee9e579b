package dify

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMode(t *testing.T) {
	for _, s := range []string{"workflow", "agent", "chat", "completion"} {
		mode, err := ParseMode(s)
		require.NoError(t, err)
		assert.Equal(t, Mode(s), mode)
	}

	_, err := ParseMode("pipeline")
	var invalidErr *InvalidModeError
	require.ErrorAs(t, err, &invalidErr)
	assert.Equal(t, "pipeline", invalidErr.Mode)
}

func TestBuildSchema(t *testing.T) {
	tests := []struct {
		mode   Mode
		fields []string
		query  interface{} // nil 表示不应该有 query 字段
	}{
		{ModeWorkflow, []string{"inputs", "response_mode", "user"}, nil},
		{ModeAgent, []string{"inputs", "query", "response_mode", "user"}, "question"},
		{ModeChat, []string{"inputs", "query", "response_mode", "user"}, ""},
		{ModeCompletion, []string{"inputs", "response_mode", "user"}, nil},
	}

	for _, tt := range tests {
		t.Run(string(tt.mode), func(t *testing.T) {
			body, err := BuildSchema(tt.mode, "question", ResponseModeStreaming, "alice@example.com")
			require.NoError(t, err)

			// 字段不多不少
			assert.Len(t, body, len(tt.fields))
			for _, f := range tt.fields {
				assert.Contains(t, body, f)
			}

			assert.Equal(t, map[string]interface{}{}, body["inputs"])
			assert.Equal(t, ResponseModeStreaming, body["response_mode"])
			assert.Equal(t, "alice@example.com", body["user"])

			if tt.query == nil {
				assert.NotContains(t, body, "query")
			} else {
				assert.Equal(t, tt.query, body["query"])
			}
		})
	}
}

func TestBuildSchemaInvalidMode(t *testing.T) {
	_, err := BuildSchema(Mode("bogus"), "input", ResponseModeBlocking, "")
	var invalidErr *InvalidModeError
	require.ErrorAs(t, err, &invalidErr)
	assert.Equal(t, "bogus", invalidErr.Mode)
}

func TestEndpointFor(t *testing.T) {
	host := "https://dify.example.com"

	tests := []struct {
		mode Mode
		want string
	}{
		{ModeWorkflow, host + "/v1/workflows/run"},
		{ModeAgent, host + "/v1/chat-messages"},
		{ModeChat, host + "/v1/chat-messages"},
		{ModeCompletion, host + "/v1/completion-messages"},
	}

	for _, tt := range tests {
		url, err := EndpointFor(tt.mode, host)
		require.NoError(t, err)
		assert.Equal(t, tt.want, url)
	}

	// 地址末尾多余的斜杠不应该产生双斜杠
	url, err := EndpointFor(ModeWorkflow, host+"/")
	require.NoError(t, err)
	assert.Equal(t, host+"/v1/workflows/run", url)
}

func TestEndpointForInvalidMode(t *testing.T) {
	_, err := EndpointFor(Mode("bogus"), "http://localhost")
	var invalidErr *InvalidModeError
	require.True(t, errors.As(err, &invalidErr))
	assert.Equal(t, "bogus", invalidErr.Mode)
}

func TestRequestBodyCopy(t *testing.T) {
	body, err := BuildSchema(ModeWorkflow, "input", ResponseModeStreaming, "")
	require.NoError(t, err)

	dup := body.Copy()
	dup["user"] = "bob@example.com"
	dup["inputs"].(map[string]interface{})["input"] = "hello"

	// 修改副本不能影响共享模板
	assert.Equal(t, "", body["user"])
	assert.Empty(t, body["inputs"].(map[string]interface{}))
}
