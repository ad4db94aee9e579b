package requests

import (
	"bytes"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeChatContext(body string) *gin.Context {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest("POST", "/v1/chat/completions", bytes.NewBufferString(body))
	c.Request.Header.Set("Content-Type", "application/json")
	return c
}

func TestValidateChat(t *testing.T) {
	c := makeChatContext(`{
		"model": "dify-pipeline",
		"messages": [
			{"role": "system", "content": "be nice"},
			{"role": "user", "content": "hello"},
			{"role": "assistant", "content": "hi"},
			{"role": "user", "content": "how are you"}
		],
		"stream": true,
		"user": {"email": "alice@example.com"}
	}`)

	req, err := ValidateChat(c)
	require.NoError(t, err)
	assert.True(t, req.Stream)
	assert.Equal(t, "alice@example.com", req.User.Email)
	// 取最后一条 user 角色的消息
	assert.Equal(t, "how are you", req.UserMessage())
}

func TestValidateChatEmptyMessages(t *testing.T) {
	c := makeChatContext(`{"model": "dify-pipeline", "messages": []}`)
	_, err := ValidateChat(c)
	assert.Error(t, err)
}

func TestValidateChatBadJSON(t *testing.T) {
	c := makeChatContext(`{broken`)
	_, err := ValidateChat(c)
	assert.Error(t, err)
}

func TestUserMessageFallsBackToLastMessage(t *testing.T) {
	req := &ChatRequest{
		Messages: []ChatMessage{
			{Role: "system", Content: "be nice"},
			{Role: "assistant", Content: "hi"},
		},
	}
	assert.Equal(t, "hi", req.UserMessage())
}
