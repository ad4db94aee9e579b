package limiter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLimit(t *testing.T) {
	tests := []struct {
		limit string
		want  float64
	}{
		{"5-S", 5},
		{"60-M", 1},
		{"3600-H", 1},
		{"86400-D", 1},
	}

	for _, tt := range tests {
		rate, err := ParseLimit(tt.limit)
		require.NoError(t, err, tt.limit)
		assert.InDelta(t, tt.want, rate.Rate, 0.0001, tt.limit)
	}
}

func TestParseLimitInvalid(t *testing.T) {
	for _, limit := range []string{"", "abc", "5-X", "5"} {
		_, err := ParseLimit(limit)
		assert.Error(t, err, limit)
	}
}

func TestRouteToKeyString(t *testing.T) {
	assert.Equal(t, "-v1-chat-completions", routeToKeyString("/v1/chat/completions"))
	assert.Equal(t, "-v1-users-_id", routeToKeyString("/v1/users/:id"))
}
