package parser_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"kvitto/internal/parser"
)

func TestNewRateLimitError_Defaults(t *testing.T) {
	err := parser.NewRateLimitError("claude", errors.New("429"), 0)
	assert.Equal(t, 60*time.Second, err.RetryAfter)
	assert.Equal(t, "claude", err.Provider)
}

func TestNewRateLimitError_ExplicitRetryAfter(t *testing.T) {
	err := parser.NewRateLimitError("openai", errors.New("429"), 30)
	assert.Equal(t, 30*time.Second, err.RetryAfter)
}

func TestRateLimitError_Unwrap(t *testing.T) {
	inner := errors.New("too many requests")
	err := parser.NewRateLimitError("gemini", inner, 10)
	assert.True(t, errors.Is(err, inner))
}

func TestTruncatedError_Message(t *testing.T) {
	err := &parser.TruncatedError{Provider: "claude", MaxTokens: 4096}
	assert.Contains(t, err.Error(), "claude")
	assert.Contains(t, err.Error(), "4096")
}

func TestParseRetryAfterHeader(t *testing.T) {
	assert.Equal(t, 0, parser.ParseRetryAfterHeader(""))
	assert.Equal(t, 0, parser.ParseRetryAfterHeader("not-a-number"))
	assert.Equal(t, 120, parser.ParseRetryAfterHeader("120"))
}
