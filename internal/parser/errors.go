package parser

import (
	"errors"
	"fmt"
	"strconv"
	"time"
)

// ErrMalformedOutput marks a completion whose text did not contain a valid
// JSON object. Like truncation, it is worth one retry with a larger budget.
var ErrMalformedOutput = errors.New("malformed extractor output")

// RateLimitError indicates an extraction provider returned HTTP 429.
type RateLimitError struct {
	Err        error
	RetryAfter time.Duration
	Provider   string
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("%s rate limited (retry after %s): %v", e.Provider, e.RetryAfter, e.Err)
}

func (e *RateLimitError) Unwrap() error {
	return e.Err
}

// NewRateLimitError creates a RateLimitError. If retryAfterSecs is 0, defaults to 60s.
func NewRateLimitError(provider string, err error, retryAfterSecs int) *RateLimitError {
	if retryAfterSecs <= 0 {
		retryAfterSecs = 60
	}
	return &RateLimitError{
		Err:        err,
		RetryAfter: time.Duration(retryAfterSecs) * time.Second,
		Provider:   provider,
	}
}

// TruncatedError indicates the completion hit its output-token budget before
// the JSON object was complete.
type TruncatedError struct {
	Provider  string
	MaxTokens int
}

func (e *TruncatedError) Error() string {
	return fmt.Sprintf("%s output truncated at %d tokens", e.Provider, e.MaxTokens)
}

// retryableOutput reports whether an attempt failed in a way that a larger
// output-token budget could fix.
func retryableOutput(err error) bool {
	var te *TruncatedError
	return errors.As(err, &te) || errors.Is(err, ErrMalformedOutput)
}

// ParseRetryAfterHeader parses a Retry-After header value into seconds.
// Returns 0 if the value is empty or not a valid integer.
func ParseRetryAfterHeader(val string) int {
	if val == "" {
		return 0
	}
	secs, err := strconv.Atoi(val)
	if err != nil {
		return 0
	}
	return secs
}
