package port

import (
	"context"
	"encoding/json"
)

// ParseInput carries the data needed for one extraction attempt against the
// external AI service. ImageURL is preferred over ImageBytes when both are
// set, to keep request payloads small.
type ParseInput struct {
	ImageBytes  []byte
	ImageURL    string
	ContentType string
	Locale      string

	// MaxTokens caps the completion budget. Zero means the provider default.
	// The fallback ladder raises it once when output comes back truncated.
	MaxTokens int
}

// ParseOutput contains the structured result of an extraction attempt.
// Draft is a single JSON object matching the DraftReceipt shape; providers
// have already stripped code fences and located the balanced object span.
type ParseOutput struct {
	Draft     json.RawMessage
	ModelUsed string
}

// DocumentParser abstracts the external AI receipt extraction service.
type DocumentParser interface {
	Parse(ctx context.Context, input ParseInput) (*ParseOutput, error)
}
