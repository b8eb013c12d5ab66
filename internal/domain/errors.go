package domain

import (
	"errors"
	"fmt"
)

var (
	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrFileTooLarge        = errors.New("file too large")
	ErrEmptyImage          = errors.New("empty image")
	ErrImageDecode         = errors.New("image decode failed")
	ErrExtractionFailed    = errors.New("extraction failed")
	ErrInvalidDraft        = errors.New("invalid draft payload")
)

// ExtractionError is the single typed failure the pipeline surfaces after all
// retries and fallbacks are exhausted. It wraps the last underlying error.
type ExtractionError struct {
	Stage   string
	Message string
	Err     error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extraction failed at %s: %s", e.Stage, e.Message)
}

func (e *ExtractionError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrExtractionFailed
}

// NewExtractionError builds an ExtractionError for a pipeline stage.
func NewExtractionError(stage, message string, err error) *ExtractionError {
	return &ExtractionError{Stage: stage, Message: message, Err: err}
}
