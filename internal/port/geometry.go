package port

import "context"

// ProcessResult is the response of the document-geometry microservice.
type ProcessResult struct {
	Success       bool              `json:"success"`
	Processed     bool              `json:"processed"`
	ProcessedPath string            `json:"processed_path"`
	Format        string            `json:"format"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

// GeometryService abstracts the optional document-geometry microservice.
// Its absence must never break the pipeline; callers fall back to the
// in-process normalizer on any error.
type GeometryService interface {
	ProcessReceipt(ctx context.Context, fileName string) (*ProcessResult, error)
	Healthy(ctx context.Context) bool
}
