package noop

import (
	"context"
	"time"

	"kvitto/internal/port"
)

type noopCache struct{}

// NewNoopCache creates a Cache that stores nothing. Every lookup is a miss.
func NewNoopCache() port.Cache {
	return &noopCache{}
}

func (c *noopCache) Get(_ context.Context, _ string) ([]byte, bool, error) {
	return nil, false, nil
}

func (c *noopCache) Set(_ context.Context, _ string, _ []byte, _ time.Duration) error {
	return nil
}
