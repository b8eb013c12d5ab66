package parser_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kvitto/internal/config"
	"kvitto/internal/parser"
	"kvitto/internal/port"
)

type stubParser struct{}

func (s *stubParser) Parse(_ context.Context, _ port.ParseInput) (*port.ParseOutput, error) {
	return &port.ParseOutput{ModelUsed: "stub"}, nil
}

func TestNewParser_RegisteredProvider(t *testing.T) {
	parser.RegisterProvider("test-provider", func(cfg *config.ParserProviderConfig) (port.DocumentParser, error) {
		return &stubParser{}, nil
	})

	p, err := parser.NewParser(&config.ParserProviderConfig{Provider: "test-provider"})
	require.NoError(t, err)
	assert.NotNil(t, p)
}

func TestNewParser_UnknownProvider(t *testing.T) {
	p, err := parser.NewParser(&config.ParserProviderConfig{Provider: "does-not-exist"})
	assert.Nil(t, p)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown extraction provider")
}
