package parser_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"kvitto/internal/parser"
	"kvitto/internal/port"
	"kvitto/mocks"
)

const retryBudget = 8192

func fallbackOutput(model string) *port.ParseOutput {
	return &port.ParseOutput{
		Draft:     json.RawMessage(`{"merchant_name":"Test Market","items":[]}`),
		ModelUsed: model,
	}
}

func testInput() port.ParseInput {
	return port.ParseInput{ImageBytes: []byte("test"), ContentType: "image/jpeg", Locale: "NL"}
}

func TestFallbackParser_FirstSucceeds(t *testing.T) {
	p1 := new(mocks.MockDocumentParser)
	p2 := new(mocks.MockDocumentParser)

	input := testInput()
	p1.On("Parse", mock.Anything, input).Return(fallbackOutput("claude"), nil)

	fp := parser.NewFallbackParser(
		[]port.DocumentParser{p1, p2},
		[]string{"claude", "openai"},
		retryBudget,
	)

	result, err := fp.Parse(context.Background(), input)

	assert.NoError(t, err)
	assert.NotNil(t, result)
	assert.Equal(t, "claude", result.ModelUsed)
	p2.AssertNotCalled(t, "Parse", mock.Anything, mock.Anything)
}

func TestFallbackParser_FirstFails_SecondSucceeds(t *testing.T) {
	p1 := new(mocks.MockDocumentParser)
	p2 := new(mocks.MockDocumentParser)

	input := testInput()
	p1.On("Parse", mock.Anything, input).Return(nil, errors.New("generic error"))
	p2.On("Parse", mock.Anything, input).Return(fallbackOutput("openai"), nil)

	fp := parser.NewFallbackParser(
		[]port.DocumentParser{p1, p2},
		[]string{"claude", "openai"},
		retryBudget,
	)

	result, err := fp.Parse(context.Background(), input)

	assert.NoError(t, err)
	assert.NotNil(t, result)
	assert.Equal(t, "openai", result.ModelUsed)
}

func TestFallbackParser_TruncatedRetriedWithLargerBudget(t *testing.T) {
	p1 := new(mocks.MockDocumentParser)

	input := testInput()
	enlarged := input
	enlarged.MaxTokens = retryBudget

	p1.On("Parse", mock.Anything, input).
		Return(nil, &parser.TruncatedError{Provider: "claude", MaxTokens: 4096}).Once()
	p1.On("Parse", mock.Anything, enlarged).
		Return(fallbackOutput("claude"), nil).Once()

	fp := parser.NewFallbackParser(
		[]port.DocumentParser{p1},
		[]string{"claude"},
		retryBudget,
	)

	result, err := fp.Parse(context.Background(), input)

	assert.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, "claude", result.ModelUsed)
	p1.AssertNumberOfCalls(t, "Parse", 2)
}

func TestFallbackParser_MalformedRetriedThenSecondary(t *testing.T) {
	p1 := new(mocks.MockDocumentParser)
	p2 := new(mocks.MockDocumentParser)

	input := testInput()
	enlarged := input
	enlarged.MaxTokens = retryBudget

	malformed := parser.ErrMalformedOutput
	p1.On("Parse", mock.Anything, input).Return(nil, malformed).Once()
	p1.On("Parse", mock.Anything, enlarged).Return(nil, malformed).Once()
	p2.On("Parse", mock.Anything, input).Return(fallbackOutput("openai"), nil).Once()

	fp := parser.NewFallbackParser(
		[]port.DocumentParser{p1, p2},
		[]string{"claude", "openai"},
		retryBudget,
	)

	result, err := fp.Parse(context.Background(), input)

	assert.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, "openai", result.ModelUsed)
	p1.AssertNumberOfCalls(t, "Parse", 2)
}

func TestFallbackParser_NoBudgetRetryForGenericError(t *testing.T) {
	p1 := new(mocks.MockDocumentParser)
	p2 := new(mocks.MockDocumentParser)

	input := testInput()
	p1.On("Parse", mock.Anything, input).Return(nil, errors.New("network down")).Once()
	p2.On("Parse", mock.Anything, input).Return(fallbackOutput("openai"), nil).Once()

	fp := parser.NewFallbackParser(
		[]port.DocumentParser{p1, p2},
		[]string{"claude", "openai"},
		retryBudget,
	)

	_, err := fp.Parse(context.Background(), input)

	assert.NoError(t, err)
	p1.AssertNumberOfCalls(t, "Parse", 1)
}

func TestFallbackParser_FirstRateLimited_SecondSucceeds(t *testing.T) {
	p1 := new(mocks.MockDocumentParser)
	p2 := new(mocks.MockDocumentParser)

	input := testInput()
	p1.On("Parse", mock.Anything, input).Return(nil, parser.NewRateLimitError("claude", errors.New("429"), 60))
	p2.On("Parse", mock.Anything, input).Return(fallbackOutput("openai"), nil)

	fp := parser.NewFallbackParser(
		[]port.DocumentParser{p1, p2},
		[]string{"claude", "openai"},
		retryBudget,
	)

	result, err := fp.Parse(context.Background(), input)

	assert.NoError(t, err)
	assert.NotNil(t, result)
	assert.Equal(t, "openai", result.ModelUsed)
}

func TestFallbackParser_AllRateLimited(t *testing.T) {
	p1 := new(mocks.MockDocumentParser)
	p2 := new(mocks.MockDocumentParser)

	input := testInput()
	p1.On("Parse", mock.Anything, input).Return(nil, parser.NewRateLimitError("claude", errors.New("429"), 60))
	p2.On("Parse", mock.Anything, input).Return(nil, parser.NewRateLimitError("openai", errors.New("429"), 30))

	fp := parser.NewFallbackParser(
		[]port.DocumentParser{p1, p2},
		[]string{"claude", "openai"},
		retryBudget,
	)

	result, err := fp.Parse(context.Background(), input)

	assert.Nil(t, result)
	assert.Error(t, err)

	var rlErr *parser.RateLimitError
	require.True(t, errors.As(err, &rlErr))
	assert.Equal(t, "all", rlErr.Provider)
}

func TestFallbackParser_AllFail_NonRateLimit(t *testing.T) {
	p1 := new(mocks.MockDocumentParser)
	p2 := new(mocks.MockDocumentParser)

	input := testInput()
	p1.On("Parse", mock.Anything, input).Return(nil, errors.New("error 1"))
	p2.On("Parse", mock.Anything, input).Return(nil, errors.New("error 2"))

	fp := parser.NewFallbackParser(
		[]port.DocumentParser{p1, p2},
		[]string{"claude", "openai"},
		retryBudget,
	)

	result, err := fp.Parse(context.Background(), input)

	assert.Nil(t, result)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "all parsers failed")

	var rlErr *parser.RateLimitError
	assert.False(t, errors.As(err, &rlErr))
}

func TestFallbackParser_CircuitAutoCloses(t *testing.T) {
	p1 := new(mocks.MockDocumentParser)
	p2 := new(mocks.MockDocumentParser)

	input := testInput()

	p1.On("Parse", mock.Anything, input).Return(nil, parser.NewRateLimitError("claude", errors.New("429"), 1)).Once()
	p2.On("Parse", mock.Anything, input).Return(fallbackOutput("openai"), nil).Once()

	fp := parser.NewFallbackParser(
		[]port.DocumentParser{p1, p2},
		[]string{"claude", "openai"},
		retryBudget,
	)

	result, err := fp.Parse(context.Background(), input)
	assert.NoError(t, err)
	assert.Equal(t, "openai", result.ModelUsed)

	// Wait for circuit to auto-close
	time.Sleep(1100 * time.Millisecond)

	p1.On("Parse", mock.Anything, input).Return(fallbackOutput("claude"), nil).Once()

	result, err = fp.Parse(context.Background(), input)
	assert.NoError(t, err)
	assert.Equal(t, "claude", result.ModelUsed)
}

func TestFallbackParser_SkipsOpenCircuit(t *testing.T) {
	p1 := new(mocks.MockDocumentParser)
	p2 := new(mocks.MockDocumentParser)

	input := testInput()

	p1.On("Parse", mock.Anything, input).Return(nil, parser.NewRateLimitError("claude", errors.New("429"), 60)).Once()
	p2.On("Parse", mock.Anything, input).Return(fallbackOutput("openai"), nil)

	fp := parser.NewFallbackParser(
		[]port.DocumentParser{p1, p2},
		[]string{"claude", "openai"},
		retryBudget,
	)

	result, err := fp.Parse(context.Background(), input)
	assert.NoError(t, err)
	assert.Equal(t, "openai", result.ModelUsed)

	result, err = fp.Parse(context.Background(), input)
	assert.NoError(t, err)
	assert.Equal(t, "openai", result.ModelUsed)

	p1.AssertNumberOfCalls(t, "Parse", 1)
}

func TestFallbackParser_ConcurrentSafety(t *testing.T) {
	p1 := new(mocks.MockDocumentParser)
	p2 := new(mocks.MockDocumentParser)

	input := testInput()
	p1.On("Parse", mock.Anything, input).Return(nil, parser.NewRateLimitError("claude", errors.New("429"), 5)).Maybe()
	p2.On("Parse", mock.Anything, input).Return(fallbackOutput("openai"), nil).Maybe()

	fp := parser.NewFallbackParser(
		[]port.DocumentParser{p1, p2},
		[]string{"claude", "openai"},
		retryBudget,
	)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := fp.Parse(context.Background(), input)
			assert.NoError(t, err)
			assert.NotNil(t, result)
		}()
	}
	wg.Wait()
}
