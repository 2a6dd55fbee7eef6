package lookup

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"macrotrack"
)

// scriptedGenerator replays responses in order, repeating the last one.
type scriptedGenerator struct {
	mu        sync.Mutex
	responses []scriptedResponse
	prompts   []string
}

type scriptedResponse struct {
	text string
	err  error
}

func (g *scriptedGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	i := len(g.prompts)
	g.prompts = append(g.prompts, prompt)
	if i >= len(g.responses) {
		i = len(g.responses) - 1
	}
	r := g.responses[i]
	return r.text, r.err
}

func (g *scriptedGenerator) calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.prompts)
}

// memoryLookupLogger keeps logged searches for inspection.
type memoryLookupLogger struct {
	searches []macrotrack.SearchLog
	err      error
}

func (l *memoryLookupLogger) LogSearch(s macrotrack.SearchLog) error {
	l.searches = append(l.searches, s)
	return l.err
}

const riceJSON = `Here you go: [{"name": "Rice, white, cooked", "calories": 130, "protein": 2.7, "fats": 0.3, "carbs": 28}]`

func newTestClient(t *testing.T, gen Generator, opts ClientOpts) (*Client, *recordingSleeper, *memoryLookupLogger) {
	t.Helper()
	sleeper := &recordingSleeper{}
	logger := &memoryLookupLogger{}
	opts.Generator = gen
	opts.Sleep = sleeper.Sleep
	opts.Logger = logger
	c, err := NewClient(opts)
	require.NoError(t, err)
	return c, sleeper, logger
}

func TestNewClient(t *testing.T) {
	_, err := NewClient(ClientOpts{})
	require.Error(t, err)

	c, err := NewClient(ClientOpts{Generator: &scriptedGenerator{}})
	require.NoError(t, err)
	assert.Equal(t, time.Second, c.preflight)
	assert.Equal(t, defaultMaxResults, c.maxResults)
	assert.Equal(t, defaultMaxAttempts, c.policy.MaxAttempts)

	c, err = NewClient(ClientOpts{Generator: &scriptedGenerator{}, PreflightDelay: -1, Policy: NoRetry()})
	require.NoError(t, err)
	assert.Zero(t, c.preflight)
	assert.Equal(t, 1, c.policy.MaxAttempts)
}

func TestClient_Search(t *testing.T) {
	t.Run("returns parsed facts", func(t *testing.T) {
		gen := &scriptedGenerator{responses: []scriptedResponse{{text: riceJSON}}}
		c, sleeper, logger := newTestClient(t, gen, ClientOpts{})

		facts, err := c.Search(context.Background(), "  rice ")
		require.NoError(t, err)
		require.Len(t, facts, 1)
		assert.Equal(t, "Rice, white, cooked", facts[0].Name)
		assert.Equal(t, 130.0, facts[0].Calories)

		assert.Equal(t, 1, gen.calls())
		assert.Contains(t, gen.prompts[0], `"rice"`)
		assert.Equal(t, []time.Duration{time.Second}, sleeper.delays)

		require.Len(t, logger.searches, 1)
		assert.Equal(t, "rice", logger.searches[0].Term)
		assert.Equal(t, 1, logger.searches[0].Results)
		assert.NotEmpty(t, logger.searches[0].RequestID)
		assert.Empty(t, logger.searches[0].Error)
	})

	t.Run("persistent throttling gives up with busy", func(t *testing.T) {
		gen := &scriptedGenerator{responses: []scriptedResponse{
			{err: &StatusError{Code: 429, Message: "Resource has been exhausted"}},
		}}
		c, sleeper, logger := newTestClient(t, gen, ClientOpts{})

		facts, err := c.Search(context.Background(), "rice")
		assert.Nil(t, facts)
		assert.ErrorIs(t, err, ErrBusy)
		assert.False(t, errors.Is(err, ErrThrottled))
		assert.Equal(t, 3, gen.calls())

		assert.Equal(t, []time.Duration{time.Second, 2 * time.Second, 4 * time.Second}, sleeper.delays)
		for i := 1; i < len(sleeper.delays); i++ {
			assert.GreaterOrEqual(t, sleeper.delays[i], sleeper.delays[i-1])
		}

		require.Len(t, logger.searches, 1)
		attempts := logger.searches[0].Attempts
		require.Len(t, attempts, 3)
		assert.True(t, attempts[0].Retrying)
		assert.True(t, attempts[1].Retrying)
		assert.False(t, attempts[2].Retrying)
		assert.Equal(t, 3, attempts[2].Attempt)
		assert.Contains(t, logger.searches[0].Error, "busy")
	})

	t.Run("recovers after throttling", func(t *testing.T) {
		gen := &scriptedGenerator{responses: []scriptedResponse{
			{err: &StatusError{Code: 503}},
			{text: riceJSON},
		}}
		c, sleeper, _ := newTestClient(t, gen, ClientOpts{})

		facts, err := c.Search(context.Background(), "rice")
		require.NoError(t, err)
		assert.Len(t, facts, 1)
		assert.Equal(t, 2, gen.calls())
		assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, sleeper.delays)
	})

	t.Run("transport failures are retried", func(t *testing.T) {
		gen := &scriptedGenerator{responses: []scriptedResponse{
			{err: fmt.Errorf("%w: connection reset by peer", ErrTransport)},
			{err: fmt.Errorf("%w: connection reset by peer", ErrTransport)},
			{text: riceJSON},
		}}
		c, _, _ := newTestClient(t, gen, ClientOpts{})

		_, err := c.Search(context.Background(), "rice")
		require.NoError(t, err)
		assert.Equal(t, 3, gen.calls())
	})

	t.Run("other status errors are not retried", func(t *testing.T) {
		gen := &scriptedGenerator{responses: []scriptedResponse{
			{err: &StatusError{Code: 400, Message: "API key not valid"}},
		}}
		c, sleeper, _ := newTestClient(t, gen, ClientOpts{})

		_, err := c.Search(context.Background(), "rice")
		var statusErr *StatusError
		require.ErrorAs(t, err, &statusErr)
		assert.Equal(t, 400, statusErr.Code)
		assert.Equal(t, 1, gen.calls())
		assert.Equal(t, []time.Duration{time.Second}, sleeper.delays)
	})

	t.Run("prose without brackets", func(t *testing.T) {
		gen := &scriptedGenerator{responses: []scriptedResponse{{text: "I could not find that food."}}}
		c, _, _ := newTestClient(t, gen, ClientOpts{})

		facts, err := c.Search(context.Background(), "unobtainium")
		assert.Nil(t, facts)
		assert.ErrorIs(t, err, ErrNoStructuredData)
		assert.Equal(t, 1, gen.calls())
	})

	t.Run("malformed json is not retried", func(t *testing.T) {
		gen := &scriptedGenerator{responses: []scriptedResponse{{text: `[{"name": "rice", calories}]`}}}
		c, _, _ := newTestClient(t, gen, ClientOpts{})

		_, err := c.Search(context.Background(), "rice")
		assert.ErrorIs(t, err, ErrMalformedResponse)
		assert.Equal(t, 1, gen.calls())
	})

	t.Run("results are capped", func(t *testing.T) {
		text := `[{"name":"a"},{"name":"b"},{"name":"c"},{"name":"d"}]`
		gen := &scriptedGenerator{responses: []scriptedResponse{{text: text}}}
		c, _, _ := newTestClient(t, gen, ClientOpts{MaxResults: 2})

		facts, err := c.Search(context.Background(), "rice")
		require.NoError(t, err)
		require.Len(t, facts, 2)
		assert.Equal(t, "a", facts[0].Name)
		assert.Equal(t, "b", facts[1].Name)
		assert.Contains(t, gen.prompts[0], "up to 2 relevant")
	})

	t.Run("empty term", func(t *testing.T) {
		gen := &scriptedGenerator{responses: []scriptedResponse{{text: riceJSON}}}
		c, sleeper, logger := newTestClient(t, gen, ClientOpts{})

		_, err := c.Search(context.Background(), "   ")
		assert.ErrorIs(t, err, ErrEmptyTerm)
		assert.Zero(t, gen.calls())
		assert.Empty(t, sleeper.delays)
		assert.Empty(t, logger.searches)
	})

	t.Run("cancelled context stops before calling the model", func(t *testing.T) {
		gen := &scriptedGenerator{responses: []scriptedResponse{{text: riceJSON}}}
		c, _, _ := newTestClient(t, gen, ClientOpts{})

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := c.Search(ctx, "rice")
		assert.ErrorIs(t, err, context.Canceled)
		assert.Zero(t, gen.calls())
	})

	t.Run("logger failure does not fail the search", func(t *testing.T) {
		gen := &scriptedGenerator{responses: []scriptedResponse{{text: riceJSON}}}
		sleeper := &recordingSleeper{}
		c, err := NewClient(ClientOpts{
			Generator: gen,
			Sleep:     sleeper.Sleep,
			Logger:    &memoryLookupLogger{err: errors.New("disk full")},
		})
		require.NoError(t, err)

		facts, err := c.Search(context.Background(), "rice")
		require.NoError(t, err)
		assert.Len(t, facts, 1)
	})
}
