package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// ErrCircuitOpen is returned while the breaker is rejecting calls after repeated failures.
var ErrCircuitOpen = errors.New("model circuit breaker is open")

// GuardOptions configures timeouts, rate limiting and circuit breaking for model calls.
type GuardOptions struct {
	Name              string
	Timeout           time.Duration // per call; zero disables
	RequestsPerMinute int           // zero disables rate limiting
	BreakerTimeout    time.Duration // how long the breaker stays open
	Logger            *zap.Logger
}

// DefaultGuardOptions returns the settings used by the CLI.
func DefaultGuardOptions() GuardOptions {
	return GuardOptions{
		Name:              "gemini",
		Timeout:           120 * time.Second,
		RequestsPerMinute: 60,
		BreakerTimeout:    60 * time.Second,
	}
}

// Guard wraps outbound model calls with a timeout, a token-bucket limiter and a circuit breaker.
// It is safe for concurrent use.
type Guard struct {
	timeout time.Duration
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker
}

// NewGuard builds a Guard from opts.
func NewGuard(opts GuardOptions) *Guard {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.BreakerTimeout <= 0 {
		opts.BreakerTimeout = 60 * time.Second
	}

	g := &Guard{timeout: opts.Timeout}

	if opts.RequestsPerMinute > 0 {
		burst := max(opts.RequestsPerMinute/10, 1)
		g.limiter = rate.NewLimiter(rate.Limit(float64(opts.RequestsPerMinute)/60.0), burst)
	}

	g.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        opts.Name,
		MaxRequests: 1,
		Interval:    10 * time.Second,
		Timeout:     opts.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		IsSuccessful: func(err error) bool {
			// Caller cancellation says nothing about the health of the service.
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("circuit breaker state change",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	return g
}

// Do runs fn under the guard. fn receives a context carrying the per-call timeout.
func (g *Guard) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter: %w", err)
		}
	}

	_, err := g.breaker.Execute(func() (any, error) {
		callCtx := ctx
		if g.timeout > 0 {
			var cancel context.CancelFunc
			callCtx, cancel = context.WithTimeout(ctx, g.timeout)
			defer cancel()
		}
		return nil, fn(callCtx)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: %w", ErrCircuitOpen, err)
	}
	return err
}

// GuardedClient is a Client whose calls go through a Guard.
type GuardedClient struct {
	inner Client
	guard *Guard
}

// NewGuardedClient wraps inner with guard.
func NewGuardedClient(inner Client, guard *Guard) *GuardedClient {
	return &GuardedClient{inner: inner, guard: guard}
}

// GenerateContent implements Client.
func (c *GuardedClient) GenerateContent(ctx context.Context, prompt string, tier ModelTier) (string, error) {
	var out string
	err := c.guard.Do(ctx, func(ctx context.Context) error {
		var err error
		out, err = c.inner.GenerateContent(ctx, prompt, tier)
		return err
	})
	return out, err
}

// GenerateJSON implements Client.
func (c *GuardedClient) GenerateJSON(ctx context.Context, prompt string, tier ModelTier) (string, error) {
	var out string
	err := c.guard.Do(ctx, func(ctx context.Context) error {
		var err error
		out, err = c.inner.GenerateJSON(ctx, prompt, tier)
		return err
	})
	return out, err
}

// GetModel implements Client.
func (c *GuardedClient) GetModel(tier ModelTier) string {
	return c.inner.GetModel(tier)
}

// Close implements Client.
func (c *GuardedClient) Close() error {
	return c.inner.Close()
}

// GuardedEmbedder is an Embedder whose calls go through a Guard.
type GuardedEmbedder struct {
	inner Embedder
	guard *Guard
}

// NewGuardedEmbedder wraps inner with guard.
func NewGuardedEmbedder(inner Embedder, guard *Guard) *GuardedEmbedder {
	return &GuardedEmbedder{inner: inner, guard: guard}
}

// Embed implements Embedder.
func (e *GuardedEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	var out [][]float32
	err := e.guard.Do(ctx, func(ctx context.Context) error {
		var err error
		out, err = e.inner.Embed(ctx, texts)
		return err
	})
	return out, err
}
