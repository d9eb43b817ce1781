package llm

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

type rateLimitedProvider struct {
	inner   Provider
	limiter *rate.Limiter
}

// WithRateLimit spaces outgoing requests to at most perMinute per minute,
// blocking until a token is free or ctx ends. perMinute <= 0 disables it.
func WithRateLimit(p Provider, perMinute, burst int) Provider {
	if perMinute <= 0 {
		return p
	}
	if burst <= 0 {
		burst = 1
	}
	limit := rate.Every(time.Minute / time.Duration(perMinute))
	return &rateLimitedProvider{inner: p, limiter: rate.NewLimiter(limit, burst)}
}

func (p *rateLimitedProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, &ErrRateLimit{Err: err}
	}
	return p.inner.Generate(ctx, req)
}

func (p *rateLimitedProvider) ModelID() string { return p.inner.ModelID() }
