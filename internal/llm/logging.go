package llm

import (
	"context"
	"time"

	"github.com/vytor/studyflash/internal/logger"
)

type loggingProvider struct {
	inner Provider
}

// WithLogging logs every request with its latency and token usage.
func WithLogging(p Provider) Provider {
	return &loggingProvider{inner: p}
}

func (l *loggingProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	log := logger.FromContext(ctx).WithPrefix("llm").WithField("model", l.inner.ModelID())
	schema := ""
	if req.Schema != nil {
		schema = req.Schema.Name
	}
	log.Debug("generate: schema=%q messages=%d max_tokens=%d", schema, len(req.Messages), req.MaxTokens)

	start := time.Now()
	resp, err := l.inner.Generate(ctx, req)
	elapsed := time.Since(start)

	if err != nil {
		log.Warn("generate failed after %v: %v", elapsed, err)
		return nil, err
	}
	log.Info("generate ok in %v (in=%d out=%d tokens, stop=%s)",
		elapsed, resp.Usage.InputTokens, resp.Usage.OutputTokens, resp.StopReason)
	return resp, nil
}

func (l *loggingProvider) ModelID() string { return l.inner.ModelID() }

type timeoutProvider struct {
	inner   Provider
	timeout time.Duration
}

// WithTimeout bounds each Generate call, retries included when applied
// outermost.
func WithTimeout(p Provider, d time.Duration) Provider {
	if d <= 0 {
		return p
	}
	return &timeoutProvider{inner: p, timeout: d}
}

func (t *timeoutProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.inner.Generate(ctx, req)
}

func (t *timeoutProvider) ModelID() string { return t.inner.ModelID() }
