package llm

import (
	"context"
	"errors"
	"fmt"
)

// ErrDisabled is returned by NewProvider when no provider is configured.
var ErrDisabled = errors.New("llm provider not configured")

// NewProvider builds the configured provider wrapped as
// timeout -> rate limit -> retry -> logging -> provider.
func NewProvider(ctx context.Context, cfg Config) (Provider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var (
		base Provider
		err  error
	)
	switch cfg.Provider {
	case ProviderNone:
		return nil, ErrDisabled
	case ProviderMock:
		base = NewMockProvider()
	case ProviderAnthropic:
		base, err = NewAnthropicProvider(cfg.Anthropic)
	case ProviderOpenAI:
		base, err = NewOpenAIProvider(cfg.OpenAI)
	case ProviderGemini:
		base, err = NewGeminiProvider(ctx, cfg.Gemini)
	}
	if err != nil {
		return nil, fmt.Errorf("init %s provider: %w", cfg.Provider, err)
	}

	p := WithLogging(base)
	p = WithRetry(p, cfg.Retry)
	p = WithRateLimit(p, cfg.RequestsPerMinute, 1)
	p = WithTimeout(p, cfg.Timeout)
	return p, nil
}
