package ai

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"tradingagents/internal/adapters/ai/ratelimit"
	"tradingagents/internal/adapters/config"
	"tradingagents/pkg/errors"
)

// BuildDispatcher wires provider clients from configuration.
// redisClient is optional: when present, rate limiting is coordinated across
// processes; otherwise each process limits locally.
func BuildDispatcher(ctx context.Context, cfg config.AIConfig, engineCfg config.EngineConfig, redisClient *redis.Client, usage UsageRecorder) (*Dispatcher, error) {
	clients := make(map[ProviderName]ChatClient)
	limiters := make(map[ProviderName]ratelimit.Limiter)

	if cfg.MockMode {
		mock := &MockClient{Fixture: cfg.MockFixture, Delay: cfg.MockDuration}
		for _, p := range []ProviderName{ProviderOpenAI, ProviderGrok, ProviderGoogle} {
			clients[p] = mock
		}
		return NewDispatcher(DispatcherConfig{
			Clients:     clients,
			Allow:       NewAllowList(cfg.AllowedModels...),
			Usage:       usage,
			Temperature: engineCfg.Temperature,
			MaxTokens:   engineCfg.MaxTokens,
			Timeout:     engineCfg.DispatchTimeout,
		}), nil
	}

	timeout := engineCfg.DispatchTimeout
	if timeout <= 0 {
		timeout = 10 * time.Minute
	}

	if cfg.OpenAIKey != "" {
		clients[ProviderOpenAI] = NewOpenAICompatClient(ProviderOpenAI, cfg.OpenAIKey, cfg.OpenAIBaseURL, timeout)
		limiters[ProviderOpenAI] = newLimiter(ProviderOpenAI, cfg.RateLimitPerMinute, redisClient)
	}

	if cfg.GrokKey != "" {
		clients[ProviderGrok] = NewOpenAICompatClient(ProviderGrok, cfg.GrokKey, cfg.GrokBaseURL, timeout)
		limiters[ProviderGrok] = newLimiter(ProviderGrok, cfg.RateLimitPerMinute, redisClient)
	}

	if cfg.GeminiKey != "" {
		gemini, err := NewGeminiClient(ctx, cfg.GeminiKey)
		if err != nil {
			return nil, err
		}
		clients[ProviderGoogle] = gemini
		limiters[ProviderGoogle] = newLimiter(ProviderGoogle, cfg.RateLimitPerMinute, redisClient)
	}

	if len(clients) == 0 {
		return nil, errors.Wrap(errors.ErrConfig, "no model provider credentials configured")
	}

	return NewDispatcher(DispatcherConfig{
		Clients:     clients,
		Limiters:    limiters,
		Allow:       NewAllowList(cfg.AllowedModels...),
		Usage:       usage,
		Temperature: engineCfg.Temperature,
		MaxTokens:   engineCfg.MaxTokens,
		Timeout:     timeout,
	}), nil
}

func newLimiter(provider ProviderName, reqPerMinute int, redisClient *redis.Client) ratelimit.Limiter {
	if reqPerMinute <= 0 {
		return ratelimit.NoopLimiter{}
	}
	if redisClient != nil {
		return ratelimit.NewRedisLimiter(redisClient, provider.String(), reqPerMinute)
	}
	return ratelimit.NewLocalLimiter(provider.String(), reqPerMinute)
}
