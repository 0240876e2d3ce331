package ai

import (
	"context"
	"time"

	"tradingagents/internal/adapters/ai/ratelimit"
	"tradingagents/internal/metrics"
	"tradingagents/pkg/errors"
	"tradingagents/pkg/logger"
)

// DispatchOptions tune a single dispatch. Zero values fall back to the
// dispatcher defaults; Temperature is a pointer so an explicit zero
// (deterministic sampling) is distinguishable from unset.
type DispatchOptions struct {
	Temperature *float64
	MaxTokens   int
	Timeout     time.Duration
}

// UsageRecord captures token accounting for one dispatch.
type UsageRecord struct {
	Provider  string
	Model     string
	Usage     Usage
	Duration  time.Duration
	CreatedAt time.Time
}

// UsageRecorder persists dispatch usage. Implementations must be safe for
// concurrent use; recording failures never fail the dispatch.
type UsageRecorder interface {
	RecordUsage(ctx context.Context, rec UsageRecord) error
}

// Dispatcher routes a (model, messages) call to the right provider backend.
// It is stateless per call and safe for concurrent use across runs.
type Dispatcher struct {
	clients  map[ProviderName]ChatClient
	limiters map[ProviderName]ratelimit.Limiter
	allow    *AllowList
	usage    UsageRecorder

	defaultTemperature float64
	defaultMaxTokens   int
	defaultTimeout     time.Duration

	log *logger.Logger
}

// DispatcherConfig bundles the dispatcher construction inputs.
type DispatcherConfig struct {
	Clients  map[ProviderName]ChatClient
	Limiters map[ProviderName]ratelimit.Limiter
	Allow    *AllowList
	Usage    UsageRecorder

	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
}

// NewDispatcher creates a dispatcher over the given provider clients.
func NewDispatcher(cfg DispatcherConfig) *Dispatcher {
	if cfg.Allow == nil {
		cfg.Allow = NewAllowList()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Minute
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 4096
	}
	return &Dispatcher{
		clients:            cfg.Clients,
		limiters:           cfg.Limiters,
		allow:              cfg.Allow,
		usage:              cfg.Usage,
		defaultTemperature: cfg.Temperature,
		defaultMaxTokens:   cfg.MaxTokens,
		defaultTimeout:     cfg.Timeout,
		log:                logger.Get().With("component", "dispatcher"),
	}
}

// Allows reports whether the model passes the merged allow-list.
func (d *Dispatcher) Allows(modelID string) bool {
	return d.allow.Allows(modelID)
}

// Dispatch resolves the provider for modelID, enforces the allow-list, and
// returns the normalized completion text. The allow-list and credential
// checks happen before any network I/O.
func (d *Dispatcher) Dispatch(ctx context.Context, modelID string, messages []Message, opts DispatchOptions) (string, error) {
	if !d.allow.Allows(modelID) {
		return "", errors.Wrapf(errors.ErrConfig, "model %q is not in the allow-list", modelID)
	}

	provider := ResolveProvider(modelID)
	client, ok := d.clients[provider]
	if !ok {
		return "", errors.Wrapf(errors.ErrConfig, "no credentials configured for provider %s", provider)
	}

	if limiter, ok := d.limiters[provider]; ok {
		if err := limiter.Wait(ctx); err != nil {
			return "", err
		}
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = d.defaultTimeout
	}
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req := CompletionRequest{
		Model:       modelID,
		Messages:    messages,
		Temperature: d.defaultTemperature,
		MaxTokens:   opts.MaxTokens,
	}
	if opts.Temperature != nil {
		req.Temperature = *opts.Temperature
	}
	if req.MaxTokens == 0 {
		req.MaxTokens = d.defaultMaxTokens
	}

	start := time.Now()
	completion, err := client.Complete(callCtx, req)
	elapsed := time.Since(start)

	metrics.DispatchLatency.WithLabelValues(provider.String(), modelID).Observe(elapsed.Seconds())
	if err != nil {
		// A deadline hit on the per-call timeout is retryable; cancellation
		// of the surrounding run is not.
		if ctx.Err() == nil && errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			err = errors.Wrapf(errors.ErrTransient, "%s dispatch timed out after %s", provider, timeout)
		}
		metrics.Dispatches.WithLabelValues(provider.String(), string(errors.KindOf(err))).Inc()
		return "", err
	}
	metrics.Dispatches.WithLabelValues(provider.String(), "success").Inc()
	metrics.DispatchTokens.WithLabelValues(provider.String(), modelID, "input").Add(float64(completion.Usage.PromptTokens))
	metrics.DispatchTokens.WithLabelValues(provider.String(), modelID, "output").Add(float64(completion.Usage.CompletionTokens))

	d.recordUsage(ctx, provider, modelID, completion.Usage, elapsed)

	return completion.Text, nil
}

func (d *Dispatcher) recordUsage(ctx context.Context, provider ProviderName, modelID string, usage Usage, elapsed time.Duration) {
	if d.usage == nil || usage.TotalTokens == 0 {
		return
	}
	rec := UsageRecord{
		Provider:  provider.String(),
		Model:     modelID,
		Usage:     usage,
		Duration:  elapsed,
		CreatedAt: time.Now().UTC(),
	}
	if err := d.usage.RecordUsage(ctx, rec); err != nil {
		d.log.Warnf("usage recording failed for %s: %v", modelID, err)
	}
}
