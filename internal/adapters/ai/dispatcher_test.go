package ai

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradingagents/internal/adapters/config"
	"tradingagents/pkg/errors"
)

type captureUsage struct {
	mu      sync.Mutex
	records []UsageRecord
}

func (c *captureUsage) RecordUsage(_ context.Context, rec UsageRecord) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.records = append(c.records, rec)
	return nil
}

func mockAIConfig() config.AIConfig {
	return config.AIConfig{
		MockMode:     true,
		MockDuration: 0, // below the floor, so the mock responds immediately
		DefaultModel: "gpt-4o-mini",
	}
}

func TestBuildDispatcherMockMode(t *testing.T) {
	usage := &captureUsage{}
	d, err := BuildDispatcher(context.Background(), mockAIConfig(), config.EngineConfig{}, nil, usage)
	require.NoError(t, err)

	text, err := d.Dispatch(context.Background(), "gpt-4o-mini",
		[]Message{System("You are a trading agent."), User("decide")}, DispatchOptions{})
	require.NoError(t, err)
	assert.Contains(t, text, "FINAL TRANSACTION PROPOSAL: **BUY**")

	require.Len(t, usage.records, 1)
	assert.Equal(t, "openai", usage.records[0].Provider)
	assert.Equal(t, 192, usage.records[0].Usage.TotalTokens)
}

func TestDispatchRejectsUnlistedModel(t *testing.T) {
	d, err := BuildDispatcher(context.Background(), mockAIConfig(), config.EngineConfig{}, nil, nil)
	require.NoError(t, err)

	assert.False(t, d.Allows("unknown-x"))

	_, err = d.Dispatch(context.Background(), "unknown-x", []Message{User("hi")}, DispatchOptions{})
	require.Error(t, err)
	assert.Equal(t, errors.KindConfig, errors.KindOf(err))
}

func TestDispatchRoutesByModelPrefix(t *testing.T) {
	usage := &captureUsage{}
	d, err := BuildDispatcher(context.Background(), mockAIConfig(), config.EngineConfig{}, nil, usage)
	require.NoError(t, err)

	_, err = d.Dispatch(context.Background(), "grok-3", []Message{User("hi")}, DispatchOptions{})
	require.NoError(t, err)
	_, err = d.Dispatch(context.Background(), "gemini-2.0-flash", []Message{User("hi")}, DispatchOptions{})
	require.NoError(t, err)

	require.Len(t, usage.records, 2)
	assert.Equal(t, "grok", usage.records[0].Provider)
	assert.Equal(t, "google", usage.records[1].Provider)
}

type captureClient struct {
	last CompletionRequest
}

func (c *captureClient) Complete(_ context.Context, req CompletionRequest) (*Completion, error) {
	c.last = req
	return &Completion{Text: "ok"}, nil
}

func TestDispatchTemperatureOverrides(t *testing.T) {
	client := &captureClient{}
	d := NewDispatcher(DispatcherConfig{
		Clients:     map[ProviderName]ChatClient{ProviderOpenAI: client},
		Temperature: 0.7,
	})

	_, err := d.Dispatch(context.Background(), "gpt-4o-mini", []Message{User("hi")}, DispatchOptions{})
	require.NoError(t, err)
	assert.Equal(t, 0.7, client.last.Temperature)

	zero := 0.0
	_, err = d.Dispatch(context.Background(), "gpt-4o-mini", []Message{User("hi")}, DispatchOptions{Temperature: &zero})
	require.NoError(t, err)
	assert.Equal(t, 0.0, client.last.Temperature)
}

func TestBuildDispatcherRequiresCredentials(t *testing.T) {
	_, err := BuildDispatcher(context.Background(), config.AIConfig{}, config.EngineConfig{}, nil, nil)
	require.Error(t, err)
	assert.Equal(t, errors.KindConfig, errors.KindOf(err))
}

func TestMockClientFixtureOverride(t *testing.T) {
	m := &MockClient{Fixture: "canned response"}
	completion, err := m.Complete(context.Background(), CompletionRequest{
		Messages: []Message{System("You are a bull researcher."), User("argue")},
	})
	require.NoError(t, err)
	assert.Equal(t, "canned response", completion.Text)
}

func TestMockClientRoleFixtures(t *testing.T) {
	m := &MockClient{}

	tests := []struct {
		system string
		want   string
	}{
		{"You are the portfolio manager and risk management judge.", "FINAL TRANSACTION PROPOSAL: **BUY**"},
		{"You are the bull researcher advocating", "bull"},
		{"You are a market researcher specializing", "market report"},
		{"Completely unrelated role.", "no notable signal"},
	}

	for _, tt := range tests {
		completion, err := m.Complete(context.Background(), CompletionRequest{
			Messages: []Message{System(tt.system), User("go")},
		})
		require.NoError(t, err)
		assert.Contains(t, completion.Text, tt.want)
	}
}

func TestMockClientDelayHonorsCancellation(t *testing.T) {
	m := &MockClient{Delay: 5 * time.Second}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := m.Complete(ctx, CompletionRequest{Messages: []Message{User("hi")}})
	require.Error(t, err)
	assert.Less(t, time.Since(start), time.Second)
}
