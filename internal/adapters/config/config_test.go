package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradingagents/pkg/errors"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "tradingagents", cfg.App.Name)
	assert.Equal(t, "gpt-4o-mini", cfg.AI.DefaultModel)
	assert.Equal(t, 1, cfg.Engine.InvestDebateRounds)
	assert.Equal(t, 1, cfg.Engine.RiskDebateRounds)
	assert.Equal(t, 2, cfg.Engine.RetryAttempts)
	assert.Equal(t, 10*time.Minute, cfg.Engine.DispatchTimeout)
	assert.Equal(t, 90, cfg.Memory.WindowDays)
	assert.False(t, cfg.Postgres.Enabled())
	assert.False(t, cfg.AI.MockMode)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("INVEST_DEBATE_ROUNDS", "3")
	t.Setenv("RISK_DEBATE_ROUNDS", "2")
	t.Setenv("DEFAULT_MODEL", "grok-3")
	t.Setenv("POSTGRES_HOST", "localhost")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.Engine.InvestDebateRounds)
	assert.Equal(t, 2, cfg.Engine.RiskDebateRounds)
	assert.Equal(t, "grok-3", cfg.AI.DefaultModel)
	assert.True(t, cfg.Postgres.Enabled())
	assert.Contains(t, cfg.Postgres.DSN(), "host=localhost")
}

func TestLoadRejectsInvalidRounds(t *testing.T) {
	t.Setenv("INVEST_DEBATE_ROUNDS", "0")

	_, err := Load()
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrConfig))
}

func TestMockDurationFloor(t *testing.T) {
	t.Setenv("MOCK_MODE", "true")
	t.Setenv("MOCK_DURATION", "10ms")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, time.Second, cfg.AI.MockDuration)
}

func TestMemoryWindow(t *testing.T) {
	assert.Equal(t, 90*24*time.Hour, MemoryConfig{WindowDays: 90}.Window())
	assert.Zero(t, MemoryConfig{}.Window())
}
