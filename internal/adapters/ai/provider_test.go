package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveProvider(t *testing.T) {
	tests := []struct {
		modelID string
		want    ProviderName
	}{
		{"gpt-4o-mini", ProviderOpenAI},
		{"o4-mini", ProviderOpenAI},
		{"grok-3", ProviderGrok},
		{"grok-3-mini", ProviderGrok},
		{"gemini-2.0-flash", ProviderGoogle},
		{"llama-3-70b", ProviderOpenAI}, // unknown prefixes fall through to the OpenAI-compatible path
		{"", ProviderOpenAI},
	}

	for _, tt := range tests {
		t.Run(tt.modelID, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveProvider(tt.modelID))
		})
	}
}

func TestResolveProviderNormalizes(t *testing.T) {
	// Resolution must not care about case or surrounding whitespace, and
	// must be stable under repeated application.
	variants := []string{"GROK-3", "  grok-3  ", "Grok-3\n"}
	for _, v := range variants {
		assert.Equal(t, ProviderGrok, ResolveProvider(v))
		assert.Equal(t, ResolveProvider(v), ResolveProvider(v))
	}

	assert.Equal(t, ProviderGoogle, ResolveProvider("  GEMINI-1.5-PRO"))
}

func TestAllowListDefaultsAndOverrides(t *testing.T) {
	defaults := NewAllowList()
	assert.True(t, defaults.Allows("gpt-4o-mini"))
	assert.True(t, defaults.Allows("grok-3"))
	assert.True(t, defaults.Allows("gemini-2.0-flash"))
	assert.False(t, defaults.Allows("unknown-x"))

	merged := NewAllowList("my-fine-tune", " GPT-4O ")
	assert.True(t, merged.Allows("my-fine-tune"))
	assert.True(t, merged.Allows("MY-FINE-TUNE"))
	// Overrides extend the defaults, they never replace them.
	assert.True(t, merged.Allows("gpt-4o-mini"))
}

func TestAllowListNormalization(t *testing.T) {
	a := NewAllowList()
	assert.True(t, a.Allows("  Gpt-4o-Mini  "))
	assert.False(t, a.Allows(""))
	assert.False(t, a.Allows("   "))
}
