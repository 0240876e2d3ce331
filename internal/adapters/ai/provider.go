package ai

import "strings"

// ProviderName identifies a model back-end. The set is closed: resolution
// always lands on exactly one of these.
type ProviderName string

const (
	ProviderOpenAI ProviderName = "openai"
	ProviderGrok   ProviderName = "grok"
	ProviderGoogle ProviderName = "google"
)

// String returns the provider name.
func (p ProviderName) String() string {
	return string(p)
}

// ResolveProvider maps a model identifier to its provider. Matching is
// case-insensitive and ignores surrounding whitespace: models starting with
// "grok" go to x.ai, models starting with "gemini" go to Google, everything
// else goes to the OpenAI-compatible backend.
func ResolveProvider(modelID string) ProviderName {
	id := strings.ToLower(strings.TrimSpace(modelID))
	switch {
	case strings.HasPrefix(id, "grok"):
		return ProviderGrok
	case strings.HasPrefix(id, "gemini"):
		return ProviderGoogle
	default:
		return ProviderOpenAI
	}
}
