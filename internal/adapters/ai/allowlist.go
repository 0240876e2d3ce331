package ai

import "strings"

// Built-in allow-list defaults per provider. Overrides from configuration
// are merged on top, never replacing these.
var (
	openAIDefaultModels = []string{
		"gpt-4o-mini",
		"gpt-4o",
		"gpt-4.1-mini",
		"gpt-4.1",
		"o4-mini",
	}
	grokDefaultModels = []string{
		"grok-2",
		"grok-3",
		"grok-3-mini",
	}
	geminiDefaultModels = []string{
		"gemini-1.5-flash",
		"gemini-1.5-pro",
		"gemini-2.0-flash",
	}
)

// AllowList is the merged set of dispatchable model identifiers.
// Membership checks are case-insensitive and ignore surrounding whitespace,
// matching ResolveProvider semantics.
type AllowList struct {
	models map[string]struct{}
}

// NewAllowList builds the merged allow-list: provider defaults plus any
// explicit overrides.
func NewAllowList(overrides ...string) *AllowList {
	a := &AllowList{models: make(map[string]struct{})}
	for _, group := range [][]string{openAIDefaultModels, grokDefaultModels, geminiDefaultModels, overrides} {
		for _, m := range group {
			a.add(m)
		}
	}
	return a
}

func (a *AllowList) add(model string) {
	key := strings.ToLower(strings.TrimSpace(model))
	if key == "" {
		return
	}
	a.models[key] = struct{}{}
}

// Allows reports whether the model may be dispatched.
func (a *AllowList) Allows(modelID string) bool {
	_, ok := a.models[strings.ToLower(strings.TrimSpace(modelID))]
	return ok
}

// Models returns the allow-list contents (normalized, unordered).
func (a *AllowList) Models() []string {
	out := make([]string, 0, len(a.models))
	for m := range a.models {
		out = append(out, m)
	}
	return out
}
