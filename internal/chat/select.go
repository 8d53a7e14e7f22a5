package chat

import "github.com/bgcoach/speech-coach/internal/routing"

// Config selects and parameterizes the active chat provider (spec §6).
type Config struct {
	Provider       string // "auto" | "dummy" | "openai" | "claude"
	OpenAIAPIKey   string
	OpenAIModel    string
	AnthropicAPIKey string
	AnthropicModel string
}

// Build constructs the routing.Router[Provider] described in spec §4.6:
// in "auto" mode, the first variant whose credentials are present wins,
// falling back to dummy. An explicit provider name is used as-is if its
// credentials are present.
func Build(cfg Config) *routing.Router[Provider] {
	backends := map[string]Provider{"dummy": Dummy{}}
	if cfg.OpenAIAPIKey != "" {
		model := cfg.OpenAIModel
		if model == "" {
			model = "gpt-4o-mini"
		}
		backends["openai"] = NewOpenAI(cfg.OpenAIAPIKey, model)
	}
	if cfg.AnthropicAPIKey != "" {
		model := cfg.AnthropicModel
		if model == "" {
			model = "claude-3-5-haiku-latest"
		}
		backends["claude"] = NewClaude(cfg.AnthropicAPIKey, model)
	}

	engine := cfg.Provider
	if engine == "" || engine == "auto" {
		engine = firstAvailable(backends)
	}
	return routing.NewRouter(backends, engine)
}

// firstAvailable picks openai, then claude, then dummy — the fixed
// priority order for "auto" mode (spec §4.6).
func firstAvailable(backends map[string]Provider) string {
	for _, name := range []string{"openai", "claude"} {
		if _, ok := backends[name]; ok {
			return name
		}
	}
	return "dummy"
}
