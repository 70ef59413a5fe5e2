package factory

import (
	"fmt"
	"time"

	"github.com/ywqqqq/xuedong-ai/pkg/llm"
	"github.com/ywqqqq/xuedong-ai/pkg/llm/ark"
	"github.com/ywqqqq/xuedong-ai/pkg/llm/ollama"
)

type Config struct {
	Provider   string
	Model      string
	ArkBaseURL string
	ArkAPIKey  string
	OllamaURL  string
	Timeout    time.Duration
}

func NewLLMProvider(cfg Config) (llm.LLMProvider, error) {
	switch cfg.Provider {
	case "ark":
		if cfg.ArkBaseURL == "" {
			cfg.ArkBaseURL = "https://ark.cn-beijing.volces.com/api/v3"
		}
		return ark.NewArkProvider(cfg.ArkBaseURL, cfg.ArkAPIKey, cfg.Model, cfg.Timeout), nil
	case "ollama":
		if cfg.OllamaURL == "" {
			cfg.OllamaURL = "http://localhost:11434"
		}
		return ollama.NewOllamaProvider(cfg.OllamaURL, cfg.Model), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Provider)
	}
}
