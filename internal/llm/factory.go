package llm

import (
	"fmt"
	"strings"

	"github.com/leakbench/leakbench/internal/model"
)

// NewProvider creates a new oracle provider based on configuration
func NewProvider(config Config) (Provider, error) {
	provider := strings.ToLower(config.Provider)

	switch provider {
	case "openai":
		return NewOpenAIProvider(config)

	case "ollama":
		return NewOllamaProvider(config)

	case "":
		// No provider configured - oracle disabled
		return nil, nil

	default:
		return nil, fmt.Errorf("unknown oracle provider: %s (supported: openai, ollama)", config.Provider)
	}
}

// ConfigFromModel converts model.OracleConfig to llm.Config
func ConfigFromModel(oracleConfig model.OracleConfig) Config {
	return Config{
		Provider:  oracleConfig.Provider,
		Model:     oracleConfig.Model,
		APIKey:    oracleConfig.APIKey,
		BaseURL:   oracleConfig.BaseURL,
		Timeout:   oracleConfig.Timeout,
		MaxTokens: oracleConfig.MaxTokens,
	}
}
