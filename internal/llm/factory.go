package llm

import (
	"fmt"
	"os"
	"strings"

	"github.com/ziadkadry99/dmrelay/internal/config"
)

// NewProvider creates the generation backend named by cfg.Provider.
// Supported provider types: "huggingface", "openai", "ollama".
func NewProvider(cfg config.GenerationConfig) (Provider, error) {
	model := cfg.ResolvedModel()

	switch cfg.Provider {
	case config.ProviderHuggingFace:
		endpoint := cfg.Endpoint
		if endpoint == "" {
			endpoint = DefaultHuggingFaceBaseURL + "/" + model
		}
		return NewHuggingFaceProvider(endpoint, os.Getenv(config.APIKeyEnvVar(cfg.Provider))), nil

	case config.ProviderOpenAI:
		envVar := config.APIKeyEnvVar(cfg.Provider)
		apiKey := os.Getenv(envVar)
		if apiKey == "" {
			return nil, fmt.Errorf("%s environment variable is not set", envVar)
		}
		return NewOpenAIProvider(apiKey, cfg.Endpoint, model), nil

	case config.ProviderOllama:
		host := cfg.Endpoint
		if host == "" {
			host = os.Getenv("OLLAMA_HOST")
		}
		if host == "" {
			host = DefaultOllamaHost
		}
		if !strings.Contains(host, "://") {
			host = "http://" + host
		}
		return NewOllamaProvider(host, model), nil

	default:
		return nil, fmt.Errorf("unsupported provider type: %s", cfg.Provider)
	}
}
