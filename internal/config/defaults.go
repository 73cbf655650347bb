package config

// DefaultModels maps each provider to the model used when none is configured.
var DefaultModels = map[ProviderType]string{
	ProviderHuggingFace: "facebook/mbart-large-50",
	ProviderOpenAI:      "gpt-4o-mini",
	ProviderOllama:      "llama3",
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		DefaultLanguage: "en",
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 5000,
		},
		Graph: GraphConfig{
			BaseURL:        "https://graph.facebook.com",
			APIVersion:     "v18.0",
			TimeoutSeconds: 10,
		},
		Generation: GenerationConfig{
			Provider:       ProviderHuggingFace,
			MaxLength:      100,
			TimeoutSeconds: 30,
		},
		Detection: DetectionConfig{
			MinRunes: 3,
		},
		Deliveries: DeliveriesConfig{
			Enabled:       false,
			Path:          "data/dmrelay.db",
			RetentionDays: 30,
		},
		Logging: LoggingConfig{
			Format: "text",
			Level:  "info",
		},
	}
}

// ResolvedModel returns the configured generation model, falling back to the
// provider's default model.
func (g GenerationConfig) ResolvedModel() string {
	if g.Model != "" {
		return g.Model
	}
	return DefaultModels[g.Provider]
}
