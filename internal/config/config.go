package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix for generic environment overrides.
// DMRELAY_GENERATION__MAX_LENGTH maps to generation.max_length.
const EnvPrefix = "DMRELAY_"

// DotEnvFile is loaded from the working directory before reading the
// environment. Variables already set in the process win.
const DotEnvFile = ".env"

// platformEnv maps the platform's conventional variable names onto config keys.
var platformEnv = map[string]string{
	"APP_ID":          "graph.app_id",
	"APP_SECRET":      "graph.app_secret",
	"USER_ID":         "graph.user_id",
	"INSTAGRAM_TOKEN": "graph.access_token",
	"VERIFY_TOKEN":    "graph.verify_token",
}

// Load reads configuration from the given YAML file, then overlays the
// platform variables (APP_ID, APP_SECRET, USER_ID, INSTAGRAM_TOKEN,
// VERIFY_TOKEN) and DMRELAY_* overrides from the environment.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(DotEnvFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("loading %s: %w", DotEnvFile, err)
	}

	k := koanf.New(".")

	// Start from defaults.
	cfg := DefaultConfig()

	// Load YAML file if it exists.
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("reading config %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("accessing config %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", func(s string) string {
		return platformEnv[s]
	}), nil); err != nil {
		return nil, fmt.Errorf("loading platform env: %w", err)
	}

	// Overlay environment variables: DMRELAY_GRAPH__API_VERSION -> graph.api_version.
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
		return strings.ReplaceAll(key, "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	return cfg, nil
}

// Save writes the configuration to the given YAML file path.
func (c *Config) Save(path string) error {
	data, err := yamlv3.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// validProviders is the set of recognized generation provider values.
var validProviders = map[ProviderType]bool{
	ProviderHuggingFace: true,
	ProviderOpenAI:      true,
	ProviderOllama:      true,
}

// Validate checks that the configuration contains usable values. Platform
// credentials are deliberately not required here: a missing credential only
// fails the requests that need it.
func (c *Config) Validate() error {
	if len(c.DefaultLanguage) != 2 {
		return fmt.Errorf("default_language %q must be a two-letter ISO 639-1 code", c.DefaultLanguage)
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d is out of range", c.Server.Port)
	}

	if c.Graph.BaseURL == "" {
		return fmt.Errorf("graph.base_url is required")
	}
	if c.Graph.TimeoutSeconds <= 0 {
		return fmt.Errorf("graph.timeout_seconds must be positive")
	}

	if !validProviders[c.Generation.Provider] {
		return fmt.Errorf("invalid generation.provider %q: must be one of huggingface, openai, ollama", c.Generation.Provider)
	}
	if c.Generation.MaxLength <= 0 {
		return fmt.Errorf("generation.max_length must be positive")
	}
	if c.Generation.TimeoutSeconds <= 0 {
		return fmt.Errorf("generation.timeout_seconds must be positive")
	}

	if c.Detection.MinRunes < 0 {
		return fmt.Errorf("detection.min_runes must be non-negative")
	}

	if c.Deliveries.Enabled && c.Deliveries.Path == "" {
		return fmt.Errorf("deliveries.path is required when the delivery log is enabled")
	}

	switch strings.ToLower(c.Logging.Format) {
	case "", "text", "json":
	default:
		return fmt.Errorf("invalid logging.format %q: must be text or json", c.Logging.Format)
	}

	return nil
}

// APIKeyEnvVar returns the conventional environment variable name for
// the credential of the given generation provider.
func APIKeyEnvVar(provider ProviderType) string {
	switch provider {
	case ProviderHuggingFace:
		return "HF_API_TOKEN"
	case ProviderOpenAI:
		return "OPENAI_API_KEY"
	default:
		return ""
	}
}
