package config

// ProviderType identifies a text-generation backend.
type ProviderType string

const (
	ProviderHuggingFace ProviderType = "huggingface"
	ProviderOpenAI      ProviderType = "openai"
	ProviderOllama      ProviderType = "ollama"
)

// Config is the top-level dmrelay configuration, corresponding to dmrelay.yml.
// It is built once at start-up and passed by value or pointer to the
// components that need it; nothing mutates it afterwards.
type Config struct {
	DefaultLanguage string           `yaml:"default_language" koanf:"default_language"`
	Server          ServerConfig     `yaml:"server" koanf:"server"`
	Graph           GraphConfig      `yaml:"graph" koanf:"graph"`
	Generation      GenerationConfig `yaml:"generation" koanf:"generation"`
	Detection       DetectionConfig  `yaml:"detection" koanf:"detection"`
	Deliveries      DeliveriesConfig `yaml:"deliveries" koanf:"deliveries"`
	Logging         LoggingConfig    `yaml:"logging" koanf:"logging"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Host               string   `yaml:"host" koanf:"host"`
	Port               int      `yaml:"port" koanf:"port"`
	CORSAllowedOrigins []string `yaml:"cors_allowed_origins" koanf:"cors_allowed_origins"`
}

// GraphConfig holds the messaging platform (Graph API) credentials and
// endpoints. Credentials may be empty at start-up; calls that need them fail
// with a config_missing error instead.
type GraphConfig struct {
	BaseURL        string `yaml:"base_url" koanf:"base_url"`
	APIVersion     string `yaml:"api_version" koanf:"api_version"`
	AppID          string `yaml:"app_id" koanf:"app_id"`
	AppSecret      string `yaml:"app_secret" koanf:"app_secret"`
	UserID         string `yaml:"user_id" koanf:"user_id"`
	AccessToken    string `yaml:"access_token" koanf:"access_token"`
	VerifyToken    string `yaml:"verify_token" koanf:"verify_token"`
	TimeoutSeconds int    `yaml:"timeout_seconds" koanf:"timeout_seconds"`
}

// GenerationConfig selects and bounds the reply generation backend.
type GenerationConfig struct {
	Provider       ProviderType `yaml:"provider" koanf:"provider"`
	Model          string       `yaml:"model" koanf:"model"`
	Endpoint       string       `yaml:"endpoint" koanf:"endpoint"`
	MaxLength      int          `yaml:"max_length" koanf:"max_length"`
	TimeoutSeconds int          `yaml:"timeout_seconds" koanf:"timeout_seconds"`
}

// DetectionConfig tunes language detection.
type DetectionConfig struct {
	// MinRunes is the shortest input (in runes) the detector will classify;
	// anything shorter falls back to the default language.
	MinRunes int `yaml:"min_runes" koanf:"min_runes"`
}

// DeliveriesConfig controls the SQLite delivery log.
type DeliveriesConfig struct {
	Enabled       bool   `yaml:"enabled" koanf:"enabled"`
	Path          string `yaml:"path" koanf:"path"`
	RetentionDays int    `yaml:"retention_days" koanf:"retention_days"`
}

// LoggingConfig controls structured log output format and verbosity.
type LoggingConfig struct {
	Format    string `yaml:"format" koanf:"format"`
	Level     string `yaml:"level" koanf:"level"`
	AddSource bool   `yaml:"add_source" koanf:"add_source"`
}
