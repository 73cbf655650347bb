package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/manifoldco/promptui"
)

// RunWizard runs an interactive configuration wizard, saves the result to
// path and returns it. Secrets are never asked for: they belong in the
// environment or a .env file.
func RunWizard(path string) (*Config, error) {
	fmt.Println("Welcome to dmrelay! Let's configure the webhook relay.")
	fmt.Println()

	cfg := DefaultConfig()

	// 1. Generation backend.
	providerPrompt := promptui.Select{
		Label: "Select reply generation backend",
		Items: []string{
			"huggingface - mBART-50 inference endpoint",
			"openai      - chat completions",
			"ollama      - local model",
		},
	}
	providerIdx, _, err := providerPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("provider selection: %w", err)
	}
	providers := []ProviderType{ProviderHuggingFace, ProviderOpenAI, ProviderOllama}
	cfg.Generation.Provider = providers[providerIdx]

	// 2. Model.
	modelPrompt := promptui.Prompt{
		Label:   "Model",
		Default: DefaultModels[cfg.Generation.Provider],
	}
	model, err := modelPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("model: %w", err)
	}
	cfg.Generation.Model = strings.TrimSpace(model)

	// 3. Default language.
	langPrompt := promptui.Prompt{
		Label:   "Default reply language (ISO 639-1)",
		Default: cfg.DefaultLanguage,
		Validate: func(s string) error {
			if len(strings.TrimSpace(s)) != 2 {
				return fmt.Errorf("expected a two-letter code")
			}
			return nil
		},
	}
	lang, err := langPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("default language: %w", err)
	}
	cfg.DefaultLanguage = strings.ToLower(strings.TrimSpace(lang))

	// 4. Listen port.
	portPrompt := promptui.Prompt{
		Label:   "HTTP port",
		Default: strconv.Itoa(cfg.Server.Port),
		Validate: func(s string) error {
			n, err := strconv.Atoi(s)
			if err != nil || n <= 0 || n > 65535 {
				return fmt.Errorf("expected a port number")
			}
			return nil
		},
	}
	portStr, err := portPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("port: %w", err)
	}
	cfg.Server.Port, _ = strconv.Atoi(portStr)

	// 5. Delivery log.
	logPrompt := promptui.Select{
		Label: "Keep a delivery log (SQLite, outcomes only)",
		Items: []string{"no", "yes"},
	}
	logIdx, _, err := logPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("delivery log: %w", err)
	}
	cfg.Deliveries.Enabled = logIdx == 1

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// Remind about credentials that only come from the environment.
	for _, name := range MissingPlatformEnv() {
		fmt.Printf("Note: set %s in your environment or %s before running dmrelay serve.\n", name, DotEnvFile)
	}
	if envVar := APIKeyEnvVar(cfg.Generation.Provider); envVar != "" && os.Getenv(envVar) == "" {
		fmt.Printf("Note: set %s for the %s backend.\n", envVar, cfg.Generation.Provider)
	}

	if err := cfg.Save(path); err != nil {
		return nil, fmt.Errorf("saving config: %w", err)
	}

	fmt.Printf("\nConfiguration saved to %s\n", path)
	return cfg, nil
}

// MissingPlatformEnv lists the platform variables that are not set in the
// current environment, in a stable order.
func MissingPlatformEnv() []string {
	var missing []string
	for _, name := range []string{"APP_ID", "APP_SECRET", "USER_ID", "INSTAGRAM_TOKEN", "VERIFY_TOKEN"} {
		if os.Getenv(name) == "" {
			missing = append(missing, name)
		}
	}
	return missing
}
