package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Load configuration from environment variables and optionally a config file.
// Environment variables (prefix SYNTHGEN_, nested keys joined with
// underscores, e.g. SYNTHGEN_LLM_GEMINI_API_KEY) take precedence over values
// from the config file, which take precedence over defaults.
// Returns a populated Config struct or an error if loading/validation fails.
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	// Optional config file: ./config.yaml or an explicit path.
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// No config file is fine; env vars and defaults apply.
	}

	v.SetEnvPrefix("SYNTHGEN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults registers every key with viper so environment variables are
// picked up during Unmarshal even without a config file.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")

	v.SetDefault("llm.gemini_api_key", "")
	v.SetDefault("llm.model_name", "gemini-2.0-flash")
	v.SetDefault("llm.prompt_template_path", "prompts/records.tmpl")
	v.SetDefault("llm.max_retries", 3)
	v.SetDefault("llm.retry_delay_seconds", 2)

	v.SetDefault("output.format", "csv")
	v.SetDefault("output.dir", "out")
	v.SetDefault("output.sqlite_path", "")
	v.SetDefault("output.postgres_url", "")

	v.SetDefault("schemas.dir", "schemas")
	v.SetDefault("schemas.watch", false)

	v.SetDefault("runner.worker_count", 2)
	v.SetDefault("runner.queue_size", 100)
}
