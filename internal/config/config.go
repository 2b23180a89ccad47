package config

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server  ServerConfig `mapstructure:"server"  validate:"required"`
	LLM     LLMConfig    `mapstructure:"llm"     validate:"required"`
	Output  OutputConfig `mapstructure:"output"  validate:"required"`
	Schemas SchemaConfig `mapstructure:"schemas" validate:"required"`
	Runner  RunnerConfig `mapstructure:"runner"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port"      validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// LLMConfig contains all LLM integration related settings.
type LLMConfig struct {
	GeminiAPIKey       string `mapstructure:"gemini_api_key"       validate:"required"`
	ModelName          string `mapstructure:"model_name"           validate:"required"`
	PromptTemplatePath string `mapstructure:"prompt_template_path" validate:"required"`
	MaxRetries         int    `mapstructure:"max_retries"          validate:"gte=0"`
	RetryDelaySeconds  int    `mapstructure:"retry_delay_seconds"  validate:"gte=0"`
}

// OutputConfig selects and configures the sink generated datasets are
// written to.
type OutputConfig struct {
	// Format selects the sink: csv, sqlite, or postgres.
	Format string `mapstructure:"format" validate:"required,oneof=csv sqlite postgres"`

	// Dir is where csv files are written, one file per dataset.
	Dir string `mapstructure:"dir" validate:"required_if=Format csv"`

	// SQLitePath is the database file used by the sqlite sink.
	SQLitePath string `mapstructure:"sqlite_path" validate:"required_if=Format sqlite"`

	// PostgresURL is the connection string used by the postgres sink.
	PostgresURL string `mapstructure:"postgres_url" validate:"required_if=Format postgres"`
}

// SchemaConfig locates the schema definition files.
type SchemaConfig struct {
	// Dir is scanned for *.yaml, *.yml, and *.json schema definitions.
	Dir string `mapstructure:"dir" validate:"required"`

	// Watch enables hot reload of schema files via fsnotify.
	Watch bool `mapstructure:"watch"`
}

// RunnerConfig tunes the background job runner.
type RunnerConfig struct {
	WorkerCount int `mapstructure:"worker_count" validate:"gte=0"`
	QueueSize   int `mapstructure:"queue_size"   validate:"gte=0"`
}
