package app

import (
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/agentstation/pricemap/pkg/constants"
	"github.com/agentstation/pricemap/pkg/errors"
)

// EnvPrefix prefixes every environment variable read by the CLI.
const EnvPrefix = "PRICEMAP"

// Config holds the application configuration loaded from various sources
// including config files, environment variables, and .env files.
type Config struct {
	// Global flags
	Verbose bool   `mapstructure:"verbose"`
	Quiet   bool   `mapstructure:"quiet"`
	NoColor bool   `mapstructure:"no_color"`
	Format  string `mapstructure:"format" validate:"omitempty,oneof=table json yaml wide"`

	// Config file
	ConfigFile string `mapstructure:"-"`

	// Pricing API
	APIURL      string        `mapstructure:"api_url" validate:"required,url"`
	AuthKey     string        `mapstructure:"auth_key"`
	BatchSize   int           `mapstructure:"batch_size" validate:"min=1,max=60"`
	RetryCount  int           `mapstructure:"retry_count" validate:"min=1"`
	RetryDelay  time.Duration `mapstructure:"retry_delay" validate:"gte=0"`
	HTTPTimeout time.Duration `mapstructure:"http_timeout" validate:"gt=0"`

	// Checkpoint
	CheckpointFile string `mapstructure:"checkpoint_file" validate:"required_without=CheckpointDSN"`
	CheckpointDSN  string `mapstructure:"checkpoint_dsn"`
	CheckpointName string `mapstructure:"checkpoint_name" validate:"required"`

	// Files
	CatalogFile    string `mapstructure:"catalog_file" validate:"required"`
	ReportFile     string `mapstructure:"report_file"`
	FinalFile      string `mapstructure:"final_file"`
	WarehousesFile string `mapstructure:"warehouses_file"`

	// Logging configuration
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format" validate:"omitempty,oneof=auto json console pretty"`
	LogOutput string `mapstructure:"log_output"`
}

// LoadConfig loads configuration from all sources in order of precedence:
// 1. Command-line flags (handled by cobra)
// 2. Environment variables (PRICEMAP_*, plus AUTOTRADE_AUTH_KEY and LOG_*)
// 3. .env files
// 4. Config file (~/.pricemap.yaml or ./.pricemap.yaml)
// 5. Defaults
func LoadConfig(configFile string) (*Config, error) {
	loadEnvFiles()

	v := newViper()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.WrapPrecondition("config", "cannot read "+configFile, err)
		}
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
		v.AddConfigPath(".")
		v.SetConfigType("yaml")
		v.SetConfigName(".pricemap")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, errors.WrapPrecondition("config", "cannot read config file", err)
			}
		}
	}

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, errors.WrapPrecondition("config", "cannot decode configuration", err)
	}
	config.ConfigFile = v.ConfigFileUsed()

	return config, nil
}

// newViper returns a viper instance with defaults and environment bindings.
func newViper() *viper.Viper {
	v := viper.New()

	v.SetDefault("verbose", false)
	v.SetDefault("quiet", false)
	v.SetDefault("no_color", false)
	v.SetDefault("format", "")
	v.SetDefault("api_url", constants.DefaultAPIURL)
	v.SetDefault("auth_key", "")
	v.SetDefault("batch_size", constants.DefaultBatchSize)
	v.SetDefault("retry_count", constants.DefaultRetryCount)
	v.SetDefault("retry_delay", constants.DefaultRetryDelay)
	v.SetDefault("http_timeout", constants.DefaultHTTPTimeout)
	v.SetDefault("checkpoint_file", constants.DefaultCheckpointFile)
	v.SetDefault("checkpoint_dsn", "")
	v.SetDefault("checkpoint_name", constants.DefaultCheckpointName)
	v.SetDefault("catalog_file", constants.DefaultCatalogFile)
	v.SetDefault("report_file", "")
	v.SetDefault("final_file", "")
	v.SetDefault("warehouses_file", "")
	v.SetDefault("log_level", "")
	v.SetDefault("log_format", "auto")
	v.SetDefault("log_output", "stderr")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	// Unprefixed names kept for existing deployments.
	_ = v.BindEnv("auth_key", EnvPrefix+"_AUTH_KEY", "AUTOTRADE_AUTH_KEY")
	_ = v.BindEnv("log_level", EnvPrefix+"_LOG_LEVEL", "LOG_LEVEL")
	_ = v.BindEnv("log_format", EnvPrefix+"_LOG_FORMAT", "LOG_FORMAT")
	_ = v.BindEnv("log_output", EnvPrefix+"_LOG_OUTPUT", "LOG_OUTPUT")

	return v
}

// Validate checks the configuration. Failures are precondition errors.
func (c *Config) Validate() error {
	if err := validator.New(validator.WithRequiredStructEnabled()).Struct(c); err != nil {
		return errors.WrapPrecondition("config", "invalid configuration", err)
	}
	return nil
}

// UpdateFromFlags updates config values from parsed command flags.
// This should be called after cobra parses flags to ensure flag
// values take precedence over config file and env vars.
func (c *Config) UpdateFromFlags(verbose, quiet, noColor bool, format, logLevel string) {
	c.Verbose = c.Verbose || verbose
	c.Quiet = c.Quiet || quiet
	c.NoColor = c.NoColor || noColor
	if format != "" {
		c.Format = format
	}
	if logLevel != "" {
		c.LogLevel = logLevel
	}
}

// loadEnvFiles loads environment variables from .env files.
// Variables already set in the environment are not overridden, and
// .env.local is read first so its values win over .env.
func loadEnvFiles() {
	for _, envFile := range []string{".env.local", ".env"} {
		_ = godotenv.Load(envFile)
	}
}
