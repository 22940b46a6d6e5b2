package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	"github.com/danbauman77/reginfo-monitor/internal/logger"
	"github.com/danbauman77/reginfo-monitor/internal/types"
	"github.com/danbauman77/reginfo-monitor/internal/validator"
)

// AppName is used for config search paths.
const AppName = "reginfo-monitor"

// Config represents the monitor configuration
type Config struct {
	RINs          []string      `mapstructure:"rins" validate:"required,min=1,dive,rin"`
	DataDirectory string        `mapstructure:"data_directory" validate:"required"`
	KeepFiles     int           `mapstructure:"keep_files" validate:"min=1"`
	Fetch         FetchConfig   `mapstructure:"fetch"`
	Email         EmailConfig   `mapstructure:"email"`
	Log           logger.Config `mapstructure:"log"`
}

// FetchConfig represents reginfo.gov fetch configuration
type FetchConfig struct {
	BaseURL   string        `mapstructure:"base_url" validate:"required,url"`
	Timeout   time.Duration `mapstructure:"timeout"`
	UserAgent string        `mapstructure:"user_agent"`
}

// Load loads the configuration from file. All failures are fatal and
// wrapped in *types.ConfigError.
func Load(path string) (*Config, error) {
	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/" + AppName)
		v.AddConfigPath("/etc/" + AppName)
		if ex, err := os.Executable(); err == nil {
			v.AddConfigPath(filepath.Dir(ex))
		}
	}
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, &types.ConfigError{Err: fmt.Errorf("failed to read config file: %w", err)}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, &types.ConfigError{Err: fmt.Errorf("failed to unmarshal config: %w", err)}
	}

	setDefaults(&config)

	if err := validateConfig(&config); err != nil {
		return nil, &types.ConfigError{Err: err}
	}

	return &config, nil
}

// setDefaults sets default values if not specified
func setDefaults(config *Config) {
	if config.DataDirectory == "" {
		config.DataDirectory = "reginfo_data"
	}
	if config.KeepFiles == 0 {
		config.KeepFiles = 2
	}
	if config.Fetch.BaseURL == "" {
		config.Fetch.BaseURL = "https://www.reginfo.gov"
	}
	if config.Fetch.Timeout == 0 {
		config.Fetch.Timeout = 30 * time.Second
	}
	if config.Fetch.UserAgent == "" {
		config.Fetch.UserAgent = AppName + "/1.0"
	}
	if config.Email.SMTPPort == 0 {
		config.Email.SMTPPort = 587
	}
	config.Log.SetDefaults()
}

// validateConfig validates the configuration
func validateConfig(config *Config) error {
	if err := validator.New().Struct(config); err != nil {
		return err
	}

	if config.Email.Enabled {
		if config.Email.SMTPServer == "" {
			return fmt.Errorf("email.smtp_server is required when email is enabled")
		}
		if config.Email.From == "" || len(config.Email.To) == 0 {
			return fmt.Errorf("email.from and email.to are required when email is enabled")
		}
	}

	return config.Log.Validate()
}
