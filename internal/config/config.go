package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/spf13/viper"

	"github.com/jchantrell/rsbconv/internal/platform"
	"github.com/jchantrell/rsbconv/internal/scg"
)

type Config struct {
	Target              string `mapstructure:"target"`
	WorkDir             string `mapstructure:"work_dir"`
	History             string `mapstructure:"history"`
	Jobs                int    `mapstructure:"jobs"`
	ContinueOnError     bool   `mapstructure:"continue_on_error"`
	DecodeMethod        int    `mapstructure:"decode_method"`
	AnimationSplitLabel bool   `mapstructure:"animation_split_label"`
	OnlyHighResolution  bool   `mapstructure:"only_high_resolution"`
	LogLevel            string `mapstructure:"log_level"`
	LogFormat           string `mapstructure:"log_format"`
}

// Load initializes and loads configuration from file
func Load(cfgFile string) (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get home directory: %w", err)
	}

	// Set defaults
	viper.SetDefault("target", "ios")
	viper.SetDefault("work_dir", filepath.Join(home, ".rsbconv", "work"))
	viper.SetDefault("history", filepath.Join(home, ".rsbconv", "history.db"))
	viper.SetDefault("jobs", runtime.NumCPU())
	viper.SetDefault("continue_on_error", true)
	viper.SetDefault("decode_method", 0)
	viper.SetDefault("animation_split_label", false)
	viper.SetDefault("only_high_resolution", true)
	viper.SetDefault("log_level", "info")
	viper.SetDefault("log_format", "text")

	viper.SetEnvPrefix("rsbconv")
	viper.AutomaticEnv()

	// Config file handling
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigName("rsbconv")
		viper.SetConfigType("yaml")
	}

	// Read config file (optional)
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Validate checks every field. It is called by Load and again after command
// line flags have been applied.
func (c *Config) Validate() error {
	if _, err := platform.Parse(c.Target); err != nil {
		return err
	}
	if err := validateChoice("log_level", c.LogLevel, validLogLevels); err != nil {
		return err
	}
	if err := validateChoice("log_format", c.LogFormat, validLogFormats); err != nil {
		return err
	}
	if c.Jobs < 1 {
		return fmt.Errorf("jobs must be at least 1, got %d", c.Jobs)
	}
	if c.DecodeMethod < 0 {
		return fmt.Errorf("decode_method cannot be negative, got %d", c.DecodeMethod)
	}
	return nil
}

// TargetPlatform returns the parsed target. Call it on a validated config.
func (c *Config) TargetPlatform() platform.Platform {
	p, _ := platform.Parse(c.Target)
	return p
}

// GroupSetting returns the packet codec options.
func (c *Config) GroupSetting() scg.Setting {
	return scg.Setting{
		DecodeMethod:        c.DecodeMethod,
		AnimationSplitLabel: c.AnimationSplitLabel,
	}
}
