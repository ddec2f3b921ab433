// Package config resolves runtime configuration from defaults, an optional
// TOML file, a .env file and the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"pyramid/internal/transport"
)

const (
	appName    = "pyramid"
	envPrefix  = "PYRAMID"
	configName = "config"
	configType = "toml"

	KeyAPIKey      = "api_key"
	KeyBaseURL     = "base_url"
	KeyMaxTokens   = "max_tokens"
	KeyTemperature = "temperature"
	KeySaveDir     = "save_dir"
	KeyLogFile     = "log_file"
	KeyLogLevel    = "log_level"
	KeyAltScreen   = "alt_screen"

	DefaultMaxTokens   = 2048
	DefaultTemperature = 0.7
	DefaultLogLevel    = "info"
)

// Config holds everything the client needs at startup.
type Config struct {
	APIKey      string
	BaseURL     string
	MaxTokens   int
	Temperature float64
	SaveDir     string
	LogFile     string
	LogLevel    string
	AltScreen   bool

	// ConfigFile is the file that was read, empty when none was found.
	ConfigFile string
}

// ConfigurationError reports a missing or invalid setting.
type ConfigurationError struct {
	Key    string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration %s: %s", e.Key, e.Reason)
}

type Options struct {
	// ConfigFile overrides the config file search. It must exist when set.
	ConfigFile string
	// EnvFile is loaded into the process environment when present.
	// Defaults to ".env".
	EnvFile string
}

// Load resolves the configuration into v. Flags bound to v before the call
// take precedence over environment variables and the config file.
func Load(v *viper.Viper, opts Options) (*Config, error) {
	if v == nil {
		v = viper.New()
	}

	envFile := opts.EnvFile
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load %s: %w", envFile, err)
	}

	setDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	if err := v.BindEnv(KeyAPIKey, envPrefix+"_API_KEY", "API_KEY"); err != nil {
		return nil, fmt.Errorf("bind api key env: %w", err)
	}

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	} else {
		v.SetConfigName(configName)
		v.SetConfigType(configType)
		if dir, err := Dir(); err == nil {
			v.AddConfigPath(dir)
		}
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config file: %w", err)
			}
		}
	}

	cfg := &Config{
		APIKey:      strings.TrimSpace(v.GetString(KeyAPIKey)),
		BaseURL:     strings.TrimSpace(v.GetString(KeyBaseURL)),
		MaxTokens:   v.GetInt(KeyMaxTokens),
		Temperature: v.GetFloat64(KeyTemperature),
		SaveDir:     strings.TrimSpace(v.GetString(KeySaveDir)),
		LogFile:     strings.TrimSpace(v.GetString(KeyLogFile)),
		LogLevel:    strings.ToLower(strings.TrimSpace(v.GetString(KeyLogLevel))),
		AltScreen:   v.GetBool(KeyAltScreen),
		ConfigFile:  v.ConfigFileUsed(),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(KeyBaseURL, transport.DefaultBaseURL)
	v.SetDefault(KeyMaxTokens, DefaultMaxTokens)
	v.SetDefault(KeyTemperature, DefaultTemperature)
	v.SetDefault(KeySaveDir, ".")
	v.SetDefault(KeyLogFile, DefaultLogFile())
	v.SetDefault(KeyLogLevel, DefaultLogLevel)
	v.SetDefault(KeyAltScreen, true)
}

// Validate checks required and bounded settings.
func (c *Config) Validate() error {
	if c.APIKey == "" {
		return &ConfigurationError{Key: KeyAPIKey, Reason: "API_KEY is not set"}
	}
	if c.BaseURL == "" {
		return &ConfigurationError{Key: KeyBaseURL, Reason: "cannot be empty"}
	}
	if c.MaxTokens <= 0 {
		return &ConfigurationError{Key: KeyMaxTokens, Reason: "must be > 0"}
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return &ConfigurationError{Key: KeyTemperature, Reason: "must be between 0 and 2"}
	}
	if c.SaveDir == "" {
		return &ConfigurationError{Key: KeySaveDir, Reason: "cannot be empty"}
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return &ConfigurationError{Key: KeyLogLevel, Reason: fmt.Sprintf("unknown level %q", c.LogLevel)}
	}
	return nil
}

// Dir is the per-user configuration directory.
func Dir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve config directory: %w", err)
	}
	return filepath.Join(base, appName), nil
}

// DefaultFile is the config file read when no --config is given.
func DefaultFile() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configName+"."+configType), nil
}

// DefaultLogFile is $XDG_STATE_HOME/pyramid/pyramid.log, falling back to
// ~/.local/state and finally the working directory.
func DefaultLogFile() string {
	base := os.Getenv("XDG_STATE_HOME")
	if base == "" {
		if home, err := os.UserHomeDir(); err == nil {
			base = filepath.Join(home, ".local", "state")
		}
	}
	if base == "" {
		return appName + ".log"
	}
	return filepath.Join(base, appName, appName+".log")
}
