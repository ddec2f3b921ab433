package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"

	"pyramid/internal/transport"
)

const (
	configDirMode  = 0o700
	configFileMode = 0o600
)

// fileSchema is the on-disk config layout. The API key is never written;
// it comes from the environment or is added by hand.
type fileSchema struct {
	BaseURL     string  `toml:"base_url"`
	MaxTokens   int     `toml:"max_tokens"`
	Temperature float64 `toml:"temperature"`
	SaveDir     string  `toml:"save_dir"`
	LogFile     string  `toml:"log_file"`
	LogLevel    string  `toml:"log_level"`
	AltScreen   bool    `toml:"alt_screen"`
}

func defaultSchema() fileSchema {
	return fileSchema{
		BaseURL:     transport.DefaultBaseURL,
		MaxTokens:   DefaultMaxTokens,
		Temperature: DefaultTemperature,
		SaveDir:     ".",
		LogFile:     DefaultLogFile(),
		LogLevel:    DefaultLogLevel,
		AltScreen:   true,
	}
}

// ErrConfigExists is returned by WriteDefault when the file is already there
// and overwrite was not requested.
var ErrConfigExists = errors.New("config file already exists")

// WriteDefault writes a config file holding the default settings.
func WriteDefault(path string, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s: %w", path, ErrConfigExists)
		} else if !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("stat config file: %w", err)
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), configDirMode); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	data, err := toml.Marshal(defaultSchema())
	if err != nil {
		return fmt.Errorf("encode config file: %w", err)
	}
	if err := os.WriteFile(path, data, configFileMode); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}
