package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	toml "github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pyramid/internal/transport"
)

// isolate points every lookup location at a temp dir and clears the
// variables Load reads.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_STATE_HOME", filepath.Join(dir, "state"))
	for _, key := range []string{
		"API_KEY", "PYRAMID_API_KEY", "PYRAMID_BASE_URL", "PYRAMID_MAX_TOKENS",
		"PYRAMID_TEMPERATURE", "PYRAMID_SAVE_DIR", "PYRAMID_LOG_FILE", "PYRAMID_LOG_LEVEL",
		"PYRAMID_ALT_SCREEN",
	} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
	return dir
}

func noEnvFile(dir string) Options {
	return Options{EnvFile: filepath.Join(dir, "missing.env")}
}

func TestLoadDefaults(t *testing.T) {
	dir := isolate(t)
	t.Setenv("API_KEY", "hf_test")

	cfg, err := Load(viper.New(), noEnvFile(dir))
	require.NoError(t, err)

	assert.Equal(t, "hf_test", cfg.APIKey)
	assert.Equal(t, transport.DefaultBaseURL, cfg.BaseURL)
	assert.Equal(t, 2048, cfg.MaxTokens)
	assert.InDelta(t, 0.7, cfg.Temperature, 1e-9)
	assert.Equal(t, ".", cfg.SaveDir)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.True(t, cfg.AltScreen)
	assert.Equal(t, filepath.Join(dir, "state", "pyramid", "pyramid.log"), cfg.LogFile)
	assert.Empty(t, cfg.ConfigFile)
}

func TestLoadMissingAPIKey(t *testing.T) {
	dir := isolate(t)

	_, err := Load(viper.New(), noEnvFile(dir))
	require.Error(t, err)

	var cfgErr *ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, KeyAPIKey, cfgErr.Key)
}

func TestLoadPrefixedEnvWins(t *testing.T) {
	dir := isolate(t)
	t.Setenv("API_KEY", "plain")
	t.Setenv("PYRAMID_API_KEY", "prefixed")
	t.Setenv("PYRAMID_SAVE_DIR", "/tmp/chats")
	t.Setenv("PYRAMID_MAX_TOKENS", "512")

	cfg, err := Load(viper.New(), noEnvFile(dir))
	require.NoError(t, err)

	assert.Equal(t, "prefixed", cfg.APIKey)
	assert.Equal(t, "/tmp/chats", cfg.SaveDir)
	assert.Equal(t, 512, cfg.MaxTokens)
}

func TestLoadReadsEnvFile(t *testing.T) {
	dir := isolate(t)
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("API_KEY=from_dotenv\n"), 0o600))

	cfg, err := Load(viper.New(), Options{EnvFile: envFile})
	require.NoError(t, err)
	assert.Equal(t, "from_dotenv", cfg.APIKey)
}

func TestLoadExplicitConfigFile(t *testing.T) {
	dir := isolate(t)
	t.Setenv("API_KEY", "k")
	path := filepath.Join(dir, "custom.toml")
	require.NoError(t, os.WriteFile(path, []byte("temperature = 0.2\nlog_level = \"debug\"\nalt_screen = false\n"), 0o600))

	cfg, err := Load(viper.New(), Options{ConfigFile: path, EnvFile: filepath.Join(dir, "none")})
	require.NoError(t, err)

	assert.InDelta(t, 0.2, cfg.Temperature, 1e-9)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.False(t, cfg.AltScreen)
	assert.Equal(t, path, cfg.ConfigFile)
}

func TestLoadExplicitConfigFileMustExist(t *testing.T) {
	dir := isolate(t)
	t.Setenv("API_KEY", "k")

	_, err := Load(viper.New(), Options{ConfigFile: filepath.Join(dir, "nope.toml"), EnvFile: filepath.Join(dir, "none")})
	require.Error(t, err)
}

func TestLoadRejectsBadValues(t *testing.T) {
	dir := isolate(t)
	t.Setenv("API_KEY", "k")
	t.Setenv("PYRAMID_LOG_LEVEL", "chatty")

	_, err := Load(viper.New(), noEnvFile(dir))
	var cfgErr *ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, KeyLogLevel, cfgErr.Key)
}

func TestLoadBoundValueWins(t *testing.T) {
	dir := isolate(t)
	t.Setenv("API_KEY", "k")
	t.Setenv("PYRAMID_SAVE_DIR", "/env")

	v := viper.New()
	v.Set(KeySaveDir, "/flag")

	cfg, err := Load(v, noEnvFile(dir))
	require.NoError(t, err)
	assert.Equal(t, "/flag", cfg.SaveDir)
}

func TestWriteDefaultOmitsKey(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "conf", "config.toml")

	require.NoError(t, WriteDefault(path, false))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "api_key")

	var decoded map[string]any
	require.NoError(t, toml.Unmarshal(data, &decoded))
	assert.Equal(t, transport.DefaultBaseURL, decoded["base_url"])
	assert.EqualValues(t, 2048, decoded["max_tokens"])
}

func TestWriteDefaultRefusesOverwrite(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("# mine\n"), 0o600))

	err := WriteDefault(path, false)
	require.ErrorIs(t, err, ErrConfigExists)

	require.NoError(t, WriteDefault(path, true))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "# mine")
}

func TestWrittenDefaultLoadsBack(t *testing.T) {
	dir := isolate(t)
	t.Setenv("API_KEY", "k")
	path, err := DefaultFile()
	require.NoError(t, err)
	require.NoError(t, WriteDefault(path, false))

	cfg, err := Load(viper.New(), noEnvFile(dir))
	require.NoError(t, err)
	assert.Equal(t, path, cfg.ConfigFile)
	assert.Equal(t, 2048, cfg.MaxTokens)
}
