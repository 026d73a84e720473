// Package config resolves mmchat settings from, in increasing precedence:
// built-in defaults, a local .env file, MMCHAT_* environment variables, and
// any CLI flags bound into viper by the entrypoint.
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"mmchat/internal/logger"
)

// Settings holds the resolved configuration for one run.
type Settings struct {
	BaseURL      string        // Generation service base URL
	Timeout      time.Duration // Per-request timeout
	StorePath    string        // Durable session storage file
	MaxNewTokens int           // Generation parameter, 0 omits the field
	Temperature  float64       // Generation parameter, 0 omits the field
	LogLevel     string
	LogFile      string
	TestMode     bool // Deterministic ids and timestamps
}

// Load reads the optional .env file, applies defaults, and resolves the
// settings. CLI flags already bound into viper win over environment
// variables, which win over .env, which wins over defaults.
func Load() *Settings {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logger.Warn("failed to load .env file", "error", err)
	}

	viper.SetEnvPrefix("MMCHAT")
	viper.AutomaticEnv()

	viper.SetDefault("base_url", "http://127.0.0.1:8000")
	viper.SetDefault("timeout", "30s")
	viper.SetDefault("store_path", defaultStorePath())
	viper.SetDefault("max_new_tokens", 4096)
	viper.SetDefault("temperature", 0.7)

	return &Settings{
		BaseURL:      viper.GetString("base_url"),
		Timeout:      viper.GetDuration("timeout"),
		StorePath:    viper.GetString("store_path"),
		MaxNewTokens: viper.GetInt("max_new_tokens"),
		Temperature:  viper.GetFloat64("temperature"),
		LogLevel:     viper.GetString("log_level"),
		LogFile:      viper.GetString("log_file"),
		TestMode:     viper.GetBool("test_mode"),
	}
}

func defaultStorePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".mmchat", "state.json")
	}
	return filepath.Join(home, ".mmchat", "state.json")
}
