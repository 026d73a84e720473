package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	settings := Load()

	assert.Equal(t, "http://127.0.0.1:8000", settings.BaseURL)
	assert.Equal(t, 30*time.Second, settings.Timeout)
	assert.Equal(t, 4096, settings.MaxNewTokens)
	assert.Equal(t, 0.7, settings.Temperature)
	assert.NotEmpty(t, settings.StorePath)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	t.Setenv("MMCHAT_BASE_URL", "http://example.test:9000")
	t.Setenv("MMCHAT_TEMPERATURE", "0.2")
	t.Setenv("MMCHAT_TIMEOUT", "5s")

	settings := Load()

	assert.Equal(t, "http://example.test:9000", settings.BaseURL)
	assert.Equal(t, 0.2, settings.Temperature)
	assert.Equal(t, 5*time.Second, settings.Timeout)
}
