package core

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 50, cfg.SampleSize)
	assert.Equal(t, 25, cfg.MessageBatchSize)
	assert.Equal(t, 5, cfg.FetchConcurrency)
	assert.Equal(t, 0.70, cfg.ClassifierThreshold)
	assert.Equal(t, 30*time.Second, cfg.ClassifierTimeout)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfigFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := []byte(`
sample_size: 10
fetch_concurrency: 2
classifier_threshold: 0.5
classifier_timeout: 10s
log_level: debug
`)
	require.NoError(t, os.WriteFile(path, content, 0600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 10, cfg.SampleSize)
	assert.Equal(t, 2, cfg.FetchConcurrency)
	assert.Equal(t, 0.5, cfg.ClassifierThreshold)
	assert.Equal(t, 10*time.Second, cfg.ClassifierTimeout)
	assert.Equal(t, "debug", cfg.LogLevel)

	// Keys absent from the file keep their defaults.
	assert.Equal(t, 25, cfg.MessageBatchSize)
}

func TestLoadConfigEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("fetch_concurrency: 2\n"), 0600))

	t.Setenv("PRISMATIC_FETCH_CONCURRENCY", "7")
	t.Setenv("PRISMATIC_LOG_LEVEL", "warn")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.FetchConcurrency)
	assert.Equal(t, "warn", cfg.LogLevel)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestConfigValidation(t *testing.T) {
	cfg := DefaultConfig()
	cfg.FetchConcurrency = 0
	err := cfg.Validate()
	require.Error(t, err)

	var pe *PipelineError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, ErrorCategoryValidation, pe.Category)

	cfg = DefaultConfig()
	cfg.ClassifierThreshold = 1.5
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.LogLevel = "verbose"
	assert.Error(t, cfg.Validate())
}
