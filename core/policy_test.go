package core

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPolicySaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.yaml")

	policy := DefaultPolicy()
	policy.Metadata.Description = "restricted scan"
	policy.EnabledCategories = []PIIType{PIIEmail, PIIPhone}
	policy.CustomPatterns = map[string]string{"employee_id": `\bEMP-\d{5}\b`}
	policy.MinConfidence = 0.6

	require.NoError(t, SavePolicy(policy, path))
	assert.False(t, policy.Metadata.UpdatedAt.IsZero())
	assert.NotEmpty(t, policy.Metadata.Hash)

	loaded, err := LoadPolicy(path)
	require.NoError(t, err)
	assert.Equal(t, "restricted scan", loaded.Metadata.Description)
	assert.Equal(t, []PIIType{PIIEmail, PIIPhone}, loaded.EnabledCategories)
	assert.Equal(t, policy.CustomPatterns, loaded.CustomPatterns)
	assert.Equal(t, 0.6, loaded.MinConfidence)
	assert.NotEmpty(t, loaded.Metadata.Hash)
}

func TestLoadPolicyRejectsUnknownCategory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.yaml")
	content := []byte(`
metadata:
  version: "1.0.0"
enabled_categories:
  - email
  - social_graph
`)
	require.NoError(t, os.WriteFile(path, content, 0600))

	_, err := LoadPolicy(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown category")
}

func TestLoadPolicyRejectsBadPattern(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.yaml")
	content := []byte(`
metadata:
  version: "1.0.0"
custom_patterns:
  broken: "[unclosed"
`)
	require.NoError(t, os.WriteFile(path, content, 0600))

	_, err := LoadPolicy(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid custom pattern")
}

func TestLoadPolicyRejectsBadConfidence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.yaml")
	content := []byte(`
metadata:
  version: "1.0.0"
min_confidence: 1.5
`)
	require.NoError(t, os.WriteFile(path, content, 0600))

	_, err := LoadPolicy(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "min_confidence")
}

func TestLoadPolicyMissingFile(t *testing.T) {
	_, err := LoadPolicy(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
