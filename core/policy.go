package core

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// PolicyMetadata contains information about the scan policy.
type PolicyMetadata struct {
	// Version of the policy
	Version string `yaml:"version"`

	// When the policy was created
	CreatedAt time.Time `yaml:"created_at"`

	// Last modification time
	UpdatedAt time.Time `yaml:"updated_at"`

	// Description of the policy
	Description string `yaml:"description,omitempty"`

	// Author of the policy
	Author string `yaml:"author,omitempty"`

	// Hash of the policy content for integrity verification
	Hash string `yaml:"hash,omitempty"`
}

// Policy controls which detectors the scanner runs and what it reports.
// The transformation tables are not policy: they are fixed by the engine.
type Policy struct {
	// Metadata about the policy
	Metadata PolicyMetadata `yaml:"metadata"`

	// EnabledCategories restricts the built-in regex detectors; an empty
	// list enables all nine categories.
	EnabledCategories []PIIType `yaml:"enabled_categories,omitempty"`

	// CustomPatterns adds extra regex detectors keyed by category name.
	CustomPatterns map[string]string `yaml:"custom_patterns,omitempty"`

	// MinConfidence drops findings below this confidence after
	// deduplication. Zero keeps everything.
	MinConfidence float64 `yaml:"min_confidence,omitempty"`
}

// DefaultPolicy returns a policy with all built-in categories enabled.
func DefaultPolicy() *Policy {
	return &Policy{
		Metadata: PolicyMetadata{
			Version:   "1.0.0",
			CreatedAt: time.Now().UTC(),
		},
	}
}

// LoadPolicy reads a YAML policy file and unmarshals it into a Policy.
func LoadPolicy(path string) (*Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read policy file: %w", err)
	}

	var policy Policy
	if err := yaml.Unmarshal(data, &policy); err != nil {
		return nil, fmt.Errorf("failed to parse policy: %w", err)
	}

	if err := validatePolicy(&policy); err != nil {
		return nil, fmt.Errorf("invalid policy: %w", err)
	}

	policy.Metadata.Hash = calculatePolicyHash(data)

	return &policy, nil
}

// SavePolicy writes a policy to disk, stamping the update time and hash.
func SavePolicy(policy *Policy, path string) error {
	policy.Metadata.UpdatedAt = time.Now().UTC()

	data, err := yaml.Marshal(policy)
	if err != nil {
		return fmt.Errorf("failed to serialize policy: %w", err)
	}

	policy.Metadata.Hash = calculatePolicyHash(data)

	data, err = yaml.Marshal(policy)
	if err != nil {
		return fmt.Errorf("failed to re-serialize policy with hash: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write policy file: %w", err)
	}

	return nil
}

func validatePolicy(policy *Policy) error {
	for _, category := range policy.EnabledCategories {
		if _, ok := piiPatterns[category]; !ok {
			return fmt.Errorf("unknown category %q", category)
		}
	}

	for name, pattern := range policy.CustomPatterns {
		if _, err := regexp.Compile(pattern); err != nil {
			return fmt.Errorf("invalid custom pattern %q: %w", name, err)
		}
	}

	if policy.MinConfidence < 0 || policy.MinConfidence > 1 {
		return fmt.Errorf("min_confidence must be in [0,1], got %v", policy.MinConfidence)
	}

	return nil
}

func calculatePolicyHash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
