package core

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
)

// symmetricCipher is an AES-GCM cipher in one of two nonce modes.
// Deterministic mode derives the nonce from SHA-256(key‖plaintext), so the
// same plaintext always yields the same ciphertext and equality search on
// transformed data keeps working. Randomized mode draws a fresh nonce per
// call.
type symmetricCipher struct {
	aead          cipher.AEAD
	key           []byte
	deterministic bool
}

func newSymmetricCipher(deterministic bool) (*symmetricCipher, error) {
	key := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return nil, fmt.Errorf("failed to generate key: %w", err)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	return &symmetricCipher{aead: aead, key: key, deterministic: deterministic}, nil
}

// Encrypt seals the plaintext and returns a text-safe representation with
// the nonce prepended.
func (c *symmetricCipher) Encrypt(plaintext string) (string, error) {
	nonce := make([]byte, c.aead.NonceSize())

	if c.deterministic {
		h := sha256.New()
		h.Write(c.key)
		h.Write([]byte(plaintext))
		copy(nonce, h.Sum(nil))
	} else {
		if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
			return "", fmt.Errorf("failed to generate nonce: %w", err)
		}
	}

	ciphertext := c.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.RawURLEncoding.EncodeToString(ciphertext), nil
}

// Decrypt reverses Encrypt.
func (c *symmetricCipher) Decrypt(encoded string) (string, error) {
	data, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("failed to decode ciphertext: %w", err)
	}

	nonceSize := c.aead.NonceSize()
	if len(data) < nonceSize {
		return "", errors.New("ciphertext too short")
	}

	nonce, ciphertext := data[:nonceSize], data[nonceSize:]
	plaintext, err := c.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("failed to decrypt: %w", err)
	}

	return string(plaintext), nil
}

// hashTransform is the irreversible one-way hashing transformation.
func hashTransform(value string) TransformationResult {
	sum := sha256.Sum256([]byte(value))
	hashed := hex.EncodeToString(sum[:])
	return result(value, hashed, Hashing, 1.0, map[string]string{
		"hash_algorithm": "SHA-256",
		"reversible":     "false",
	})
}
