package vault

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

const (
	// KeySize is the required AES-256 key length in bytes.
	KeySize = 32

	nonceSize = 12

	// envelopeLengthThreshold separates encrypted envelopes from legacy
	// plaintext Base32 secrets. A stored secret longer than 40 characters is
	// treated as an envelope. This is a format-detection heuristic inherited
	// from existing data, not a cryptographic boundary: a plaintext Base32
	// secret over 40 characters would be misclassified.
	envelopeLengthThreshold = 40
)

var (
	// ErrDecryptionFailed is returned for any malformed or tampered envelope.
	ErrDecryptionFailed = errors.New("envelope decryption failed")
	// ErrInvalidKey is returned when the configured key is not exactly 32 bytes.
	ErrInvalidKey = errors.New("cipher key must be 32 bytes")
	// ErrKeyNotFound is returned when no key source yields a value.
	ErrKeyNotFound = errors.New("cipher key not found in environment or secret files")
)

// Cipher performs AES-256-GCM encryption and decryption of secret envelopes.
// A Cipher is immutable and safe for concurrent use.
type Cipher struct {
	aead cipher.AEAD
}

// NewCipher validates the key and prepares the AEAD. Key length errors are
// configuration faults: callers must fail startup, not requests.
func NewCipher(key []byte) (*Cipher, error) {
	if len(key) != KeySize {
		return nil, ErrInvalidKey
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &Cipher{aead: aead}, nil
}

// Encrypt seals plaintext under a fresh random nonce and returns
// Base64(nonce || ciphertext+tag).
func (c *Cipher) Encrypt(plaintext string) (string, error) {
	nonce := make([]byte, nonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}
	sealed := c.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt opens a Base64 envelope produced by Encrypt. Any decode, length, or
// tag failure yields ErrDecryptionFailed; corrupted plaintext is never
// returned silently.
func (c *Cipher) Decrypt(envelope string) (string, error) {
	data, err := base64.StdEncoding.DecodeString(envelope)
	if err != nil {
		return "", ErrDecryptionFailed
	}
	if len(data) < nonceSize {
		return "", ErrDecryptionFailed
	}
	nonce, ct := data[:nonceSize], data[nonceSize:]
	plaintext, err := c.aead.Open(nil, nonce, ct, nil)
	if err != nil {
		return "", ErrDecryptionFailed
	}
	return string(plaintext), nil
}

// IsEnvelope reports whether a stored second-factor secret should be treated
// as an encrypted envelope rather than a legacy plaintext Base32 secret.
func IsEnvelope(secret string) bool {
	return len(secret) > envelopeLengthThreshold
}

// KeyFromBase64 decodes and validates a Base64-encoded 32-byte key.
func KeyFromBase64(encoded string) ([]byte, error) {
	key, err := base64.StdEncoding.DecodeString(strings.TrimSpace(encoded))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	if len(key) != KeySize {
		return nil, ErrInvalidKey
	}
	return key, nil
}

// LoadKey resolves the Base64 key from the named environment variable, then
// from each secret file path in order. Missing sources are skipped; a present
// but invalid value fails immediately.
func LoadKey(envVar string, paths ...string) ([]byte, error) {
	if v := os.Getenv(envVar); v != "" {
		return KeyFromBase64(v)
	}
	for _, p := range paths {
		raw, err := os.ReadFile(p)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, err
		}
		return KeyFromBase64(string(raw))
	}
	return nil, ErrKeyNotFound
}
