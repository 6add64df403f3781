package middleware

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aretw0/stepper/pkg/ports"
	"github.com/aretw0/stepper/pkg/registration"
)

// encryptedPrefix marks a sealed value in a cached form.
const encryptedPrefix = "enc:v1:"

// EncryptionConfig holds the keys for encryption and decryption.
type EncryptionConfig struct {
	// ActiveKey is the key used for encrypting new data.
	// Must be 32 bytes for AES-256.
	ActiveKey []byte

	// FallbackKeys is a list of old keys to try when decryption fails.
	// This enables zero-downtime key rotation.
	FallbackKeys [][]byte
}

type encryptionMiddleware struct {
	ports.StepperCache
	config EncryptionConfig
}

// NewEncryptionMiddleware creates a middleware that seals the personal fields of
// cached forms (contacts and national identifiers) with AES-GCM. Values written
// before encryption was enabled are read back as they are.
func NewEncryptionMiddleware(config EncryptionConfig) Middleware {
	if len(config.ActiveKey) != 32 {
		panic("active key must be 32 bytes (AES-256)")
	}
	return func(next ports.StepperCache) ports.StepperCache {
		return &encryptionMiddleware{
			StepperCache: next,
			config:       config,
		}
	}
}

func (m *encryptionMiddleware) SaveForm(ctx context.Context, sessionID string, form *registration.RegistrationForm) error {
	sealed := form.Clone()
	for _, field := range personalFields(sealed) {
		if *field == "" {
			continue
		}
		ciphertext, err := encrypt([]byte(*field), m.config.ActiveKey)
		if err != nil {
			return fmt.Errorf("failed to encrypt form: %w", err)
		}
		*field = encryptedPrefix + base64.StdEncoding.EncodeToString(ciphertext)
	}
	return m.StepperCache.SaveForm(ctx, sessionID, sealed)
}

func (m *encryptionMiddleware) LoadForm(ctx context.Context, sessionID string) (*registration.RegistrationForm, error) {
	form, err := m.StepperCache.LoadForm(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	for _, field := range personalFields(form) {
		encoded, ok := strings.CutPrefix(*field, encryptedPrefix)
		if !ok {
			continue
		}
		ciphertext, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			return nil, fmt.Errorf("failed to decode ciphertext base64: %w", err)
		}
		plainText, err := decryptWithRotation(ciphertext, m.config.ActiveKey, m.config.FallbackKeys)
		if err != nil {
			return nil, fmt.Errorf("failed to decrypt form of session %s: %w", sessionID, err)
		}
		*field = string(plainText)
	}
	return form, nil
}

// ParseKey decodes a base64 AES-256 key.
func ParseKey(s string) ([]byte, error) {
	key, err := base64.StdEncoding.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf("invalid encryption key: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("invalid encryption key: want 32 bytes, got %d", len(key))
	}
	return key, nil
}

// Helpers

func encrypt(plaintext []byte, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}

	return gcm.Seal(nonce, nonce, plaintext, nil), nil
}

func decryptWithRotation(ciphertext []byte, activeKey []byte, fallbackKeys [][]byte) ([]byte, error) {
	if plain, err := decrypt(ciphertext, activeKey); err == nil {
		return plain, nil
	}

	for _, key := range fallbackKeys {
		if plain, err := decrypt(ciphertext, key); err == nil {
			return plain, nil
		}
	}

	return nil, errors.New("decryption failed with all available keys")
}

func decrypt(ciphertext []byte, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	if len(ciphertext) < gcm.NonceSize() {
		return nil, errors.New("ciphertext too short")
	}

	nonce := ciphertext[:gcm.NonceSize()]
	ciphertextBytes := ciphertext[gcm.NonceSize():]

	return gcm.Open(nil, nonce, ciphertextBytes, nil)
}
