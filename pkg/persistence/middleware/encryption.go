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

	"github.com/talhaorak/taiga-mcp/pkg/domain"
	"github.com/talhaorak/taiga-mcp/pkg/session"
)

// encPrefix marks an encrypted token so plaintext records are never
// mistaken for ciphertext.
const encPrefix = "enc:"

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
	next   session.RecordStore
	config EncryptionConfig
}

// NewEncryptionMiddleware creates a middleware that encrypts the auth token
// of every persisted record using AES-GCM. The record ID, host and creation
// time stay readable so listing and pruning work without the key.
func NewEncryptionMiddleware(config EncryptionConfig) Middleware {
	if len(config.ActiveKey) != 32 {
		panic("active key must be 32 bytes (AES-256)")
	}
	return func(next session.RecordStore) session.RecordStore {
		return &encryptionMiddleware{
			next:   next,
			config: config,
		}
	}
}

func (m *encryptionMiddleware) Save(ctx context.Context, rec domain.SessionRecord) error {
	ciphertext, err := encrypt([]byte(rec.Token), m.config.ActiveKey)
	if err != nil {
		return fmt.Errorf("failed to encrypt token: %w", err)
	}
	rec.Token = encPrefix + base64.StdEncoding.EncodeToString(ciphertext)
	return m.next.Save(ctx, rec)
}

func (m *encryptionMiddleware) Delete(ctx context.Context, id string) error {
	return m.next.Delete(ctx, id)
}

func (m *encryptionMiddleware) List(ctx context.Context) ([]domain.SessionRecord, error) {
	recs, err := m.next.List(ctx)
	if err != nil {
		return nil, err
	}
	for i, rec := range recs {
		// Fail secure: with encryption configured, a plaintext record is
		// either tampering or a misconfiguration.
		if !strings.HasPrefix(rec.Token, encPrefix) {
			return nil, fmt.Errorf("record %s is missing the encryption envelope", rec.ID)
		}
		ciphertext, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(rec.Token, encPrefix))
		if err != nil {
			return nil, fmt.Errorf("failed to decode ciphertext base64 for %s: %w", rec.ID, err)
		}
		plain, err := decryptWithRotation(ciphertext, m.config.ActiveKey, m.config.FallbackKeys)
		if err != nil {
			return nil, fmt.Errorf("failed to decrypt token for %s: %w", rec.ID, err)
		}
		recs[i].Token = string(plain)
	}
	return recs, nil
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
	// Try active key first
	if plain, err := decrypt(ciphertext, activeKey); err == nil {
		return plain, nil
	}

	// Try fallbacks in order
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
