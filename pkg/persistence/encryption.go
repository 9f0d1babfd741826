package persistence

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

	"github.com/aretw0/botflow/pkg/ports"
)

// envelopePrefix marks a stored value as an encrypted state name.
const envelopePrefix = "enc:v1:"

// ErrNotEncrypted is returned when a stored value is not an encryption envelope.
var ErrNotEncrypted = errors.New("stored state is not encrypted")

// EncryptionConfig holds the keys for encryption and decryption.
type EncryptionConfig struct {
	// ActiveKey encrypts new writes. Must be 32 bytes (AES-256).
	ActiveKey []byte

	// FallbackKeys are tried in order when the active key cannot decrypt a value,
	// so keys can be rotated without resetting conversations.
	FallbackKeys [][]byte
}

// Validate checks key sizes.
func (c EncryptionConfig) Validate() error {
	if len(c.ActiveKey) != 32 {
		return fmt.Errorf("active key must be 32 bytes, got %d", len(c.ActiveKey))
	}
	for i, k := range c.FallbackKeys {
		if len(k) != 32 {
			return fmt.Errorf("fallback key %d must be 32 bytes, got %d", i, len(k))
		}
	}
	return nil
}

// DecodeKey parses a base64 encoded AES-256 key.
func DecodeKey(s string) ([]byte, error) {
	key, err := base64.StdEncoding.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf("invalid key encoding: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("key must decode to 32 bytes, got %d", len(key))
	}
	return key, nil
}

type encryptedStore struct {
	next   ports.StateStore
	config EncryptionConfig
}

// Encrypted stores state names sealed with AES-GCM so the backend never sees
// where a conversation is in the flow. The conversation ID is bound as additional
// data, so a value copied to another conversation fails to decrypt. Values written
// without encryption fail to load with ErrNotEncrypted.
func Encrypted(config EncryptionConfig) (Decorator, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return func(next ports.StateStore) ports.StateStore {
		return &encryptedStore{next: next, config: config}
	}, nil
}

func (s *encryptedStore) GetState(ctx context.Context, conversationID string) (string, error) {
	stored, err := s.next.GetState(ctx, conversationID)
	if err != nil {
		return "", err
	}
	encoded, ok := strings.CutPrefix(stored, envelopePrefix)
	if !ok {
		return "", ErrNotEncrypted
	}
	ciphertext, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("failed to decode ciphertext: %w", err)
	}
	plain, err := decryptWithRotation(ciphertext, []byte(conversationID), s.config.ActiveKey, s.config.FallbackKeys)
	if err != nil {
		return "", fmt.Errorf("failed to decrypt state: %w", err)
	}
	return string(plain), nil
}

func (s *encryptedStore) SetState(ctx context.Context, conversationID, state string) error {
	ciphertext, err := encrypt([]byte(state), []byte(conversationID), s.config.ActiveKey)
	if err != nil {
		return fmt.Errorf("failed to encrypt state: %w", err)
	}
	return s.next.SetState(ctx, conversationID, envelopePrefix+base64.RawURLEncoding.EncodeToString(ciphertext))
}

func (s *encryptedStore) ClearState(ctx context.Context, conversationID string) error {
	return s.next.ClearState(ctx, conversationID)
}

func (s *encryptedStore) List(ctx context.Context) ([]string, error) {
	return list(ctx, s.next)
}

func encrypt(plaintext, aad, key []byte) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}
	return gcm.Seal(nonce, nonce, plaintext, aad), nil
}

func decryptWithRotation(ciphertext, aad, activeKey []byte, fallbackKeys [][]byte) ([]byte, error) {
	if plain, err := decrypt(ciphertext, aad, activeKey); err == nil {
		return plain, nil
	}
	for _, key := range fallbackKeys {
		if plain, err := decrypt(ciphertext, aad, key); err == nil {
			return plain, nil
		}
	}
	return nil, errors.New("decryption failed with all available keys")
}

func decrypt(ciphertext, aad, key []byte) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	if len(ciphertext) < gcm.NonceSize() {
		return nil, errors.New("ciphertext too short")
	}
	nonce, sealed := ciphertext[:gcm.NonceSize()], ciphertext[gcm.NonceSize():]
	return gcm.Open(nil, nonce, sealed, aad)
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
