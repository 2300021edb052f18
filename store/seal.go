package store

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

// Sealer encrypts credential blobs before they touch disk or a shared
// backend. Both the AES and HMAC keys are derived from a single caller
// secret, so rotating the secret invalidates everything sealed under it.
type Sealer struct {
	encryptionKey []byte
	hmacKey       []byte
}

// NewSealer derives the cipher and signing keys from secret via HKDF-SHA256.
// The secret can be any length; it must simply be stable across restarts.
func NewSealer(secret []byte) (*Sealer, error) {
	if len(secret) == 0 {
		return nil, fmt.Errorf("sealer secret must not be empty")
	}

	kdf := hkdf.New(sha256.New, secret, nil, []byte("credential-store-seal"))

	encryptionKey := make([]byte, 32)
	if _, err := io.ReadFull(kdf, encryptionKey); err != nil {
		return nil, fmt.Errorf("failed to derive encryption key: %w", err)
	}

	hmacKey := make([]byte, 32)
	if _, err := io.ReadFull(kdf, hmacKey); err != nil {
		return nil, fmt.Errorf("failed to derive hmac key: %w", err)
	}

	return &Sealer{
		encryptionKey: encryptionKey,
		hmacKey:       hmacKey,
	}, nil
}

// Seal encrypts and signs plaintext, returning a base64 token.
func (s *Sealer) Seal(plaintext []byte) (string, error) {
	block, err := aes.NewCipher(s.encryptionKey)
	if err != nil {
		return "", fmt.Errorf("failed to create cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("failed to create GCM: %w", err)
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	ciphertext := gcm.Seal(nonce, nonce, plaintext, nil)

	mac := hmac.New(sha256.New, s.hmacKey)
	mac.Write(ciphertext)
	signature := mac.Sum(nil)

	return base64.URLEncoding.EncodeToString(append(signature, ciphertext...)), nil
}

// Open verifies and decrypts a token produced by Seal.
func (s *Sealer) Open(token string) ([]byte, error) {
	data, err := base64.URLEncoding.DecodeString(token)
	if err != nil {
		return nil, fmt.Errorf("failed to decode base64: %w", err)
	}

	if len(data) < sha256.Size {
		return nil, fmt.Errorf("sealed payload too short")
	}

	signature := data[:sha256.Size]
	ciphertext := data[sha256.Size:]

	mac := hmac.New(sha256.New, s.hmacKey)
	mac.Write(ciphertext)
	expectedMAC := mac.Sum(nil)

	if !hmac.Equal(signature, expectedMAC) {
		return nil, fmt.Errorf("sealed payload failed signature check")
	}

	block, err := aes.NewCipher(s.encryptionKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	nonceSize := gcm.NonceSize()
	if len(ciphertext) < nonceSize {
		return nil, fmt.Errorf("sealed payload too short")
	}

	nonce, encrypted := ciphertext[:nonceSize], ciphertext[nonceSize:]
	plaintext, err := gcm.Open(nil, nonce, encrypted, nil)
	if err != nil {
		return nil, fmt.Errorf("sealed payload failed to decrypt: %w", err)
	}

	return plaintext, nil
}
