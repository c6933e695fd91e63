package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"

	"golang.org/x/crypto/nacl/secretbox"
)

const nonceSize = 24

// ErrSealedSecret indicates a stored secret that was not sealed with this key
// or has been altered.
var ErrSealedSecret = errors.New("sealed secret cannot be opened")

// SecretBox encrypts Appwrite session secrets before they leave the process
// for a shared store.
type SecretBox struct {
	key [32]byte
}

// NewSecretBox derives a secretbox key from keyMaterial, which must not be empty.
func NewSecretBox(keyMaterial []byte) (*SecretBox, error) {
	if len(keyMaterial) == 0 {
		return nil, errors.New("session encryption key must not be empty")
	}
	return &SecretBox{key: sha256.Sum256(keyMaterial)}, nil
}

// Seal returns the nonce and ciphertext of plaintext, base64url encoded.
func (b *SecretBox) Seal(plaintext string) (string, error) {
	var nonce [nonceSize]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}
	sealed := secretbox.Seal(nonce[:], []byte(plaintext), &nonce, &b.key)
	return base64.RawURLEncoding.EncodeToString(sealed), nil
}

// Open reverses Seal.
func (b *SecretBox) Open(sealed string) (string, error) {
	raw, err := base64.RawURLEncoding.DecodeString(sealed)
	if err != nil || len(raw) < nonceSize+secretbox.Overhead {
		return "", ErrSealedSecret
	}
	var nonce [nonceSize]byte
	copy(nonce[:], raw[:nonceSize])

	plaintext, ok := secretbox.Open(nil, raw[nonceSize:], &nonce, &b.key)
	if !ok {
		return "", ErrSealedSecret
	}
	return string(plaintext), nil
}
