package cryptox

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/nacl/secretbox"
)

// SealerKeySize is the required key length for a Sealer (NaCl secretbox).
const SealerKeySize = 32

const sealerNonceSize = 24

var (
	// ErrSealerKey reports a key of the wrong length.
	ErrSealerKey = errors.New("cryptox: sealer key must be 32 bytes")

	// ErrSealOpen reports ciphertext that failed authentication or decoding.
	ErrSealOpen = errors.New("cryptox: cannot open sealed value")
)

// Sealer encrypts small secrets (bearer credentials) for at-rest storage
// using NaCl secretbox. Sealed values are base64url strings carrying the
// nonce as a prefix.
type Sealer struct {
	key [SealerKeySize]byte
}

// NewSealer builds a Sealer from a raw 32-byte key.
func NewSealer(key []byte) (*Sealer, error) {
	if len(key) != SealerKeySize {
		return nil, ErrSealerKey
	}

	s := &Sealer{}
	copy(s.key[:], key)
	return s, nil
}

// NewSealerFromBase64 builds a Sealer from a standard-base64 encoded key,
// the form the key takes in configuration (generate one with
// `openssl rand -base64 32`).
func NewSealerFromBase64(encoded string) (*Sealer, error) {
	key, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("cryptox: decode sealer key: %w", err)
	}
	return NewSealer(key)
}

// Seal encrypts plaintext and returns base64url(nonce || ciphertext).
func (s *Sealer) Seal(plaintext string) (string, error) {
	var nonce [sealerNonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return "", fmt.Errorf("cryptox: nonce: %w", err)
	}

	sealed := secretbox.Seal(nonce[:], []byte(plaintext), &nonce, &s.key)
	return base64.RawURLEncoding.EncodeToString(sealed), nil
}

// Open decrypts a value produced by Seal. Tampered or truncated input
// returns ErrSealOpen.
func (s *Sealer) Open(sealed string) (string, error) {
	raw, err := base64.RawURLEncoding.DecodeString(sealed)
	if err != nil {
		return "", ErrSealOpen
	}
	if len(raw) < sealerNonceSize {
		return "", ErrSealOpen
	}

	var nonce [sealerNonceSize]byte
	copy(nonce[:], raw[:sealerNonceSize])

	plaintext, ok := secretbox.Open(nil, raw[sealerNonceSize:], &nonce, &s.key)
	if !ok {
		return "", ErrSealOpen
	}

	return string(plaintext), nil
}
