// Package codec provides the pluggable value codec the overlay passes stored
// values through. The overlay itself treats values as opaque bytes; a codec
// wraps them on put and unwraps them on get.
package codec

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"io"

	"golang.org/x/xerrors"
)

// Codec transforms values on their way in and out of the overlay. Wrap and
// Unwrap must be inverses of each other.
type Codec interface {
	Wrap(value []byte) ([]byte, error)
	Unwrap(stored []byte) ([]byte, error)
}

// Identity is the default codec: values are stored as-is.
type Identity struct{}

func (Identity) Wrap(value []byte) ([]byte, error) { return value, nil }

func (Identity) Unwrap(stored []byte) ([]byte, error) { return stored, nil }

// AES encrypts values with AES-256-GCM under a key derived from a
// passphrase. The nonce is generated per value and prepended to the
// ciphertext, so every wrap of the same value produces a different stored
// form.
type AES struct {
	aead cipher.AEAD
}

// NewAES creates an AES codec from a passphrase.
func NewAES(passphrase string) (*AES, error) {
	key := sha256.Sum256([]byte(passphrase))

	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, xerrors.Errorf("failed to create cipher: %w", err)
	}

	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, xerrors.Errorf("failed to create GCM: %w", err)
	}

	return &AES{aead: aead}, nil
}

// Wrap encrypts a value.
func (c *AES) Wrap(value []byte) ([]byte, error) {
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, xerrors.Errorf("failed to generate nonce: %w", err)
	}

	return c.aead.Seal(nonce, nonce, value, nil), nil
}

// Unwrap decrypts a stored value. It fails when the stored bytes were not
// produced by Wrap with the same passphrase.
func (c *AES) Unwrap(stored []byte) ([]byte, error) {
	if len(stored) < c.aead.NonceSize() {
		return nil, xerrors.Errorf("stored value shorter than nonce")
	}

	nonce, ciphertext := stored[:c.aead.NonceSize()], stored[c.aead.NonceSize():]

	value, err := c.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, xerrors.Errorf("failed to decrypt value: %w", err)
	}
	return value, nil
}
