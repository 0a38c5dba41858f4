// Package seal provides payload-only authenticated encryption with XChaCha20-Poly1305.
package seal

import (
	"crypto/rand"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"

	"github.com/idelchi/shadowenv/internal/errors"
	"github.com/idelchi/shadowenv/internal/kdf"
)

const (
	// NonceSize is the XChaCha20-Poly1305 nonce length.
	NonceSize = chacha20poly1305.NonceSizeX
	// Overhead is the authentication tag length appended by Seal.
	Overhead = chacha20poly1305.Overhead
)

// Seal encrypts and authenticates plaintext under key and nonce.
// The result is exactly Overhead bytes longer than plaintext.
func Seal(key kdf.Key, nonce, plaintext []byte) ([]byte, error) {
	if len(nonce) != NonceSize {
		return nil, fmt.Errorf("sealing: nonce must be %d bytes, got %d", NonceSize, len(nonce))
	}

	aead, err := chacha20poly1305.NewX(key[:])
	if err != nil {
		return nil, fmt.Errorf("creating cipher: %w", err)
	}

	return aead.Seal(nil, nonce, plaintext, nil), nil
}

// Open verifies and decrypts ciphertext. Any failure, whatever its cause,
// is reported as errors.ErrAuthentication and no plaintext is returned.
func Open(key kdf.Key, nonce, ciphertext []byte) ([]byte, error) {
	if len(nonce) != NonceSize || len(ciphertext) < Overhead {
		return nil, errors.ErrAuthentication
	}

	aead, err := chacha20poly1305.NewX(key[:])
	if err != nil {
		return nil, errors.ErrAuthentication
	}

	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, errors.ErrAuthentication
	}

	return plaintext, nil
}

// NewNonce returns NonceSize fresh random bytes.
func NewNonce() ([]byte, error) {
	nonce := make([]byte, NonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("generating nonce: %w", err)
	}

	return nonce, nil
}
