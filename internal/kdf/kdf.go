// Package kdf turns a passphrase and salt into a symmetric key using Argon2id.
package kdf

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"golang.org/x/crypto/argon2"

	"github.com/idelchi/shadowenv/internal/errors"
)

const (
	// KeySize is the length of every derived key.
	KeySize = 32

	// SaltEntropy is the number of random bytes behind a generated salt.
	SaltEntropy = 16

	// MinSaltLen and MaxSaltLen bound the textual salt.
	MinSaltLen = 8
	MaxSaltLen = 64
)

// Key is a derived symmetric key. It is never persisted.
type Key [KeySize]byte

// Zero overwrites the key material.
func (k *Key) Zero() {
	for i := range k {
		k[i] = 0
	}
}

// Deriver derives keys from passphrases.
type Deriver interface {
	Derive(passphrase string, salt []byte) (Key, error)
}

// Params are the Argon2id cost parameters.
type Params struct {
	// Time is the number of passes over memory.
	Time uint32
	// Memory is the memory cost in KiB.
	Memory uint32
	// Threads is the degree of parallelism.
	Threads uint8
}

// DefaultParams mirrors the reference Argon2id defaults: 19 MiB, 2 passes, 1 lane.
//
//nolint:gochecknoglobals
var DefaultParams = Params{
	Time:    2,
	Memory:  19 * 1024,
	Threads: 1,
}

// Validate reports parameters the primitive would reject.
func (p Params) Validate() error {
	if p.Time < 1 {
		return fmt.Errorf("%w: time cost must be at least 1", errors.ErrDerivation)
	}

	if p.Threads < 1 {
		return fmt.Errorf("%w: parallelism must be at least 1", errors.ErrDerivation)
	}

	if p.Memory < 8*uint32(p.Threads) {
		return fmt.Errorf("%w: memory cost %d KiB below minimum for %d lanes", errors.ErrDerivation, p.Memory, p.Threads)
	}

	return nil
}

// Derive computes the key for passphrase and salt.
// The same inputs always yield the same key.
func (p Params) Derive(passphrase string, salt []byte) (Key, error) {
	var key Key

	if err := p.Validate(); err != nil {
		return key, err
	}

	if err := CheckSalt(salt); err != nil {
		return key, fmt.Errorf("%w: %w", errors.ErrDerivation, err)
	}

	derived := argon2.IDKey([]byte(passphrase), salt, p.Time, p.Memory, p.Threads, KeySize)
	copy(key[:], derived)

	for i := range derived {
		derived[i] = 0
	}

	return key, nil
}

// DeriveKey derives a key with DefaultParams.
func DeriveKey(passphrase string, salt []byte) (Key, error) {
	return DefaultParams.Derive(passphrase, salt)
}

// NewSalt returns a fresh random salt in its textual form:
// SaltEntropy random bytes as unpadded standard base64.
func NewSalt() ([]byte, error) {
	raw := make([]byte, SaltEntropy)
	if _, err := rand.Read(raw); err != nil {
		return nil, fmt.Errorf("generating salt: %w", err)
	}

	salt := make([]byte, base64.RawStdEncoding.EncodedLen(len(raw)))
	base64.RawStdEncoding.Encode(salt, raw)

	return salt, nil
}

// CheckSalt reports whether salt has the textual form NewSalt produces:
// MinSaltLen to MaxSaltLen characters of the unpadded standard base64 alphabet.
func CheckSalt(salt []byte) error {
	if len(salt) < MinSaltLen || len(salt) > MaxSaltLen {
		return fmt.Errorf("salt length %d outside [%d, %d]", len(salt), MinSaltLen, MaxSaltLen)
	}

	for i, c := range salt {
		switch {
		case 'A' <= c && c <= 'Z', 'a' <= c && c <= 'z', '0' <= c && c <= '9', c == '+', c == '/':
		default:
			return fmt.Errorf("salt byte %d is not base64 text", i)
		}
	}

	return nil
}
