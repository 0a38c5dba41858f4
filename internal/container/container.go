// Package container encodes and decodes the on-disk secure object layout.
//
// All integers are little-endian:
//
//	magic      6 bytes   "SHADOW"
//	salt_len   4 bytes   uint32
//	salt       salt_len  textual KDF salt
//	nonce      24 bytes  AEAD nonce
//	ciphertext rest      AEAD output
//
// The codec performs no randomness generation and no cryptography.
package container

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/idelchi/shadowenv/internal/errors"
	"github.com/idelchi/shadowenv/internal/kdf"
	"github.com/idelchi/shadowenv/internal/seal"
)

const (
	// Magic identifies a secure object.
	Magic = "SHADOW"
	// Extension is the reserved file extension for secure objects.
	Extension = ".shadow"
	// NonceSize is the fixed nonce length stored after the salt.
	NonceSize = seal.NonceSize

	saltLenSize = 4
)

// Container holds the decoded fields of a secure object.
type Container struct {
	Salt       []byte
	Nonce      []byte
	Ciphertext []byte
}

// Size returns the encoded length of c.
func (c Container) Size() int {
	return len(Magic) + saltLenSize + len(c.Salt) + len(c.Nonce) + len(c.Ciphertext)
}

// Encode serializes c.
func Encode(c Container) []byte {
	var buf bytes.Buffer

	buf.Grow(c.Size())

	// bytes.Buffer writes cannot fail.
	_, _ = c.WriteTo(&buf)

	return buf.Bytes()
}

// WriteTo writes the encoded container to w.
func (c Container) WriteTo(w io.Writer) (int64, error) {
	header := make([]byte, len(Magic)+saltLenSize)
	copy(header, Magic)
	binary.LittleEndian.PutUint32(header[len(Magic):], uint32(len(c.Salt))) //nolint:gosec

	var total int64

	for _, part := range [][]byte{header, c.Salt, c.Nonce, c.Ciphertext} {
		n, err := w.Write(part)
		total += int64(n)

		if err != nil {
			return total, fmt.Errorf("writing container: %w", err)
		}
	}

	return total, nil
}

// Decode parses data into its fields. Checks run in a fixed order, and any
// violation is reported as errors.ErrFormat before the caller can attempt
// key derivation or decryption.
// The returned slices alias data.
func Decode(data []byte) (Container, error) {
	if len(data) < len(Magic) {
		return Container{}, errors.Format("input shorter than magic marker")
	}

	if !bytes.Equal(data[:len(Magic)], []byte(Magic)) {
		return Container{}, errors.Format("magic marker mismatch, not a %s file", Extension)
	}

	rest := data[len(Magic):]

	if len(rest) < saltLenSize {
		return Container{}, errors.Format("truncated salt length")
	}

	saltLen := uint64(binary.LittleEndian.Uint32(rest))
	rest = rest[saltLenSize:]

	if saltLen > uint64(len(rest)) {
		return Container{}, errors.Format("salt length %d exceeds %d remaining bytes", saltLen, len(rest))
	}

	salt := rest[:saltLen]
	rest = rest[saltLen:]

	if err := kdf.CheckSalt(salt); err != nil {
		return Container{}, errors.Format("%v", err)
	}

	if len(rest) < NonceSize {
		return Container{}, errors.Format("truncated nonce: %d of %d bytes", len(rest), NonceSize)
	}

	return Container{
		Salt:       salt,
		Nonce:      rest[:NonceSize],
		Ciphertext: rest[NonceSize:],
	}, nil
}

// Header summarizes a container without decrypting it.
type Header struct {
	Salt             string `yaml:"salt"`
	Nonce            string `yaml:"nonce"`
	CiphertextLength int    `yaml:"ciphertext_length"`
	PayloadLength    int    `yaml:"payload_length"`
}

// Summary returns the Header of c.
func (c Container) Summary() Header {
	payload := len(c.Ciphertext) - seal.Overhead
	if payload < 0 {
		payload = 0
	}

	return Header{
		Salt:             string(c.Salt),
		Nonce:            fmt.Sprintf("%x", c.Nonce),
		CiphertextLength: len(c.Ciphertext),
		PayloadLength:    payload,
	}
}
