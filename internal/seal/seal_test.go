package seal_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/idelchi/shadowenv/internal/errors"
	"github.com/idelchi/shadowenv/internal/kdf"
	"github.com/idelchi/shadowenv/internal/seal"
)

func testKey(b byte) kdf.Key {
	var key kdf.Key
	for i := range key {
		key[i] = b + byte(i)
	}

	return key
}

func TestSealOpenRoundTrip(t *testing.T) {
	t.Parallel()

	for _, size := range []int{0, 1, 64, 1 << 16} {
		plaintext := bytes.Repeat([]byte{0xAB}, size)

		nonce, err := seal.NewNonce()
		require.NoError(t, err)

		ciphertext, err := seal.Seal(testKey(1), nonce, plaintext)
		require.NoError(t, err)
		assert.Len(t, ciphertext, size+seal.Overhead)

		opened, err := seal.Open(testKey(1), nonce, ciphertext)
		require.NoError(t, err)
		assert.True(t, bytes.Equal(plaintext, opened))
	}
}

func TestOpenFailuresAreIndistinguishable(t *testing.T) {
	t.Parallel()

	nonce, err := seal.NewNonce()
	require.NoError(t, err)

	ciphertext, err := seal.Seal(testKey(1), nonce, []byte("hello world"))
	require.NoError(t, err)

	flipped := bytes.Clone(ciphertext)
	flipped[3] ^= 0x01

	badTag := bytes.Clone(ciphertext)
	badTag[len(badTag)-1] ^= 0x80

	otherNonce := bytes.Clone(nonce)
	otherNonce[0] ^= 0xFF

	cases := map[string]func() ([]byte, error){
		"wrong key":      func() ([]byte, error) { return seal.Open(testKey(2), nonce, ciphertext) },
		"flipped byte":   func() ([]byte, error) { return seal.Open(testKey(1), nonce, flipped) },
		"tampered tag":   func() ([]byte, error) { return seal.Open(testKey(1), nonce, badTag) },
		"tampered nonce": func() ([]byte, error) { return seal.Open(testKey(1), otherNonce, ciphertext) },
		"truncated":      func() ([]byte, error) { return seal.Open(testKey(1), nonce, ciphertext[:seal.Overhead-1]) },
		"short nonce":    func() ([]byte, error) { return seal.Open(testKey(1), nonce[:12], ciphertext) },
	}

	for name, open := range cases {
		plaintext, err := open()

		assert.Nil(t, plaintext, name)
		assert.Equal(t, errors.ErrAuthentication, err, name)
	}
}

func TestSealRejectsWrongNonceLength(t *testing.T) {
	t.Parallel()

	_, err := seal.Seal(testKey(1), make([]byte, 12), []byte("x"))
	assert.Error(t, err)
}

func TestNewNonceIsFresh(t *testing.T) {
	t.Parallel()

	first, err := seal.NewNonce()
	require.NoError(t, err)

	second, err := seal.NewNonce()
	require.NoError(t, err)

	assert.Len(t, first, seal.NonceSize)
	assert.NotEqual(t, first, second)
}
