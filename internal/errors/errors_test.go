package errors_test

import (
	stderrors "errors"
	"fmt"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/idelchi/shadowenv/internal/errors"
)

func TestIOErrorMatchesKindAndCause(t *testing.T) {
	t.Parallel()

	err := errors.IO("reading", "/tmp/x", fs.ErrNotExist)

	require.Error(t, err)
	assert.True(t, stderrors.Is(err, errors.ErrIO))
	assert.True(t, stderrors.Is(err, fs.ErrNotExist))
	assert.Contains(t, err.Error(), `reading "/tmp/x"`)

	var ioErr *errors.IOError
	require.True(t, stderrors.As(fmt.Errorf("wrapped: %w", err), &ioErr))
	assert.Equal(t, "/tmp/x", ioErr.Path)
}

func TestIONilPassthrough(t *testing.T) {
	t.Parallel()

	assert.NoError(t, errors.IO("reading", "x", nil))
}

func TestKind(t *testing.T) {
	t.Parallel()

	cases := map[string]error{
		"authentication": fmt.Errorf("opening: %w", errors.ErrAuthentication),
		"format":         errors.Format("bad magic"),
		"derivation":     errors.ErrDerivation,
		"path-safety":    errors.PathSafety("../x", "escapes destination"),
		"io":             errors.IO("open", "p", fs.ErrPermission),
		"unknown":        stderrors.New("other"),
		"":               nil,
	}

	for want, err := range cases {
		assert.Equal(t, want, errors.Kind(err), "error %v", err)
	}
}

func TestFormatKeepsGenericPrefix(t *testing.T) {
	t.Parallel()

	err := errors.Format("salt length %d exceeds %d remaining bytes", 40, 3)

	assert.ErrorIs(t, err, errors.ErrFormat)
	assert.Equal(t, "invalid file format: salt length 40 exceeds 3 remaining bytes", err.Error())
}
