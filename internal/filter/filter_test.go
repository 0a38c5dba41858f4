package filter_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/idelchi/shadowenv/internal/filter"
)

func TestExcluded(t *testing.T) {
	t.Parallel()

	flt, err := filter.New([]string{"*.log", "./.git/", "build/**", "docs/*.tmp", "  "})
	require.NoError(t, err)

	tests := []struct {
		path string
		want bool
	}{
		{path: "app.log", want: true},
		{path: "a/b/c.log", want: true},
		{path: ".git", want: true},
		{path: "build/out/bin", want: true},
		{path: "docs/x.tmp", want: true},
		{path: "docs/nested/x.tmp", want: false},
		{path: "src/main.go", want: false},
		{path: "logs", want: false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, flt.Excluded(tt.path), tt.path)
	}

	assert.Equal(t, []string{"*.log", ".git", "build/**", "docs/*.tmp"}, flt.Patterns())
}

func TestNilFilterExcludesNothing(t *testing.T) {
	t.Parallel()

	var flt *filter.Filter

	assert.False(t, flt.Excluded("anything"))
	assert.Nil(t, flt.Patterns())
}

func TestNewRejectsInvalidPattern(t *testing.T) {
	t.Parallel()

	_, err := filter.New([]string{"[unclosed"})
	assert.Error(t, err)

	assert.Error(t, filter.Validate([]string{"ok/**", "[unclosed"}))
	assert.NoError(t, filter.Validate([]string{"ok/**", "*.log"}))
}

func TestLoadPatternsJSONC(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "exclude.jsonc")

	content := `[
  // editor droppings
  "*.swp",
  "node_modules", /* dependencies */
]`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	patterns, err := filter.LoadPatterns(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"*.swp", "node_modules"}, patterns)
}

func TestLoadPatternsErrors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	_, err := filter.LoadPatterns(filepath.Join(dir, "missing.jsonc"))
	require.Error(t, err)

	bad := filepath.Join(dir, "bad.jsonc")
	require.NoError(t, os.WriteFile(bad, []byte(`{"not": "an array"}`), 0o600))

	_, err = filter.LoadPatterns(bad)
	require.Error(t, err)

	invalid := filepath.Join(dir, "invalid.jsonc")
	require.NoError(t, os.WriteFile(invalid, []byte(`["*.log", "[unclosed"]`), 0o600))

	_, err = filter.LoadPatterns(invalid)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "[unclosed")
}
