package logic_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/goccy/go-yaml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/idelchi/shadowenv/internal/config"
	shadowerrors "github.com/idelchi/shadowenv/internal/errors"
	"github.com/idelchi/shadowenv/internal/logic"
)

// scripted answers prompts in order.
type scripted struct {
	answers []string
	asked   []string
}

func (s *scripted) ReadPassphrase(label string) (string, error) {
	s.asked = append(s.asked, label)

	if len(s.answers) == 0 {
		return "", errors.New("no more answers")
	}

	answer := s.answers[0]
	s.answers = s.answers[1:]

	return answer, nil
}

func tree(t *testing.T, parent, name string) string {
	t.Helper()

	root := filepath.Join(parent, name)
	require.NoError(t, os.MkdirAll(filepath.Join(root, "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.txt"), []byte("hello "+name), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "sub", "b.log"), []byte("world"), 0o644))

	return root
}

func TestPassphraseSources(t *testing.T) {
	t.Parallel()

	file := filepath.Join(t.TempDir(), "pw.txt")
	require.NoError(t, os.WriteFile(file, []byte("from-file\r\nsecond line\n"), 0o600))

	tests := []struct {
		name    string
		cfg     config.Config
		answers []string
		confirm bool
		want    string
		wantErr error
		asked   int
	}{
		{name: "flag wins", cfg: config.Config{Passphrase: "from-flag"}, want: "from-flag"},
		{name: "first line of file", cfg: config.Config{PassphraseFile: file}, want: "from-file"},
		{name: "prompt without confirmation", answers: []string{"typed"}, want: "typed", asked: 1},
		{name: "prompt with confirmation", answers: []string{"typed", "typed"}, confirm: true, want: "typed", asked: 2},
		{name: "confirmation mismatch", answers: []string{"typed", "tpyed"}, confirm: true, wantErr: logic.ErrMismatch, asked: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			prompt := &scripted{answers: tt.answers}

			got, err := logic.Passphrase(&tt.cfg, prompt, tt.confirm)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
			}

			assert.Len(t, prompt.asked, tt.asked)
		})
	}
}

func TestPassphraseFileMissing(t *testing.T) {
	t.Parallel()

	cfg := config.Config{PassphraseFile: filepath.Join(t.TempDir(), "missing")}

	_, err := logic.Passphrase(&cfg, &scripted{}, false)
	require.Error(t, err)
}

func TestRunBatchRoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	dir := t.TempDir()

	one := tree(t, dir, "one")
	two := tree(t, dir, "two")

	enc := &config.Config{
		Passphrase: "correct-horse",
		Parallel:   2,
		Quiet:      true,
		Exclude:    []string{"*.log"},
		Targets:    []string{one, two},
	}
	require.NoError(t, logic.Run(ctx, enc, &scripted{}))

	for _, root := range []string{one, two} {
		name := filepath.Base(root)

		dec := &config.Config{
			Passphrase: "correct-horse",
			Parallel:   1,
			Quiet:      true,
			Decrypt:    true,
			Targets:    []string{filepath.Join(root, name+".shadow")},
		}
		require.NoError(t, logic.Run(ctx, dec, &scripted{}))

		restored := filepath.Join(root, name+"_restored", name)

		data, err := os.ReadFile(filepath.Join(restored, "a.txt"))
		require.NoError(t, err)
		assert.Equal(t, "hello "+name, string(data))

		_, err = os.Stat(filepath.Join(restored, "sub", "b.log"))
		assert.True(t, os.IsNotExist(err), "excluded file must not be restored")
	}
}

func TestRunReportsFailures(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	good := tree(t, dir, "good")

	cfg := &config.Config{
		Passphrase: "pw",
		Parallel:   1,
		Quiet:      true,
		Targets:    []string{good, filepath.Join(dir, "missing")},
	}

	err := logic.Run(context.Background(), cfg, &scripted{})
	require.ErrorIs(t, err, shadowerrors.ErrPathSafety)

	_, statErr := os.Stat(filepath.Join(good, "good.shadow"))
	require.NoError(t, statErr, "other targets still complete")
}

func TestRunRejectsForeignExtension(t *testing.T) {
	t.Parallel()

	file := filepath.Join(t.TempDir(), "archive.zip")
	require.NoError(t, os.WriteFile(file, []byte("PK"), 0o600))

	cfg := &config.Config{Passphrase: "pw", Parallel: 1, Quiet: true, Decrypt: true, Targets: []string{file}}

	require.ErrorIs(t, logic.Run(context.Background(), cfg, &scripted{}), shadowerrors.ErrFormat)
}

func TestRunHidesFormatDetail(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	// Declared salt length far beyond the file size.
	malformed := filepath.Join(dir, "broken.shadow")
	require.NoError(t, os.WriteFile(malformed, append([]byte("SHADOW\xff\xff\xff\xff"), make([]byte, 40)...), 0o600))

	cfg := &config.Config{Passphrase: "pw", Parallel: 1, Quiet: true, Decrypt: true, Targets: []string{malformed}}

	err := logic.Run(context.Background(), cfg, &scripted{})
	require.ErrorIs(t, err, shadowerrors.ErrFormat)
	assert.NotContains(t, err.Error(), "salt length")
	assert.NotContains(t, err.Error(), "4294967295")

	var out bytes.Buffer

	err = logic.RunInspect(context.Background(), &config.Config{Targets: []string{malformed}}, &scripted{}, &out)
	require.ErrorIs(t, err, shadowerrors.ErrFormat)
	assert.Equal(t, shadowerrors.ErrFormat.Error(), err.Error())
	assert.Empty(t, out.String())
}

func TestRunInspect(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	root := tree(t, t.TempDir(), "demo")

	require.NoError(t, logic.Run(ctx, &config.Config{
		Passphrase: "pw", Parallel: 1, Quiet: true, Targets: []string{root},
	}, &scripted{}))

	target := filepath.Join(root, "demo.shadow")

	var out bytes.Buffer

	cfg := &config.Config{Targets: []string{target}, List: true, Quiet: true}
	require.NoError(t, logic.RunInspect(ctx, cfg, &scripted{answers: []string{"pw"}}, &out))

	var reports []logic.Report
	require.NoError(t, yaml.Unmarshal(out.Bytes(), &reports))
	require.Len(t, reports, 1)

	assert.Equal(t, target, reports[0].Path)
	assert.Len(t, reports[0].Header.Salt, 22)

	var names []string
	for _, e := range reports[0].Entries {
		names = append(names, e.Name)
	}

	assert.ElementsMatch(t, []string{"demo", "demo/a.txt", "demo/sub", "demo/sub/b.log"}, names)
}

func TestRunCheck(t *testing.T) {
	t.Parallel()

	root := tree(t, t.TempDir(), "demo")

	var out bytes.Buffer

	cfg := &config.Config{Targets: []string{root}, Exclude: []string{"*.log", "sub"}}
	require.NoError(t, logic.RunCheck(cfg, &out))
	assert.Contains(t, out.String(), "exclude: *.log: 1 entries")

	out.Reset()

	cfg.Exclude = []string{"*.tmp"}
	require.ErrorIs(t, logic.RunCheck(cfg, &out), logic.ErrUnmatched)
	assert.Contains(t, out.String(), "(ERROR)")
}
