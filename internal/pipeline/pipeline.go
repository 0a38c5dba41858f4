package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/idelchi/shadowenv/internal/archive"
	"github.com/idelchi/shadowenv/internal/container"
	"github.com/idelchi/shadowenv/internal/errors"
	"github.com/idelchi/shadowenv/internal/fileutil"
	"github.com/idelchi/shadowenv/internal/filter"
	"github.com/idelchi/shadowenv/internal/kdf"
	"github.com/idelchi/shadowenv/internal/logging"
	"github.com/idelchi/shadowenv/internal/seal"
)

// RestoredSuffix is appended to the container's stem to form the default restore directory.
const RestoredSuffix = "_restored"

// Pipeline seals folders into containers and restores them.
// A Pipeline holds no per-call state and is safe for concurrent use.
type Pipeline struct {
	deriver kdf.Deriver
	logger  *logging.Logger
	filter  *filter.Filter
}

// New returns a Pipeline using Argon2id defaults and a discarding logger.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		deriver: kdf.DefaultParams,
		logger:  logging.Discard(),
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// EncryptFolder archives root, encrypts it under passphrase and writes the container to output.
// An empty output defaults to "<root>/<basename of root>.shadow". The output path is never
// archived, and it only appears once the container is fully written. It returns the path written.
func (p *Pipeline) EncryptFolder(ctx context.Context, root, passphrase, output string) (_ string, err error) {
	if output == "" {
		output = DefaultOutput(root)
	}

	output, err = filepath.Abs(output)
	if err != nil {
		return "", errors.IO("resolving", output, err)
	}

	p.logger.Debugf("packing %q", root)

	stream, stats, err := archive.Pack(root, archive.Options{
		Exclude: []string{output},
		Filter:  p.filter,
		Logger:  p.logger,
	})
	if err != nil {
		return "", fmt.Errorf("packing %q: %w", root, err)
	}

	p.logger.Debugf("packed %d files and %d directories (%d bytes compressed)", stats.Files, stats.Dirs, len(stream))

	if err := ctx.Err(); err != nil {
		return "", err
	}

	salt, err := kdf.NewSalt()
	if err != nil {
		return "", err
	}

	nonce, err := seal.NewNonce()
	if err != nil {
		return "", err
	}

	key, err := p.deriver.Derive(passphrase, salt)
	if err != nil {
		return "", err
	}
	defer key.Zero()

	if err := ctx.Err(); err != nil {
		return "", err
	}

	ciphertext, err := seal.Seal(key, nonce, stream)
	if err != nil {
		return "", err
	}

	c := container.Container{Salt: salt, Nonce: nonce, Ciphertext: ciphertext}

	if err := p.write(ctx, output, c); err != nil {
		return "", err
	}

	p.logger.Debugf("wrote %q", output)

	return output, nil
}

// write encodes c into a temp file beside output and renames it into place.
func (p *Pipeline) write(ctx context.Context, output string, c container.Container) (err error) {
	if err := os.MkdirAll(filepath.Dir(output), 0o755); err != nil {
		return errors.IO("creating directory", filepath.Dir(output), err)
	}

	tc, err := fileutil.NewTempContext(output)
	if err != nil {
		return err
	}

	defer tc.CleanupOnError(&err)

	if _, err = c.WriteTo(tc); err != nil {
		return err
	}

	if err = ctx.Err(); err != nil {
		return err
	}

	return tc.Commit()
}

// DecryptContainer reads the container at input, authenticates it with passphrase and
// restores the archived folder under dest. An empty dest defaults to
// "<directory of input>/<stem of input>_restored". It returns the destination directory.
//
// The header is validated before any key derivation takes place.
func (p *Pipeline) DecryptContainer(ctx context.Context, input, passphrase, dest string) (string, error) {
	if dest == "" {
		dest = DefaultDestination(input)
	}

	stream, err := p.open(ctx, input, passphrase)
	if err != nil {
		return "", err
	}

	if err := ctx.Err(); err != nil {
		return "", err
	}

	p.logger.Debugf("unpacking into %q", dest)

	if err := archive.Unpack(stream, dest); err != nil {
		return "", fmt.Errorf("unpacking %q: %w", input, err)
	}

	return dest, nil
}

// List decrypts the container at input and returns its entries without extracting them.
func (p *Pipeline) List(ctx context.Context, input, passphrase string) ([]archive.Entry, error) {
	stream, err := p.open(ctx, input, passphrase)
	if err != nil {
		return nil, err
	}

	entries, err := archive.List(stream)
	if err != nil {
		return nil, fmt.Errorf("listing %q: %w", input, err)
	}

	return entries, nil
}

// Inspect decodes the container header at input without a passphrase.
func (p *Pipeline) Inspect(input string) (container.Header, error) {
	c, err := read(input)
	if err != nil {
		return container.Header{}, err
	}

	return c.Summary(), nil
}

// open reads, decodes and decrypts input, returning the compressed archive stream.
func (p *Pipeline) open(ctx context.Context, input, passphrase string) ([]byte, error) {
	c, err := read(input)
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	key, err := p.deriver.Derive(passphrase, c.Salt)
	if err != nil {
		return nil, err
	}
	defer key.Zero()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return seal.Open(key, c.Nonce, c.Ciphertext)
}

func read(input string) (container.Container, error) {
	data, err := os.ReadFile(input) //nolint:gosec // reading user-specified input is the purpose
	if err != nil {
		return container.Container{}, errors.IO("reading", input, err)
	}

	c, err := container.Decode(data)
	if err != nil {
		return container.Container{}, fmt.Errorf("decoding %q: %w", input, err)
	}

	return c, nil
}

// DefaultOutput returns the container path used when none is given for root.
func DefaultOutput(root string) string {
	clean := filepath.Clean(root)

	if abs, err := filepath.Abs(clean); err == nil {
		clean = abs
	}

	return filepath.Join(clean, filepath.Base(clean)+container.Extension)
}

// DefaultDestination returns the restore directory used when none is given for input.
func DefaultDestination(input string) string {
	base := filepath.Base(input)
	stem := strings.TrimSuffix(base, filepath.Ext(base))

	return filepath.Join(filepath.Dir(input), stem+RestoredSuffix)
}

// EncryptFolder seals root with a default Pipeline.
func EncryptFolder(ctx context.Context, root, passphrase, output string) (string, error) {
	return New().EncryptFolder(ctx, root, passphrase, output)
}

// DecryptContainer restores input with a default Pipeline.
func DecryptContainer(ctx context.Context, input, passphrase, dest string) (string, error) {
	return New().DecryptContainer(ctx, input, passphrase, dest)
}
