package logic

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/idelchi/shadowenv/internal/config"
)

var (
	// ErrNoTerminal is returned when a passphrase must be prompted for but stdin is not a terminal.
	ErrNoTerminal = errors.New("no passphrase given and stdin is not a terminal")

	// ErrMismatch is returned when the confirmation differs from the first entry.
	ErrMismatch = errors.New("passphrase mismatch")
)

// Prompter reads a passphrase interactively.
type Prompter interface {
	ReadPassphrase(label string) (string, error)
}

// terminal prompts on stderr and reads from the controlling terminal without echo.
type terminal struct {
	in  *os.File
	out io.Writer
}

func (t terminal) ReadPassphrase(label string) (string, error) {
	fd := int(t.in.Fd()) //nolint:gosec // file descriptors fit in int

	if !term.IsTerminal(fd) {
		return "", ErrNoTerminal
	}

	fmt.Fprint(t.out, label)

	secret, err := term.ReadPassword(fd)

	fmt.Fprintln(t.out)

	if err != nil {
		return "", fmt.Errorf("reading passphrase: %w", err)
	}

	return string(secret), nil
}

// Stdin prompts on the process terminal.
//
//nolint:gochecknoglobals
var Stdin Prompter = terminal{in: os.Stdin, out: os.Stderr}

// Passphrase resolves the passphrase from, in order: the flag or environment,
// the first line of the passphrase file, or an interactive prompt.
// With confirm set, the prompt asks twice and fails on a mismatch.
func Passphrase(cfg *config.Config, prompt Prompter, confirm bool) (string, error) {
	if cfg.Passphrase != "" {
		return cfg.Passphrase, nil
	}

	if cfg.PassphraseFile != "" {
		return readFirstLine(cfg.PassphraseFile)
	}

	first, err := prompt.ReadPassphrase("Enter passphrase: ")
	if err != nil {
		return "", err
	}

	if !confirm {
		return first, nil
	}

	second, err := prompt.ReadPassphrase("Confirm: ")
	if err != nil {
		return "", err
	}

	if first != second {
		return "", ErrMismatch
	}

	return first, nil
}

func readFirstLine(path string) (string, error) {
	file, err := os.Open(path) //nolint:gosec // user-specified passphrase file
	if err != nil {
		return "", fmt.Errorf("opening passphrase file: %w", err)
	}
	defer file.Close()

	line, err := bufio.NewReader(file).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("reading passphrase file: %w", err)
	}

	return strings.TrimRight(line, "\r\n"), nil
}
