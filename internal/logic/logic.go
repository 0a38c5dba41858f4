// Package logic runs the command-line operations over one or more targets.
package logic

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/dustin/go-humanize"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"

	"github.com/idelchi/shadowenv/internal/config"
	"github.com/idelchi/shadowenv/internal/container"
	"github.com/idelchi/shadowenv/internal/errors"
	"github.com/idelchi/shadowenv/internal/fileutil"
	"github.com/idelchi/shadowenv/internal/filter"
	"github.com/idelchi/shadowenv/internal/logging"
	"github.com/idelchi/shadowenv/internal/pipeline"
)

// Run encrypts or decrypts every target in cfg, up to cfg.Parallel at a time.
// Failures are reported per target; the first one is returned once all targets finished.
//
//nolint:cyclop // parallel processing pipeline with printer goroutine
func Run(ctx context.Context, cfg *config.Config, prompt Prompter) error {
	start := time.Now()
	logger := logging.New(cfg.Quiet, cfg.Verbose)

	passphrase, err := Passphrase(cfg, prompt, !cfg.Decrypt)
	if err != nil {
		return err
	}

	p, err := newPipeline(cfg, logger)
	if err != nil {
		return err
	}

	type result struct {
		input  string
		output string
		size   int64
		err    error
	}

	results := make(chan result, len(cfg.Targets))

	group := errgroup.Group{}
	group.SetLimit(cfg.Parallel)

	printed := make(chan struct{})

	var processed, errored int

	var totalSize int64

	spin := startSpinner(cfg, len(cfg.Targets))

	go func() {
		defer close(printed)

		for res := range results {
			if res.err != nil {
				errored++

				logger.Errorf("%s %q: %v (%s)", verb(cfg), res.input, res.err, errors.Kind(res.err))

				continue
			}

			processed++

			totalSize += res.size

			logger.Infof("%s %q -> %q", pastVerb(cfg), res.input, res.output)
		}
	}()

	for _, target := range cfg.Targets {
		group.Go(func() error {
			output, size, err := process(ctx, p, cfg, target, passphrase)
			if err != nil {
				err = conceal(logger, target, err)

				results <- result{input: target, err: err}

				return err
			}

			results <- result{input: target, output: output, size: size}

			return nil
		})
	}

	err = group.Wait()

	close(results)

	<-printed

	spin.Stop()

	if cfg.Stats {
		printStats(len(cfg.Targets), processed, errored, totalSize, time.Since(start))
	}

	if err != nil {
		return fmt.Errorf("%s targets: %w", verb(cfg), err)
	}

	return nil
}

// process runs one target through the pipeline and returns the produced path and the container size.
func process(ctx context.Context, p *pipeline.Pipeline, cfg *config.Config, target, passphrase string) (string, int64, error) {
	if !cfg.Decrypt {
		output, err := p.EncryptFolder(ctx, target, passphrase, cfg.Output)
		if err != nil {
			return "", 0, err
		}

		size, err := fileutil.Size(output)

		return output, size, err
	}

	if !strings.EqualFold(filepath.Ext(target), container.Extension) {
		return "", 0, fmt.Errorf("%w: %q does not have the %s extension", errors.ErrFormat, target, container.Extension)
	}

	size, err := fileutil.Size(target)
	if err != nil {
		return "", 0, err
	}

	dest, err := p.DecryptContainer(ctx, target, passphrase, cfg.Output)

	return dest, size, err
}

// newPipeline builds a pipeline with the exclusion patterns from cfg.
func newPipeline(cfg *config.Config, logger *logging.Logger) (*pipeline.Pipeline, error) {
	patterns := append([]string{}, cfg.Exclude...)

	if cfg.ExcludeFrom != "" {
		loaded, err := filter.LoadPatterns(cfg.ExcludeFrom)
		if err != nil {
			return nil, fmt.Errorf("loading exclude patterns: %w", err)
		}

		patterns = append(patterns, loaded...)
	}

	flt, err := filter.New(patterns)
	if err != nil {
		return nil, fmt.Errorf("parsing exclude patterns: %w", err)
	}

	return pipeline.New(pipeline.WithLogger(logger), pipeline.WithFilter(flt)), nil
}

// startSpinner shows progress on an interactive stderr. The returned spinner is always safe to Stop.
func startSpinner(cfg *config.Config, targets int) *spinner.Spinner {
	const (
		charset  = 14
		interval = 100 * time.Millisecond
	)

	spin := spinner.New(spinner.CharSets[charset], interval, spinner.WithWriter(os.Stderr))
	spin.Suffix = fmt.Sprintf(" %s %d target(s)", strings.ToLower(verb(cfg)), targets)

	if !cfg.Quiet && !cfg.Verbose && term.IsTerminal(int(os.Stderr.Fd())) { //nolint:gosec // file descriptors fit in int
		spin.Start()
	}

	return spin
}

// conceal replaces a format error by the bare errors.ErrFormat, so parse details such as
// declared lengths never reach the user. The detail is logged at debug level.
func conceal(logger *logging.Logger, target string, err error) error {
	if !errors.Is(err, errors.ErrFormat) {
		return err
	}

	logger.Debugf("%q: %v", target, err)

	return errors.ErrFormat
}

func verb(cfg *config.Config) string {
	if cfg.Decrypt {
		return "Decrypting"
	}

	return "Encrypting"
}

func pastVerb(cfg *config.Config) string {
	if cfg.Decrypt {
		return "Restored"
	}

	return "Sealed"
}

func printStats(targets, processed, errored int, totalSize int64, duration time.Duration) {
	fmt.Fprintf(os.Stderr, "\nStats\n")
	fmt.Fprintf(os.Stderr, "  Targets:   %d\n", targets)
	fmt.Fprintf(os.Stderr, "  Processed: %d\n", processed)
	fmt.Fprintf(os.Stderr, "  Errors:    %d\n", errored)
	//nolint:gosec // totalSize is always non-negative (sum of file sizes)
	fmt.Fprintf(os.Stderr, "  Size:      %s\n", humanize.IBytes(uint64(max(0, totalSize))))
	fmt.Fprintf(os.Stderr, "  Duration:  %s\n", duration.Round(time.Millisecond))
}
