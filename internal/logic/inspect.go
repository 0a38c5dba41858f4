package logic

import (
	"context"
	"fmt"
	"io"

	"github.com/goccy/go-yaml"

	"github.com/idelchi/shadowenv/internal/archive"
	"github.com/idelchi/shadowenv/internal/config"
	"github.com/idelchi/shadowenv/internal/container"
	"github.com/idelchi/shadowenv/internal/logging"
	"github.com/idelchi/shadowenv/internal/pipeline"
)

// Report is what inspect prints for one container.
type Report struct {
	Path    string           `yaml:"path"`
	Header  container.Header `yaml:"header"`
	Entries []archive.Entry  `yaml:"entries,omitempty"`
}

// RunInspect prints the header of every target as YAML. With cfg.List it also
// decrypts each container and lists its entries.
func RunInspect(ctx context.Context, cfg *config.Config, prompt Prompter, out io.Writer) error {
	logger := logging.New(cfg.Quiet, cfg.Verbose)
	p := pipeline.New(pipeline.WithLogger(logger))

	var passphrase string

	if cfg.List {
		var err error

		passphrase, err = Passphrase(cfg, prompt, false)
		if err != nil {
			return err
		}
	}

	reports := make([]Report, 0, len(cfg.Targets))

	for _, target := range cfg.Targets {
		header, err := p.Inspect(target)
		if err != nil {
			return conceal(logger, target, err)
		}

		report := Report{Path: target, Header: header}

		if cfg.List {
			report.Entries, err = p.List(ctx, target, passphrase)
			if err != nil {
				return conceal(logger, target, err)
			}
		}

		reports = append(reports, report)
	}

	data, err := yaml.Marshal(reports)
	if err != nil {
		return fmt.Errorf("marshalling report: %w", err)
	}

	if _, err := out.Write(data); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}

	return nil
}
