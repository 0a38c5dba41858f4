package pipeline

import (
	"github.com/idelchi/shadowenv/internal/filter"
	"github.com/idelchi/shadowenv/internal/kdf"
	"github.com/idelchi/shadowenv/internal/logging"
)

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithDeriver replaces the key derivation function. The default is Argon2id with kdf.DefaultParams.
func WithDeriver(deriver kdf.Deriver) Option {
	return func(p *Pipeline) {
		if deriver != nil {
			p.deriver = deriver
		}
	}
}

// WithLogger sets the logger for progress and skipped-entry notices.
func WithLogger(logger *logging.Logger) Option {
	return func(p *Pipeline) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithFilter prunes entries matching the filter's patterns when packing.
func WithFilter(f *filter.Filter) Option {
	return func(p *Pipeline) {
		p.filter = f
	}
}
