// Package logging provides the leveled, colored logger used by the command line front-end
// and, optionally, by the pipeline.
package logging

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
)

// Logger writes leveled messages. Info is suppressed when Quiet is set,
// Debug unless Verbose is set. Warnings and errors are always written.
type Logger struct {
	Quiet   bool
	Verbose bool

	Out io.Writer
	Err io.Writer
}

// New returns a Logger writing to stdout and stderr.
func New(quiet, verbose bool) *Logger {
	return &Logger{Quiet: quiet, Verbose: verbose, Out: os.Stdout, Err: os.Stderr}
}

// Discard returns a Logger that writes nothing.
func Discard() *Logger {
	return &Logger{Quiet: true, Out: io.Discard, Err: io.Discard}
}

func (l *Logger) Debugf(msg string, args ...any) {
	if l == nil || !l.Verbose {
		return
	}

	l.write(l.Err, color.CyanString("[debug] "), msg, args...)
}

func (l *Logger) Infof(msg string, args ...any) {
	if l == nil || l.Quiet {
		return
	}

	l.write(l.Out, color.GreenString("[info] "), msg, args...)
}

func (l *Logger) Warnf(msg string, args ...any) {
	if l == nil {
		return
	}

	l.write(l.Err, color.YellowString("[warn] "), msg, args...)
}

func (l *Logger) Errorf(msg string, args ...any) {
	if l == nil {
		return
	}

	l.write(l.Err, color.RedString("[error] "), msg, args...)
}

func (l *Logger) write(w io.Writer, prefix, msg string, args ...any) {
	if w == nil {
		return
	}

	fmt.Fprintf(w, prefix+msg+"\n", args...)
}
