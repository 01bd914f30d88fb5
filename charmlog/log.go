// Package charmlog provides an implementation of dynsched.Logger using charmbracelet/log
package charmlog

import (
	"io"
	"os"

	"github.com/benjamonnguyen/dynsched"
	"github.com/charmbracelet/log"
)

type Options struct {
	Writer io.Writer
	Level  string
	Prefix string
}

func NewLogger(opts Options) dynsched.Logger {
	var w io.Writer = os.Stdout
	if opts.Writer != nil {
		w = opts.Writer
	}

	lvl, err := log.ParseLevel(opts.Level)
	if err != nil {
		lvl = log.InfoLevel
	}

	return log.NewWithOptions(w, log.Options{
		Level:           lvl,
		Prefix:          opts.Prefix,
		ReportTimestamp: true,
	})
}

// Discard drops everything; used where a caller has no log destination.
func Discard() dynsched.Logger {
	return log.NewWithOptions(io.Discard, log.Options{Level: log.FatalLevel})
}
