// Package logging builds the leveled logfmt logger used by the CLI.
package logging

import (
	"fmt"
	"io"
	"time"

	gokitlog "github.com/go-kit/log"
	"github.com/go-kit/log/level"
)

// New returns a logfmt logger writing to w with timestamp and caller.
// Debug records are dropped unless verbose is set.
func New(w io.Writer, verbose bool) gokitlog.Logger {
	logger := gokitlog.NewLogfmtLogger(gokitlog.NewSyncWriter(w))
	logger = gokitlog.With(logger, "ts", gokitlog.DefaultTimestampUTC, "caller", gokitlog.DefaultCaller)
	if verbose {
		return level.NewFilter(logger, level.AllowDebug())
	}
	return level.NewFilter(logger, level.AllowInfo())
}

// Nop returns a logger that discards everything.
func Nop() gokitlog.Logger {
	return gokitlog.NewNopLogger()
}

// Timed runs fn and logs its outcome and duration at debug level, or at
// error level when fn fails.
func Timed(logger gokitlog.Logger, name string, fn func() error) error {
	start := time.Now()
	err := fn()
	elapsed := time.Since(start)
	if err != nil {
		_ = level.Error(logger).Log("msg", fmt.Sprintf("%s failed", name), "err", err, "took", elapsed)
		return err
	}
	_ = level.Debug(logger).Log("msg", fmt.Sprintf("%s done", name), "took", elapsed)
	return nil
}
