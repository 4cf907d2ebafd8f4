// Package watch re-runs the scan on a fixed cadence so the inventory stays
// current on long-lived hosts. The cadence itself is a cron expression; the
// schedules being inventoried are still analyzed by the in-house engine.
package watch

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Watcher runs a scan function on a cron cadence.
type Watcher struct {
	logger *zap.Logger
	cron   *cron.Cron
	next   cron.Schedule
	ctx    context.Context
	cancel context.CancelFunc
}

// cronLogger adapts zap.Logger to cron.Logger
type cronLogger struct {
	logger *zap.Logger
}

func (l *cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug(msg)
}

func (l *cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error(msg, zap.Error(err))
}

// NewWatcher validates the cadence expression and registers the scan func.
// Each scheduled run receives a context derived from ctx and cancelled by
// Stop, so in-flight scans observe shutdown.
func NewWatcher(ctx context.Context, logger *zap.Logger, expr string, run func(context.Context)) (*Watcher, error) {
	logger = logger.Named("watch")

	spec, err := cron.ParseStandard(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid watch expression %q: %w", expr, err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	c := cron.New(cron.WithChain(cron.Recover(&cronLogger{logger: logger})))
	w := &Watcher{
		logger: logger,
		cron:   c,
		next:   spec,
		ctx:    runCtx,
		cancel: cancel,
	}

	_, err = c.AddFunc(expr, func() {
		started := time.Now()
		run(w.ctx)
		logger.Info("Scheduled scan completed",
			zap.Duration("took", time.Since(started)),
			zap.Time("next_run", spec.Next(time.Now())))
	})
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to register watch job: %w", err)
	}

	return w, nil
}

// Start begins scheduled scans and logs the first upcoming run.
func (w *Watcher) Start() {
	w.cron.Start()
	w.logger.Info("Watch mode started",
		zap.Time("next_run", w.next.Next(time.Now())))
}

// Stop cancels the run context, stops the cadence, and waits for an
// in-flight scan to finish.
func (w *Watcher) Stop() {
	w.cancel()
	ctx := w.cron.Stop()
	<-ctx.Done()
	w.logger.Info("Watch mode stopped")
}
