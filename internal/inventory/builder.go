package inventory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shirou/gopsutil/v3/host"
	"go.uber.org/zap"

	"github.com/t77yq/cronhive/internal/cronexpr"
	"github.com/t77yq/cronhive/internal/model"
)

// defaultWorkers bounds concurrent per-job evaluation. Jobs are independent,
// so the pool needs no synchronization beyond the results slice indices.
const defaultWorkers = 8

// Builder turns discovered job records into a scan report: it parses each
// schedule, runs the dead-job detector, and aggregates summary counts. A
// malformed entry is recorded on its own row and never aborts the scan.
type Builder struct {
	logger   *zap.Logger
	detector *Detector
	workers  int
}

// NewBuilder creates a new inventory builder
func NewBuilder(logger *zap.Logger, detector *Detector) *Builder {
	return &Builder{
		logger:   logger.Named("inventory"),
		detector: detector,
		workers:  defaultWorkers,
	}
}

// Build evaluates all jobs against the reference instant and assembles the
// report. now is an explicit parameter so tests can pin it.
func (b *Builder) Build(ctx context.Context, jobs []model.JobRecord, now time.Time) *model.Report {
	entries := make([]*model.InventoryEntry, len(jobs))

	workers := b.workers
	if workers > len(jobs) {
		workers = len(jobs)
	}

	var wg sync.WaitGroup
	indexes := make(chan int)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indexes {
				entries[i] = b.evaluate(jobs[i], now)
			}
		}()
	}

dispatch:
	for i := range jobs {
		select {
		case indexes <- i:
		case <-ctx.Done():
			break dispatch
		}
	}
	close(indexes)
	wg.Wait()

	// A cancelled context leaves trailing jobs unevaluated; drop their nil
	// slots so every entry in the report is populated.
	evaluated := entries[:0]
	for _, entry := range entries {
		if entry != nil {
			evaluated = append(evaluated, entry)
		}
	}
	if skipped := len(entries) - len(evaluated); skipped > 0 {
		b.logger.Warn("Scan canceled before all jobs were evaluated",
			zap.Int("skipped", skipped))
	}
	entries = evaluated

	report := &model.Report{
		ScanID:      uuid.New().String(),
		GeneratedAt: now,
		Host:        collectHostInfo(ctx, b.logger),
		Entries:     entries,
	}
	for _, entry := range entries {
		report.Summary.Total++
		if !entry.Valid {
			report.Summary.Invalid++
			continue
		}
		report.Summary.Valid++
		switch entry.Verdict.Status {
		case model.VerdictDead:
			report.Summary.Dead++
		case model.VerdictUnknown:
			report.Summary.Unknown++
		default:
			report.Summary.OK++
		}
	}

	b.logger.Info("Inventory built",
		zap.String("scan_id", report.ScanID),
		zap.Int("total", report.Summary.Total),
		zap.Int("invalid", report.Summary.Invalid),
		zap.Int("dead", report.Summary.Dead),
		zap.Int("unknown", report.Summary.Unknown))

	return report
}

// evaluate parses and checks a single job.
func (b *Builder) evaluate(job model.JobRecord, now time.Time) *model.InventoryEntry {
	entry := &model.InventoryEntry{Job: job}

	sched, err := cronexpr.Parse(job.Schedule)
	if err != nil {
		entry.Error = err.Error()
		b.logger.Debug("Invalid schedule",
			zap.String("source", job.Source),
			zap.String("schedule", job.Schedule),
			zap.Error(err))
		return entry
	}

	entry.Schedule = sched
	entry.Valid = true
	entry.Verdict = b.detector.Check(sched, now)
	return entry
}

// collectHostInfo stamps the report with host metadata. Failure is harmless;
// the report just goes out without it.
func collectHostInfo(ctx context.Context, logger *zap.Logger) *model.HostInfo {
	info, err := host.InfoWithContext(ctx)
	if err != nil {
		logger.Warn("Failed to collect host info", zap.Error(err))
		return nil
	}
	return &model.HostInfo{
		Hostname:        info.Hostname,
		Platform:        info.Platform,
		PlatformVersion: info.PlatformVersion,
		KernelVersion:   info.KernelVersion,
		UptimeSeconds:   info.Uptime,
	}
}
