package model

import (
	"time"

	"github.com/t77yq/cronhive/internal/cronexpr"
)

// VerdictStatus is the dead-job detector's conclusion for one job.
type VerdictStatus string

const (
	// VerdictOK means the job has not missed its next expected slot.
	VerdictOK VerdictStatus = "ok"

	// VerdictDead means the job missed its next expected slot by more than
	// the grace tolerance.
	VerdictDead VerdictStatus = "dead"

	// VerdictUnknown means occurrence search exceeded its horizon; the job
	// is neither confirmed alive nor confirmed dead.
	VerdictUnknown VerdictStatus = "unknown"
)

// JobRecord is one discovered crontab entry, as read from its source. The
// command string is already redacted by discovery.
type JobRecord struct {
	Source   string `json:"source"`
	User     string `json:"user,omitempty"`
	Schedule string `json:"schedule"`
	Command  string `json:"command"`
}

// DeadJobVerdict is the outcome of checking one schedule against a reference
// instant. ExpectedLastRun is the most recent run the schedule called for at
// or before CheckedAt, absent when none was found; NextDue is the slot the
// job is (or was) due at next, which a dead job has already missed.
type DeadJobVerdict struct {
	Status          VerdictStatus `json:"status"`
	ExpectedLastRun *time.Time    `json:"expected_last_run,omitempty"`
	NextDue         *time.Time    `json:"next_due,omitempty"`
	CheckedAt       time.Time     `json:"checked_at"`
}

// InventoryEntry pairs a discovered job with its parsed schedule and verdict.
// Schedule is nil and Error set when the expression failed to parse.
type InventoryEntry struct {
	Job      JobRecord          `json:"job"`
	Schedule *cronexpr.Schedule `json:"-"`
	Valid    bool               `json:"valid"`
	Error    string             `json:"error,omitempty"`
	Verdict  *DeadJobVerdict    `json:"verdict,omitempty"`
}

// HostInfo is metadata about the scanned host, stamped on each report.
type HostInfo struct {
	Hostname        string `json:"hostname"`
	Platform        string `json:"platform,omitempty"`
	PlatformVersion string `json:"platform_version,omitempty"`
	KernelVersion   string `json:"kernel_version,omitempty"`
	UptimeSeconds   uint64 `json:"uptime_seconds,omitempty"`
}

// Summary aggregates per-job outcomes for one scan.
type Summary struct {
	Total   int `json:"total"`
	Valid   int `json:"valid"`
	Invalid int `json:"invalid"`
	OK      int `json:"ok"`
	Dead    int `json:"dead"`
	Unknown int `json:"unknown"`
}

// Report is the full result of one scan run.
type Report struct {
	ScanID      string            `json:"scan_id"`
	GeneratedAt time.Time         `json:"generated_at"`
	Host        *HostInfo         `json:"host,omitempty"`
	Summary     Summary           `json:"summary"`
	Entries     []*InventoryEntry `json:"jobs"`
}
