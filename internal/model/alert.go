package model

import "time"

// AlertSeverity represents the severity level of an alert
type AlertSeverity string

const (
	AlertSeverityWarning  AlertSeverity = "warning"
	AlertSeverityError    AlertSeverity = "error"
	AlertSeverityCritical AlertSeverity = "critical"
)

// DeadJobAlert is published when a scan finds a job that missed its expected
// execution window.
type DeadJobAlert struct {
	ID              string        `json:"id"`
	ScanID          string        `json:"scan_id"`
	Severity        AlertSeverity `json:"severity"`
	Source          string        `json:"source"`
	User            string        `json:"user,omitempty"`
	Schedule        string        `json:"schedule"`
	Command         string        `json:"command"`
	ExpectedLastRun *time.Time    `json:"expected_last_run,omitempty"`
	CheckedAt       time.Time     `json:"checked_at"`
}
