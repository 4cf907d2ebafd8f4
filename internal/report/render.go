// Package report renders scan results for operators: a compact text listing
// for terminals and indented JSON for machines.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"time"
	"unicode/utf8"

	"github.com/t77yq/cronhive/internal/model"
)

// commandDisplayLimit truncates long command strings in text output.
const commandDisplayLimit = 50

// RenderJSON writes the report as indented JSON.
func RenderJSON(w io.Writer, report *model.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	return nil
}

// RenderText writes a one-line summary followed by one row per job.
func RenderText(w io.Writer, report *model.Report) error {
	s := report.Summary
	_, err := fmt.Fprintf(w, "CronHive %s: %d jobs (%d valid, %d invalid, %d dead, %d unknown)\n",
		report.GeneratedAt.Format(time.RFC3339), s.Total, s.Valid, s.Invalid, s.Dead, s.Unknown)
	if err != nil {
		return err
	}

	for _, entry := range report.Entries {
		if entry == nil {
			continue
		}
		command := truncate(entry.Job.Command, commandDisplayLimit)
		user := entry.Job.User
		if user == "" {
			user = "-"
		}

		if _, err := fmt.Fprintf(w, "  [%s] %-20s | %-8s | %-7s | %s\n",
			marker(entry), entry.Job.Schedule, user, status(entry), command); err != nil {
			return err
		}
	}
	return nil
}

// truncate caps s at limit bytes without splitting a multi-byte rune.
func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	end := limit
	for end > 0 && !utf8.RuneStart(s[end]) {
		end--
	}
	return s[:end]
}

// marker is the single-character validity/health column.
func marker(entry *model.InventoryEntry) string {
	switch {
	case !entry.Valid:
		return "X"
	case entry.Verdict != nil && entry.Verdict.Status == model.VerdictDead:
		return "D"
	default:
		return "V"
	}
}

// status is the verdict column text.
func status(entry *model.InventoryEntry) string {
	if !entry.Valid {
		return "invalid"
	}
	if entry.Verdict == nil {
		return "-"
	}
	return string(entry.Verdict.Status)
}
