package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/require"

	"github.com/t77yq/cronhive/internal/model"
)

func sampleReport() *model.Report {
	checked := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	expected := time.Date(2024, 6, 15, 11, 55, 0, 0, time.UTC)
	return &model.Report{
		ScanID:      "scan-1",
		GeneratedAt: checked,
		Host:        &model.HostInfo{Hostname: "web01"},
		Summary:     model.Summary{Total: 2, Valid: 1, Invalid: 1, OK: 1},
		Entries: []*model.InventoryEntry{
			{
				Job:   model.JobRecord{Source: "/etc/crontab", User: "root", Schedule: "*/5 * * * *", Command: "/bin/task"},
				Valid: true,
				Verdict: &model.DeadJobVerdict{
					Status:          model.VerdictOK,
					ExpectedLastRun: &expected,
					CheckedAt:       checked,
				},
			},
			{
				Job:   model.JobRecord{Source: "/etc/crontab", Schedule: "not a schedule at all", Command: "/bin/other"},
				Error: "expression must have exactly 5 fields: got 4",
			},
		},
	}
}

func TestRenderJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderJSON(&buf, sampleReport()))

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Equal(t, "scan-1", decoded["scan_id"])

	summary := decoded["summary"].(map[string]interface{})
	require.Equal(t, float64(2), summary["total"])
	require.Equal(t, float64(1), summary["invalid"])

	jobs := decoded["jobs"].([]interface{})
	require.Len(t, jobs, 2)
}

func TestRenderText(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderText(&buf, sampleReport()))

	out := buf.String()
	require.Contains(t, out, "2 jobs (1 valid, 1 invalid, 0 dead, 0 unknown)")
	require.Contains(t, out, "[V]")
	require.Contains(t, out, "root")
	require.Contains(t, out, "[X]")
	require.Contains(t, out, "invalid")

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 3)
}

func TestRenderText_TruncatesLongCommands(t *testing.T) {
	rep := sampleReport()
	rep.Entries[0].Job.Command = strings.Repeat("x", 200)

	var buf bytes.Buffer
	require.NoError(t, RenderText(&buf, rep))
	require.NotContains(t, buf.String(), strings.Repeat("x", 51))
	require.Contains(t, buf.String(), strings.Repeat("x", 50))
}

func TestRenderText_TruncationKeepsRunesWhole(t *testing.T) {
	rep := sampleReport()
	// A multi-byte rune straddles the truncation point.
	rep.Entries[0].Job.Command = strings.Repeat("x", 49) + "日本語"

	var buf bytes.Buffer
	require.NoError(t, RenderText(&buf, rep))

	out := buf.String()
	require.True(t, utf8.ValidString(out))
	require.NotContains(t, out, "�")
	require.Contains(t, out, strings.Repeat("x", 49))
	require.NotContains(t, out, "日")
}

func TestRenderText_SkipsNilEntries(t *testing.T) {
	rep := sampleReport()
	rep.Entries = append(rep.Entries, nil)

	var buf bytes.Buffer
	require.NoError(t, RenderText(&buf, rep))
	require.Len(t, strings.Split(strings.TrimRight(buf.String(), "\n"), "\n"), 3)
}
