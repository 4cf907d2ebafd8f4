package inventory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/t77yq/cronhive/internal/model"
)

func TestBuilder_MixedJobs(t *testing.T) {
	jobs := []model.JobRecord{
		{Source: "test", Schedule: "*/5 * * * *", Command: "/bin/job1"},
		{Source: "test", Schedule: "bad schedule text here", Command: "/bin/job2"},
		{Source: "test", Schedule: "0 0 29 2 *", Command: "/bin/leap"},
		{Source: "test", Schedule: "@reboot", Command: "/bin/boot"},
	}

	builder := NewBuilder(zap.NewNop(), NewDetector(time.Minute))
	now := time.Date(2103, 12, 31, 0, 0, 0, 0, time.UTC)
	report := builder.Build(context.Background(), jobs, now)

	require.NotEmpty(t, report.ScanID)
	require.Equal(t, now, report.GeneratedAt)
	require.Len(t, report.Entries, 4)

	require.Equal(t, 4, report.Summary.Total)
	require.Equal(t, 3, report.Summary.Valid)
	require.Equal(t, 1, report.Summary.Invalid)
	require.Equal(t, 1, report.Summary.Unknown) // leap-day job beyond horizon
	require.Equal(t, 2, report.Summary.OK)
	require.Equal(t, 0, report.Summary.Dead)

	require.True(t, report.Entries[0].Valid)
	require.NotNil(t, report.Entries[0].Verdict)

	require.False(t, report.Entries[1].Valid)
	require.NotEmpty(t, report.Entries[1].Error)
	require.Nil(t, report.Entries[1].Verdict)

	require.Equal(t, model.VerdictUnknown, report.Entries[2].Verdict.Status)
	require.Equal(t, model.VerdictOK, report.Entries[3].Verdict.Status)
}

func TestBuilder_EmptyScan(t *testing.T) {
	builder := NewBuilder(zap.NewNop(), NewDetector(0))
	report := builder.Build(context.Background(), nil, time.Now())

	require.NotEmpty(t, report.ScanID)
	require.Empty(t, report.Entries)
	require.Equal(t, model.Summary{}, report.Summary)
}

func TestBuilder_CancelledContextYieldsNoNilEntries(t *testing.T) {
	var jobs []model.JobRecord
	for i := 0; i < 200; i++ {
		jobs = append(jobs, model.JobRecord{
			Source:   "test",
			Schedule: "*/5 * * * *",
			Command:  "/bin/job",
		})
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	builder := NewBuilder(zap.NewNop(), NewDetector(0))
	report := builder.Build(ctx, jobs, time.Now())

	require.LessOrEqual(t, len(report.Entries), len(jobs))
	for _, entry := range report.Entries {
		require.NotNil(t, entry)
	}
	require.Equal(t, len(report.Entries), report.Summary.Total)
}

func TestBuilder_PreservesJobOrder(t *testing.T) {
	var jobs []model.JobRecord
	for i := 0; i < 50; i++ {
		jobs = append(jobs, model.JobRecord{
			Source:   "test",
			Schedule: "*/5 * * * *",
			Command:  "/bin/job",
		})
		jobs[i].User = string(rune('a' + i%26))
	}

	builder := NewBuilder(zap.NewNop(), NewDetector(0))
	report := builder.Build(context.Background(), jobs, time.Now())

	require.Len(t, report.Entries, 50)
	for i, entry := range report.Entries {
		require.Equal(t, jobs[i].User, entry.Job.User)
	}
}
