package inventory

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/t77yq/cronhive/internal/cronexpr"
	"github.com/t77yq/cronhive/internal/model"
)

func mustParse(t *testing.T, expr string) *cronexpr.Schedule {
	t.Helper()
	sched, err := cronexpr.Parse(expr)
	require.NoError(t, err)
	return sched
}

func TestDetector_WeekdayScheduleOK(t *testing.T) {
	// 09:00 Mon/Wed/Fri checked on Thursday 09:05: the expected run was
	// Wednesday 09:00 and the next is not due until Friday 09:00.
	sched := mustParse(t, "0 9 * * 1,3,5")
	now := time.Date(2024, 6, 13, 9, 5, 0, 0, time.UTC)
	require.Equal(t, time.Thursday, now.Weekday())

	verdict := NewDetector(0).Check(sched, now)
	require.Equal(t, model.VerdictOK, verdict.Status)
	require.NotNil(t, verdict.ExpectedLastRun)
	require.Equal(t, time.Date(2024, 6, 12, 9, 0, 0, 0, time.UTC), *verdict.ExpectedLastRun)
	require.NotNil(t, verdict.NextDue)
	require.Equal(t, time.Date(2024, 6, 14, 9, 0, 0, 0, time.UTC), *verdict.NextDue)
	require.Equal(t, now, verdict.CheckedAt)
}

func TestDetector_UnknownWhenBeyondHorizon(t *testing.T) {
	// No leap day within five years behind the reference.
	sched := mustParse(t, "0 0 29 2 *")
	now := time.Date(2103, 12, 31, 0, 0, 0, 0, time.UTC)

	verdict := NewDetector(0).Check(sched, now)
	require.Equal(t, model.VerdictUnknown, verdict.Status)
	require.Nil(t, verdict.ExpectedLastRun)
}

func TestDetector_LeapDayWithinHorizonIsNotUnknown(t *testing.T) {
	sched := mustParse(t, "0 0 29 2 *")
	now := time.Date(2021, 3, 1, 0, 0, 0, 0, time.UTC)

	verdict := NewDetector(0).Check(sched, now)
	require.NotEqual(t, model.VerdictUnknown, verdict.Status)
	require.NotNil(t, verdict.ExpectedLastRun)
	require.Equal(t, time.Date(2020, 2, 29, 0, 0, 0, 0, time.UTC), *verdict.ExpectedLastRun)
}

func TestDetector_RebootNeverDead(t *testing.T) {
	sched := mustParse(t, "@reboot")
	verdict := NewDetector(0).Check(sched, time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC))
	require.Equal(t, model.VerdictOK, verdict.Status)
	require.Nil(t, verdict.ExpectedLastRun)
}

func TestDetector_CheckSinceDeadPastGrace(t *testing.T) {
	// Every 15 minutes, last seen running at 10:00. The 10:15 slot is 10
	// minutes overdue against a 5 minute grace.
	sched := mustParse(t, "*/15 * * * *")
	lastRun := time.Date(2024, 6, 15, 10, 0, 0, 0, time.UTC)
	now := time.Date(2024, 6, 15, 10, 25, 0, 0, time.UTC)

	verdict := NewDetector(5 * time.Minute).CheckSince(sched, lastRun, now)
	require.Equal(t, model.VerdictDead, verdict.Status)
	// The missed slot shows up both as the run that should have happened
	// and as the slot the job was due at.
	require.NotNil(t, verdict.ExpectedLastRun)
	require.Equal(t, time.Date(2024, 6, 15, 10, 15, 0, 0, time.UTC), *verdict.ExpectedLastRun)
	require.NotNil(t, verdict.NextDue)
	require.Equal(t, time.Date(2024, 6, 15, 10, 15, 0, 0, time.UTC), *verdict.NextDue)
}

func TestDetector_CheckSinceWithinGrace(t *testing.T) {
	sched := mustParse(t, "*/15 * * * *")
	lastRun := time.Date(2024, 6, 15, 10, 0, 0, 0, time.UTC)
	now := time.Date(2024, 6, 15, 10, 18, 0, 0, time.UTC)

	verdict := NewDetector(5 * time.Minute).CheckSince(sched, lastRun, now)
	require.Equal(t, model.VerdictOK, verdict.Status)
}

func TestDetector_CheckSinceNotYetDue(t *testing.T) {
	sched := mustParse(t, "0 2 * * *")
	lastRun := time.Date(2024, 6, 15, 2, 0, 0, 0, time.UTC)
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

	verdict := NewDetector(0).CheckSince(sched, lastRun, now)
	require.Equal(t, model.VerdictOK, verdict.Status)
	// The next 02:00 has not happened yet: it is due, not an expected
	// last run.
	require.Nil(t, verdict.ExpectedLastRun)
	require.NotNil(t, verdict.NextDue)
	require.Equal(t, time.Date(2024, 6, 16, 2, 0, 0, 0, time.UTC), *verdict.NextDue)
}
