package inventory

import (
	"time"

	"github.com/t77yq/cronhive/internal/cronexpr"
	"github.com/t77yq/cronhive/internal/model"
)

// Detector decides whether a job has missed its expected execution window.
type Detector struct {
	grace time.Duration
}

// NewDetector creates a detector with the given grace tolerance.
func NewDetector(grace time.Duration) *Detector {
	return &Detector{grace: grace}
}

// Check derives the most recent expected run from the schedule and now, then
// compares now against the occurrence following it. The two-occurrence
// comparison keeps irregular schedules (Mon/Wed/Fri lists and the like)
// honest, since their gaps are not constant. Horizon-exceeded searches yield
// an unknown verdict, never ok/dead.
func (d *Detector) Check(sched *cronexpr.Schedule, now time.Time) *model.DeadJobVerdict {
	verdict := &model.DeadJobVerdict{
		Status:    model.VerdictOK,
		CheckedAt: now,
	}

	// @reboot fires at boot, not on a clock; it cannot be overdue.
	if sched.Reboot() {
		return verdict
	}

	expected, err := sched.Prev(now)
	if err != nil {
		verdict.Status = model.VerdictUnknown
		return verdict
	}
	verdict.ExpectedLastRun = &expected

	nextDue, err := sched.Next(expected.Add(time.Minute))
	if err != nil {
		verdict.Status = model.VerdictUnknown
		return verdict
	}
	verdict.NextDue = &nextDue

	if now.After(nextDue.Add(d.grace)) {
		verdict.Status = model.VerdictDead
	}
	return verdict
}

// CheckSince is Check for callers that know when the job actually last ran:
// the run due after lastRun should have happened by now, give or take the
// grace tolerance. This is the only way a densely scheduled job can be seen
// as dead, since Check alone always finds a satisfying instant right behind
// now.
func (d *Detector) CheckSince(sched *cronexpr.Schedule, lastRun, now time.Time) *model.DeadJobVerdict {
	verdict := &model.DeadJobVerdict{
		Status:    model.VerdictOK,
		CheckedAt: now,
	}

	if sched.Reboot() {
		return verdict
	}

	due, err := sched.Next(lastRun.Add(time.Minute))
	if err != nil {
		verdict.Status = model.VerdictUnknown
		return verdict
	}
	verdict.NextDue = &due
	// The due slot only becomes an expected-last-run once it has passed.
	if !due.After(now) {
		verdict.ExpectedLastRun = &due
	}

	if now.After(due.Add(d.grace)) {
		verdict.Status = model.VerdictDead
	}
	return verdict
}
