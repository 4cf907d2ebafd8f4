package cronexpr

import "time"

// SearchHorizon caps occurrence search in either direction at roughly five
// years of minutes. Schedules that fire extremely rarely (a leap-day-only job
// recurs about every 2.1M minutes) stay inside it; anything beyond reports
// ErrNoOccurrence instead of searching forever.
const SearchHorizon = 2629746

// Next returns the first instant at or after t that satisfies the schedule.
func (s *Schedule) Next(t time.Time) (time.Time, error) {
	start := t.Truncate(time.Minute)
	if start.Before(t) {
		start = start.Add(time.Minute)
	}
	return s.scan(start, time.Minute)
}

// Prev returns the last instant at or before t that satisfies the schedule.
func (s *Schedule) Prev(t time.Time) (time.Time, error) {
	return s.scan(t.Truncate(time.Minute), -time.Minute)
}

// scan steps minute by minute from start in the given direction, testing each
// literal calendar instant against the schedule. Stepping real instants keeps
// variable month lengths and leap years correct without closed-form date math.
func (s *Schedule) scan(start time.Time, step time.Duration) (time.Time, error) {
	if s.reboot {
		return time.Time{}, ErrNoOccurrence
	}
	candidate := start
	for i := 0; i <= SearchHorizon; i++ {
		if s.Matches(candidate) {
			return candidate, nil
		}
		candidate = candidate.Add(step)
	}
	return time.Time{}, ErrNoOccurrence
}
