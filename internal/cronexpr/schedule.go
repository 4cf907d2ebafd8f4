package cronexpr

import (
	"fmt"
	"strings"
	"time"
)

// macros maps @-shorthand schedules to their five-field equivalents. @reboot
// has no field equivalent and is handled separately.
var macros = map[string]string{
	"@yearly":   "0 0 1 1 *",
	"@annually": "0 0 1 1 *",
	"@monthly":  "0 0 1 * *",
	"@weekly":   "0 0 * * 0",
	"@daily":    "0 0 * * *",
	"@midnight": "0 0 * * *",
	"@hourly":   "0 * * * *",
}

// Schedule is a validated cron expression: five parsed fields plus the
// original source text. Day-of-month and day-of-week combine with cron's OR
// rule. Immutable once constructed.
type Schedule struct {
	Minute     FieldSpec
	Hour       FieldSpec
	DayOfMonth FieldSpec
	Month      FieldSpec
	DayOfWeek  FieldSpec

	source string
	reboot bool
}

// Source returns the expression text the schedule was parsed from, verbatim.
func (s *Schedule) Source() string {
	return s.source
}

// Reboot reports whether the schedule is the @reboot marker, which fires only
// at system boot and has no computable occurrences.
func (s *Schedule) Reboot() bool {
	return s.reboot
}

// Parse parses a five-field cron expression or an @-macro into a Schedule.
func Parse(text string) (*Schedule, error) {
	source := strings.TrimSpace(text)
	if source == "" {
		return nil, ErrWrongFieldCount
	}

	fieldText := source
	if strings.HasPrefix(source, "@") {
		if source == "@reboot" {
			return &Schedule{source: source, reboot: true}, nil
		}
		expanded, ok := macros[source]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownMacro, source)
		}
		fieldText = expanded
	}

	tokens := strings.Fields(fieldText)
	if len(tokens) != 5 {
		return nil, fmt.Errorf("%w: got %d", ErrWrongFieldCount, len(tokens))
	}

	sched := &Schedule{source: source}
	for i, kind := range []FieldKind{FieldMinute, FieldHour, FieldDayOfMonth, FieldMonth, FieldDayOfWeek} {
		spec, err := parseField(tokens[i], kind)
		if err != nil {
			return nil, &FieldError{Field: kind.String(), Err: err}
		}
		switch kind {
		case FieldMinute:
			sched.Minute = spec
		case FieldHour:
			sched.Hour = spec
		case FieldDayOfMonth:
			sched.DayOfMonth = spec
		case FieldMonth:
			sched.Month = spec
		case FieldDayOfWeek:
			sched.DayOfWeek = spec
		}
	}
	return sched, nil
}

// Matches reports whether the minute containing t satisfies the schedule.
// Seconds and finer are ignored; cron granularity is one minute.
func (s *Schedule) Matches(t time.Time) bool {
	if s.reboot {
		return false
	}
	if !s.Minute.Contains(t.Minute()) || !s.Hour.Contains(t.Hour()) || !s.Month.Contains(int(t.Month())) {
		return false
	}
	return s.matchesDay(t)
}

// matchesDay applies cron's dom/dow combination rule: when both fields are
// restricted a date matches if either does; when only one is restricted it
// alone decides; two wildcards match every day.
func (s *Schedule) matchesDay(t time.Time) bool {
	domOK := s.DayOfMonth.Contains(t.Day())
	dowOK := s.DayOfWeek.Contains(int(t.Weekday()))

	switch {
	case s.DayOfMonth.Any() && s.DayOfWeek.Any():
		return true
	case s.DayOfMonth.Any():
		return dowOK
	case s.DayOfWeek.Any():
		return domOK
	default:
		return domOK || dowOK
	}
}
