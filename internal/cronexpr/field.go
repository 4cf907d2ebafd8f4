package cronexpr

import (
	"fmt"
	"strconv"
	"strings"
)

// FieldKind identifies one of the five positions in a cron expression.
type FieldKind int

const (
	FieldMinute FieldKind = iota
	FieldHour
	FieldDayOfMonth
	FieldMonth
	FieldDayOfWeek
)

// String returns the field name as it appears in error messages.
func (k FieldKind) String() string {
	switch k {
	case FieldMinute:
		return "minute"
	case FieldHour:
		return "hour"
	case FieldDayOfMonth:
		return "day-of-month"
	case FieldMonth:
		return "month"
	case FieldDayOfWeek:
		return "day-of-week"
	}
	return "unknown"
}

// bounds returns the inclusive value range for the field. Day-of-week
// additionally accepts a literal 7, normalized to 0 after expansion.
func (k FieldKind) bounds() (min, max int) {
	switch k {
	case FieldMinute:
		return 0, 59
	case FieldHour:
		return 0, 23
	case FieldDayOfMonth:
		return 1, 31
	case FieldMonth:
		return 1, 12
	case FieldDayOfWeek:
		return 0, 6
	}
	return 0, 0
}

// FieldSpec is the parsed meaning of one cron field: either a wildcard or an
// explicit set of values within the field's bounds. All field values fit in a
// 64-bit set. Immutable once constructed.
type FieldSpec struct {
	kind FieldKind
	any  bool
	set  uint64
}

// Any reports whether the field is a wildcard.
func (f FieldSpec) Any() bool {
	return f.any
}

// Contains reports whether v satisfies the field.
func (f FieldSpec) Contains(v int) bool {
	if f.any {
		return true
	}
	if v < 0 || v > 63 {
		return false
	}
	return f.set&(1<<uint(v)) != 0
}

// Values returns the explicit value set in ascending order, nil for wildcards.
func (f FieldSpec) Values() []int {
	if f.any {
		return nil
	}
	var vals []int
	for v := 0; v <= 63; v++ {
		if f.set&(1<<uint(v)) != 0 {
			vals = append(vals, v)
		}
	}
	return vals
}

// parseField parses one cron field: a comma-separated list of atoms, each a
// wildcard, single value, inclusive range, or stepped wildcard/range. Atoms
// union; duplicates collapse. Day-of-week 7 means Sunday and is stored as 0.
func parseField(text string, kind FieldKind) (FieldSpec, error) {
	spec := FieldSpec{kind: kind}
	if text == "" {
		return spec, fmt.Errorf("%w: empty field", ErrInvalidFieldSyntax)
	}

	min, max := kind.bounds()
	for _, atom := range strings.Split(text, ",") {
		if atom == "*" {
			// A bare wildcard atom makes the whole field a wildcard.
			spec.any = true
			continue
		}

		base := atom
		step := 1
		if idx := strings.IndexByte(atom, '/'); idx >= 0 {
			base = atom[:idx]
			s, err := strconv.Atoi(atom[idx+1:])
			if err != nil {
				return spec, fmt.Errorf("%w: bad step in %q", ErrInvalidFieldSyntax, atom)
			}
			if s <= 0 {
				return spec, fmt.Errorf("%w: step must be positive in %q", ErrInvalidFieldSyntax, atom)
			}
			step = s
		}

		lo, hi := min, max
		switch {
		case base == "*":
			// lo..hi already spans the field
		case strings.IndexByte(base, '-') >= 0:
			parts := strings.SplitN(base, "-", 2)
			var err error
			lo, err = parseValue(parts[0], kind)
			if err != nil {
				return spec, err
			}
			hi, err = parseValue(parts[1], kind)
			if err != nil {
				return spec, err
			}
			if lo > hi {
				return spec, fmt.Errorf("%w: descending range %q", ErrInvalidFieldSyntax, base)
			}
		default:
			v, err := parseValue(base, kind)
			if err != nil {
				return spec, err
			}
			if step > 1 {
				return spec, fmt.Errorf("%w: step requires a range or wildcard in %q", ErrInvalidFieldSyntax, atom)
			}
			lo, hi = v, v
		}

		for v := lo; v <= hi; v += step {
			n := v
			if kind == FieldDayOfWeek && n == 7 {
				n = 0
			}
			spec.set |= 1 << uint(n)
		}
	}

	if spec.any {
		spec.set = 0
	}
	return spec, nil
}

// parseValue parses a single numeric field value and checks its bounds.
// Day-of-week admits 7 here; the caller normalizes it to 0.
func parseValue(text string, kind FieldKind) (int, error) {
	v, err := strconv.Atoi(text)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a number", ErrInvalidFieldSyntax, text)
	}
	min, max := kind.bounds()
	if kind == FieldDayOfWeek {
		max = 7
	}
	if v < min || v > max {
		return 0, fmt.Errorf("%w: %d not in %d-%d for %s", ErrValueOutOfRange, v, min, max, kind)
	}
	return v, nil
}
