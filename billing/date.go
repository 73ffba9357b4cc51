package billing

import "time"

// =============================================================================
// DATE - Calendar-day granularity time abstraction
// =============================================================================

// Date is a calendar date with no time-of-day component. All billing math
// (periods, due dates, windows) operates on whole days, so the engine never
// touches wall-clock time directly.
type Date struct {
	t time.Time
}

// Constructors
func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

func DateOf(t time.Time) Date {
	return NewDate(t.Year(), t.Month(), t.Day())
}

// ParseDate parses an ISO date (YYYY-MM-DD).
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, err
	}
	return DateOf(t), nil
}

// MustParseDate is ParseDate for literals in tests and fixtures; panics on
// malformed input.
func MustParseDate(s string) Date {
	d, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

// Comparison
func (d Date) Before(other Date) bool        { return d.t.Before(other.t) }
func (d Date) After(other Date) bool         { return d.t.After(other.t) }
func (d Date) Equal(other Date) bool         { return d.t.Equal(other.t) }
func (d Date) BeforeOrEqual(other Date) bool { return !d.t.After(other.t) }
func (d Date) AfterOrEqual(other Date) bool  { return !d.t.Before(other.t) }

// Arithmetic
func (d Date) AddDays(n int) Date { return Date{t: d.t.AddDate(0, 0, n)} }

// AddMonths adds calendar months, clamping the day to the target month's
// length (Jan 31 + 1 month = Feb 28/29, never Mar 2). Period boundaries must
// stay anchored to the schedule's start day, which time.AddDate's
// normalization would silently break.
func (d Date) AddMonths(n int) Date {
	first := time.Date(d.t.Year(), d.t.Month()+time.Month(n), 1, 0, 0, 0, 0, time.UTC)
	day := d.t.Day()
	if max := daysInMonth(first.Year(), first.Month()); day > max {
		day = max
	}
	return NewDate(first.Year(), first.Month(), day)
}

func (d Date) AddYears(n int) Date { return Date{t: d.t.AddDate(n, 0, 0)} }

// Properties
func (d Date) Year() int         { return d.t.Year() }
func (d Date) Month() time.Month { return d.t.Month() }
func (d Date) Day() int          { return d.t.Day() }
func (d Date) IsZero() bool      { return d.t.IsZero() }
func (d Date) Time() time.Time   { return d.t }

// DaysInMonth returns the number of days in this date's month.
func (d Date) DaysInMonth() int { return daysInMonth(d.t.Year(), d.t.Month()) }

// EndOfMonth returns the last day of this date's month.
func (d Date) EndOfMonth() Date {
	return NewDate(d.t.Year(), d.t.Month(), d.DaysInMonth())
}

// WithDay returns the same month/year with the given day-of-month.
func (d Date) WithDay(day int) Date {
	return NewDate(d.t.Year(), d.t.Month(), day)
}

func (d Date) String() string { return d.t.Format("2006-01-02") }

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := string(b)
	if s == "null" || s == `""` {
		*d = Date{}
		return nil
	}
	if len(s) >= 2 && s[0] == '"' {
		s = s[1 : len(s)-1]
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func daysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// DaysBetween returns the whole-day distance from one date to another.
func DaysBetween(from, to Date) int {
	return int(to.t.Sub(from.t).Hours() / 24)
}

// =============================================================================
// CLOCK - Injected time source
// =============================================================================

// Clock supplies "today". It is the engine's only time source; production
// uses SystemClock and tests pin a FixedClock so date-boundary behavior is
// deterministic.
type Clock interface {
	Today() Date
}

// SystemClock reads the real calendar.
type SystemClock struct{}

func (SystemClock) Today() Date { return DateOf(time.Now()) }

// FixedClock always reports the same date.
type FixedClock struct {
	Date Date
}

func (c FixedClock) Today() Date { return c.Date }
