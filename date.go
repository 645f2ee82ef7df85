package plist

import (
	"math"
	"time"
)

// plistEpochUnix is the Unix timestamp of the plist epoch,
// 2001-01-01T00:00:00Z.
const plistEpochUnix = 978307200

// Date is an instant in time, represented internally as a system-wall
// timestamp. It carries no timezone: it always serializes as UTC, matching
// the teacher's cfDate (an alias for time.Time) and every on-disk encoding,
// none of which stores an offset.
type Date struct {
	t time.Time
}

// NewDate wraps a time.Time as a Date, normalizing it to UTC.
func NewDate(t time.Time) Date {
	return Date{t: t.UTC()}
}

// DateFromSecondsSinceEpoch builds a Date from a count of seconds (possibly
// fractional, possibly negative) since the plist epoch. It fails only for
// NaN or infinite input.
func DateFromSecondsSinceEpoch(seconds float64) (Date, *Error) {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		return Date{}, newError(ErrInfiniteOrNanDate, "date seconds value is not finite")
	}
	sec, frac := math.Modf(seconds)
	unix := int64(sec) + plistEpochUnix
	nanos := int64(math.Round(frac * float64(time.Second)))
	return Date{t: time.Unix(unix, nanos).UTC()}, nil
}

// SecondsSinceEpoch returns the number of seconds (possibly fractional,
// possibly negative) since the plist epoch.
func (d Date) SecondsSinceEpoch() float64 {
	unixNanos := d.t.UnixNano()
	return float64(unixNanos)/float64(time.Second) - plistEpochUnix
}

// Time returns the UTC time.Time this Date represents.
func (d Date) Time() time.Time {
	return d.t
}

// String renders d as RFC 3339 in UTC, the text form used by the XML
// encoding.
func (d Date) String() string {
	return d.t.Format(time.RFC3339)
}

// Equal reports whether d and other denote the same instant.
func (d Date) Equal(other Date) bool {
	return d.t.Equal(other.t)
}

// parseDate parses RFC 3339 text (timezone Z or an explicit offset,
// fractional seconds optional) as used by the XML encoding.
func parseDate(s string) (Date, *Error) {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		// RFC3339 requires a fixed-width seconds field; fall back to the
		// nanosecond-precision variant for inputs with fractional seconds
		// of unusual width.
		t, err = time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return Date{}, newErrorf(ErrInvalidDateString, "invalid date string %q", s)
		}
	}
	return NewDate(t), nil
}
