package things

import (
	"time"
)

// Date is a date-or-datetime value that may be absent. Things exports dates
// either as plain calendar dates or with a time-of-day attached; comparisons
// between the two sides of a sync only ever look at the calendar date.
type Date struct {
	Time    time.Time
	HasTime bool
	Valid   bool
}

const dateLayout = "2006-01-02"

var datetimeLayouts = []string{
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// ParseDate parses a Things date string. The empty string, the literal
// sentinel "None", and anything unparseable all normalize to an absent Date.
func ParseDate(s string) Date {
	if s == "" || s == "None" {
		return Date{}
	}
	if t, err := time.ParseInLocation(dateLayout, s, time.Local); err == nil {
		return Date{Time: t, Valid: true}
	}
	for _, layout := range datetimeLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return Date{Time: t, HasTime: true, Valid: true}
		}
	}
	return Date{}
}

// DateOf returns a date-only Date for the calendar day containing t.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Time: time.Date(y, m, d, 0, 0, 0, 0, t.Location()), Valid: true}
}

// unpackDate decodes the packed calendar date Things stores in its database:
// year<<16 | month<<12 | day<<7. Zero means no date.
func unpackDate(v int64) Date {
	if v == 0 {
		return Date{}
	}
	year := int(v >> 16)
	month := time.Month((v >> 12) & 0xF)
	day := int((v >> 7) & 0x1F)
	if year <= 0 || month < time.January || month > time.December || day < 1 || day > 31 {
		return Date{}
	}
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.Local), Valid: true}
}

// DateOnly returns the value truncated to midnight local time.
func (d Date) DateOnly() time.Time {
	y, m, day := d.Time.Date()
	return time.Date(y, m, day, 0, 0, 0, 0, d.Time.Location())
}

// SameDay reports whether both dates are present and fall on the same
// calendar day, ignoring any time-of-day component. Calendar fields are
// compared directly: a value carrying a fixed offset keeps its own zone, so
// midnight instants are not comparable across the two sides.
func (d Date) SameDay(o Date) bool {
	if !d.Valid || !o.Valid {
		return false
	}
	y1, m1, day1 := d.Time.Date()
	y2, m2, day2 := o.Time.Date()
	return y1 == y2 && m1 == m2 && day1 == day2
}

// String renders the value the way the remote side expects it: a plain
// calendar date, or RFC 3339 when a time-of-day is present. Absent dates
// render as the empty string.
func (d Date) String() string {
	if !d.Valid {
		return ""
	}
	if d.HasTime {
		return d.Time.Format(time.RFC3339)
	}
	return d.Time.Format(dateLayout)
}
