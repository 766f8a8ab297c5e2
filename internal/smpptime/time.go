// Package smpptime converts between the several fixed-width ASCII time
// layouts SMPP uses on the wire and Go's time.Time.
package smpptime

import (
	"errors"
	"fmt"
	"time"
)

// Layout identifies which of the SMPP time encodings a field uses.
type Layout int

const (
	// SimpleSeconds is YYMMDDhhmmss.
	SimpleSeconds Layout = iota
	// SimpleMinutes is YYMMDDhhmm.
	SimpleMinutes
	// Absolute is YYMMDDhhmmsstnn[+-], a UTC offset in quarter hours plus a
	// tenths-of-a-second digit.
	Absolute
	// Relative is YYMMDDhhmmss000R, an offset added to the current time.
	Relative
)

const (
	digitZero           = byte('0')
	absoluteLayoutLen   = 16
	relativeIndicator   = 'R'
	plusOffsetIndicator = '+'
)

// Parse decodes an SMPP time field into a time.Time. A zero-length or
// single-NUL field (no time set) returns the zero time. Relative fields are
// resolved against the current wall clock.
func Parse(in []byte) (time.Time, error) {
	switch len(in) {
	case 0, 1:
		return time.Time{}, nil
	case 12:
		return time.Parse("060102150405", string(in))
	case 14:
		return time.Parse("20060102150405", string(in))
	case 10:
		return time.Parse("0601021504", string(in))
	case absoluteLayoutLen:
		return parseSixteen(in)
	default:
		return time.Time{}, fmt.Errorf("smpp/time: invalid layout length %s", in)
	}
}

func parseSixteen(in []byte) (time.Time, error) {
	switch in[len(in)-1] {
	case relativeIndicator:
		return parseRelative(in), nil
	case '-', plusOffsetIndicator:
		return parseAbsolute(in)
	default:
		return time.Time{}, fmt.Errorf("smpp/time: invalid layout length %s", in)
	}
}

func twoDigit(b []byte, at int) int {
	return int(b[at]-digitZero)*10 + int(b[at+1]-digitZero)
}

func parseRelative(in []byte) time.Time {
	y, mo, d := twoDigit(in, 0), twoDigit(in, 2), twoDigit(in, 4)
	h, mi, s := twoDigit(in, 6), twoDigit(in, 8), twoDigit(in, 10)
	return time.Now().
		AddDate(y, mo, d).
		Add(time.Duration(h)*time.Hour + time.Duration(mi)*time.Minute + time.Duration(s)*time.Second)
}

func parseAbsolute(in []byte) (time.Time, error) {
	quarterHours := twoDigit(in, 13)
	offsetSeconds := quarterHours * 900
	if in[len(in)-1] != plusOffsetIndicator {
		offsetSeconds = -offsetSeconds
	}
	loc := time.UTC
	if offsetSeconds != 0 {
		loc = time.FixedZone("smpp", offsetSeconds)
	}
	t, err := time.ParseInLocation("060102150405", string(in[:len(in)-4]), loc)
	if err != nil {
		return time.Time{}, err
	}
	tenths := time.Duration(in[12]-digitZero) * 100 * time.Millisecond
	return t.Add(tenths), nil
}

// Format renders t using the given SMPP layout.
func Format(layout Layout, t time.Time) (string, error) {
	switch layout {
	case SimpleSeconds:
		return t.Format("060102150405"), nil
	case SimpleMinutes:
		return t.Format("0601021504"), nil
	case Relative:
		return formatRelative(t), nil
	case Absolute:
		return formatAbsolute(t), nil
	default:
		return "", errors.New("smpp/time: invalid format layout")
	}
}

func formatRelative(t time.Time) string {
	y, mo, d, h, mi, s := elapsed(t, time.Now())
	return fmt.Sprintf("%02d%02d%02d%02d%02d%02d000R", y, mo, d, h, mi, s)
}

func formatAbsolute(t time.Time) string {
	_, zoneSeconds := t.Zone()
	quarterHours := zoneSeconds / 900
	sign := "+"
	if quarterHours < 0 {
		sign = "-"
		quarterHours = -quarterHours
	}
	return fmt.Sprintf("%s%d%02d%s", t.Format("060102150405"), t.Nanosecond()/100000000, quarterHours, sign)
}

// elapsed returns the calendar difference between a and b as separate
// year/month/day/hour/min/sec components, borrowing the carry logic Go's
// time package doesn't provide directly.
func elapsed(a, b time.Time) (year, month, day, hour, min, sec int) {
	if a.Location() != b.Location() {
		b = b.In(a.Location())
	}
	if a.After(b) {
		a, b = b, a
	}
	y1, M1, d1 := a.Date()
	y2, M2, d2 := b.Date()
	h1, m1, s1 := a.Clock()
	h2, m2, s2 := b.Clock()

	year = y2 - y1
	month = int(M2 - M1)
	day = d2 - d1
	hour = h2 - h1
	min = m2 - m1
	sec = s2 - s1

	if sec < 0 {
		sec += 60
		min--
	}
	if min < 0 {
		min += 60
		hour--
	}
	if hour < 0 {
		hour += 24
		day--
	}
	if day < 0 {
		daysInMonth := time.Date(y1, M1, 32, 0, 0, 0, 0, time.UTC).Day()
		day += 32 - daysInMonth
		month--
	}
	if month < 0 {
		month += 12
		year--
	}
	return
}
