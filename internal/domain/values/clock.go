package values

import (
	"fmt"
	"strings"
	"time"
)

const (
	secondsPerDay = 24 * 60 * 60

	// MaxClockDeltaMinutes is the largest possible circular delta.
	MaxClockDeltaMinutes = 12 * 60
)

// Accepted layouts, most specific first. Layouts carrying a zone yield a
// known UTC offset.
var clockLayouts = []struct {
	layout  string
	hasDate bool
	hasZone bool
}{
	{time.RFC3339Nano, true, true},
	{"2006-01-02T15:04:05-0700", true, true},
	{"2006-01-02 15:04:05-07:00", true, true},
	{"2006-01-02T15:04:05", true, false},
	{"2006-01-02 15:04:05", true, false},
	{"2006-01-02T15:04", true, false},
	{"15:04:05", false, false},
	{"15:04", false, false},
}

// ClockReading is a wall-clock observation: always a time of day, plus
// the absolute instant and UTC offset when the source carried them.
type ClockReading struct {
	secondOfDay int
	instant     time.Time
	hasDate     bool
	hasZone     bool
	offsetMin   int
}

// ParseClock parses a time-of-day ("23:50") or an absolute timestamp.
func ParseClock(raw string) (ClockReading, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ClockReading{}, fmt.Errorf("clock value cannot be empty")
	}
	for _, l := range clockLayouts {
		t, err := time.Parse(l.layout, raw)
		if err != nil {
			continue
		}
		r := ClockReading{
			secondOfDay: t.Hour()*3600 + t.Minute()*60 + t.Second(),
			instant:     t,
			hasDate:     l.hasDate,
			hasZone:     l.hasZone,
		}
		if l.hasZone {
			_, off := t.Zone()
			r.offsetMin = off / 60
		}
		return r, nil
	}
	return ClockReading{}, fmt.Errorf("unrecognized clock format %q", raw)
}

// MinuteOfDay returns the wall-clock minute in [0, 1440).
func (c ClockReading) MinuteOfDay() int {
	return c.secondOfDay / 60
}

// UTCOffset returns the offset in minutes when the reading carried a zone.
func (c ClockReading) UTCOffset() (int, bool) {
	return c.offsetMin, c.hasZone
}

// Instant returns the absolute time when the reading carried a date.
func (c ClockReading) Instant() (time.Time, bool) {
	return c.instant, c.hasDate
}

// CircularDeltaMinutes returns min(|a-b|, 24h-|a-b|) between the wall
// clocks of two readings, rounded to whole minutes. Symmetric and bounded
// by [0, 720].
func CircularDeltaMinutes(a, b ClockReading) int {
	d := a.secondOfDay - b.secondOfDay
	if d < 0 {
		d = -d
	}
	d %= secondsPerDay
	if alt := secondsPerDay - d; alt < d {
		d = alt
	}
	return (d + 30) / 60
}

// IsQuarterAligned reports whether a minute delta lies within tolerance of
// a 15-minute boundary.
func IsQuarterAligned(minutes, tolerance int) bool {
	if minutes < 0 {
		minutes = -minutes
	}
	r := minutes % 15
	dist := r
	if 15-r < dist {
		dist = 15 - r
	}
	return dist <= tolerance
}

// FormatOffset renders minutes as "+05:30".
func FormatOffset(minutes int) string {
	sign := "+"
	if minutes < 0 {
		sign = "-"
		minutes = -minutes
	}
	return fmt.Sprintf("%s%02d:%02d", sign, minutes/60, minutes%60)
}

// ParseDate parses a calendar date or timestamp used for history fields
// such as email-first-seen.
func ParseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date format %q", raw)
}
