package daytime

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ErrMalformedTimeString is returned when a clock string does not match H:MM[ am|pm].
var ErrMalformedTimeString = errors.New("malformed time string")

var clockPattern = regexp.MustCompile(`(?i)(\d+):(\d+)\s*(am|pm)?`)

// ParseClockTime resolves a provider clock string such as "7:12 am" against the date of ref.
// Without a meridiem marker the hour is taken as 24-hour time.
func ParseClockTime(ref time.Time, text string) (time.Time, error) {
	m := clockPattern.FindStringSubmatch(text)
	if m == nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrMalformedTimeString, text)
	}

	hour, err := strconv.Atoi(m[1])
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrMalformedTimeString, text)
	}
	minute, err := strconv.Atoi(m[2])
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrMalformedTimeString, text)
	}

	switch strings.ToLower(m[3]) {
	case "am":
		if hour == 12 {
			hour = 0
		}
	case "pm":
		if hour != 12 {
			hour += 12
		}
	}

	y, mo, d := ref.Date()
	return time.Date(y, mo, d, hour, minute, 0, 0, ref.Location()), nil
}

// IsDaylight reports whether now falls within [sunrise, sunset].
func IsDaylight(now, sunrise, sunset time.Time) bool {
	return !now.Before(sunrise) && !now.After(sunset)
}

// QuietWindow is the hour range during which weather refreshes are suppressed.
type QuietWindow struct {
	Enabled bool
	Start   int // hour 0-23, inclusive
	Stop    int // hour 0-23, exclusive
}

// InQuietTime reports whether hour falls inside w. Equal start and stop hours mean always quiet;
// a start after stop wraps past midnight.
func InQuietTime(hour int, w QuietWindow) bool {
	switch {
	case !w.Enabled:
		return false
	case w.Start == w.Stop:
		return true
	case w.Start < w.Stop:
		return hour >= w.Start && hour < w.Stop
	default:
		return hour >= w.Start || hour < w.Stop
	}
}
