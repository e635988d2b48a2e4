// Package timeofday parses the clock strings used by schedules ("14:00",
// "9:05", "09:00 AM") into a typed minute-of-day value.
package timeofday

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrUnrecognized is returned for strings that are neither 24-hour nor 12-hour clock times.
var ErrUnrecognized = errors.New("timeofday: unrecognized time format")

// TimeOfDay is a wall-clock minute without a date.
type TimeOfDay struct {
	Hour   int
	Minute int
}

// FromTime returns the wall-clock minute of t in its own location.
func FromTime(t time.Time) TimeOfDay {
	return TimeOfDay{Hour: t.Hour(), Minute: t.Minute()}
}

// String renders the zero-padded 24-hour form, e.g. "09:05".
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// Parse accepts "H", "H:MM" or "HH:MM" optionally followed by a space and an
// AM/PM suffix (any case). The hour is always 0-23: PM adds 12 only to hours
// below 12 and "12 AM" is midnight, so "13:00 PM" reads as 13:00. A missing
// minute counts as zero.
func Parse(value string) (TimeOfDay, error) {
	trimmed := strings.TrimSpace(value)
	clock, suffix, hasSuffix := strings.Cut(trimmed, " ")
	suffix = strings.ToUpper(strings.TrimSpace(suffix))

	hourText, minuteText, hasMinute := strings.Cut(clock, ":")
	hour, err := parseField(hourText, 2)
	if err != nil {
		return TimeOfDay{}, fmt.Errorf("%w: %q", ErrUnrecognized, value)
	}
	minute := 0
	if hasMinute {
		if len(minuteText) != 2 {
			return TimeOfDay{}, fmt.Errorf("%w: %q", ErrUnrecognized, value)
		}
		if minute, err = parseField(minuteText, 2); err != nil || minute > 59 {
			return TimeOfDay{}, fmt.Errorf("%w: %q", ErrUnrecognized, value)
		}
	}

	if hour > 23 {
		return TimeOfDay{}, fmt.Errorf("%w: %q", ErrUnrecognized, value)
	}
	if !hasSuffix {
		return TimeOfDay{Hour: hour, Minute: minute}, nil
	}

	switch suffix {
	case "AM":
		if hour == 12 {
			hour = 0
		}
	case "PM":
		if hour < 12 {
			hour += 12
		}
	default:
		return TimeOfDay{}, fmt.Errorf("%w: %q", ErrUnrecognized, value)
	}
	return TimeOfDay{Hour: hour, Minute: minute}, nil
}

// Normalize parses value and returns its zero-padded 24-hour form.
func Normalize(value string) (string, error) {
	t, err := Parse(value)
	if err != nil {
		return "", err
	}
	return t.String(), nil
}

func parseField(text string, maxDigits int) (int, error) {
	if text == "" || len(text) > maxDigits {
		return 0, strconv.ErrSyntax
	}
	for _, r := range text {
		if r < '0' || r > '9' {
			return 0, strconv.ErrSyntax
		}
	}
	return strconv.Atoi(text)
}
