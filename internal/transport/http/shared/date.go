package shared

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	DayLayout     = "2006-01-02"
	DisplayLayout = "Jan 02, 2006"
)

var ErrNoDate = errors.New("no date given")

// ParseDay reads a calendar day from a query or form value. Timestamps keep
// the day in their own offset; the result is always midnight UTC so it
// compares cleanly against stored record dates.
func ParseDay(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, ErrNoDate
	}
	for _, layout := range []string{DayLayout, time.RFC3339, DisplayLayout} {
		if parsed, err := time.Parse(layout, value); err == nil {
			y, m, d := parsed.Date()
			return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", value)
}
