package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// monthNumber maps a free-text month label ("10", "03", "October", "oct") to 1-12.
// Unrecognised labels map to 0.
func monthNumber(label string) int {
	label = strings.TrimSpace(label)
	if label == "" {
		return 0
	}
	if n, err := strconv.Atoi(label); err == nil {
		if n >= 1 && n <= 12 {
			return n
		}
		return 0
	}
	lower := strings.ToLower(label)
	for m := time.January; m <= time.December; m++ {
		name := strings.ToLower(m.String())
		if lower == name || (len(lower) >= 3 && strings.HasPrefix(name, lower)) {
			return int(m)
		}
	}
	return 0
}

// parseRemoteDate parses the date strings served by the remote expense service.
// ISO-8601 with fractional seconds and a Z suffix is the common case; anything
// dateparse understands is accepted as well.
func parseRemoteDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	t, err := dateparse.ParseStrict(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing date %q: %w", s, err)
	}
	return t, nil
}

// sameMonth reports whether t falls in the calendar month and year of ref.
func sameMonth(t, ref time.Time) bool {
	return t.Year() == ref.Year() && t.Month() == ref.Month()
}
