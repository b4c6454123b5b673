package query

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var daysAgoPattern = regexp.MustCompile(`^(\d+)\s+days?\s+ago$`)

// parseTimestamp resolves a literal into a time.Time relative to now,
// accepting RFC3339, a bare date, and a small set of human phrases.
func parseTimestamp(s string, now time.Time) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}

	switch strings.ToLower(strings.TrimSpace(s)) {
	case "now":
		return now, nil
	case "today":
		return now, nil
	case "yesterday":
		return now.AddDate(0, 0, -1), nil
	case "last week":
		return now.AddDate(0, 0, -7), nil
	case "last month":
		return now.AddDate(0, -1, 0), nil
	}

	if m := daysAgoPattern.FindStringSubmatch(strings.ToLower(strings.TrimSpace(s))); m != nil {
		n, err := strconv.Atoi(m[1])
		if err == nil {
			return now.AddDate(0, 0, -n), nil
		}
	}

	return time.Time{}, fmt.Errorf("not a recognized timestamp: %q", s)
}
