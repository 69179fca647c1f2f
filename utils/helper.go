package utils

import (
	"os"
	"strings"
	"time"
)

const defaultPortalTimezone = "Africa/Johannesburg"

// PortalLocation returns the timezone used for caller-supplied dates and for
// rendered report cells. The store itself keeps UTC.
func PortalLocation() *time.Location {
	tz := strings.TrimSpace(os.Getenv("PORTAL_TIMEZONE"))
	if tz == "" {
		tz = defaultPortalTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Layouts the client gateway is known to send. RFC3339 from date pickers,
// the two short forms from manual entry and older exports.
var portalTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParsePortalTime parses a caller-supplied date string. The bool reports
// whether parsing succeeded; callers decide the fallback (usually the batch
// creation time).
func ParsePortalTime(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	loc := PortalLocation()
	for _, layout := range portalTimeLayouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// FormatPortalTime renders a stored UTC timestamp in the portal timezone,
// matching what the spreadsheet-era exports showed.
func FormatPortalTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.In(PortalLocation()).Format("2006-01-02 15:04:05")
}

func UniqueSlice[T comparable](slice []T) []T {
	inResult := make(map[T]bool)
	var result []T
	for _, elm := range slice {
		if _, ok := inResult[elm]; !ok {
			// if not exists in map, append it, otherwise do nothing
			inResult[elm] = true
			result = append(result, elm)
		}
	}
	return result
}
