// Package utils provides utility functions for the application.
package utils

import (
	"time"
)

// UTCNow returns the current time in UTC
func UTCNow() time.Time {
	return time.Now().UTC()
}

// LocalNow returns the current time in the named IANA zone.
// An empty name or an unknown zone falls back to UTC.
func LocalNow(zone string) time.Time {
	if zone == "" {
		return UTCNow()
	}
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return UTCNow()
	}
	return time.Now().In(loc)
}

// FormatTimestamp renders t the way gestion rows store dates (ISO-8601 with offset)
func FormatTimestamp(t time.Time) string {
	return t.Format(time.RFC3339)
}
