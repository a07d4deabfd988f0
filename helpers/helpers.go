package helpers

import (
	// Go Internal Packages
	"time"
)

// ISOFormat is the wire format for transaction timestamps.
const ISOFormat = time.RFC3339

// FormatISO renders t as an ISO-8601 instant in UTC.
func FormatISO(t time.Time) string {
	return t.UTC().Format(ISOFormat)
}

// ParseISO parses an ISO-8601 instant. Callers treat a parse failure
// as "keep the record" rather than guessing at a date.
func ParseISO(s string) (time.Time, error) {
	return time.Parse(ISOFormat, s)
}
