package matching

import (
	"strings"

	"github.com/getmockd/replay/pkg/har"
)

// MatchHeader checks if a specific header with the given value is present.
// Header names are case-insensitive (per HTTP spec).
func MatchHeader(name, expectedValue string, headers har.Headers) bool {
	for _, h := range headers {
		if strings.EqualFold(h.Name, name) && h.Value == expectedValue {
			return true
		}
	}
	return false
}

// MatchHeaders checks that every expected header is present on actual.
// Extra headers on actual are ignored.
func MatchHeaders(expected, actual har.Headers) bool {
	return len(MissingHeaders(expected, actual)) == 0
}

// MissingHeaders returns the expected headers that actual does not carry.
func MissingHeaders(expected, actual har.Headers) har.Headers {
	var missing har.Headers
	for _, h := range expected {
		if !MatchHeader(h.Name, h.Value, actual) {
			missing = append(missing, h)
		}
	}
	return missing
}
