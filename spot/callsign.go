package spot

import (
	"regexp"
	"strings"
)

var callsignPattern = regexp.MustCompile(`^[A-Z0-9]+(?:[/-][A-Z0-9]+)*$`)

const (
	// MinCallsignLen and MaxCallsignLen bound accepted callsign lengths after
	// normalization. Anything outside is rejected at the validate stage.
	MinCallsignLen = 3
	MaxCallsignLen = 10
)

// NormalizeCallsign uppercases the string and trims surrounding whitespace.
func NormalizeCallsign(call string) string {
	return strings.ToUpper(strings.TrimSpace(call))
}

// IsValidCallsign reports whether a normalized callsign is structurally
// plausible: bounded length and alphanumeric segments separated by '/' or '-'.
func IsValidCallsign(call string) bool {
	if len(call) < MinCallsignLen || len(call) > MaxCallsignLen {
		return false
	}
	return callsignPattern.MatchString(call)
}
