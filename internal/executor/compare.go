package executor

import "strings"

// Matches compares program output with the expected answer. Only leading and trailing
// whitespace is ignored; internal whitespace, line endings and numeric formatting must match.
func Matches(actual, expected string) bool {
	return strings.TrimSpace(actual) == strings.TrimSpace(expected)
}
