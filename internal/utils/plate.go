package utils

import "strings"

// NormalizePlate upper-cases a plate string. Separators are kept so the
// stored value matches what the capture agent read.
func NormalizePlate(plate string) string {
	return strings.ToUpper(plate)
}

// NormalizeSearch prepares a free-text plate search needle.
func NormalizeSearch(search string) string {
	return strings.ToUpper(strings.TrimSpace(search))
}
