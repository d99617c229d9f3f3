package utils

import "strings"

const (
	maxHostnameLen = 253
	maxLabelLen    = 63
)

// IsValidHostname reports whether name follows hostname label grammar:
// dot-separated labels of 1-63 ASCII letters, digits or hyphens, where a
// label neither starts nor ends with a hyphen, and at most 253 characters in
// total. Single-label names are accepted.
func IsValidHostname(name string) bool {
	if name == "" || len(name) > maxHostnameLen {
		return false
	}
	for _, label := range strings.Split(name, ".") {
		if !isValidLabel(label) {
			return false
		}
	}
	return true
}

func isValidLabel(label string) bool {
	if len(label) == 0 || len(label) > maxLabelLen {
		return false
	}
	if label[0] == '-' || label[len(label)-1] == '-' {
		return false
	}
	for i := 0; i < len(label); i++ {
		if !isLDH(label[i]) {
			return false
		}
	}
	return true
}

// isLDH reports whether c is an ASCII letter, digit or hyphen.
func isLDH(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '-'
}
