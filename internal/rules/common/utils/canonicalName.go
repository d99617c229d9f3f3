package utils

import "strings"

// CanonicalDomain returns a domain in the form stored in rule sets:
// - Trimmed of surrounding whitespace
// - Lowercased
// - No trailing dots
func CanonicalDomain(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	return strings.TrimRight(name, ".")
}
