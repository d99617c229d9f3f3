package parsers

import (
	"fmt"
	"strings"

	"github.com/haukened/ai-rules/internal/rules/common/utils"
)

// Format is the syntax family of a rule source.
type Format uint8

const (
	// FormatClassical covers Clash/Surge/Quantumult X style lines
	// ("DOMAIN-SUFFIX,example.com", "- HOST,example.com,proxy", bare hostnames).
	FormatClassical Format = iota
	// FormatStructured covers v2fly domain-list-community data files
	// ("full:example.com", "keyword:openai", bare tokens).
	FormatStructured
)

// String returns a stable string representation of the format.
func (f Format) String() string {
	switch f {
	case FormatClassical:
		return "classical"
	case FormatStructured:
		return "structured"
	default:
		return fmt.Sprintf("Format(%d)", f)
	}
}

// ParseFormat converts a catalog format name into a Format. The tool names
// "clash", "surge" and "v2fly" are accepted as aliases.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "classical", "clash", "surge":
		return FormatClassical, nil
	case "structured", "v2fly":
		return FormatStructured, nil
	default:
		return 0, fmt.Errorf("unsupported source format: %q", s)
	}
}

// stripLineBOM removes a UTF-8 byte order mark at the start of a line.
func stripLineBOM(line string) string {
	return strings.TrimPrefix(line, "\uFEFF")
}

// isCommentLine reports whether a trimmed line is a whole-line comment.
func isCommentLine(trimmed string) bool {
	return strings.HasPrefix(trimmed, "#") || strings.HasPrefix(trimmed, "//")
}

// stripInlineComment cuts the line at the first '#' and then at the first
// "//", and trims what remains.
func stripInlineComment(line string) string {
	if idx := strings.IndexByte(line, '#'); idx >= 0 {
		line = line[:idx]
	}
	if idx := strings.Index(line, "//"); idx >= 0 {
		line = line[:idx]
	}
	return strings.TrimSpace(line)
}

// stripBullet removes a leading YAML list marker ("-" plus whitespace).
func stripBullet(line string) string {
	if !strings.HasPrefix(line, "-") {
		return line
	}
	return strings.TrimSpace(line[1:])
}

// isPayloadMarker reports whether the line is the Clash rule-provider
// "payload:" key.
func isPayloadMarker(line string) bool {
	l := strings.ToLower(line)
	return l == "payload:" || l == "payload"
}

// hostValue canonicalizes a domain value and applies the hostname grammar.
// A trailing dot leaves an empty last label and is rejected.
func hostValue(v string) (string, bool) {
	if strings.HasSuffix(v, ".") {
		return "", false
	}
	v = utils.CanonicalDomain(v)
	return v, utils.IsValidHostname(v)
}
