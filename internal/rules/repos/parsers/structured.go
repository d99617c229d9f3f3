package parsers

import (
	"strings"

	"github.com/haukened/ai-rules/internal/rules/domain"
)

// ClassifyStructured turns one v2fly domain-list line into a typed entry.
//
// Only the first whitespace-separated token is considered, so attributes
// such as "@cn" are ignored. "full:" yields an exact domain, "keyword:" a
// keyword and a bare token a suffix. Every other "type:" prefix (regexp,
// include, domain, ...) is dropped; includes are never followed.
// Domain values go through the same hostname grammar as classical lines.
func ClassifyStructured(line string) (domain.Entry, bool) {
	line = strings.TrimSpace(stripLineBOM(line))
	if line == "" || strings.HasPrefix(line, "#") {
		return domain.Entry{}, false
	}
	if idx := strings.IndexByte(line, '#'); idx >= 0 {
		line = line[:idx]
	}
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return domain.Entry{}, false
	}
	token := fields[0]

	var e domain.Entry
	if kind, value, found := strings.Cut(token, ":"); found {
		switch kind {
		case "full":
			e = domain.Entry{Category: domain.ExactDomain, Value: value}
		case "keyword":
			e = domain.Entry{Category: domain.DomainKeyword, Value: value}
		default:
			return domain.Entry{}, false
		}
	} else {
		e = domain.Entry{Category: domain.DomainSuffix, Value: token}
	}

	e.Value = strings.ToLower(strings.TrimSpace(e.Value))
	if e.Category.IsDomain() {
		var ok bool
		if e.Value, ok = hostValue(e.Value); !ok {
			return domain.Entry{}, false
		}
	}
	if e.Value == "" {
		return domain.Entry{}, false
	}
	return e, true
}
