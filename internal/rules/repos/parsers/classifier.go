package parsers

import (
	"regexp"
	"strings"

	"github.com/haukened/ai-rules/internal/rules/domain"
)

// directive maps rule-type keywords to the category they produce.
type directive struct {
	names    []string
	category domain.Category
}

// directives is ordered by priority; the first match wins.
var directives = []directive{
	{names: []string{"DOMAIN-SUFFIX", "HOST-SUFFIX"}, category: domain.DomainSuffix},
	{names: []string{"DOMAIN", "HOST"}, category: domain.ExactDomain},
	{names: []string{"DOMAIN-KEYWORD", "HOST-KEYWORD"}, category: domain.DomainKeyword},
	{names: []string{"IP-CIDR"}, category: domain.IPCIDR},
	{names: []string{"IP-ASN"}, category: domain.IPASN},
}

// bareHostname matches a directive-less multi-label domain name.
var bareHostname = regexp.MustCompile(`^([a-zA-Z0-9][-a-zA-Z0-9]*\.)+[a-zA-Z]{2,}$`)

// Classify turns one raw classical rule line into a typed entry.
//
// Rules:
//   - Skip empty lines, whole-line comments ('#' or "//") and the "payload:" marker
//   - Strip inline comments and a leading "-" list marker
//   - Match directives in priority order; the value runs up to the next comma
//   - A bare multi-label hostname is an implicit suffix rule
//   - Values are trimmed and lower-cased; "*." wildcards are removed from suffixes
//   - Domain and suffix values must satisfy hostname grammar
func Classify(line string) (domain.Entry, bool) {
	line = strings.TrimSpace(stripLineBOM(line))
	if line == "" || isCommentLine(line) {
		return domain.Entry{}, false
	}
	line = stripInlineComment(line)
	if isPayloadMarker(line) {
		return domain.Entry{}, false
	}
	line = stripBullet(line)
	if line == "" {
		return domain.Entry{}, false
	}

	if e, ok := classifyDirective(line); ok {
		return finalize(e)
	}
	if bareHostname.MatchString(line) {
		return finalize(domain.Entry{Category: domain.DomainSuffix, Value: line})
	}
	return domain.Entry{}, false
}

// classifyDirective splits "TYPE,VALUE[,...]" and looks TYPE up in the
// directive table.
func classifyDirective(line string) (domain.Entry, bool) {
	head, rest, found := strings.Cut(line, ",")
	if !found {
		return domain.Entry{}, false
	}
	head = strings.ToUpper(strings.TrimSpace(head))
	value, _, _ := strings.Cut(rest, ",")

	for _, d := range directives {
		for _, name := range d.names {
			if head == name {
				return domain.Entry{Category: d.category, Value: value}, true
			}
		}
	}
	return domain.Entry{}, false
}

// finalize normalizes the value for its category and applies the hostname
// grammar to domain categories.
func finalize(e domain.Entry) (domain.Entry, bool) {
	e.Value = strings.ToLower(strings.TrimSpace(e.Value))
	if e.Category == domain.DomainSuffix {
		e.Value = strings.ReplaceAll(e.Value, "*.", "")
	}
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

// ClassifyAs dispatches a line to the classifier for the given format.
func ClassifyAs(line string, format Format) (domain.Entry, bool) {
	if format == FormatStructured {
		return ClassifyStructured(line)
	}
	return Classify(line)
}
