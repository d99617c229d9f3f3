package assembler

import (
	"strings"

	"github.com/haukened/ai-rules/internal/rules/common/utils"
	"github.com/haukened/ai-rules/internal/rules/domain"
)

// Assemble folds every parser into a fresh one, drops ignored suffixes and
// exports the result. Inputs are not modified; nil parsers are skipped.
// Only DomainSuffix values are filtered: an ignored apex may still appear
// as an exact domain.
func Assemble(parsers []*Parser, ignored []string) domain.Rules {
	merged := NewParser()
	for _, p := range parsers {
		merged.Merge(p)
	}
	for _, s := range ignored {
		merged.set.Remove(domain.DomainSuffix, utils.CanonicalDomain(s))
	}
	return merged.Export()
}

// Builtins are rules that are always emitted, supplied as configuration.
type Builtins struct {
	Domains  []string
	Suffixes []string
	Keywords []string
	IPCIDRs  []string
	IPASNs   []string
}

// FromBuiltins normalizes the built-in lists into a Parser. Domain values
// that fail hostname grammar are dropped.
func FromBuiltins(b Builtins) *Parser {
	p := NewParser()
	for _, d := range b.Domains {
		addHost(p, domain.ExactDomain, d)
	}
	for _, s := range b.Suffixes {
		addHost(p, domain.DomainSuffix, strings.ReplaceAll(s, "*.", ""))
	}
	addLower(p, domain.DomainKeyword, b.Keywords)
	addLower(p, domain.IPCIDR, b.IPCIDRs)
	addLower(p, domain.IPASN, b.IPASNs)
	return p
}

func addHost(p *Parser, c domain.Category, v string) {
	v = utils.CanonicalDomain(v)
	if utils.IsValidHostname(v) {
		p.Add(domain.Entry{Category: c, Value: v})
	}
}

func addLower(p *Parser, c domain.Category, values []string) {
	for _, v := range values {
		p.Add(domain.Entry{Category: c, Value: strings.ToLower(strings.TrimSpace(v))})
	}
}
