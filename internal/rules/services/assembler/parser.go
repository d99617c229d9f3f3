// Package assembler accumulates classified rules per source and folds the
// per-source collections into the final rule set.
package assembler

import (
	"github.com/haukened/ai-rules/internal/rules/domain"
	"github.com/haukened/ai-rules/internal/rules/repos/parsers"
)

// Parser owns the five typed rule sets filled from one source.
// Malformed lines are dropped, never reported.
type Parser struct {
	set *domain.RuleSet
}

// NewParser returns an empty Parser.
func NewParser() *Parser {
	return &Parser{set: domain.NewRuleSet()}
}

// Ingest classifies line under format and inserts the result. It reports
// whether the line produced a rule (new or already present).
func (p *Parser) Ingest(line string, format parsers.Format) bool {
	e, ok := parsers.ClassifyAs(line, format)
	if !ok {
		return false
	}
	p.set.Add(e)
	return true
}

// Add inserts an already classified entry.
func (p *Parser) Add(e domain.Entry) bool {
	return p.set.Add(e)
}

// AddAll inserts entries and returns how many were new.
func (p *Parser) AddAll(entries []domain.Entry) int {
	added := 0
	for _, e := range entries {
		if p.set.Add(e) {
			added++
		}
	}
	return added
}

// Merge unions other into p. other is left unchanged.
func (p *Parser) Merge(other *Parser) {
	if other == nil {
		return
	}
	p.set.Merge(other.set)
}

// Export returns the sorted contents. The result shares no memory with p.
func (p *Parser) Export() domain.Rules {
	return p.set.Export()
}

// Len returns the number of rules across all categories.
func (p *Parser) Len() int {
	return p.set.Len()
}

// Count returns the number of rules in one category.
func (p *Parser) Count(c domain.Category) int {
	return p.set.Count(c)
}
