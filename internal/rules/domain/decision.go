package domain

// Decision is the outcome of checking a hostname against a rule set.
// Pure value type.
type Decision struct {
	Matched  bool     // true if any rule covers the host
	Rule     string   // the rule value that matched (suffix anchor, exact name or keyword)
	Category Category // category of the matching rule
}

// EmptyDecision returns a not-matched decision.
func EmptyDecision() Decision { return Decision{} }
