package domain

import "sort"

// RuleSet holds the five category sets of a rule collection. The zero value
// is not usable; construct with NewRuleSet.
type RuleSet struct {
	sets [IPASN + 1]map[string]struct{}
}

// NewRuleSet returns an empty RuleSet.
func NewRuleSet() *RuleSet {
	rs := &RuleSet{}
	for i := range rs.sets {
		rs.sets[i] = make(map[string]struct{})
	}
	return rs
}

// Add inserts the entry value into its category set. It reports whether the
// value was newly added. Empty values and unknown categories are ignored.
func (rs *RuleSet) Add(e Entry) bool {
	if e.Value == "" || int(e.Category) >= len(rs.sets) {
		return false
	}
	set := rs.sets[e.Category]
	if _, ok := set[e.Value]; ok {
		return false
	}
	set[e.Value] = struct{}{}
	return true
}

// Contains reports whether value is present in the given category.
func (rs *RuleSet) Contains(c Category, value string) bool {
	if int(c) >= len(rs.sets) {
		return false
	}
	_, ok := rs.sets[c][value]
	return ok
}

// Remove deletes value from the given category and reports whether it was present.
func (rs *RuleSet) Remove(c Category, value string) bool {
	if !rs.Contains(c, value) {
		return false
	}
	delete(rs.sets[c], value)
	return true
}

// Merge unions every category of other into rs. other is not modified.
func (rs *RuleSet) Merge(other *RuleSet) {
	if other == nil {
		return
	}
	for i, set := range other.sets {
		for v := range set {
			rs.sets[i][v] = struct{}{}
		}
	}
}

// Count returns the number of values in one category.
func (rs *RuleSet) Count(c Category) int {
	if int(c) >= len(rs.sets) {
		return 0
	}
	return len(rs.sets[c])
}

// Len returns the number of values across all categories.
func (rs *RuleSet) Len() int {
	n := 0
	for _, set := range rs.sets {
		n += len(set)
	}
	return n
}

// Export returns the sets as sorted slices. It does not modify rs.
func (rs *RuleSet) Export() Rules {
	return Rules{
		Domains:        sortedKeys(rs.sets[ExactDomain]),
		DomainSuffixes: sortedKeys(rs.sets[DomainSuffix]),
		DomainKeywords: sortedKeys(rs.sets[DomainKeyword]),
		IPCIDRs:        sortedKeys(rs.sets[IPCIDR]),
		IPASNs:         sortedKeys(rs.sets[IPASN]),
	}
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// Rules is the exported, serializable form of a RuleSet: one sorted slice
// per category.
type Rules struct {
	Domains        []string `json:"domains"`
	DomainSuffixes []string `json:"domain_suffixes"`
	DomainKeywords []string `json:"domain_keywords"`
	IPCIDRs        []string `json:"ip_cidrs"`
	IPASNs         []string `json:"ip_asns"`
}

// Values returns the slice backing one category.
func (r Rules) Values(c Category) []string {
	switch c {
	case ExactDomain:
		return r.Domains
	case DomainSuffix:
		return r.DomainSuffixes
	case DomainKeyword:
		return r.DomainKeywords
	case IPCIDR:
		return r.IPCIDRs
	case IPASN:
		return r.IPASNs
	default:
		return nil
	}
}

// Total returns the number of rules across all five categories.
func (r Rules) Total() int {
	return len(r.Domains) + len(r.DomainSuffixes) + len(r.DomainKeywords) + len(r.IPCIDRs) + len(r.IPASNs)
}

// RuleSet rebuilds a mutable RuleSet from the exported form.
func (r Rules) RuleSet() *RuleSet {
	rs := NewRuleSet()
	for _, c := range Categories {
		for _, v := range r.Values(c) {
			rs.Add(Entry{Category: c, Value: v})
		}
	}
	return rs
}

// Normalize returns a copy with every category deduplicated, sorted and
// non-nil.
func (r Rules) Normalize() Rules {
	return r.RuleSet().Export()
}
