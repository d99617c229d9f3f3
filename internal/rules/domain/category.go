package domain

import "fmt"

// Category is the typed kind of a normalized rule.
//
// domain         - matches one fully-qualified hostname only
// domain_suffix  - matches a hostname and all of its subdomains
// domain_keyword - matches any hostname containing the value
// ip_cidr        - matches an address inside the CIDR block
// ip_asn         - matches addresses announced by the autonomous system
type Category uint8

const (
	ExactDomain Category = iota
	DomainSuffix
	DomainKeyword
	IPCIDR
	IPASN
)

// Categories lists every category in render order.
var Categories = []Category{ExactDomain, DomainSuffix, DomainKeyword, IPCIDR, IPASN}

// String returns a stable string representation of the category.
func (c Category) String() string {
	switch c {
	case ExactDomain:
		return "domain"
	case DomainSuffix:
		return "domain_suffix"
	case DomainKeyword:
		return "domain_keyword"
	case IPCIDR:
		return "ip_cidr"
	case IPASN:
		return "ip_asn"
	default:
		return fmt.Sprintf("Category(%d)", c)
	}
}

// IsDomain reports whether the category holds hostnames subject to the
// hostname grammar.
func (c Category) IsDomain() bool {
	return c == ExactDomain || c == DomainSuffix
}

// Entry is one classified rule: a category and its normalized value.
type Entry struct {
	Category Category
	Value    string
}
