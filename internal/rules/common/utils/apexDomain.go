package utils

import "golang.org/x/net/publicsuffix"

// RegistrableDomain returns the eTLD+1 of name (for example "openai.com" for
// "chat.openai.com" and "example.co.uk" for "www.example.co.uk"). When the
// public suffix list cannot answer, the canonical name is returned unchanged.
func RegistrableDomain(name string) string {
	name = CanonicalDomain(name)
	apex, err := publicsuffix.EffectiveTLDPlusOne(name)
	if err != nil {
		return name
	}
	return apex
}
