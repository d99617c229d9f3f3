package render

import (
	"bytes"

	"github.com/haukened/ai-rules/internal/rules/domain"
)

// hostDirective is the Quantumult X vocabulary.
var hostDirective = map[domain.Category]string{
	domain.ExactDomain:   "HOST",
	domain.DomainSuffix:  "HOST-SUFFIX",
	domain.DomainKeyword: "HOST-KEYWORD",
	domain.IPCIDR:        "IP-CIDR",
}

// renderTagged writes "TYPE,value,TAG" lines. Categories missing from
// directives (IP-ASN for these tools) are left out of the body but still
// counted in the header.
func renderTagged(rules domain.Rules, meta Meta, title, usage, tag string, directives map[domain.Category]string) []byte {
	var buf bytes.Buffer
	header(&buf, "#", title, usage, rules, meta)
	for _, c := range domain.Categories {
		d, ok := directives[c]
		if !ok {
			continue
		}
		for _, v := range rules.Values(c) {
			buf.WriteString(d)
			buf.WriteByte(',')
			buf.WriteString(v)
			buf.WriteByte(',')
			buf.WriteString(tag)
			buf.WriteByte('\n')
		}
	}
	return buf.Bytes()
}

// taggedDirective is classicalDirective without IP-ASN.
var taggedDirective = map[domain.Category]string{
	domain.ExactDomain:   "DOMAIN",
	domain.DomainSuffix:  "DOMAIN-SUFFIX",
	domain.DomainKeyword: "DOMAIN-KEYWORD",
	domain.IPCIDR:        "IP-CIDR",
}

// RenderSurge emits "TYPE,value,Proxy" lines for a Surge RULE-SET.
func RenderSurge(rules domain.Rules, meta Meta) ([]byte, error) {
	return renderTagged(rules, meta, "Surge", "add to the [Rule] section of the Surge profile", tagOr(meta, "Proxy"), taggedDirective), nil
}

func RenderShadowrocket(rules domain.Rules, meta Meta) ([]byte, error) {
	return renderTagged(rules, meta, "Shadowrocket", "add to the [Rule] section of the Shadowrocket config", tagOr(meta, "PROXY"), taggedDirective), nil
}

func RenderLoon(rules domain.Rules, meta Meta) ([]byte, error) {
	return renderTagged(rules, meta, "Loon", "add to the [Rule] section of the Loon config", tagOr(meta, "PROXY"), taggedDirective), nil
}

// RenderQuantumultX uses the HOST vocabulary with a lower-case policy.
func RenderQuantumultX(rules domain.Rules, meta Meta) ([]byte, error) {
	return renderTagged(rules, meta, "Quantumult X", "add as a [filter_remote] resource in Quantumult X", tagOr(meta, "proxy"), hostDirective), nil
}
