package render

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/haukened/ai-rules/internal/rules/domain"
)

// directive keywords shared by the Clash and Surge families.
var classicalDirective = map[domain.Category]string{
	domain.ExactDomain:   "DOMAIN",
	domain.DomainSuffix:  "DOMAIN-SUFFIX",
	domain.DomainKeyword: "DOMAIN-KEYWORD",
	domain.IPCIDR:        "IP-CIDR",
	domain.IPASN:         "IP-ASN",
}

type clashProvider struct {
	Payload []string `yaml:"payload"`
}

// RenderClash emits a Clash rule-provider document: a YAML "payload"
// sequence of "TYPE,value" entries covering all five categories.
func RenderClash(rules domain.Rules, meta Meta) ([]byte, error) {
	doc := clashProvider{Payload: make([]string, 0, rules.Total())}
	for _, c := range domain.Categories {
		for _, v := range rules.Values(c) {
			doc.Payload = append(doc.Payload, classicalDirective[c]+","+v)
		}
	}

	var buf bytes.Buffer
	header(&buf, "#", "Clash", "reference this file as a classical rule-provider in the Clash rules section", rules, meta)
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("encode clash payload: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encode clash payload: %w", err)
	}
	return buf.Bytes(), nil
}
