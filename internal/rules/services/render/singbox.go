package render

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/haukened/ai-rules/internal/rules/domain"
)

// singBoxVersion is the rule-set source format version.
const singBoxVersion = 1

type singBoxRuleSet struct {
	Version int           `json:"version"`
	Rules   []singBoxRule `json:"rules"`
}

type singBoxRule struct {
	Domain        []string `json:"domain,omitempty"`
	DomainSuffix  []string `json:"domain_suffix,omitempty"`
	DomainKeyword []string `json:"domain_keyword,omitempty"`
	IPCIDR        []string `json:"ip_cidr,omitempty"`
	IPASN         []uint32 `json:"ip_asn,omitempty"`
}

func (r singBoxRule) empty() bool {
	return len(r.Domain)+len(r.DomainSuffix)+len(r.DomainKeyword)+len(r.IPCIDR)+len(r.IPASN) == 0
}

// RenderSingBox emits a sing-box rule-set source document. Domain fields
// share the first rule object and IP fields the second; empty fields and
// empty objects are left out. ASNs that are not numbers (after an optional
// "AS" prefix) are dropped, so ParseSingBox returns bare numbers. The header
// is written as "//" lines, which the sing-box JSON reader skips as comments
// and strict JSON parsers reject.
func RenderSingBox(rules domain.Rules, meta Meta) ([]byte, error) {
	doc := singBoxRuleSet{Version: singBoxVersion, Rules: []singBoxRule{}}
	domains := singBoxRule{
		Domain:        rules.Domains,
		DomainSuffix:  rules.DomainSuffixes,
		DomainKeyword: rules.DomainKeywords,
	}
	ips := singBoxRule{
		IPCIDR: rules.IPCIDRs,
		IPASN:  parseASNs(rules.IPASNs),
	}
	for _, r := range []singBoxRule{domains, ips} {
		if !r.empty() {
			doc.Rules = append(doc.Rules, r)
		}
	}

	var buf bytes.Buffer
	header(&buf, "//", "sing-box", "compile with `sing-box rule-set compile` or load as a source rule-set; strip the // lines for strict JSON tools", rules, meta)
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("encode sing-box rule-set: %w", err)
	}
	return buf.Bytes(), nil
}

// parseASNs converts ASN strings to integers, dropping unparsable values.
func parseASNs(values []string) []uint32 {
	out := make([]uint32, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if len(v) > 2 && strings.EqualFold(v[:2], "as") {
			v = v[2:]
		}
		n, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			continue
		}
		out = append(out, uint32(n))
	}
	return out
}

// ParseSingBox reads a document produced by RenderSingBox back into rules.
// Leading "//" comment lines are skipped.
func ParseSingBox(data []byte) (domain.Rules, error) {
	var body bytes.Buffer
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		if strings.HasPrefix(strings.TrimSpace(sc.Text()), "//") {
			continue
		}
		body.Write(sc.Bytes())
		body.WriteByte('\n')
	}
	if err := sc.Err(); err != nil {
		return domain.Rules{}, err
	}

	var doc singBoxRuleSet
	if err := json.Unmarshal(body.Bytes(), &doc); err != nil {
		return domain.Rules{}, fmt.Errorf("decode sing-box rule-set: %w", err)
	}
	rs := domain.NewRuleSet()
	add := func(c domain.Category, values []string) {
		for _, v := range values {
			rs.Add(domain.Entry{Category: c, Value: v})
		}
	}
	for _, r := range doc.Rules {
		add(domain.ExactDomain, r.Domain)
		add(domain.DomainSuffix, r.DomainSuffix)
		add(domain.DomainKeyword, r.DomainKeyword)
		add(domain.IPCIDR, r.IPCIDR)
		for _, n := range r.IPASN {
			rs.Add(domain.Entry{Category: domain.IPASN, Value: strconv.FormatUint(uint64(n), 10)})
		}
	}
	return rs.Export(), nil
}
