package assembler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haukened/ai-rules/internal/rules/domain"
	"github.com/haukened/ai-rules/internal/rules/repos/parsers"
)

func parserFrom(t *testing.T, format parsers.Format, lines ...string) *Parser {
	t.Helper()
	p := NewParser()
	for _, l := range lines {
		p.Ingest(l, format)
	}
	return p
}

func TestParser_Ingest(t *testing.T) {
	p := NewParser()
	assert.True(t, p.Ingest("DOMAIN-SUFFIX,*.Example.COM", parsers.FormatClassical))
	assert.True(t, p.Ingest("  - IP-CIDR, 10.0.0.0/8  ", parsers.FormatClassical))
	assert.True(t, p.Ingest("full:chat.openai.com", parsers.FormatStructured))
	assert.False(t, p.Ingest("include:other", parsers.FormatStructured))
	assert.False(t, p.Ingest("# comment", parsers.FormatClassical))
	assert.False(t, p.Ingest("PROCESS-NAME,x", parsers.FormatClassical))

	got := p.Export()
	assert.Equal(t, []string{"example.com"}, got.DomainSuffixes)
	assert.Equal(t, []string{"10.0.0.0/8"}, got.IPCIDRs)
	assert.Equal(t, []string{"chat.openai.com"}, got.Domains)
	assert.Equal(t, 3, p.Len())
	assert.Equal(t, 1, p.Count(domain.IPCIDR))
}

func TestParser_IngestIdempotent(t *testing.T) {
	once := parserFrom(t, parsers.FormatClassical, "DOMAIN,a.openai.com", "openai.com")
	twice := parserFrom(t, parsers.FormatClassical, "DOMAIN,a.openai.com", "openai.com", "DOMAIN,a.openai.com", "openai.com")
	assert.Equal(t, once.Export(), twice.Export())
	assert.Equal(t, 2, twice.Len())
}

func TestParser_AddAll(t *testing.T) {
	p := NewParser()
	n := p.AddAll([]domain.Entry{
		{Category: domain.DomainKeyword, Value: "openai"},
		{Category: domain.DomainKeyword, Value: "openai"},
		{Category: domain.IPASN, Value: "13335"},
	})
	assert.Equal(t, 2, n)
	assert.True(t, p.Add(domain.Entry{Category: domain.ExactDomain, Value: "x.ai"}))
	assert.False(t, p.Add(domain.Entry{Category: domain.ExactDomain, Value: "x.ai"}))
}

func TestParser_MergeUnion(t *testing.T) {
	a := parserFrom(t, parsers.FormatClassical, "DOMAIN-SUFFIX,openai.com", "DOMAIN-KEYWORD,openai")
	b := parserFrom(t, parsers.FormatClassical, "DOMAIN-SUFFIX,anthropic.com", "DOMAIN-SUFFIX,openai.com")
	before := b.Export()

	a.Merge(b)
	got := a.Export()
	assert.Equal(t, []string{"anthropic.com", "openai.com"}, got.DomainSuffixes)
	assert.Equal(t, []string{"openai"}, got.DomainKeywords)
	assert.Equal(t, before, b.Export())

	a.Merge(nil)
	assert.Equal(t, got, a.Export())
}

func TestParser_MergeOrderIndependent(t *testing.T) {
	mk := func() []*Parser {
		return []*Parser{
			parserFrom(t, parsers.FormatClassical, "openai.com", "DOMAIN,chat.openai.com"),
			parserFrom(t, parsers.FormatStructured, "anthropic.com", "keyword:claude"),
			parserFrom(t, parsers.FormatClassical, "IP-ASN,13335", "openai.com"),
		}
	}
	ps := mk()
	left := NewParser()
	left.Merge(ps[0])
	left.Merge(ps[1])
	left.Merge(ps[2])

	qs := mk()
	right := NewParser()
	qs[1].Merge(qs[2])
	right.Merge(qs[1])
	right.Merge(qs[0])

	assert.Equal(t, left.Export(), right.Export())
}

func TestParser_ExportIsACopy(t *testing.T) {
	p := parserFrom(t, parsers.FormatClassical, "openai.com")
	got := p.Export()
	got.DomainSuffixes[0] = "mutated.com"
	assert.Equal(t, []string{"openai.com"}, p.Export().DomainSuffixes)
}

func TestAssemble_IgnoreList(t *testing.T) {
	a := parserFrom(t, parsers.FormatClassical,
		"DOMAIN-SUFFIX,google.com",
		"DOMAIN-SUFFIX,gemini.google.com",
		"DOMAIN,google.com",
		"DOMAIN-SUFFIX,openai.com",
	)
	b := parserFrom(t, parsers.FormatStructured, "bing.com", "full:copilot.microsoft.com")

	got := Assemble([]*Parser{a, b, nil}, []string{"google.com", "Bing.com.", "microsoft.com"})
	assert.Equal(t, []string{"gemini.google.com", "openai.com"}, got.DomainSuffixes)
	assert.Equal(t, []string{"copilot.microsoft.com", "google.com"}, got.Domains)

	// inputs keep their ignored suffixes
	assert.Contains(t, a.Export().DomainSuffixes, "google.com")
}

func TestAssemble_Empty(t *testing.T) {
	got := Assemble(nil, nil)
	assert.Equal(t, 0, got.Total())
	require.NotNil(t, got.DomainSuffixes)
}

func TestFromBuiltins(t *testing.T) {
	p := FromBuiltins(Builtins{
		Domains:  []string{"Chat.OpenAI.com", "bad_name.com"},
		Suffixes: []string{"*.anthropic.com", "openai.com."},
		Keywords: []string{"OpenAI", ""},
		IPCIDRs:  []string{"1.2.3.0/24"},
		IPASNs:   []string{"AS13335"},
	})
	got := p.Export()
	assert.Equal(t, domain.Rules{
		Domains:        []string{"chat.openai.com"},
		DomainSuffixes: []string{"anthropic.com", "openai.com"},
		DomainKeywords: []string{"openai"},
		IPCIDRs:        []string{"1.2.3.0/24"},
		IPASNs:         []string{"as13335"},
	}, got)
}
