package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// UpdatedLayout is the timestamp layout of Document.Updated and of the
// generation headers in rendered files.
const UpdatedLayout = "2006-01-02 15:04:05"

const (
	DefaultDocumentName        = "AI Projects Proxy Rules"
	DefaultDocumentDescription = "Auto-generated AI proxy rules from multiple sources"
)

// ErrEmptyDocument is returned when a document carries neither the
// canonical rules object nor the legacy flat domain list.
var ErrEmptyDocument = errors.New("rule document has neither rules nor domains")

// Document is the canonical persisted rule set.
type Document struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Updated     string   `json:"updated"`
	TotalRules  int      `json:"total_rules"`
	Sources     []string `json:"sources"`
	Rules       Rules    `json:"rules"`
}

// NewDocument wraps rules with metadata stamped at now.
func NewDocument(rules Rules, sources []string, now time.Time) Document {
	if sources == nil {
		sources = []string{}
	}
	rules = rules.Normalize()
	return Document{
		Name:        DefaultDocumentName,
		Description: DefaultDocumentDescription,
		Updated:     now.Format(UpdatedLayout),
		TotalRules:  rules.Total(),
		Sources:     sources,
		Rules:       rules,
	}
}

// Encode serializes the document as indented JSON with a trailing newline.
func (d Document) Encode() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(d); err != nil {
		return nil, fmt.Errorf("encode rule document: %w", err)
	}
	return buf.Bytes(), nil
}

// wireDocument accepts both schemas: the canonical one with a "rules"
// object and the older flat one with a top-level "domains" array.
type wireDocument struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Updated     string   `json:"updated"`
	UpdatedAt   string   `json:"updated_at"`
	Sources     []string `json:"sources"`
	Rules       *Rules   `json:"rules"`
	Domains     []string `json:"domains"`
}

// DecodeDocument parses a persisted rule document. A legacy flat document is
// normalized into the canonical shape: its domains were always rendered as
// suffix rules, so they become lower-cased domain_suffixes and every other
// category is empty. TotalRules is recomputed from the decoded rules.
func DecodeDocument(data []byte) (Document, error) {
	var w wireDocument
	if err := json.Unmarshal(data, &w); err != nil {
		return Document{}, fmt.Errorf("decode rule document: %w", err)
	}

	var rules Rules
	switch {
	case w.Rules != nil:
		rules = *w.Rules
	case w.Domains != nil:
		suffixes := make([]string, 0, len(w.Domains))
		for _, d := range w.Domains {
			suffixes = append(suffixes, strings.ToLower(strings.TrimSpace(d)))
		}
		rules = Rules{DomainSuffixes: suffixes}
	default:
		return Document{}, ErrEmptyDocument
	}
	rules = rules.Normalize()

	doc := Document{
		Name:        w.Name,
		Description: w.Description,
		Updated:     w.Updated,
		TotalRules:  rules.Total(),
		Sources:     w.Sources,
		Rules:       rules,
	}
	if doc.Updated == "" {
		doc.Updated = w.UpdatedAt
	}
	if doc.Name == "" {
		doc.Name = DefaultDocumentName
	}
	if doc.Sources == nil {
		doc.Sources = []string{}
	}
	return doc, nil
}
