// Package pipeline runs the end-to-end flow: fetch every source, classify
// and assemble the rules, persist the canonical document, and render the
// per-tool output files.
package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/haukened/ai-rules/internal/rules/common/clock"
	logpkg "github.com/haukened/ai-rules/internal/rules/common/log"
	"github.com/haukened/ai-rules/internal/rules/domain"
	"github.com/haukened/ai-rules/internal/rules/gateways/fetch"
	"github.com/haukened/ai-rules/internal/rules/infra/metrics"
	"github.com/haukened/ai-rules/internal/rules/repos/catalog"
	"github.com/haukened/ai-rules/internal/rules/repos/parsers"
	"github.com/haukened/ai-rules/internal/rules/repos/ruleset"
	"github.com/haukened/ai-rules/internal/rules/services/assembler"
	"github.com/haukened/ai-rules/internal/rules/services/render"
)

var (
	// ErrMissingDependency is returned by New when a required collaborator is nil.
	ErrMissingDependency = errors.New("pipeline: missing dependency")
	// ErrUnknownFormat is returned by Generate for a format name with no renderer.
	ErrUnknownFormat = errors.New("unknown output format")
)

// Options wires a Pipeline. Store and Metrics are optional.
type Options struct {
	Catalog *catalog.Catalog
	Fetcher Fetcher
	Store   ruleset.Store
	Metrics Metrics
	Clock   clock.Clock
	Logger  logpkg.Logger

	DocumentPath string
	OutputDir    string
	CustomRules  string
	Collected    string
	TagOverride  string
}

// Pipeline executes fetch and generate runs.
type Pipeline struct {
	opt Options
}

// New validates opt and fills defaults.
func New(opt Options) (*Pipeline, error) {
	if opt.Catalog == nil {
		return nil, fmt.Errorf("%w: catalog", ErrMissingDependency)
	}
	if opt.Fetcher == nil {
		return nil, fmt.Errorf("%w: fetcher", ErrMissingDependency)
	}
	if opt.DocumentPath == "" || opt.OutputDir == "" {
		return nil, fmt.Errorf("%w: document path and output dir", ErrMissingDependency)
	}
	if opt.Metrics == nil {
		opt.Metrics = noopMetrics{}
	}
	if opt.Clock == nil {
		opt.Clock = clock.RealClock{}
	}
	if opt.Logger == nil {
		opt.Logger = logpkg.NewNoopLogger()
	}
	return &Pipeline{opt: opt}, nil
}

// Run fetches and then generates.
func (p *Pipeline) Run(ctx context.Context) error {
	if _, err := p.Fetch(ctx); err != nil {
		return err
	}
	_, err := p.Generate()
	return err
}

// Fetch pulls every configured source, assembles the rule set and writes the
// canonical document. A source that cannot be read is logged and skipped;
// only failing to persist the result is an error.
func (p *Pipeline) Fetch(ctx context.Context) (domain.Document, error) {
	cat := p.opt.Catalog
	var collected []*assembler.Parser

	for _, src := range cat.Sources {
		format, err := src.ParsedFormat()
		if err != nil {
			p.opt.Logger.Warn(map[string]any{"source": src.Name, "error": err}, "source_format_invalid")
			continue
		}
		collected = append(collected, p.readSource(ctx, src.Name, format, src.URLs))
	}

	if len(cat.V2fly.Services) > 0 {
		urls := make([]string, 0, len(cat.V2fly.Services))
		for _, svc := range cat.V2fly.Services {
			urls = append(urls, cat.V2fly.URL(svc))
		}
		collected = append(collected, p.readSource(ctx, "v2fly", parsers.FormatStructured, urls))
	}

	collected = append(collected, p.readCustomRules(), p.readCollected())
	collected = append(collected, assembler.FromBuiltins(assembler.Builtins{
		Domains:  cat.Builtin.Domains,
		Suffixes: cat.Builtin.Suffixes,
		Keywords: cat.Builtin.Keywords,
		IPCIDRs:  cat.Builtin.IPCIDRs,
		IPASNs:   cat.Builtin.IPASNs,
	}))

	rules := assembler.Assemble(collected, cat.Ignored())
	now := p.opt.Clock.Now()
	doc := domain.NewDocument(rules, cat.SourceNames(), now)
	p.opt.Metrics.SetRuleCounts(doc.Rules)
	p.opt.Logger.Info(map[string]any{
		"domains":         len(rules.Domains),
		"domain_suffixes": len(rules.DomainSuffixes),
		"domain_keywords": len(rules.DomainKeywords),
		"ip_cidrs":        len(rules.IPCIDRs),
		"ip_asns":         len(rules.IPASNs),
		"total":           doc.TotalRules,
	}, "rules_assembled")

	data, err := doc.Encode()
	if err != nil {
		return domain.Document{}, err
	}
	if err := writeFileAtomic(p.opt.DocumentPath, data); err != nil {
		return domain.Document{}, fmt.Errorf("write rule document: %w", err)
	}
	p.opt.Logger.Info(map[string]any{"path": p.opt.DocumentPath}, "document_written")

	if p.opt.Store != nil {
		version := p.opt.Store.Stats().Version + 1
		if err := p.opt.Store.RebuildAll(doc.Rules, version, now.Unix()); err != nil {
			return domain.Document{}, fmt.Errorf("write snapshot: %w", err)
		}
		p.opt.Logger.Debug(map[string]any{"version": version}, "snapshot_written")
	}
	return doc, nil
}

// Generate reads the canonical document (either schema) and writes the named
// formats, or every format when no names are given. It returns the written
// paths in the order rendered.
func (p *Pipeline) Generate(names ...string) ([]string, error) {
	formats, err := selectFormats(names)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p.opt.DocumentPath)
	if err != nil {
		return nil, fmt.Errorf("read rule document: %w", err)
	}
	doc, err := domain.DecodeDocument(data)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(p.opt.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	meta := render.Meta{Generated: p.opt.Clock.Now(), Tag: p.opt.TagOverride}
	written := make([]string, 0, len(formats))
	for _, f := range formats {
		out, err := f.Render(doc.Rules, meta)
		if err != nil {
			return written, fmt.Errorf("render %s: %w", f.Name, err)
		}
		path := filepath.Join(p.opt.OutputDir, f.File)
		if err := writeFileAtomic(path, out); err != nil {
			return written, fmt.Errorf("write %s: %w", f.File, err)
		}
		written = append(written, path)
		p.opt.Logger.Info(map[string]any{"format": f.Name, "path": path, "bytes": len(out)}, "output_written")
	}
	return written, nil
}

// selectFormats resolves names to renderers; no names selects every format.
func selectFormats(names []string) ([]render.Format, error) {
	if len(names) == 0 {
		return render.Formats(), nil
	}
	out := make([]render.Format, 0, len(names))
	for _, n := range names {
		f, ok := render.Lookup(n)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, n)
		}
		out = append(out, f)
	}
	return out, nil
}

// readSource fetches urls in order into one parser.
func (p *Pipeline) readSource(ctx context.Context, name string, format parsers.Format, urls []string) *assembler.Parser {
	parser := assembler.NewParser()
	for _, u := range urls {
		body, ok := p.fetchBody(ctx, name, u)
		if !ok {
			continue
		}
		entries, err := parsers.ParseList(bytes.NewReader(body), format, name, p.opt.Logger)
		if err != nil {
			p.opt.Logger.Warn(map[string]any{"source": name, "url": u, "error": err}, "source_parse_failed")
			continue
		}
		added := parser.AddAll(entries)
		p.opt.Logger.Info(map[string]any{"source": name, "url": u, "entries": len(entries), "added": added}, "source_fetched")
	}

	fields := map[string]any{"source": name}
	for _, c := range domain.Categories {
		fields[c.String()] = parser.Count(c)
	}
	p.opt.Logger.Debug(fields, "source_totals")
	return parser
}

// fetchBody returns the body of u, falling back to the last good body in
// the snapshot store when the fetch fails.
func (p *Pipeline) fetchBody(ctx context.Context, name, u string) ([]byte, bool) {
	body, err := p.opt.Fetcher.Fetch(ctx, u)
	if err == nil {
		p.opt.Metrics.SourceFetched(name, metrics.ResultOK)
		if p.opt.Store != nil {
			if perr := p.opt.Store.PutSource(u, body); perr != nil {
				p.opt.Logger.Warn(map[string]any{"url": u, "error": perr}, "source_cache_write_failed")
			}
		}
		return body, true
	}

	var fe *fetch.FetchError
	if errors.As(err, &fe) && fe.NotFound() {
		p.opt.Logger.Warn(map[string]any{"source": name, "url": u}, "source_not_found")
	} else {
		p.opt.Logger.Warn(map[string]any{"source": name, "url": u, "error": err}, "source_fetch_failed")
	}

	if p.opt.Store != nil {
		cached, found, gerr := p.opt.Store.GetSource(u)
		if gerr == nil && found {
			p.opt.Metrics.SourceFetched(name, metrics.ResultCached)
			p.opt.Logger.Info(map[string]any{"source": name, "url": u, "bytes": len(cached)}, "source_reuse_cached")
			return cached, true
		}
	}
	p.opt.Metrics.SourceFetched(name, metrics.ResultError)
	return nil, false
}

// readCustomRules loads the local classical rules file; a missing file is
// empty input.
func (p *Pipeline) readCustomRules() *assembler.Parser {
	parser := assembler.NewParser()
	if p.opt.CustomRules == "" {
		return parser
	}
	f, err := os.Open(p.opt.CustomRules)
	if err != nil {
		p.logLocalError(p.opt.CustomRules, err)
		return parser
	}
	defer f.Close()

	entries, err := parsers.ParseList(f, parsers.FormatClassical, "custom", p.opt.Logger)
	if err != nil {
		p.opt.Logger.Warn(map[string]any{"path": p.opt.CustomRules, "error": err}, "custom_rules_read_failed")
		return parser
	}
	parser.AddAll(entries)
	return parser
}

// readCollected loads the collected-projects file; a missing file is empty
// input.
func (p *Pipeline) readCollected() *assembler.Parser {
	parser := assembler.NewParser()
	if p.opt.Collected == "" {
		return parser
	}
	f, err := os.Open(p.opt.Collected)
	if err != nil {
		p.logLocalError(p.opt.Collected, err)
		return parser
	}
	defer f.Close()

	entries, err := parsers.ParseCollected(f, p.opt.Logger)
	if err != nil {
		p.opt.Logger.Warn(map[string]any{"path": p.opt.Collected, "error": err}, "collected_read_failed")
		return parser
	}
	parser.AddAll(entries)
	return parser
}

func (p *Pipeline) logLocalError(path string, err error) {
	if errors.Is(err, fs.ErrNotExist) {
		p.opt.Logger.Debug(map[string]any{"path": path}, "local_input_missing")
		return
	}
	p.opt.Logger.Warn(map[string]any{"path": path, "error": err}, "local_input_unreadable")
}

// writeFileAtomic writes data next to path and renames it into place.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
