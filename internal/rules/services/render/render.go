// Package render turns an assembled rule set into proxy-tool configuration
// files. Every renderer is a pure function of the rules and metadata.
package render

import (
	"bytes"
	"fmt"
	"time"

	"github.com/haukened/ai-rules/internal/rules/domain"
)

// TimestampLayout is the header timestamp format, shared with the canonical document.
const TimestampLayout = domain.UpdatedLayout

// Meta carries the per-run values stamped into rendered files.
// An empty Tag selects the format's default policy tag.
type Meta struct {
	Generated time.Time
	Tag       string
}

// Renderer maps rules to one output file body.
type Renderer func(rules domain.Rules, meta Meta) ([]byte, error)

// Format describes one supported proxy tool.
type Format struct {
	Name   string // registry key, e.g. "clash"
	Title  string // human-readable tool name used in headers
	File   string // output file name
	Tag    string // default policy tag, empty when the format has none
	Render Renderer
}

var formats = []Format{
	{Name: "clash", Title: "Clash", File: "clash.yaml", Render: RenderClash},
	{Name: "surge", Title: "Surge", File: "surge.conf", Tag: "Proxy", Render: RenderSurge},
	{Name: "shadowrocket", Title: "Shadowrocket", File: "shadowrocket.conf", Tag: "PROXY", Render: RenderShadowrocket},
	{Name: "loon", Title: "Loon", File: "loon.conf", Tag: "PROXY", Render: RenderLoon},
	{Name: "quantumult-x", Title: "Quantumult X", File: "quantumult-x.conf", Tag: "proxy", Render: RenderQuantumultX},
	{Name: "sing-box", Title: "sing-box", File: "sing-box.json", Render: RenderSingBox},
}

// Formats returns every supported format in output order.
func Formats() []Format {
	out := make([]Format, len(formats))
	copy(out, formats)
	return out
}

// Lookup finds a format by name.
func Lookup(name string) (Format, bool) {
	for _, f := range formats {
		if f.Name == name {
			return f, true
		}
	}
	return Format{}, false
}

// header writes the comment block that opens every file. The rule count
// covers all five categories, including any the format cannot express.
func header(buf *bytes.Buffer, prefix, title, usage string, rules domain.Rules, meta Meta) {
	fmt.Fprintf(buf, "%s AI Proxy Rules - %s\n", prefix, title)
	fmt.Fprintf(buf, "%s Updated: %s\n", prefix, meta.Generated.Format(TimestampLayout))
	fmt.Fprintf(buf, "%s Total rules: %d\n", prefix, rules.Total())
	fmt.Fprintf(buf, "%s Usage: %s\n", prefix, usage)
	buf.WriteString("\n")
}

func tagOr(meta Meta, def string) string {
	if meta.Tag != "" {
		return meta.Tag
	}
	return def
}
