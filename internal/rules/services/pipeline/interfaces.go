package pipeline

import (
	"context"
	"time"

	"github.com/haukened/ai-rules/internal/rules/domain"
)

// Fetcher reads one remote source.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Metrics receives run counters. A nil Metrics in Options is replaced by a
// no-op implementation.
type Metrics interface {
	SourceFetched(source, result string)
	SetRuleCounts(rules domain.Rules)
	MarkRun(t time.Time)
}

type noopMetrics struct{}

func (noopMetrics) SourceFetched(string, string) {}
func (noopMetrics) SetRuleCounts(domain.Rules)   {}
func (noopMetrics) MarkRun(time.Time)            {}
