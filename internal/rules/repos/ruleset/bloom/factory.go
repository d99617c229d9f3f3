package bloom

import (
	bitsbloom "github.com/bits-and-blooms/bloom/v3"

	"github.com/haukened/ai-rules/internal/rules/repos/ruleset"
)

// factory implements ruleset.BloomFactory using the sizing formulas.
type factory struct{}

// NewFactory returns a BloomFactory that sizes filters from capacity and FP rate.
func NewFactory() ruleset.BloomFactory { return factory{} }

// New constructs a filter sized for the given capacity and target
// false-positive rate.
func (factory) New(capacity uint64, fpRate float64) ruleset.BloomFilter {
	m, k := size(capacity, fpRate)
	return &filter{bf: bitsbloom.New(uint(m), uint(k))}
}
