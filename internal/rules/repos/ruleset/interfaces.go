package ruleset

import "github.com/haukened/ai-rules/internal/rules/domain"

// BloomSizer computes Bloom filter parameters from capacity (n) and target FP rate (p).
// It returns m (number of bits) and k (number of hash functions).
type BloomSizer interface {
	Size(n uint64, p float64) (m uint64, k uint8)
}

// BloomFilter is the minimal interface the repository needs from Bloom filters.
type BloomFilter interface {
	Add(key []byte)
	MightContain(key []byte) bool
}

// BloomFactory builds filters sized for a dataset.
type BloomFactory interface {
	New(capacity uint64, fpRate float64) BloomFilter
}

// DecisionCache caches match decisions by canonical host with basic metrics.
type DecisionCache interface {
	Get(host string) (domain.Decision, bool)
	Put(host string, d domain.Decision)
	Len() int
	Purge()
	Stats() (hits, misses, evictions uint64)
}

// Store is the persistent snapshot of the assembled rule set.
//   - RebuildAll replaces every category with the given rules in one transaction
//   - Load returns the snapshot as sorted rules
//   - GetFirstMatch resolves a host: exact, then suffix (most specific first),
//     then keyword; IP literals are matched against the CIDR set
//   - PutSource/GetSource keep the last good body of each fetched URL
type Store interface {
	RebuildAll(rules domain.Rules, version uint64, updatedUnix int64) error
	Load() (domain.Rules, error)
	GetFirstMatch(host string) (domain.Decision, bool, error)
	PutSource(url string, body []byte) error
	GetSource(url string) ([]byte, bool, error)
	Stats() StoreStats
	Close() error
}

// Repository is the composition layer that wires cache → bloom → store.
// Decide returns a value-type Decision for a host.
// UpdateAll rebuilds the store, refreshes Bloom, and clears the cache.
type Repository interface {
	Decide(host string) domain.Decision
	UpdateAll(rules domain.Rules, version uint64, updatedUnix int64) error
	RepoStats() RepoStats
}
