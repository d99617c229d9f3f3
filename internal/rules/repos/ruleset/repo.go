package ruleset

import (
	"net/netip"
	"strings"
	"sync"

	"github.com/haukened/ai-rules/internal/rules/common/utils"
	"github.com/haukened/ai-rules/internal/rules/domain"
)

// repository implements Repository by composing a Store, a Bloom filter
// (via factory) and a DecisionCache. Reads go cache → bloom → store; writes
// swap in a fresh snapshot.
type repository struct {
	mu         sync.RWMutex
	store      Store
	cache      DecisionCache
	bloom      BloomFilter
	factory    BloomFactory
	fpRate     float64
	keywords   bool
	lastUpdate int64
}

// NewRepository constructs a Repository.
// fpRate is the target false-positive rate for the Bloom filter when rebuilding.
func NewRepository(store Store, cache DecisionCache, factory BloomFactory, fpRate float64) Repository {
	return &repository{store: store, cache: cache, factory: factory, fpRate: fpRate}
}

// Decide returns a Decision for the provided host.
// On store errors the host is reported as not matched.
func (r *repository) Decide(host string) domain.Decision {
	cn := utils.CanonicalDomain(host)
	if cn == "" {
		return domain.EmptyDecision()
	}
	if d, ok := r.checkCache(cn); ok {
		return d
	}
	if !r.checkBloom(cn) {
		r.updateCache(cn, domain.EmptyDecision())
		return domain.EmptyDecision()
	}
	dec := r.checkStore(cn)
	r.updateCache(cn, dec)
	return dec
}

// UpdateAll performs a snapshot update across store, bloom, and cache.
func (r *repository) UpdateAll(rules domain.Rules, version uint64, updatedUnix int64) error {
	if err := r.store.RebuildAll(rules, version, updatedUnix); err != nil {
		return err
	}

	n := uint64(len(rules.Domains) + len(rules.DomainSuffixes))
	bf := r.factory.New(n, r.fpRate)
	for _, d := range rules.Domains {
		bf.Add([]byte(d))
	}
	for _, s := range rules.DomainSuffixes {
		bf.Add([]byte(reverseString(s)))
	}

	r.mu.Lock()
	r.bloom = bf
	r.keywords = len(rules.DomainKeywords) > 0
	r.lastUpdate = updatedUnix
	r.cache.Purge()
	r.mu.Unlock()
	return nil
}

// RepoStats reports cache counters and store metadata.
func (r *repository) RepoStats() RepoStats {
	hits, misses, evictions := r.cache.Stats()
	r.mu.RLock()
	last := r.lastUpdate
	r.mu.RUnlock()
	return RepoStats{
		Hits:       hits,
		Misses:     misses,
		Evictions:  evictions,
		Store:      r.store.Stats(),
		LastUpdate: last,
	}
}

// reverseString reverses the string. Must match the store's reversal logic
// used for suffix anchors to keep Bloom keys aligned with Bolt keys.
func reverseString(s string) string {
	r := []rune(s)
	for i, j := 0, len(r)-1; i < j; i, j = i+1, j-1 {
		r[i], r[j] = r[j], r[i]
	}
	return string(r)
}

// checkBloom returns true if the store must be consulted (maybe-positive),
// false if the host is definitely not matched. Keyword rules and IP
// literals cannot be answered by the filter, and a repository that has not
// been updated yet has no filter.
func (r *repository) checkBloom(cn string) bool {
	r.mu.RLock()
	bf, keywords := r.bloom, r.keywords
	r.mu.RUnlock()
	if bf == nil || keywords {
		return true
	}
	if _, err := netip.ParseAddr(cn); err == nil {
		return true
	}
	if bf.MightContain([]byte(cn)) {
		return true
	}
	// reversed anchors, most-specific → TLD
	a := cn
	for {
		if bf.MightContain([]byte(reverseString(a))) {
			return true
		}
		i := strings.IndexByte(a, '.')
		if i < 0 {
			break
		}
		a = a[i+1:]
		if a == "" {
			break
		}
	}
	return false
}

func (r *repository) checkCache(cn string) (domain.Decision, bool) {
	r.mu.RLock()
	d, ok := r.cache.Get(cn)
	r.mu.RUnlock()
	return d, ok
}

func (r *repository) checkStore(cn string) domain.Decision {
	dec, ok, err := r.store.GetFirstMatch(cn)
	if err == nil && ok {
		return dec
	}
	return domain.EmptyDecision()
}

func (r *repository) updateCache(cn string, dec domain.Decision) {
	r.mu.Lock()
	r.cache.Put(cn, dec)
	r.mu.Unlock()
}
