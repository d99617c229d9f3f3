package ruleset

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haukened/ai-rules/internal/rules/domain"
)

func TestReverseString(t *testing.T) {
	tests := []struct{ in, want string }{
		{"", ""},
		{"a", "a"},
		{"openai.com", "moc.ianepo"},
		{"a.b.c", "c.b.a"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, reverseString(tt.in), tt.in)
	}
}

// --- fakes ---

type fakeStore struct {
	match        domain.Decision
	matchOK      bool
	matchErr     error
	getCalls     int
	lastHost     string
	rebuildRules domain.Rules
	rebuildVer   uint64
	rebuildUpd   int64
	rebuildErr   error
}

func (s *fakeStore) GetFirstMatch(host string) (domain.Decision, bool, error) {
	s.getCalls++
	s.lastHost = host
	return s.match, s.matchOK, s.matchErr
}

func (s *fakeStore) RebuildAll(rules domain.Rules, version uint64, updatedUnix int64) error {
	s.rebuildRules = rules
	s.rebuildVer = version
	s.rebuildUpd = updatedUnix
	return s.rebuildErr
}

func (s *fakeStore) Load() (domain.Rules, error)            { return s.rebuildRules, nil }
func (s *fakeStore) PutSource(string, []byte) error         { return nil }
func (s *fakeStore) GetSource(string) ([]byte, bool, error) { return nil, false, nil }
func (s *fakeStore) Stats() StoreStats                      { return StoreStats{Version: s.rebuildVer} }
func (s *fakeStore) Close() error                           { return nil }

type fakeCache struct {
	m          map[string]domain.Decision
	purgeCalls int
	hits       uint64
	misses     uint64
}

func newFakeCache() *fakeCache { return &fakeCache{m: make(map[string]domain.Decision)} }

func (c *fakeCache) Get(host string) (domain.Decision, bool) {
	v, ok := c.m[host]
	if ok {
		c.hits++
	} else {
		c.misses++
	}
	return v, ok
}
func (c *fakeCache) Put(host string, d domain.Decision) { c.m[host] = d }
func (c *fakeCache) Len() int                           { return len(c.m) }
func (c *fakeCache) Purge() {
	c.purgeCalls++
	c.m = make(map[string]domain.Decision)
}
func (c *fakeCache) Stats() (uint64, uint64, uint64) { return c.hits, c.misses, 0 }

// setFilter is an exact-membership stand-in for a Bloom filter.
type setFilter struct{ keys map[string]bool }

func (f *setFilter) Add(key []byte)               { f.keys[string(key)] = true }
func (f *setFilter) MightContain(key []byte) bool { return f.keys[string(key)] }

type fakeFactory struct {
	last     *setFilter
	capacity uint64
	fpRate   float64
}

func (f *fakeFactory) New(capacity uint64, fpRate float64) BloomFilter {
	f.capacity, f.fpRate = capacity, fpRate
	f.last = &setFilter{keys: map[string]bool{}}
	return f.last
}

// --- tests ---

func TestRepository_DecideWithoutBloomConsultsStore(t *testing.T) {
	st := &fakeStore{match: domain.Decision{Matched: true, Rule: "openai.com", Category: domain.DomainSuffix}, matchOK: true}
	cache := newFakeCache()
	repo := NewRepository(st, cache, &fakeFactory{}, 0.01)

	dec := repo.Decide("API.OpenAI.com.")
	assert.True(t, dec.Matched)
	assert.Equal(t, "api.openai.com", st.lastHost)

	// second call served from cache
	dec = repo.Decide("api.openai.com")
	assert.True(t, dec.Matched)
	assert.Equal(t, 1, st.getCalls)
}

func TestRepository_UpdateAllBuildsBloom(t *testing.T) {
	st := &fakeStore{}
	cache := newFakeCache()
	cache.Put("stale.com", domain.Decision{Matched: true})
	factory := &fakeFactory{}
	repo := NewRepository(st, cache, factory, 0.02)

	rules := domain.Rules{
		Domains:        []string{"chat.openai.com"},
		DomainSuffixes: []string{"anthropic.com"},
	}
	require.NoError(t, repo.UpdateAll(rules, 7, 1234))

	assert.Equal(t, rules, st.rebuildRules)
	assert.Equal(t, uint64(2), factory.capacity)
	assert.Equal(t, 0.02, factory.fpRate)
	assert.True(t, factory.last.keys["chat.openai.com"])
	assert.True(t, factory.last.keys["moc.ciporhtna"])
	assert.Equal(t, 1, cache.purgeCalls)
	assert.Equal(t, 0, cache.Len())

	stats := repo.RepoStats()
	assert.Equal(t, int64(1234), stats.LastUpdate)
	assert.Equal(t, uint64(7), stats.Store.Version)
}

func TestRepository_BloomNegativeSkipsStore(t *testing.T) {
	st := &fakeStore{match: domain.Decision{Matched: true}, matchOK: true}
	repo := NewRepository(st, newFakeCache(), &fakeFactory{}, 0.01)
	require.NoError(t, repo.UpdateAll(domain.Rules{DomainSuffixes: []string{"anthropic.com"}}, 1, 1))

	dec := repo.Decide("example.org")
	assert.False(t, dec.Matched)
	assert.Equal(t, 0, st.getCalls)

	// suffix anchor is present for a subdomain
	st.match = domain.Decision{Matched: true, Rule: "anthropic.com", Category: domain.DomainSuffix}
	dec = repo.Decide("api.anthropic.com")
	assert.True(t, dec.Matched)
	assert.Equal(t, 1, st.getCalls)
}

func TestRepository_KeywordsAndIPsBypassBloom(t *testing.T) {
	st := &fakeStore{match: domain.Decision{Matched: true, Rule: "openai", Category: domain.DomainKeyword}, matchOK: true}
	repo := NewRepository(st, newFakeCache(), &fakeFactory{}, 0.01)
	require.NoError(t, repo.UpdateAll(domain.Rules{DomainKeywords: []string{"openai"}}, 1, 1))

	dec := repo.Decide("cdn.openai-assets.net")
	assert.True(t, dec.Matched)
	assert.Equal(t, 1, st.getCalls)

	st2 := &fakeStore{match: domain.Decision{Matched: true, Rule: "10.0.0.0/8", Category: domain.IPCIDR}, matchOK: true}
	repo2 := NewRepository(st2, newFakeCache(), &fakeFactory{}, 0.01)
	require.NoError(t, repo2.UpdateAll(domain.Rules{IPCIDRs: []string{"10.0.0.0/8"}}, 1, 1))
	dec = repo2.Decide("10.1.2.3")
	assert.True(t, dec.Matched)
	assert.Equal(t, domain.IPCIDR, dec.Category)
}

func TestRepository_StoreErrorMeansNoMatch(t *testing.T) {
	st := &fakeStore{matchErr: errors.New("disk gone")}
	repo := NewRepository(st, newFakeCache(), &fakeFactory{}, 0.01)
	assert.False(t, repo.Decide("openai.com").Matched)
	assert.False(t, repo.Decide("  ").Matched)
}

func TestRepository_UpdateAllStoreError(t *testing.T) {
	st := &fakeStore{rebuildErr: errors.New("read-only")}
	cache := newFakeCache()
	factory := &fakeFactory{}
	repo := NewRepository(st, cache, factory, 0.01)
	require.Error(t, repo.UpdateAll(domain.Rules{}, 1, 1))
	assert.Nil(t, factory.last)
	assert.Equal(t, 0, cache.purgeCalls)
}
