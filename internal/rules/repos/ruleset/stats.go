package ruleset

// StoreStats reports lightweight store metrics and metadata.
// Values are read from the store in a read-only transaction.
type StoreStats struct {
	Version     uint64 // snapshot version (0 if unknown)
	UpdatedUnix int64  // last updated unix time (0 if unknown)
	DomainKeys  uint64
	SuffixKeys  uint64
	KeywordKeys uint64
	CIDRKeys    uint64
	ASNKeys     uint64
	SourceKeys  uint64 // cached source bodies
}

// RepoStats exposes repository-level counters and underlying store stats.
type RepoStats struct {
	Hits       uint64
	Misses     uint64
	Evictions  uint64
	Store      StoreStats
	LastUpdate int64 // seconds since epoch
}
