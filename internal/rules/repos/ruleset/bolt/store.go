package bolt

import (
	"encoding/binary"
	"errors"
	"net/netip"
	"sort"
	"strings"
	"time"

	bbolt "go.etcd.io/bbolt"
	bberrors "go.etcd.io/bbolt/errors"

	"github.com/haukened/ai-rules/internal/rules/domain"
	"github.com/haukened/ai-rules/internal/rules/repos/ruleset"
)

var (
	bucketDomain  = []byte("domain")
	bucketSuffix  = []byte("suffix")
	bucketKeyword = []byte("keyword")
	bucketCIDR    = []byte("cidr")
	bucketASN     = []byte("asn")
	bucketMeta    = []byte("meta")
	bucketSources = []byte("sources")

	keyVersion = []byte("version")
	keyUpdated = []byte("updated")
)

// ruleBuckets are rebuilt on every snapshot; sources and meta survive.
var ruleBuckets = [][]byte{bucketDomain, bucketSuffix, bucketKeyword, bucketCIDR, bucketASN}

// boltStore implements ruleset.Store using bbolt.
// Suffix keys are stored reversed ("moc.ianepo") so that all anchors of a
// host share byte prefixes.
type boltStore struct {
	db *bbolt.DB
}

// New opens (or creates) a Bolt database at path and ensures buckets exist.
func New(path string) (ruleset.Store, error) {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, err
	}
	if err := db.Update(func(tx *bbolt.Tx) error {
		for _, name := range append(append([][]byte{}, ruleBuckets...), bucketMeta, bucketSources) {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &boltStore{db: db}, nil
}

func (s *boltStore) Close() error { return s.db.Close() }

// RebuildAll atomically replaces the rule buckets and snapshot metadata.
func (s *boltStore) RebuildAll(rules domain.Rules, version uint64, updatedUnix int64) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		for _, name := range ruleBuckets {
			if err := tx.DeleteBucket(name); err != nil && !errors.Is(err, bberrors.ErrBucketNotFound) {
				return err
			}
			if _, err := tx.CreateBucket(name); err != nil {
				return err
			}
		}
		put := func(bucket []byte, values []string, key func(string) string) error {
			b := tx.Bucket(bucket)
			for _, v := range values {
				if v == "" {
					continue
				}
				if err := b.Put([]byte(key(v)), []byte{1}); err != nil {
					return err
				}
			}
			return nil
		}
		if err := put(bucketDomain, rules.Domains, identity); err != nil {
			return err
		}
		if err := put(bucketSuffix, rules.DomainSuffixes, reverse); err != nil {
			return err
		}
		if err := put(bucketKeyword, rules.DomainKeywords, identity); err != nil {
			return err
		}
		if err := put(bucketCIDR, rules.IPCIDRs, identity); err != nil {
			return err
		}
		if err := put(bucketASN, rules.IPASNs, identity); err != nil {
			return err
		}

		meta := tx.Bucket(bucketMeta)
		vbuf := make([]byte, 8)
		ubuf := make([]byte, 8)
		binary.BigEndian.PutUint64(vbuf, version)
		binary.BigEndian.PutUint64(ubuf, uint64(updatedUnix))
		if err := meta.Put(keyVersion, vbuf); err != nil {
			return err
		}
		return meta.Put(keyUpdated, ubuf)
	})
}

// Load returns the stored snapshot with every category sorted.
func (s *boltStore) Load() (domain.Rules, error) {
	var out domain.Rules
	err := s.db.View(func(tx *bbolt.Tx) error {
		out.Domains = keys(tx.Bucket(bucketDomain), identity)
		out.DomainSuffixes = keys(tx.Bucket(bucketSuffix), reverse)
		out.DomainKeywords = keys(tx.Bucket(bucketKeyword), identity)
		out.IPCIDRs = keys(tx.Bucket(bucketCIDR), identity)
		out.IPASNs = keys(tx.Bucket(bucketASN), identity)
		return nil
	})
	if err != nil {
		return domain.Rules{}, err
	}
	return out, nil
}

// GetFirstMatch resolves host against the snapshot. Domain names are tried
// as exact, then as suffix anchors from most to least specific, then against
// keywords in key order. IP literals are checked against the CIDR set.
func (s *boltStore) GetFirstMatch(host string) (domain.Decision, bool, error) {
	var dec domain.Decision
	err := s.db.View(func(tx *bbolt.Tx) error {
		if addr, err := netip.ParseAddr(host); err == nil {
			dec = matchCIDR(tx.Bucket(bucketCIDR), addr)
			return nil
		}
		if b := tx.Bucket(bucketDomain); b != nil && b.Get([]byte(host)) != nil {
			dec = domain.Decision{Matched: true, Rule: host, Category: domain.ExactDomain}
			return nil
		}
		if b := tx.Bucket(bucketSuffix); b != nil {
			a := host
			for a != "" {
				if b.Get([]byte(reverse(a))) != nil {
					dec = domain.Decision{Matched: true, Rule: a, Category: domain.DomainSuffix}
					return nil
				}
				i := strings.IndexByte(a, '.')
				if i < 0 {
					break
				}
				a = a[i+1:]
			}
		}
		if b := tx.Bucket(bucketKeyword); b != nil {
			c := b.Cursor()
			for k, _ := c.First(); k != nil; k, _ = c.Next() {
				if strings.Contains(host, string(k)) {
					dec = domain.Decision{Matched: true, Rule: string(k), Category: domain.DomainKeyword}
					return nil
				}
			}
		}
		return nil
	})
	if err != nil {
		return domain.EmptyDecision(), false, err
	}
	return dec, dec.Matched, nil
}

func matchCIDR(b *bbolt.Bucket, addr netip.Addr) domain.Decision {
	if b == nil {
		return domain.EmptyDecision()
	}
	c := b.Cursor()
	for k, _ := c.First(); k != nil; k, _ = c.Next() {
		p, err := netip.ParsePrefix(string(k))
		if err != nil {
			continue
		}
		if p.Contains(addr) {
			return domain.Decision{Matched: true, Rule: string(k), Category: domain.IPCIDR}
		}
	}
	return domain.EmptyDecision()
}

// PutSource records the last good body fetched from url.
func (s *boltStore) PutSource(url string, body []byte) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketSources).Put([]byte(url), body)
	})
}

// GetSource returns a copy of the last good body for url.
func (s *boltStore) GetSource(url string) ([]byte, bool, error) {
	var body []byte
	var found bool
	err := s.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(bucketSources).Get([]byte(url))
		if v == nil {
			return nil
		}
		found = true
		body = make([]byte, len(v))
		copy(body, v)
		return nil
	})
	return body, found, err
}

func (s *boltStore) Stats() ruleset.StoreStats {
	st := ruleset.StoreStats{}
	_ = s.db.View(func(tx *bbolt.Tx) error {
		count := func(name []byte) uint64 {
			if b := tx.Bucket(name); b != nil {
				return uint64(b.Stats().KeyN)
			}
			return 0
		}
		st.DomainKeys = count(bucketDomain)
		st.SuffixKeys = count(bucketSuffix)
		st.KeywordKeys = count(bucketKeyword)
		st.CIDRKeys = count(bucketCIDR)
		st.ASNKeys = count(bucketASN)
		st.SourceKeys = count(bucketSources)
		if b := tx.Bucket(bucketMeta); b != nil {
			if v := b.Get(keyVersion); len(v) == 8 {
				st.Version = binary.BigEndian.Uint64(v)
			}
			if v := b.Get(keyUpdated); len(v) == 8 {
				st.UpdatedUnix = int64(binary.BigEndian.Uint64(v))
			}
		}
		return nil
	})
	return st
}

func keys(b *bbolt.Bucket, decode func(string) string) []string {
	out := []string{}
	if b == nil {
		return out
	}
	_ = b.ForEach(func(k, _ []byte) error {
		out = append(out, decode(string(k)))
		return nil
	})
	sort.Strings(out)
	return out
}

func identity(s string) string { return s }

// reverse must match the repository's reversal of suffix anchors.
func reverse(s string) string {
	r := []rune(s)
	for i, j := 0, len(r)-1; i < j; i, j = i+1, j-1 {
		r[i], r[j] = r[j], r[i]
	}
	return string(r)
}

var _ ruleset.Store = (*boltStore)(nil)
