// Package intern provides a string-interning cache: a deduplicating store
// that returns one canonical instance for every equal string value, with an
// approximate-LRU bound and GC-driven background trimming.
//
// # Design
//
//   - Storage: each table is an open-addressed hash map over two parallel
//     prime-sized arrays — bucket heads (1-based, 0 empty) and entries.
//     Entry slots chain within a bucket through their next field, which also
//     encodes a free list for vacated slots, so removals recycle slots
//     without shifting. Bucket selection avoids integer division via a
//     precomputed fast-mod multiplier.
//
//   - Hashing: tables start on a deterministic word-wise DJB2 variant and
//     switch once to a keyed Marvin-style hash (per-process seed) when an
//     insertion walks a pathological bucket chain. The rehash happens inside
//     the same critical section, so no lookup observes a half-rehashed
//     table.
//
//   - Eviction: a bounded table approximates LRU with two small sorted
//     victim lists (generation 0 = inserted only, generation 1 = hit since).
//     The lists are regenerated by a full-table sweep only when drained, so
//     per-access bookkeeping stays O(log n) on the lists and usually zero.
//
//   - Concurrency: Pool splits the keyspace across 32 shards by the first
//     byte of the value, one mutex per shard, hash computed outside the
//     lock. A bare Table is single-goroutine; violating that is detected by
//     bounded chain walks and fails loudly instead of looping.
//
//   - Trimming: the pool registers a finalizer sentinel that fires once per
//     collector cycle and signals a background worker. Under high memory
//     pressure whole shards are released (statistics retained); otherwise
//     shards are swept at a level cycling minor, medium, major.
//
//   - Metrics: Options.Metrics receives Hit/Miss/Evict/Size signals.
//     By default NoopMetrics is used; plug the Prometheus adapter from
//     metrics/prom to export them.
//
// # Basic usage
//
//	p := intern.NewPool(intern.Options{})
//	defer func() { _ = p.Close() }()
//
//	a := p.Intern("query")
//	b := p.Intern(strings.Clone("query"))
//	// a and b are the same backing instance
//
// Or use the lazily constructed process-wide pool:
//
//	s := intern.Intern(label)
//
// # Byte inputs
//
//	s := p.InternBytes(buf)        // UTF-8 bytes, zero-copy lookup
//	s := p.InternASCII(buf)        // 7-bit data, '?' substitution
//	s, err := p.InternEncoding(buf, charmap.ISO8859_1)
//
// # Counters
//
//	st := p.Stats()
//	// st.Deduped == st.Considered - st.Added, always
//
// Interned identity is meaningful only within one pool instance and its
// lifetime: entries are not persisted, and a high-pressure detach releases
// canonical instances wholesale. Callers that need long-lived identity
// should hold their own references.
package intern
