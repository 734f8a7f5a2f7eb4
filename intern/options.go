package intern

// ErrNilEncoding is returned by InternEncoding when no encoding is supplied.
var ErrNilEncoding = errorsNew("intern: no encoding provided")

// lightweight local errors.New to avoid importing std 'errors' everywhere
func errorsNew(s string) error { return &strErr{s} }

type strErr struct{ s string }

func (e *strErr) Error() string { return e.s }

// EvictReason explains why an entry left the pool.
type EvictReason int

const (
	// EvictCapacity — displaced when a bounded table admitted a new entry.
	EvictCapacity EvictReason = iota
	// EvictTrim — removed by a background trim sweep.
	EvictTrim
	// EvictDetach — the whole shard was released under high memory pressure.
	EvictDetach
)

// Metrics exposes intern-level observability hooks.
// A NoopMetrics implementation is provided and used by default.
type Metrics interface {
	// Hit — a candidate was deduplicated against an existing entry.
	Hit()
	// Miss — a candidate was not present and a new entry was added.
	Miss()
	Evict(reason EvictReason)
	Size(entries int)
}

// Default limits for the sharded pool. Per-shard, not global: a full pool
// holds up to 32 * DefaultMaxCount entries.
const (
	DefaultMaxCount        = 10_000
	DefaultMaxLength       = 640
	DefaultInitialCapacity = 1
)

// Options configures a Pool. Zero values are safe; defaults are applied in
// NewPool (negative values panic at construction):
//   - MaxCount 0        => DefaultMaxCount
//   - MaxLength 0       => DefaultMaxLength
//   - InitialCapacity 0 => DefaultInitialCapacity
//   - nil Metrics       => NoopMetrics
type Options struct {
	// MaxCount is the per-shard entry limit. Once a shard is full, adding a
	// new value displaces an approximate-LRU victim.
	MaxCount int

	// MaxLength is the longest value (in bytes of its UTF-8 form) admitted
	// to a shard. Longer candidates are returned fresh and never stored.
	MaxLength int

	// InitialCapacity sizes each shard's table at construction. Shards grow
	// on demand, so keeping this small is cheap.
	InitialCapacity int

	// Observability. Metrics receives Hit/Miss/Evict/Size signals from every
	// shard of the pool.
	Metrics Metrics

	// DisableAutoTrim skips registering the GC-driven trim scheduler.
	// Useful for embedders that want to drive Trim themselves and for
	// deterministic tests.
	DisableAutoTrim bool
}

// TableOptions configures a single-goroutine Table.
// Zero values are safe: an empty TableOptions yields an unbounded table with
// no length cap that allocates on first use.
type TableOptions struct {
	// Capacity is the initial capacity, rounded up to a prime.
	Capacity int

	// MaxCount bounds the number of resident entries; 0 means unbounded.
	MaxCount int

	// MaxLength caps the byte length of stored values; 0 means no cap.
	MaxLength int

	// Metrics receives Hit/Miss/Evict/Size signals; nil => NoopMetrics.
	Metrics Metrics
}
