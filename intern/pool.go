package intern

import (
	"iter"
	"slices"
	"strings"
	"sync"
	"sync/atomic"

	"golang.org/x/text/encoding"

	"github.com/benaadams/stringintern/internal/hash"
	"github.com/benaadams/stringintern/internal/util"
)

// poolShardCount is the fixed shard fan-out. The shard index is the low five
// bits of a value's first byte, so a given string always routes to the same
// shard.
const poolShardCount = 32

// shard wraps one intern table behind a mutex. The table's hashing mode is
// mirrored in an atomic so callers can hash outside the lock and only
// recompute on the rare flip.
type shard struct {
	mu         sync.Mutex
	table      *Table
	randomized atomic.Bool
}

// Pool is a sharded, thread-safe string-interning cache. Values are routed
// to one of 32 independently locked tables; no lock spans more than one
// shard. Shards are constructed lazily and bounded per Options, and a
// GC-driven scheduler trims stale entries in the background unless disabled.
//
// All methods are safe for concurrent use by multiple goroutines.
type Pool struct {
	shards [poolShardCount]atomic.Pointer[shard]
	opt    Options

	// skipped counts candidates short-circuited before shard routing:
	// empty, nil, and over-length inputs.
	skipped util.PaddedAtomicUint64

	// Totals retained from shards detached under high memory pressure.
	detConsidered util.PaddedAtomicUint64
	detAdded      util.PaddedAtomicUint64
	detEvicted    util.PaddedAtomicUint64

	trimming    atomic.Bool
	collections atomic.Uint64
	closed      atomic.Bool
	trimCh      chan struct{}
	done        chan struct{}
}

// NewPool constructs a Pool with the provided Options. It panics on negative
// option values. Defaults:
//   - MaxCount 0        -> DefaultMaxCount per shard
//   - MaxLength 0       -> DefaultMaxLength
//   - InitialCapacity 0 -> DefaultInitialCapacity
//   - nil Metrics       -> NoopMetrics
func NewPool(opt Options) *Pool {
	if opt.MaxCount < 0 || opt.MaxLength < 0 || opt.InitialCapacity < 0 {
		panic("intern: Options fields must be >= 0")
	}
	if opt.MaxCount == 0 {
		opt.MaxCount = DefaultMaxCount
	}
	if opt.MaxLength == 0 {
		opt.MaxLength = DefaultMaxLength
	}
	if opt.InitialCapacity == 0 {
		opt.InitialCapacity = DefaultInitialCapacity
	}
	if opt.Metrics == nil {
		opt.Metrics = NoopMetrics{}
	}
	p := &Pool{
		opt:    opt,
		trimCh: make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
	if !opt.DisableAutoTrim {
		go p.trimWorker()
		armGCHook(p)
	}
	return p
}

// Close stops the trim scheduler. The pool remains usable for interning, but
// no further background trims run.
func (p *Pool) Close() error {
	if p.closed.CompareAndSwap(false, true) {
		close(p.done)
	}
	return nil
}

// Intern returns the canonical stored instance for s. The empty string maps
// to the canonical empty string; candidates longer than MaxLength are
// returned as a fresh copy without entering any shard.
func (p *Pool) Intern(s string) string {
	if len(s) == 0 {
		p.skipped.Add(1)
		return ""
	}
	if len(s) > p.opt.MaxLength {
		p.skipped.Add(1)
		return strings.Clone(s)
	}
	sh := p.shardFor(s[0])
	randomized := sh.randomized.Load()
	h := hash.String(s, randomized)
	sh.mu.Lock()
	if sh.table.randomized != randomized {
		h = hash.String(s, true)
	}
	out := sh.table.internHashed(s, h)
	sh.mu.Unlock()
	return out
}

// InternBytes interns the string whose UTF-8 bytes are b. The hash and the
// lookup run against the byte view; a string is materialized only when a new
// entry is admitted. A nil or empty slice yields the empty string.
func (p *Pool) InternBytes(b []byte) string {
	if len(b) == 0 {
		p.skipped.Add(1)
		return ""
	}
	if len(b) > p.opt.MaxLength {
		p.skipped.Add(1)
		return string(b)
	}
	sh := p.shardFor(b[0])
	randomized := sh.randomized.Load()
	h := hash.Bytes(b, randomized)
	sh.mu.Lock()
	if sh.table.randomized != randomized {
		h = hash.Bytes(b, true)
	}
	out := sh.table.internBytesHashed(b, h)
	sh.mu.Unlock()
	return out
}

// InternASCII interprets b as 7-bit character data: bytes outside the ASCII
// range are substituted with '?' before interning.
func (p *Pool) InternASCII(b []byte) string { return internASCII(p, b) }

// InternEncoding decodes b in the given encoding and interns the result.
// Decode failures are returned unchanged from the encoding layer.
func (p *Pool) InternEncoding(b []byte, enc encoding.Encoding) (string, error) {
	return internEncoding(p, b, enc)
}

// Contains reports whether s is currently stored in its shard.
func (p *Pool) Contains(s string) bool {
	if len(s) == 0 || len(s) > p.opt.MaxLength {
		return false
	}
	sh := p.loadShard(s[0])
	if sh == nil {
		return false
	}
	sh.mu.Lock()
	ok := sh.table.Contains(s)
	sh.mu.Unlock()
	return ok
}

// Remove deletes s from its shard if present and returns true on success.
func (p *Pool) Remove(s string) bool {
	if len(s) == 0 || len(s) > p.opt.MaxLength {
		return false
	}
	sh := p.loadShard(s[0])
	if sh == nil {
		return false
	}
	sh.mu.Lock()
	ok := sh.table.Remove(s)
	sh.mu.Unlock()
	return ok
}

// Count returns the total number of resident entries across all shards.
func (p *Pool) Count() int {
	total := 0
	for i := range p.shards {
		sh := p.shards[i].Load()
		if sh == nil {
			continue
		}
		sh.mu.Lock()
		total += sh.table.Count()
		sh.mu.Unlock()
	}
	return total
}

// All returns the stored values in an unspecified order. Each shard is
// snapshotted under its lock before yielding, so the sequence never holds a
// lock while the consumer runs.
func (p *Pool) All() iter.Seq[string] {
	return func(yield func(string) bool) {
		for i := range p.shards {
			sh := p.shards[i].Load()
			if sh == nil {
				continue
			}
			sh.mu.Lock()
			values := slices.Collect(sh.table.All())
			sh.mu.Unlock()
			for _, v := range values {
				if !yield(v) {
					return
				}
			}
		}
	}
}

// EnsureCapacity pre-sizes every shard to hold its split of n entries
// (ceil division) and returns the resulting total capacity.
func (p *Pool) EnsureCapacity(n int) int {
	if n < 0 {
		panic("intern: capacity must be >= 0")
	}
	perShard := (n + poolShardCount - 1) / poolShardCount
	total := 0
	for i := 0; i < poolShardCount; i++ {
		sh := p.shardAt(i)
		sh.mu.Lock()
		total += sh.table.EnsureCapacity(perShard)
		sh.mu.Unlock()
	}
	return total
}

// TrimExcess shrinks every present shard's backing arrays to fit its live
// count.
func (p *Pool) TrimExcess() {
	for i := range p.shards {
		sh := p.shards[i].Load()
		if sh == nil {
			continue
		}
		sh.mu.Lock()
		sh.table.TrimExcess()
		sh.mu.Unlock()
	}
}

// Clear removes every entry from every present shard. Cumulative counters
// are kept.
func (p *Pool) Clear() {
	for i := range p.shards {
		sh := p.shards[i].Load()
		if sh == nil {
			continue
		}
		sh.mu.Lock()
		sh.table.Clear()
		sh.mu.Unlock()
	}
}

// Stats sums the counters of all present shards, the totals retained from
// detached shards, and the pool-level skip count.
func (p *Pool) Stats() Stats {
	var st Stats
	for i := range p.shards {
		sh := p.shards[i].Load()
		if sh == nil {
			continue
		}
		sh.mu.Lock()
		st.Count += sh.table.Count()
		st.Considered += sh.table.Considered()
		st.Added += sh.table.added
		st.Evicted += sh.table.evicted
		sh.mu.Unlock()
	}
	st.Considered += p.skipped.Load() + p.detConsidered.Load()
	st.Added += p.detAdded.Load()
	st.Evicted += p.detEvicted.Load()
	st.Deduped = st.Considered - st.Added
	return st
}

// ---- shard management ----

func (p *Pool) loadShard(c byte) *shard {
	return p.shards[int(c)&(poolShardCount-1)].Load()
}

func (p *Pool) shardFor(c byte) *shard {
	return p.shardAt(int(c) & (poolShardCount - 1))
}

// shardAt returns the shard at index i, constructing it on first use.
// Construct-once-then-compare-and-swap keeps losers from installing a
// duplicate table.
func (p *Pool) shardAt(i int) *shard {
	for {
		if sh := p.shards[i].Load(); sh != nil {
			return sh
		}
		sh := &shard{}
		sh.table = NewTable(TableOptions{
			Capacity:  p.opt.InitialCapacity,
			MaxCount:  p.opt.MaxCount,
			MaxLength: p.opt.MaxLength,
			Metrics:   p.opt.Metrics,
		})
		sh.table.onRehash = func() { sh.randomized.Store(true) }
		if p.shards[i].CompareAndSwap(nil, sh) {
			return sh
		}
	}
}

// ---- shared process-wide pool ----

var sharedPool atomic.Pointer[Pool]

// Shared returns the process-wide pool, constructing it on first use with
// default Options. Construction is single-check then compare-and-swap; a
// losing racer closes its candidate and adopts the winner.
func Shared() *Pool {
	if p := sharedPool.Load(); p != nil {
		return p
	}
	p := NewPool(Options{})
	if !sharedPool.CompareAndSwap(nil, p) {
		_ = p.Close()
		return sharedPool.Load()
	}
	return p
}

// Intern interns s in the shared pool.
func Intern(s string) string { return Shared().Intern(s) }

// InternBytes interns the UTF-8 bytes b in the shared pool.
func InternBytes(b []byte) string { return Shared().InternBytes(b) }

// InternASCII interns the 7-bit bytes b in the shared pool.
func InternASCII(b []byte) string { return Shared().InternASCII(b) }
