package intern

import (
	"iter"
	"math"
	"strings"

	"golang.org/x/text/encoding"

	"github.com/benaadams/stringintern/internal/hash"
	"github.com/benaadams/stringintern/internal/util"
)

// collisionThreshold is the bucket chain length observed during a single
// insertion that triggers the one-way switch to randomized hashing.
const collisionThreshold = 100

const (
	// endOfChain terminates a bucket chain in entry.next.
	endOfChain = -1
	// startOfFreeList encodes the free list in entry.next: a free slot holds
	// startOfFreeList - nextFree, so any next < endOfChain marks a free slot.
	startOfFreeList = -3
)

// entry is one slot of the table. next does double duty: chaining within a
// bucket for live slots, and a singly linked free list for vacated slots.
// last holds the use stamp; its sign bit marks "tracked in the churn pool"
// and its low bit the entry's generation (0 insert-only, 1 hit since).
type entry struct {
	hash  uint32
	next  int32
	last  int64
	value string
}

// Table is a single-goroutine open-addressed intern table. It stores one
// canonical instance per distinct string and returns that instance for every
// equal candidate. Buckets are 1-based head indexes into a parallel entry
// array sized to a prime; a Table is bounded when MaxCount is set, in which
// case admissions past the cap displace approximate-LRU victims chosen by
// the churn pool.
//
// A Table is not safe for concurrent use. Chain walks are bounded by the
// table capacity, so unsynchronized concurrent mutation fails with a panic
// instead of looping forever. Pool provides the locked, sharded façade.
type Table struct {
	buckets    []int32
	entries    []entry
	multiplier uint64 // fast-mod magic for len(buckets)

	slots     int   // high-water slot count; live count = slots - freeCount
	freeList  int32 // head of the vacated-slot list, endOfChain when empty
	freeCount int

	maxCount  int // 0 = unbounded
	maxLength int // 0 = no cap

	use     int64 // advances by 2 per interning operation; considered = use/2
	added   uint64
	evicted uint64
	skipped uint64 // empty, nil, and over-length candidates

	lastRemoved int64 // stamp of the most recent churn victim

	randomized bool
	onRehash   func() // shard hook, invoked after the hashing-mode flip

	churn   churnPool
	metrics Metrics
}

// NewTable constructs a Table with the provided options.
// It panics on negative Capacity, MaxCount, or MaxLength.
func NewTable(opt TableOptions) *Table {
	if opt.Capacity < 0 {
		panic("intern: Capacity must be >= 0")
	}
	if opt.MaxCount < 0 {
		panic("intern: MaxCount must be >= 0")
	}
	if opt.MaxLength < 0 {
		panic("intern: MaxLength must be >= 0")
	}
	if opt.Metrics == nil {
		opt.Metrics = NoopMetrics{}
	}
	t := &Table{
		maxCount:  opt.MaxCount,
		maxLength: opt.MaxLength,
		freeList:  endOfChain,
		metrics:   opt.Metrics,
	}
	if opt.Capacity > 0 {
		t.resize(util.NextPrime(opt.Capacity))
	}
	return t
}

// Intern returns the canonical stored instance for s, creating one if absent.
// The empty string is returned as-is and never stored. A candidate longer
// than MaxLength is returned as a fresh copy and never stored.
func (t *Table) Intern(s string) string {
	if len(s) == 0 {
		t.skipped++
		return ""
	}
	if t.maxLength > 0 && len(s) > t.maxLength {
		t.skipped++
		return strings.Clone(s)
	}
	return t.internHashed(s, hash.String(s, t.randomized))
}

// InternBytes returns the canonical instance for the string whose UTF-8
// bytes are b. The lookup does not allocate; only a newly admitted value is
// materialized. A nil or empty slice yields the empty string.
func (t *Table) InternBytes(b []byte) string {
	if len(b) == 0 {
		t.skipped++
		return ""
	}
	if t.maxLength > 0 && len(b) > t.maxLength {
		t.skipped++
		return string(b)
	}
	return t.internBytesHashed(b, hash.Bytes(b, t.randomized))
}

// InternASCII interprets b as 7-bit character data: bytes outside the ASCII
// range are substituted with '?' before interning.
func (t *Table) InternASCII(b []byte) string { return internASCII(t, b) }

// InternEncoding decodes b in the given encoding and interns the result.
// Decode failures are returned unchanged from the encoding layer.
func (t *Table) InternEncoding(b []byte, enc encoding.Encoding) (string, error) {
	return internEncoding(t, b, enc)
}

// Contains reports whether s is currently stored. It does not refresh the
// entry's use stamp.
func (t *Table) Contains(s string) bool {
	if len(s) == 0 || t.slots == 0 {
		return false
	}
	i, _ := t.findIndex(hash.String(s, t.randomized), s)
	return i >= 0
}

// Remove deletes s if present and returns true on success.
func (t *Table) Remove(s string) bool {
	if len(s) == 0 || t.slots == 0 {
		return false
	}
	return t.removeHashed(s, hash.String(s, t.randomized))
}

// All returns the stored values in an unspecified order. The sequence reads
// the live table; do not mutate the table while ranging over it.
func (t *Table) All() iter.Seq[string] {
	return func(yield func(string) bool) {
		for i := 0; i < t.slots; i++ {
			e := &t.entries[i]
			if e.next < endOfChain {
				continue
			}
			if !yield(e.value) {
				return
			}
		}
	}
}

// Count returns the number of resident entries.
func (t *Table) Count() int { return t.slots - t.freeCount }

// Considered returns the number of candidates presented, including those
// short-circuited before the lookup path.
func (t *Table) Considered() uint64 { return uint64(t.use/2) + t.skipped }

// Added returns the number of entries created over the table's lifetime.
func (t *Table) Added() uint64 { return t.added }

// Evicted returns the number of entries destroyed by displacement or trim.
func (t *Table) Evicted() uint64 { return t.evicted }

// Deduped returns the number of candidates answered without adding an entry.
func (t *Table) Deduped() uint64 { return t.Considered() - t.added }

// Stats returns a snapshot of the table's counters.
func (t *Table) Stats() Stats {
	return Stats{
		Count:      t.Count(),
		Considered: t.Considered(),
		Added:      t.added,
		Deduped:    t.Deduped(),
		Evicted:    t.evicted,
	}
}

// EnsureCapacity grows the backing arrays to hold at least n entries without
// further allocation and returns the resulting capacity.
func (t *Table) EnsureCapacity(n int) int {
	if n < 0 {
		panic("intern: capacity must be >= 0")
	}
	if n > len(t.entries) {
		t.resize(util.NextPrime(n))
	}
	return len(t.entries)
}

// TrimExcess shrinks the backing arrays to the next prime at or above the
// live count. A no-op when nothing would be reclaimed.
func (t *Table) TrimExcess() {
	size := util.NextPrime(t.Count())
	if size >= len(t.entries) {
		return
	}
	t.compact()
	t.resize(size)
}

// Clear removes every entry. Capacity and cumulative counters are kept.
func (t *Table) Clear() {
	for i := range t.buckets {
		t.buckets[i] = 0
	}
	for i := 0; i < t.slots; i++ {
		t.entries[i] = entry{}
	}
	t.slots = 0
	t.freeList = endOfChain
	t.freeCount = 0
	t.churn.reset()
	t.metrics.Size(0)
}

// TrimLevel selects how aggressively Trim evicts stale entries.
type TrimLevel int

const (
	// TrimMinor evicts only generation-0 entries well past recent activity.
	TrimMinor TrimLevel = iota
	// TrimMedium also evicts long-idle generation-1 entries.
	TrimMedium
	// TrimMajor applies the generation-0 staleness bound to both generations.
	TrimMajor
)

// Trim evicts entries whose last use is too old relative to current table
// activity. Entries already queued in the churn pool are always evicted.
// Survivors are compacted to the front of the entry array and the buckets
// are rebuilt.
func (t *Table) Trim(level TrimLevel) {
	n := int64(t.Count())
	if n == 0 {
		return
	}
	var maxGen0, maxGen1 int64
	switch level {
	case TrimMinor:
		maxGen0 = (n + n/2) * 2
		maxGen1 = math.MaxInt64
	case TrimMedium:
		maxGen0 = n * 2
		maxGen1 = n * 2 * 2
	default:
		maxGen0 = n * 2
		maxGen1 = n * 2
	}

	kept := 0
	for i := 0; i < t.slots; i++ {
		e := &t.entries[i]
		if e.next < endOfChain {
			continue
		}
		drop := e.last < 0
		if !drop {
			distance := t.use - e.last
			if e.last&1 == 0 {
				drop = distance > maxGen0
			} else {
				drop = distance > maxGen1
			}
		}
		if drop {
			t.evicted++
			t.metrics.Evict(EvictTrim)
			continue
		}
		if kept != i {
			t.entries[kept] = *e
		}
		kept++
	}
	for i := kept; i < t.slots; i++ {
		t.entries[i] = entry{}
	}
	t.slots = kept
	t.freeList = endOfChain
	t.freeCount = 0
	for i := range t.buckets {
		t.buckets[i] = 0
	}
	t.rebuildBuckets()
	t.churn.reset()
	t.metrics.Size(t.Count())
}

// ---- lookup & insert ----

// internHashed is the core lookup-or-insert. The candidate has already been
// validated (non-empty, within MaxLength) and hashed under the mode the
// caller observed; the Pool recomputes the hash under its shard lock if the
// mode flipped in between.
func (t *Table) internHashed(s string, h uint32) string {
	t.use += 2
	i, chain := t.findIndex(h, s)
	if i >= 0 {
		return t.touch(i)
	}
	if chain > collisionThreshold && !t.randomized {
		t.switchToRandomized()
		h = hash.String(s, true)
	}
	return t.addEntry(s, h)
}

// internBytesHashed is internHashed for a byte view of the candidate.
func (t *Table) internBytesHashed(b []byte, h uint32) string {
	t.use += 2
	i, chain := t.findBytesIndex(h, b)
	if i >= 0 {
		return t.touch(i)
	}
	if chain > collisionThreshold && !t.randomized {
		t.switchToRandomized()
		h = hash.Bytes(b, true)
	}
	return t.addEntry(string(b), h)
}

// findIndex walks the bucket chain for h looking for s. It returns the slot
// index (or -1) and the number of entries traversed. A walk longer than the
// table capacity means the chain loops, which only happens when the
// single-writer contract was violated.
func (t *Table) findIndex(h uint32, s string) (int32, int) {
	if t.slots == 0 {
		return -1, 0
	}
	chain := 0
	for i := t.buckets[t.bucketIndex(h)] - 1; i >= 0; i = t.entries[i].next {
		chain++
		if chain > len(t.entries) {
			panic("intern: concurrent modification detected; Table requires external synchronization")
		}
		e := &t.entries[i]
		if e.hash == h && e.value == s {
			return i, chain
		}
	}
	return -1, chain
}

func (t *Table) findBytesIndex(h uint32, b []byte) (int32, int) {
	if t.slots == 0 {
		return -1, 0
	}
	chain := 0
	for i := t.buckets[t.bucketIndex(h)] - 1; i >= 0; i = t.entries[i].next {
		chain++
		if chain > len(t.entries) {
			panic("intern: concurrent modification detected; Table requires external synchronization")
		}
		e := &t.entries[i]
		if e.hash == h && e.value == string(b) {
			return i, chain
		}
	}
	return -1, chain
}

// touch refreshes a hit entry: it leaves the churn pool if tracked, and its
// stamp becomes the current use counter with the multi-use bit set.
func (t *Table) touch(i int32) string {
	e := &t.entries[i]
	if e.last < 0 {
		t.churn.remove(-e.last)
	}
	e.last = t.use | 1
	t.metrics.Hit()
	return e.value
}

// addEntry admits s, displacing a churn victim first when the table is at
// its bound.
func (t *Table) addEntry(s string, h uint32) string {
	if t.maxCount > 0 && t.Count()+1 > t.maxCount {
		t.evictOne()
	}
	i := t.allocSlot()
	e := &t.entries[i]
	e.hash = h
	e.value = s
	e.last = t.use // generation 0
	b := t.bucketIndex(h)
	e.next = t.buckets[b] - 1
	t.buckets[b] = int32(i) + 1
	t.added++
	t.metrics.Miss()
	t.metrics.Size(t.Count())
	return s
}

// allocSlot prefers a vacated slot, then the next unused one, growing the
// arrays to the next prime past double the current size when full.
func (t *Table) allocSlot() int {
	if t.freeCount > 0 {
		i := int(t.freeList)
		t.freeList = startOfFreeList - t.entries[i].next
		t.freeCount--
		return i
	}
	if t.slots == len(t.entries) {
		t.resize(util.NextPrime(2*t.slots + 1))
	}
	i := t.slots
	t.slots++
	return i
}

// removeHashed unlinks the entry for s from its bucket chain and pushes the
// slot onto the free list.
func (t *Table) removeHashed(s string, h uint32) bool {
	b := t.bucketIndex(h)
	prev := int32(endOfChain)
	chain := 0
	for i := t.buckets[b] - 1; i >= 0; i = t.entries[i].next {
		chain++
		if chain > len(t.entries) {
			panic("intern: concurrent modification detected; Table requires external synchronization")
		}
		e := &t.entries[i]
		if e.hash == h && e.value == s {
			if prev < 0 {
				t.buckets[b] = e.next + 1
			} else {
				t.entries[prev].next = e.next
			}
			if e.last < 0 {
				t.churn.remove(-e.last)
			}
			e.next = startOfFreeList - t.freeList
			e.last = 0
			e.value = ""
			t.freeList = i
			t.freeCount++
			t.metrics.Size(t.Count())
			return true
		}
		prev = i
	}
	return false
}

// ---- eviction ----

// evictOne displaces a single approximate-LRU victim, regenerating the churn
// pool from the live entries when its generation-0 list has drained.
func (t *Table) evictOne() {
	if t.churn.gen0Empty() {
		t.churn.regenerate(t.entries[:t.slots])
		t.markChurnMembers()
	}
	stamp, value, ok := t.churn.selectVictim(t.lastRemoved)
	if !ok {
		return
	}
	t.lastRemoved = stamp
	if t.removeHashed(value, hash.String(value, t.randomized)) {
		t.evicted++
		t.metrics.Evict(EvictCapacity)
	}
}

// markChurnMembers negates the stamp of every entry newly captured by the
// churn lists, marking it as tracked. Pairs whose entry stamp no longer
// matches (already negated in an earlier regeneration) are left alone.
func (t *Table) markChurnMembers() {
	for _, p := range t.churn.gen0 {
		t.negateStamp(p)
	}
	for _, p := range t.churn.gen1 {
		t.negateStamp(p)
	}
}

func (t *Table) negateStamp(p churnPair) {
	i, _ := t.findIndex(hash.String(p.value, t.randomized), p.value)
	if i >= 0 && t.entries[i].last == p.stamp {
		t.entries[i].last = -p.stamp
	}
}

// ---- layout maintenance ----

func (t *Table) bucketIndex(h uint32) uint32 {
	return util.FastMod(h, uint32(len(t.buckets)), t.multiplier)
}

// resize reallocates the backing arrays at the given prime size, carrying
// the first slots entries over, and rebuilds the bucket heads.
func (t *Table) resize(size int) {
	entries := make([]entry, size)
	copy(entries, t.entries[:t.slots])
	t.entries = entries
	t.buckets = make([]int32, size)
	t.multiplier = util.FastModMultiplier(uint32(size))
	t.rebuildBuckets()
}

// rebuildBuckets relinks every live entry into its bucket chain. Buckets
// must be zeroed beforehand; free slots keep their free-list encoding.
func (t *Table) rebuildBuckets() {
	for i := 0; i < t.slots; i++ {
		e := &t.entries[i]
		if e.next < endOfChain {
			continue
		}
		b := t.bucketIndex(e.hash)
		e.next = t.buckets[b] - 1
		t.buckets[b] = int32(i) + 1
	}
}

// compact slides live entries to the front of the entry array and resets the
// free list. Bucket heads are stale afterwards; callers must resize or
// rebuild.
func (t *Table) compact() {
	kept := 0
	for i := 0; i < t.slots; i++ {
		if t.entries[i].next < endOfChain {
			continue
		}
		if kept != i {
			t.entries[kept] = t.entries[i]
		}
		kept++
	}
	for i := kept; i < t.slots; i++ {
		t.entries[i] = entry{}
	}
	t.slots = kept
	t.freeList = endOfChain
	t.freeCount = 0
}

// switchToRandomized flips the table to the keyed hash and rehashes every
// live entry. The flip happens inside the caller's critical section, so no
// lookup observes a half-rehashed table, and it is irreversible.
func (t *Table) switchToRandomized() {
	t.randomized = true
	for i := 0; i < t.slots; i++ {
		e := &t.entries[i]
		if e.next < endOfChain {
			continue
		}
		e.hash = hash.String(e.value, true)
	}
	for i := range t.buckets {
		t.buckets[i] = 0
	}
	t.rebuildBuckets()
	if t.onRehash != nil {
		t.onRehash()
	}
}
