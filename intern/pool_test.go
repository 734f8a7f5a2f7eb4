package intern

import (
	"strings"
	"testing"

	"golang.org/x/text/encoding/charmap"
)

func newTestPool(opt Options) *Pool {
	opt.DisableAutoTrim = true
	return NewPool(opt)
}

// Equal values return one canonical instance across every input flavor.
func TestPool_MultiFlavorIdentity(t *testing.T) {
	t.Parallel()

	p := newTestPool(Options{})
	want := p.Intern(strings.Clone("abc"))

	if got := p.Intern(strings.Clone("abc")); !sameInstance(got, want) {
		t.Fatal("Intern must return the stored instance")
	}
	if got := p.InternBytes([]byte("abc")); !sameInstance(got, want) {
		t.Fatal("InternBytes must return the stored instance")
	}
	if got := p.InternASCII([]byte("abc")); !sameInstance(got, want) {
		t.Fatal("InternASCII must return the stored instance")
	}
	got, err := p.InternEncoding([]byte("abc"), charmap.ISO8859_1)
	if err != nil {
		t.Fatal(err)
	}
	if !sameInstance(got, want) {
		t.Fatal("InternEncoding must return the stored instance")
	}

	st := p.Stats()
	if st.Count != 1 || st.Considered != 5 || st.Added != 1 || st.Deduped != 4 {
		t.Fatalf("stats = %+v", st)
	}
}

// Empty and nil candidates short-circuit: canonical empty string back, no
// storage, but they still count toward considered and deduped.
func TestPool_EmptyAndNil(t *testing.T) {
	t.Parallel()

	p := newTestPool(Options{})
	if got := p.Intern(""); got != "" {
		t.Fatalf("empty intern returned %q", got)
	}
	if got := p.InternBytes(nil); got != "" {
		t.Fatalf("nil intern returned %q", got)
	}

	st := p.Stats()
	if st.Count != 0 || st.Considered != 2 || st.Deduped != 2 {
		t.Fatalf("stats = %+v", st)
	}
	if p.Contains("") {
		t.Fatal("empty string must not be reported as stored")
	}
}

// Candidates beyond MaxLength are returned fresh and never enter a shard.
func TestPool_OverLength(t *testing.T) {
	t.Parallel()

	p := newTestPool(Options{})
	long := strings.Repeat("y", DefaultMaxLength+1)
	got := p.Intern(long)
	if got != long || sameInstance(got, long) {
		t.Fatal("over-length intern must return an equal fresh copy")
	}
	if p.Contains(long) || p.Count() != 0 {
		t.Fatal("over-length value must not be stored")
	}
}

// Values sharing a first byte land in one shard and obey its bound.
func TestPool_ShardBoundedEviction(t *testing.T) {
	t.Parallel()

	p := newTestPool(Options{MaxCount: 5})
	vals := values(125) // all start with 'v': one shard
	stored := make([]string, len(vals))
	for i, s := range vals {
		stored[i] = p.Intern(strings.Clone(s))
	}

	if got := p.Count(); got != 5 {
		t.Fatalf("Count = %d, want 5", got)
	}
	for i := 120; i < 125; i++ {
		got := p.Intern(strings.Clone(vals[i]))
		if !sameInstance(got, stored[i]) {
			t.Fatalf("%s must return the stored instance", vals[i])
		}
	}

	st := p.Stats()
	if st.Count != 5 || st.Added != 125 || st.Evicted != 120 {
		t.Fatalf("stats = %+v", st)
	}
}

// Remove and Contains route to the owning shard without constructing others.
func TestPool_ContainsRemove(t *testing.T) {
	t.Parallel()

	p := newTestPool(Options{})
	p.Intern("alpha")
	p.Intern("beta")

	if !p.Contains("alpha") || !p.Contains("beta") {
		t.Fatal("stored values must be reported present")
	}
	if p.Contains("gamma") {
		t.Fatal("absent value reported present")
	}
	if !p.Remove("alpha") {
		t.Fatal("Remove alpha must succeed")
	}
	if p.Remove("alpha") {
		t.Fatal("second Remove alpha must fail")
	}
	if p.Contains("alpha") {
		t.Fatal("alpha must be gone")
	}
	if p.Count() != 1 {
		t.Fatalf("Count = %d, want 1", p.Count())
	}
}

// All yields the values of every populated shard.
func TestPool_All(t *testing.T) {
	t.Parallel()

	p := newTestPool(Options{})
	want := map[string]bool{"alpha": true, "beta": true, "gamma": true, "delta": true}
	for s := range want {
		p.Intern(s)
	}

	seen := map[string]bool{}
	for s := range p.All() {
		seen[s] = true
	}
	if len(seen) != len(want) {
		t.Fatalf("yielded %d values, want %d", len(seen), len(want))
	}
	for s := range want {
		if !seen[s] {
			t.Fatalf("%s missing from All", s)
		}
	}
}

// Trim sweeps every shard; busy entries survive, idle ones fall.
func TestPool_Trim(t *testing.T) {
	t.Parallel()

	// Shared first byte keeps both entries in one shard, so the idle entry
	// ages against the busy one's activity.
	p := newTestPool(Options{})
	p.Intern("t-busy")
	p.Intern("t-idle")
	for i := 0; i < 40; i++ {
		p.Intern("t-busy")
	}

	p.Trim(TrimMajor)
	if !p.Contains("t-busy") {
		t.Fatal("busy entry must survive")
	}
	if p.Contains("t-idle") {
		t.Fatal("idle entry must fall to a major trim")
	}
}

// Detaching under pressure empties the pool but folds shard statistics into
// the pool totals, counting residents as evicted.
func TestPool_DetachRetainsStats(t *testing.T) {
	t.Parallel()

	p := newTestPool(Options{})
	vals := values(50)
	for _, s := range vals {
		p.Intern(s)
	}
	p.Intern(vals[0]) // one dedupe

	before := p.Stats()
	p.detachShards()

	if p.Count() != 0 {
		t.Fatalf("Count = %d after detach", p.Count())
	}
	after := p.Stats()
	if after.Added != before.Added || after.Considered != before.Considered {
		t.Fatalf("cumulative stats lost: before=%+v after=%+v", before, after)
	}
	if after.Evicted != before.Evicted+50 {
		t.Fatalf("Evicted = %d, want %d", after.Evicted, before.Evicted+50)
	}

	// Previously seen values re-enter as fresh canonical instances.
	got := p.Intern(strings.Clone(vals[0]))
	if !p.Contains(vals[0]) || got != vals[0] {
		t.Fatal("re-intern after detach must store a fresh instance")
	}
}

// The re-entry guard admits a single scheduled trim at a time.
func TestPool_ScheduledTrimGuard(t *testing.T) {
	t.Parallel()

	p := newTestPool(Options{})
	p.trimming.Store(true)
	p.runScheduledTrim()
	if p.Collections() != 0 {
		t.Fatal("a guarded trim must not count as a collection")
	}
	p.trimming.Store(false)
	p.runScheduledTrim()
	if p.Collections() != 1 {
		t.Fatalf("Collections = %d, want 1", p.Collections())
	}
}

// EnsureCapacity pre-sizes shards; TrimExcess and Clear fan out.
func TestPool_CapacityMaintenance(t *testing.T) {
	t.Parallel()

	p := newTestPool(Options{})
	if got := p.EnsureCapacity(3200); got < 3200 {
		t.Fatalf("EnsureCapacity returned %d, want >= 3200", got)
	}

	vals := values(20)
	for _, s := range vals {
		p.Intern(s)
	}
	p.TrimExcess()
	for _, s := range vals {
		if !p.Contains(s) {
			t.Fatalf("%s lost by TrimExcess", s)
		}
	}

	added := p.Stats().Added
	p.Clear()
	if p.Count() != 0 {
		t.Fatalf("Count = %d after Clear", p.Count())
	}
	if p.Stats().Added != added {
		t.Fatal("Clear must keep cumulative counters")
	}
}

// The process-wide pool is constructed once and shared.
func TestShared_SingleInstance(t *testing.T) {
	t.Parallel()

	a := Shared()
	b := Shared()
	if a != b {
		t.Fatal("Shared must return one instance")
	}

	first := Intern(strings.Clone("shared-value"))
	second := InternBytes([]byte("shared-value"))
	if !sameInstance(first, second) {
		t.Fatal("shared pool must canonicalize across flavors")
	}
}
