package intern

// Stats is a point-in-time snapshot of interning counters.
//
// The algebra always holds: Considered >= Added, Deduped = Considered - Added,
// Count <= Added. For a Pool the snapshot sums all present shards plus the
// running totals retained from shards released under memory pressure.
type Stats struct {
	// Count is the number of resident entries.
	Count int
	// Considered is the number of candidates presented, including empty,
	// nil, and over-length candidates that were never stored.
	Considered uint64
	// Added is the number of entries created.
	Added uint64
	// Deduped is the number of candidates answered by an existing entry.
	Deduped uint64
	// Evicted is the number of entries destroyed by capacity displacement,
	// trim sweeps, or shard detach.
	Evicted uint64
}
