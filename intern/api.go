package intern

import (
	"iter"

	"golang.org/x/text/encoding"
)

// Interner is the interning surface shared by the single-goroutine Table and
// the thread-safe sharded Pool.
//
// Every operation is idempotent with respect to canonical identity: repeat
// calls return the same stored instance until an intervening eviction
// removes it.
type Interner interface {
	// Intern returns the canonical stored instance for s, creating one if
	// absent. The empty string is returned as-is and never stored;
	// candidates over the length cap are returned fresh and never stored.
	Intern(s string) string

	// InternBytes interns the string whose UTF-8 bytes are b. The lookup
	// runs on the byte view without allocating; nil and empty slices yield
	// the empty string.
	InternBytes(b []byte) string

	// InternASCII interns b interpreted as 7-bit character data, with '?'
	// substituted for bytes outside the ASCII range.
	InternASCII(b []byte) string

	// InternEncoding decodes b in the given encoding and interns the
	// decoded form. Decode failures propagate unchanged.
	InternEncoding(b []byte, enc encoding.Encoding) (string, error)

	// Contains reports whether s is currently stored, without refreshing
	// its recency.
	Contains(s string) bool

	// Remove deletes s if present and returns true on success.
	Remove(s string) bool

	// All returns the stored values in an unspecified order.
	All() iter.Seq[string]

	// Count returns the number of resident entries.
	Count() int

	// Trim evicts entries whose last use is too old for the given level.
	Trim(level TrimLevel)

	// EnsureCapacity grows backing storage to hold at least n entries and
	// returns the resulting capacity.
	EnsureCapacity(n int) int

	// TrimExcess shrinks backing storage to fit the live count.
	TrimExcess()

	// Clear removes every entry, keeping capacity and cumulative counters.
	Clear()

	// Stats returns a snapshot of the interning counters.
	Stats() Stats
}

// Compile-time interface checks.
var (
	_ Interner = (*Table)(nil)
	_ Interner = (*Pool)(nil)
)
