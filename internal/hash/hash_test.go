package hash

import (
	"strings"
	"testing"
)

var inputs = []string{
	"",
	"a",
	"ab",
	"abc",
	"abcd",
	"abcde",
	"abcdefg",
	"abcdefgh",
	"abcdefghi",
	"hello, world",
	"αβγδε",
	strings.Repeat("x", 640),
}

// Both modes are deterministic within a process and agree between the
// string and byte views of the same data.
func TestHash_StringBytesAgree(t *testing.T) {
	t.Parallel()

	for _, s := range inputs {
		for _, randomized := range []bool{false, true} {
			h1 := String(s, randomized)
			h2 := Bytes([]byte(s), randomized)
			if h1 != h2 {
				t.Fatalf("String/Bytes disagree for %q randomized=%v: %#x vs %#x", s, randomized, h1, h2)
			}
			if h1 != String(s, randomized) {
				t.Fatalf("hash of %q is not stable", s)
			}
		}
	}
}

// Distinct inputs, including prefixes of each other, produce distinct hashes
// on these fixed vectors.
func TestHash_PrefixesDiffer(t *testing.T) {
	t.Parallel()

	for _, randomized := range []bool{false, true} {
		seen := map[uint32]string{}
		for _, s := range inputs {
			h := String(s, randomized)
			if prev, dup := seen[h]; dup {
				t.Fatalf("collision between %q and %q (randomized=%v)", prev, s, randomized)
			}
			seen[h] = s
		}
	}
}

// The two modes disagree on at least some inputs; otherwise the switchover
// would not defeat crafted collisions.
func TestHash_ModesDiffer(t *testing.T) {
	t.Parallel()

	differs := false
	for _, s := range inputs {
		if String(s, false) != String(s, true) {
			differs = true
			break
		}
	}
	if !differs {
		t.Fatal("deterministic and randomized modes agree on every vector")
	}
}
