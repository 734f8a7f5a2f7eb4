//go:build go1.18

package intern

import (
	"strings"
	"testing"
)

// Fuzz basic intern semantics under arbitrary string inputs. Guards against
// panics and checks canonical identity, membership, and removal.
func FuzzPool_Intern(f *testing.F) {
	// Seed corpus: empty, ASCII, Unicode, long strings.
	f.Add("")
	f.Add("a")
	f.Add("αβγ")
	f.Add("emoji🙂")
	f.Add(strings.Repeat("x", 1024))

	f.Fuzz(func(t *testing.T, s string) {
		p := newTestPool(Options{MaxCount: 64})
		first := p.Intern(strings.Clone(s))
		if first != s {
			t.Fatalf("Intern changed the value: %q -> %q", s, first)
		}

		// Second presentation must return the stored instance.
		second := p.Intern(strings.Clone(s))
		if second != s {
			t.Fatalf("re-intern changed the value: %q", second)
		}
		storable := len(s) > 0 && len(s) <= DefaultMaxLength
		if storable && !sameInstance(first, second) {
			t.Fatal("equal candidates must share one instance")
		}

		// Byte and string flavors agree.
		if got := p.InternBytes([]byte(s)); got != s {
			t.Fatalf("InternBytes mismatch: %q", got)
		}

		if p.Contains(s) != storable {
			t.Fatalf("Contains = %v for len %d", p.Contains(s), len(s))
		}
		if storable {
			if !p.Remove(s) {
				t.Fatal("Remove must succeed for a stored value")
			}
			if p.Contains(s) {
				t.Fatal("value must be absent after Remove")
			}
			// After removal, interning admits it again.
			if got := p.Intern(strings.Clone(s)); got != s {
				t.Fatalf("re-admission mismatch: %q", got)
			}
		}

		st := p.Stats()
		if st.Deduped != st.Considered-st.Added {
			t.Fatalf("counter algebra broken: %+v", st)
		}
	})
}
