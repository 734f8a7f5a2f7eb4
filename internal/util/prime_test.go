package util

import (
	"math/rand"
	"testing"
)

func TestIsPrime(t *testing.T) {
	t.Parallel()

	primes := []int{2, 3, 5, 7, 11, 101, 7199369}
	composites := []int{-7, 0, 1, 4, 9, 100, 7199367}
	for _, p := range primes {
		if !IsPrime(p) {
			t.Fatalf("IsPrime(%d) = false", p)
		}
	}
	for _, c := range composites {
		if IsPrime(c) {
			t.Fatalf("IsPrime(%d) = true", c)
		}
	}
}

func TestNextPrime(t *testing.T) {
	t.Parallel()

	cases := []struct{ in, want int }{
		{0, 3},
		{1, 3},
		{3, 3},
		{4, 7},
		{100, 107},
		{7199369, 7199369},
	}
	for _, c := range cases {
		if got := NextPrime(c.in); got != c.want {
			t.Fatalf("NextPrime(%d) = %d, want %d", c.in, got, c.want)
		}
	}

	// Beyond the precomputed range the scan must still return a prime >= n.
	n := 7199370
	got := NextPrime(n)
	if got < n || !IsPrime(got) {
		t.Fatalf("NextPrime(%d) = %d", n, got)
	}
}

// FastMod must agree with % for every divisor the table can use.
func TestFastMod(t *testing.T) {
	t.Parallel()

	r := rand.New(rand.NewSource(1))
	divisors := []uint32{3, 7, 11, 103, 10_103, 7_199_369}
	for _, d := range divisors {
		m := FastModMultiplier(d)
		for i := 0; i < 10_000; i++ {
			v := r.Uint32()
			if got, want := FastMod(v, d, m), v%d; got != want {
				t.Fatalf("FastMod(%d, %d) = %d, want %d", v, d, got, want)
			}
		}
	}
}
