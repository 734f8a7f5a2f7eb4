package util

// Prime capacity helpers for the intern table. Bucket counts are kept prime
// so that the bucket index (hash mod capacity) spreads well even for hash
// functions with weak low bits.

// primes is the growth sequence for table capacities. Past the first few
// entries each value is roughly 1.2x the previous one.
var primes = [...]int{
	3, 7, 11, 17, 23, 29, 37, 47, 59, 71, 89, 107, 131, 163, 197, 239, 293,
	353, 431, 521, 631, 761, 919, 1103, 1327, 1597, 1931, 2333, 2801, 3371,
	4049, 4861, 5839, 7013, 8419, 10103, 12143, 14591, 17519, 21023, 25229,
	30293, 36353, 43627, 52361, 62851, 75431, 90523, 108631, 130363, 156437,
	187751, 225307, 270371, 324449, 389357, 467237, 560689, 672827, 807403,
	968897, 1162687, 1395263, 1674319, 2009191, 2411033, 2893249, 3471899,
	4166287, 4999559, 5999471, 7199369,
}

// IsPrime reports whether candidate is prime. Intended for capacity values,
// so trial division is fine.
func IsPrime(candidate int) bool {
	if candidate < 2 {
		return false
	}
	if candidate&1 == 0 {
		return candidate == 2
	}
	for d := 3; d*d <= candidate; d += 2 {
		if candidate%d == 0 {
			return false
		}
	}
	return true
}

// NextPrime returns the smallest prime >= n from the growth sequence,
// falling back to a scan for values beyond the precomputed range.
func NextPrime(n int) int {
	if n < 0 {
		n = 0
	}
	for _, p := range primes {
		if p >= n {
			return p
		}
	}
	for c := n | 1; ; c += 2 {
		if IsPrime(c) {
			return c
		}
	}
}

// FastModMultiplier returns the magic multiplier for FastMod with the given
// divisor. divisor must be in (0, 2^31].
func FastModMultiplier(divisor uint32) uint64 {
	return ^uint64(0)/uint64(divisor) + 1
}

// FastMod computes value % divisor using the multiplier precomputed by
// FastModMultiplier. This replaces an integer division on the lookup hot
// path with two multiplications.
func FastMod(value, divisor uint32, multiplier uint64) uint32 {
	return uint32(((multiplier * uint64(value) >> 32) + 1) * uint64(divisor) >> 32)
}
