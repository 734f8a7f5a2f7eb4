package intern

import (
	"math/rand"
	"strconv"
	"sync/atomic"
	"testing"
)

// benchmarkIntern exercises a hit-heavy interning mix against a warm pool.
// It uses parallel workers (RunParallel spawns GOMAXPROCS goroutines).
// String keys include strconv/concat costs, which is fine for an end-to-end
// benchmark.
func benchmarkIntern(b *testing.B, bytesPct int) {
	p := NewPool(Options{MaxCount: 100_000})
	b.Cleanup(func() { _ = p.Close() })

	// Preload the hot keyspace so most calls are dedupe hits.
	keyMask := (1 << 16) - 1
	for i := 0; i <= keyMask; i++ {
		p.Intern("k:" + strconv.Itoa(i))
	}

	b.ReportAllocs()
	b.ResetTimer()

	var seed int64 = 1
	b.RunParallel(func(pb *testing.PB) {
		// Independent RNG stream for each worker.
		r := rand.New(rand.NewSource(atomic.AddInt64(&seed, 1)))
		var buf []byte
		i := 0
		for pb.Next() {
			k := "k:" + strconv.Itoa(i&keyMask)
			if r.Intn(100) < bytesPct {
				buf = append(buf[:0], k...)
				p.InternBytes(buf)
			} else {
				p.Intern(k)
			}
			i++
		}
	})
}

func BenchmarkPool_Strings(b *testing.B)     { benchmarkIntern(b, 0) }
func BenchmarkPool_Bytes(b *testing.B)       { benchmarkIntern(b, 100) }
func BenchmarkPool_MixedFlavor(b *testing.B) { benchmarkIntern(b, 50) }

// BenchmarkTable_Hit measures the single-threaded lookup hot path alone:
// hash, bucket probe, stamp refresh.
func BenchmarkTable_Hit(b *testing.B) {
	tb := NewTable(TableOptions{})
	keys := make([]string, 1024)
	for i := range keys {
		keys[i] = "k:" + strconv.Itoa(i)
		tb.Intern(keys[i])
	}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		tb.Intern(keys[i&1023])
	}
}

// BenchmarkTable_BytesHit is the same path through the zero-copy byte view.
func BenchmarkTable_BytesHit(b *testing.B) {
	tb := NewTable(TableOptions{})
	keys := make([][]byte, 1024)
	for i := range keys {
		k := "k:" + strconv.Itoa(i)
		keys[i] = []byte(k)
		tb.Intern(k)
	}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		tb.InternBytes(keys[i&1023])
	}
}
