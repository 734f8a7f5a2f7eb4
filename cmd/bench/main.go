// Command bench runs a synthetic interning workload and exposes a Prometheus metrics endpoint and an optional pprof endpoint.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	_ "net/http/pprof" // registers /debug/pprof/* on DefaultServeMux
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/benaadams/stringintern/intern"
	pmet "github.com/benaadams/stringintern/metrics/prom"
)

func main() {
	// ---- Flags ----
	var (
		maxCount  = flag.Int("max_count", intern.DefaultMaxCount, "per-shard entry limit")
		maxLength = flag.Int("max_length", intern.DefaultMaxLength, "longest value admitted (bytes)")

		workers  = flag.Int("workers", 2*runtime.GOMAXPROCS(0), "number of worker goroutines")
		duration = flag.Duration("duration", 10*time.Second, "benchmark duration")
		bytesPct = flag.Int("bytes", 50, "percentage of calls taking the byte-slice path [0..100]")

		keys  = flag.Int("keys", 1_000_000, "keyspace size")
		zipfS = flag.Float64("zipf_s", 1.1, "Zipf s > 1 (skew)")
		zipfV = flag.Float64("zipf_v", 1.0, "Zipf v")
		seed  = flag.Int64("seed", time.Now().UnixNano(), "random seed")

		pprofAddr   = flag.String("pprof", "", "serve pprof at addr (e.g. :6060); empty = disabled")
		metricsAddr = flag.String("http", ":8080", "serve Prometheus metrics at addr")
	)
	flag.Parse()

	// ---- pprof server (on DefaultServeMux) ----
	if *pprofAddr != "" {
		go func() {
			log.Printf("pprof: serving at %s", *pprofAddr)
			log.Println(http.ListenAndServe(*pprofAddr, nil))
		}()
	}

	// ---- Prometheus metrics (on DefaultServeMux) ----
	metrics := pmet.New(nil, "stringintern", "bench", nil)
	http.Handle("/metrics", promhttp.Handler())
	go func() {
		log.Printf("metrics: serving at %s", *metricsAddr)
		log.Println(http.ListenAndServe(*metricsAddr, nil))
	}()

	// ---- Build pool ----
	p := intern.NewPool(intern.Options{
		MaxCount:  *maxCount,
		MaxLength: *maxLength,
		Metrics:   metrics,
	})
	defer func() { _ = p.Close() }()

	// ---- Snapshot flags for goroutines ----
	bytesPctVal := *bytesPct
	keysMax := uint64(*keys - 1)
	seedBase := *seed
	zipfSVal := *zipfS
	zipfVVal := *zipfV
	workersN := *workers
	if workersN <= 0 {
		workersN = 1
	}

	// ---- Load generation ----
	var total uint64
	ctx, cancel := context.WithTimeout(context.Background(), *duration)
	defer cancel()

	start := time.Now()
	var wg sync.WaitGroup
	wg.Add(workersN)
	for w := 0; w < workersN; w++ {
		go func(id int) {
			defer wg.Done()

			// Each worker gets its own RNG + Zipf (rand.Rand is NOT goroutine-safe).
			localR := rand.New(rand.NewSource(seedBase + int64(id)*9973))
			localZipf := rand.NewZipf(localR, zipfSVal, zipfVVal, keysMax)

			var buf []byte
			for {
				select {
				case <-ctx.Done():
					return
				default:
				}

				atomic.AddUint64(&total, 1)
				k := "k:" + strconv.FormatUint(localZipf.Uint64(), 10)
				if int(localR.Int31n(100)) < bytesPctVal {
					buf = append(buf[:0], k...)
					p.InternBytes(buf)
				} else {
					p.Intern(k)
				}
			}
		}(w)
	}
	wg.Wait()
	elapsed := time.Since(start)

	// ---- Report ----
	ops := atomic.LoadUint64(&total)
	st := p.Stats()

	dedupeRate := 0.0
	if st.Considered > 0 {
		dedupeRate = float64(st.Deduped) / float64(st.Considered) * 100
	}

	fmt.Printf("max_count=%d max_length=%d workers=%d keys=%d dur=%v seed=%d\n",
		*maxCount, *maxLength, workersN, *keys, elapsed, seedBase)
	fmt.Printf("ops=%d (%.0f ops/s)\n", ops, float64(ops)/elapsed.Seconds())
	fmt.Printf("considered=%d added=%d deduped=%d (%.2f%%) evicted=%d\n",
		st.Considered, st.Added, st.Deduped, dedupeRate, st.Evicted)
	fmt.Printf("Count()=%d collections=%d\n", p.Count(), p.Collections())
}
