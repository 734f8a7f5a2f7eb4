package intern

import (
	"runtime"

	"github.com/exascience/pargo/parallel"
)

// Memory pressure thresholds: heap-in-use relative to the collector's
// next-GC goal.
const (
	pressureHighRatio   = 0.90
	pressureMediumRatio = 0.70
)

type pressureLevel int

const (
	pressureLow pressureLevel = iota
	pressureMedium
	pressureHigh
)

// memoryPressure classifies current heap usage against the collector's
// next-cycle goal.
func memoryPressure() pressureLevel {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	if ms.NextGC == 0 {
		return pressureLow
	}
	used := float64(ms.HeapAlloc) / float64(ms.NextGC)
	switch {
	case used >= pressureHighRatio:
		return pressureHigh
	case used >= pressureMediumRatio:
		return pressureMedium
	}
	return pressureLow
}

// gcSentinel hooks the pool into collector cycles. Its finalizer runs once
// per GC sweep, signals the trim worker, and re-arms itself; the object is
// resurrected by the re-registration, so one sentinel serves the pool's
// whole lifetime. Close stops the cycle by not re-arming.
type gcSentinel struct {
	pool *Pool
}

func armGCHook(p *Pool) {
	runtime.SetFinalizer(&gcSentinel{pool: p}, gcTick)
}

func gcTick(s *gcSentinel) {
	p := s.pool
	if p.closed.Load() {
		return
	}
	select {
	case p.trimCh <- struct{}{}:
	default:
	}
	runtime.SetFinalizer(s, gcTick)
}

// trimWorker drains trim signals until the pool is closed.
func (p *Pool) trimWorker() {
	for {
		select {
		case <-p.done:
			return
		case <-p.trimCh:
			p.runScheduledTrim()
		}
	}
}

// runScheduledTrim performs one background maintenance pass. A
// compare-and-swap guard keeps at most one pass in flight per pool; further
// signals observe the flag and return immediately.
func (p *Pool) runScheduledTrim() {
	if !p.trimming.CompareAndSwap(false, true) {
		return
	}
	defer p.trimming.Store(false)

	if memoryPressure() == pressureHigh {
		p.detachShards()
	} else {
		p.Trim(TrimLevel(p.collections.Load() % 3))
	}
	p.collections.Add(1)
}

// Trim sweeps every present shard at the given level. Shards are swept in
// parallel; each sweep holds only its own shard's lock.
func (p *Pool) Trim(level TrimLevel) {
	parallel.Range(0, poolShardCount, 0, func(low, high int) {
		for i := low; i < high; i++ {
			sh := p.shards[i].Load()
			if sh == nil {
				continue
			}
			sh.mu.Lock()
			sh.table.Trim(level)
			sh.mu.Unlock()
		}
	})
}

// detachShards releases every shard outright, folding its cumulative
// statistics into the pool totals first. Future interning of previously seen
// values re-admits them as fresh canonical instances; callers relying on
// long-lived identity must hold their own references.
func (p *Pool) detachShards() {
	for i := range p.shards {
		sh := p.shards[i].Swap(nil)
		if sh == nil {
			continue
		}
		sh.mu.Lock()
		t := sh.table
		resident := t.Count()
		p.detConsidered.Add(t.Considered())
		p.detAdded.Add(t.added)
		p.detEvicted.Add(t.evicted + uint64(resident))
		for range resident {
			p.opt.Metrics.Evict(EvictDetach)
		}
		sh.mu.Unlock()
	}
	p.opt.Metrics.Size(0)
}

// Collections returns how many scheduled maintenance passes have completed.
func (p *Pool) Collections() uint64 { return p.collections.Load() }
