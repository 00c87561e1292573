package debug

import (
	"fmt"
	"strings"
	"sync/atomic"
	"time"
)

// BlockProfiler times audio callbacks against their real-time budget.
//
// Record is lock-free and allocation-free so it can run inside the callback;
// Stats and Report belong to the control context.
type BlockProfiler struct {
	sampleRate float64

	count    atomic.Uint64
	frames   atomic.Uint64
	total    atomic.Int64
	max      atomic.Int64
	last     atomic.Int64
	overruns atomic.Uint64
}

// BlockStats is a snapshot of a BlockProfiler.
type BlockStats struct {
	Blocks   uint64
	Frames   uint64
	Total    time.Duration
	Max      time.Duration
	Last     time.Duration
	Overruns uint64
	// Load is processing time over audio time, in percent.
	Load float64
}

// Average returns the mean callback time.
func (s BlockStats) Average() time.Duration {
	if s.Blocks == 0 {
		return 0
	}
	return s.Total / time.Duration(s.Blocks)
}

// NewBlockProfiler creates a profiler for callbacks at sampleRate.
func NewBlockProfiler(sampleRate float64) *BlockProfiler {
	return &BlockProfiler{sampleRate: sampleRate}
}

// Budget returns the real-time deadline for a block of frames.
func (p *BlockProfiler) Budget(frames int) time.Duration {
	if p.sampleRate <= 0 {
		return 0
	}
	return time.Duration(float64(frames) / p.sampleRate * float64(time.Second))
}

// Record stores the elapsed time of one callback of frames samples.
func (p *BlockProfiler) Record(frames int, elapsed time.Duration) {
	p.count.Add(1)
	p.frames.Add(uint64(frames))
	p.total.Add(int64(elapsed))
	p.last.Store(int64(elapsed))
	for {
		cur := p.max.Load()
		if int64(elapsed) <= cur || p.max.CompareAndSwap(cur, int64(elapsed)) {
			break
		}
	}
	if budget := p.Budget(frames); budget > 0 && elapsed > budget {
		p.overruns.Add(1)
	}
}

// Time runs fn and records it as one callback of frames samples.
func (p *BlockProfiler) Time(frames int, fn func()) {
	start := time.Now()
	fn()
	p.Record(frames, time.Since(start))
}

// Stats returns the current counters.
func (p *BlockProfiler) Stats() BlockStats {
	s := BlockStats{
		Blocks:   p.count.Load(),
		Frames:   p.frames.Load(),
		Total:    time.Duration(p.total.Load()),
		Max:      time.Duration(p.max.Load()),
		Last:     time.Duration(p.last.Load()),
		Overruns: p.overruns.Load(),
	}
	if audio := p.Budget(int(s.Frames)); audio > 0 {
		s.Load = float64(s.Total) / float64(audio) * 100
	}
	return s
}

// Reset clears all counters.
func (p *BlockProfiler) Reset() {
	p.count.Store(0)
	p.frames.Store(0)
	p.total.Store(0)
	p.max.Store(0)
	p.last.Store(0)
	p.overruns.Store(0)
}

// Report renders the counters for humans.
func (p *BlockProfiler) Report() string {
	s := p.Stats()
	if s.Blocks == 0 {
		return "No blocks recorded"
	}

	var sb strings.Builder
	sb.WriteString("Block Processing Report:\n")
	fmt.Fprintf(&sb, "  Blocks:   %d (%d frames)\n", s.Blocks, s.Frames)
	fmt.Fprintf(&sb, "  Average:  %v\n", s.Average())
	fmt.Fprintf(&sb, "  Max:      %v\n", s.Max)
	fmt.Fprintf(&sb, "  Overruns: %d\n", s.Overruns)
	fmt.Fprintf(&sb, "  CPU Load: %.2f%%\n", s.Load)
	return sb.String()
}
