// Package zita implements a stereo feedback delay network reverb in the style
// of Fons Adriaensen's zita-rev1: two pre-delayed inputs feed eight allpass
// diffused delay lines mixed by an 8x8 Hadamard matrix, each loop carrying a
// two-band decay filter split at a crossover frequency.
package zita

import (
	"math"
	"sync/atomic"

	"github.com/justyntemme/zitarev/pkg/framework/engine"
)

const numLines = 8

// Diffuser and total loop lengths in seconds.
var (
	diffuserTimes = [numLines]float64{
		20346e-6, 24421e-6, 31604e-6, 27333e-6, 22904e-6, 29291e-6, 13458e-6, 19123e-6,
	}
	loopTimes = [numLines]float64{
		153129e-6, 210389e-6, 127837e-6, 256891e-6, 174713e-6, 192303e-6, 125000e-6, 219991e-6,
	}
)

// Defaults applied by Init before any setter runs.
const (
	defaultDelay = 0.04
	defaultXover = 200.0
	defaultRTLow = 3.0
	defaultRTMid = 2.0
	defaultFdamp = 3000.0
	defaultOpmix = 1.0

	maxPreDelay   = 0.1
	fixedPreDelay = 0.020
)

// setting is a float parameter published by a setter and consumed by Prepare.
type setting struct {
	bits atomic.Uint64
}

func (s *setting) store(v float64) { s.bits.Store(math.Float64bits(v)) }
func (s *setting) load() float64   { return math.Float64frombits(s.bits.Load()) }

// Reverb is the engine binding. Setters are lock-free and may be called from
// any goroutine; their effect is picked up by the next Prepare.
type Reverb struct {
	sampleRate float64
	ambisonic  bool
	ready      bool

	delay setting
	xover setting
	rtlow setting
	rtmid setting
	fdamp setting
	opmix setting

	// Change counters: *1 is bumped by setters, *2 records what Prepare applied.
	cntA1, cntB1, cntC1 atomic.Uint32
	cntA2, cntB2, cntC2 uint32

	vdelay0, vdelay1 vdelay
	diff             [numLines]diffuser
	lines            [numLines]delay
	filters          [numLines]decayFilter

	// Dry (g0) and wet (g1) output gains, ramped across a block by d0/d1
	// towards the targets t0/t1.
	g0, d0, t0 float32
	g1, d1, t1 float32
}

var _ engine.Engine = (*Reverb)(nil)

// New returns an uninitialized engine. Call Init before Prepare or Process.
func New() *Reverb {
	return &Reverb{}
}

// Init allocates the delay network for sampleRate and resets every setting
// to its default. The ambisonic flag is recorded; output is always stereo.
// Rates below engine.MinSampleRate leave the engine uninitialized.
func (r *Reverb) Init(sampleRate float64, ambisonic bool) {
	r.sampleRate = sampleRate
	r.ambisonic = ambisonic

	r.cntA1.Store(1)
	r.cntB1.Store(1)
	r.cntC1.Store(1)
	r.cntA2, r.cntB2, r.cntC2 = 0, 0, 0

	r.delay.store(defaultDelay)
	r.xover.store(defaultXover)
	r.rtlow.store(defaultRTLow)
	r.rtmid.store(defaultRTMid)
	r.fdamp.store(defaultFdamp)
	r.opmix.store(defaultOpmix)

	r.g0, r.d0, r.t0 = 0, 0, 0
	r.g1, r.d1, r.t1 = 0, 0, 0

	if sampleRate < engine.MinSampleRate {
		r.ready = false
		return
	}

	r.vdelay0.init(int(maxPreDelay * sampleRate))
	r.vdelay1.init(int(maxPreDelay * sampleRate))
	for i := 0; i < numLines; i++ {
		k1 := int(math.Floor(diffuserTimes[i]*sampleRate + 0.5))
		k2 := int(math.Floor(loopTimes[i]*sampleRate + 0.5))
		c := float32(0.6)
		if i&1 == 1 {
			c = -0.6
		}
		r.diff[i].init(k1, c)
		r.lines[i].init(k2 - k1)
		r.filters[i].reset()
	}
	r.ready = true
}

// Fini drops the delay network.
func (r *Reverb) Fini() {
	r.vdelay0.fini()
	r.vdelay1.fini()
	for i := 0; i < numLines; i++ {
		r.diff[i].fini()
		r.lines[i].fini()
	}
	r.ready = false
}

// SampleRate returns the rate given to Init.
func (r *Reverb) SampleRate() float64 {
	return r.sampleRate
}

// SetDelay sets the pre-delay in seconds.
func (r *Reverb) SetDelay(v float64) {
	r.delay.store(v)
	r.cntA1.Add(1)
}

// SetXover sets the crossover between the low and mid decay bands in Hz.
func (r *Reverb) SetXover(v float64) {
	r.xover.store(v)
	r.cntB1.Add(1)
}

// SetRTLow sets the low band decay time in seconds.
func (r *Reverb) SetRTLow(v float64) {
	r.rtlow.store(v)
	r.cntB1.Add(1)
}

// SetRTMid sets the mid band decay time in seconds. It also rescales the
// wet output level.
func (r *Reverb) SetRTMid(v float64) {
	r.rtmid.store(v)
	r.cntB1.Add(1)
	r.cntC1.Add(1)
}

// SetFdamp sets the frequency in Hz above which the decay halves.
func (r *Reverb) SetFdamp(v float64) {
	r.fdamp.store(v)
	r.cntB1.Add(1)
}

// SetOpmix sets the dry/wet balance, 0 = dry and 1 = wet.
func (r *Reverb) SetOpmix(v float64) {
	r.opmix.store(v)
	r.cntC1.Add(1)
}

// Prepare applies pending settings and sets up the output gain ramps for a
// block of n frames. It must run before every Process. The ramps always
// head for the latest targets, so a Prepare with no pending change still
// completes a ramp started by an earlier one.
func (r *Reverb) Prepare(n int) {
	if !r.ready || n <= 0 {
		return
	}
	fs := r.sampleRate

	if a := r.cntA1.Load(); a != r.cntA2 {
		k := int(math.Floor((r.delay.load()-fixedPreDelay)*fs + 0.5))
		r.vdelay0.setDelay(k)
		r.vdelay1.setDelay(k)
		r.cntA2 = a
	}

	if b := r.cntB1.Load(); b != r.cntB2 {
		rtmid := r.rtmid.load()
		wlo := 2 * math.Pi * r.xover.load() / fs
		chi := 2.0
		if fdamp := r.fdamp.load(); fdamp <= 0.49*fs {
			chi = 1 - math.Cos(2*math.Pi*fdamp/fs)
		}
		for i := range r.filters {
			r.filters[i].setParams(loopTimes[i], rtmid, r.rtlow.load(), wlo, 0.5*rtmid, chi)
		}
		r.cntB2 = b
	}

	if c := r.cntC1.Load(); c != r.cntC2 {
		mix := r.opmix.load()
		t0 := (1 - mix) * (1 + mix)
		t1 := 0.7 * mix * (2 - mix) / math.Sqrt(r.rtmid.load())
		r.t0 = float32(t0)
		r.t1 = float32(t1)
		r.cntC2 = c
	}

	r.d0 = (r.t0 - r.g0) / float32(n)
	r.d1 = (r.t1 - r.g1) / float32(n)
}

// Process renders frames samples from in[0:2] into out[0:2]. in and out must
// not alias; the dry signal is read from in after out has been written.
func (r *Reverb) Process(frames int, in, out *engine.Channels) {
	if !r.ready || frames <= 0 {
		return
	}
	const g = 0.35355339 // sqrt(1/8)

	p0, p1 := in[0][:frames], in[1][:frames]
	q0, q1 := out[0][:frames], out[1][:frames]

	for i := 0; i < frames; i++ {
		r.vdelay0.write(p0[i])
		r.vdelay1.write(p1[i])

		t := 0.3 * r.vdelay0.read()
		x0 := r.diff[0].process(r.lines[0].read() + t)
		x1 := r.diff[1].process(r.lines[1].read() + t)
		x2 := r.diff[2].process(r.lines[2].read() - t)
		x3 := r.diff[3].process(r.lines[3].read() - t)
		t = 0.3 * r.vdelay1.read()
		x4 := r.diff[4].process(r.lines[4].read() + t)
		x5 := r.diff[5].process(r.lines[5].read() + t)
		x6 := r.diff[6].process(r.lines[6].read() - t)
		x7 := r.diff[7].process(r.lines[7].read() - t)

		// In-place 8-point Hadamard butterfly.
		x0, x1 = x0+x1, x0-x1
		x2, x3 = x2+x3, x2-x3
		x4, x5 = x4+x5, x4-x5
		x6, x7 = x6+x7, x6-x7
		x0, x2 = x0+x2, x0-x2
		x1, x3 = x1+x3, x1-x3
		x4, x6 = x4+x6, x4-x6
		x5, x7 = x5+x7, x5-x7
		x0, x4 = x0+x4, x0-x4
		x1, x5 = x1+x5, x1-x5
		x2, x6 = x2+x6, x2-x6
		x3, x7 = x3+x7, x3-x7

		r.g1 += r.d1
		q0[i] = r.g1 * (x1 + x2)
		q1[i] = r.g1 * (x1 - x2)

		r.lines[0].write(r.filters[0].process(g * x0))
		r.lines[1].write(r.filters[1].process(g * x1))
		r.lines[2].write(r.filters[2].process(g * x2))
		r.lines[3].write(r.filters[3].process(g * x3))
		r.lines[4].write(r.filters[4].process(g * x4))
		r.lines[5].write(r.filters[5].process(g * x5))
		r.lines[6].write(r.filters[6].process(g * x6))
		r.lines[7].write(r.filters[7].process(g * x7))
	}

	for i := 0; i < frames; i++ {
		r.g0 += r.d0
		q0[i] += r.g0 * p0[i]
		q1[i] += r.g0 * p1[i]
	}
}

// Reset clears the delay network without reallocating.
func (r *Reverb) Reset() {
	if !r.ready {
		return
	}
	clear(r.vdelay0.line)
	clear(r.vdelay1.line)
	for i := 0; i < numLines; i++ {
		clear(r.diff[i].line)
		clear(r.lines[i].line)
		r.filters[i].reset()
	}
}
