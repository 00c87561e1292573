package zita

import (
	"math"
	"sync"
	"testing"

	"github.com/justyntemme/zitarev/pkg/framework/engine"
)

func newChannels(frames int) (*engine.Channels, *engine.Channels) {
	var in, out engine.Channels
	for ch := 0; ch < 2; ch++ {
		in[ch] = make([]float32, frames)
		out[ch] = make([]float32, frames)
	}
	return &in, &out
}

func newReady(sampleRate float64, block int) *Reverb {
	r := New()
	r.Init(sampleRate, false)
	r.SetDelay(0.04)
	r.SetRTMid(2.0)
	r.SetRTLow(3.0)
	r.SetFdamp(6000)
	r.SetOpmix(0.8)
	r.SetXover(200)
	r.Prepare(block)
	return r
}

func TestReverbTail(t *testing.T) {
	const block = 256
	r := newReady(48000, block)
	in, out := newChannels(block)

	in[0][0] = 1
	in[1][0] = 1

	var energy float64
	for b := 0; b < 200; b++ {
		r.Prepare(block)
		r.Process(block, in, out)
		for ch := 0; ch < 2; ch++ {
			for _, s := range out[ch] {
				if math.IsNaN(float64(s)) || math.IsInf(float64(s), 0) {
					t.Fatalf("Non-finite output in block %d", b)
				}
				if b > 4 {
					energy += float64(s * s)
				}
			}
		}
		in[0][0], in[1][0] = 0, 0
	}

	if energy == 0 {
		t.Error("Expected a reverb tail after the impulse")
	}
}

func TestReverbDecays(t *testing.T) {
	const block = 512
	r := newReady(44100, block)
	r.SetRTMid(0.3)
	r.SetRTLow(0.3)
	in, out := newChannels(block)
	in[0][0] = 1

	blockEnergy := func() float64 {
		r.Prepare(block)
		r.Process(block, in, out)
		in[0][0] = 0
		var e float64
		for _, s := range out[0] {
			e += float64(s * s)
		}
		return e
	}

	var early float64
	for b := 0; b < 20; b++ {
		early += blockEnergy()
	}
	// ~6 s later, far past a 0.3 s decay time.
	for b := 0; b < 500; b++ {
		blockEnergy()
	}
	late := blockEnergy()

	if early == 0 {
		t.Fatal("No output in the first blocks after the impulse")
	}
	if !(late < early*1e-6) {
		t.Errorf("Tail did not decay: early=%g late=%g", early, late)
	}
}

func TestDryMix(t *testing.T) {
	const block = 128
	r := newReady(48000, block)
	r.SetOpmix(0)
	in, out := newChannels(block)

	// First block ramps the gains, the second holds them.
	for b := 0; b < 2; b++ {
		for i := range in[0] {
			in[0][i] = float32(math.Sin(float64(i+b*block) * 0.05))
			in[1][i] = -in[0][i]
		}
		r.Prepare(block)
		r.Process(block, in, out)
	}

	for ch := 0; ch < 2; ch++ {
		for i := range out[ch] {
			if d := math.Abs(float64(out[ch][i] - in[ch][i])); d > 1e-4 {
				t.Fatalf("ch %d sample %d: out=%f in=%f", ch, i, out[ch][i], in[ch][i])
			}
		}
	}
}

func TestUninitialized(t *testing.T) {
	r := New()
	in, out := newChannels(32)
	out[0][3] = 0.5

	r.Prepare(32)
	r.Process(32, in, out)
	r.Reset()

	if out[0][3] != 0.5 {
		t.Error("Process on an uninitialized engine must not touch the output")
	}
}

func TestFiniAndReinit(t *testing.T) {
	r := newReady(48000, 64)
	r.Fini()
	if r.lines[0].line != nil {
		t.Error("Fini should drop delay lines")
	}

	r.Init(96000, false)
	if r.SampleRate() != 96000 {
		t.Errorf("SampleRate = %f", r.SampleRate())
	}
	want := int(math.Floor(loopTimes[0]*96000+0.5)) - int(math.Floor(diffuserTimes[0]*96000+0.5))
	if len(r.lines[0].line) != want {
		t.Errorf("line 0 length = %d, want %d", len(r.lines[0].line), want)
	}
}

func TestConcurrentSetters(t *testing.T) {
	const block = 64
	r := newReady(48000, block)
	in, out := newChannels(block)

	for i := range in[0] {
		in[0][i] = float32(math.Sin(float64(i) * 0.3))
		in[1][i] = in[0][i]
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			r.SetRTMid(0.5 + float64(i%50)*0.1)
			r.SetFdamp(1000 + float64(i))
			r.SetOpmix(float64(i%10) / 10)
			r.SetDelay(0.02 + float64(i%8)*0.01)
		}
	}()
	var energy float64
	for b := 0; b < 500; b++ {
		r.Prepare(block)
		r.Process(block, in, out)
		for _, s := range out[0] {
			energy += float64(s * s)
		}
	}
	wg.Wait()

	if energy == 0 || math.IsNaN(energy) {
		t.Errorf("Output energy = %v under concurrent setters", energy)
	}
}

func TestGainsAfterConfigure(t *testing.T) {
	// A configure-time Prepare at the maximum block size followed by
	// per-block Prepares with no pending change must still open the gains.
	const maxBlock, block = 512, 128
	r := newReady(48000, maxBlock)
	in, out := newChannels(block)
	for i := range in[0] {
		in[0][i] = 0.5
		in[1][i] = 0.5
	}

	var peak float64
	for b := 0; b < 200; b++ {
		r.Prepare(block)
		r.Process(block, in, out)
		for ch := 0; ch < 2; ch++ {
			for _, s := range out[ch] {
				peak = math.Max(peak, math.Abs(float64(s)))
			}
		}
	}

	if peak == 0 {
		t.Fatal("Engine stayed silent after configure")
	}
	if math.Abs(float64(r.g0-r.t0)) > 1e-4 || math.Abs(float64(r.g1-r.t1)) > 1e-4 {
		t.Errorf("Gains did not reach targets: g0=%v t0=%v g1=%v t1=%v", r.g0, r.t0, r.g1, r.t1)
	}
	if r.t0 == 0 || r.t1 == 0 {
		t.Errorf("Targets for mix 0.8 should be non-zero: t0=%v t1=%v", r.t0, r.t1)
	}
}

func TestInitBelowMinimumRate(t *testing.T) {
	r := New()
	r.Init(20, false)
	in, out := newChannels(4)
	in[0][0] = 1
	out[0][0] = 0.25

	r.Prepare(4)
	r.Process(4, in, out)

	if out[0][0] != 0.25 {
		t.Error("An engine initialized below the minimum rate must not process")
	}
}

func TestProcessDoesNotAllocate(t *testing.T) {
	const block = 256
	r := newReady(48000, block)
	in, out := newChannels(block)

	allocs := testing.AllocsPerRun(50, func() {
		r.SetRTMid(2.5)
		r.Prepare(block)
		r.Process(block, in, out)
	})
	if allocs != 0 {
		t.Errorf("Prepare/Process allocated %v times per run", allocs)
	}
}

func BenchmarkProcess(b *testing.B) {
	const block = 512
	r := newReady(48000, block)
	in, out := newChannels(block)
	for i := range in[0] {
		in[0][i] = float32(math.Sin(float64(i) * 0.01))
		in[1][i] = in[0][i]
	}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		r.Prepare(block)
		r.Process(block, in, out)
	}
}
