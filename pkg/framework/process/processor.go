package process

import (
	"github.com/justyntemme/zitarev/pkg/dsp/gain"
	"github.com/justyntemme/zitarev/pkg/framework/engine"
)

// Width is the number of channels the engine processes.
const Width = 2

// DefaultOutputGain compensates the attenuated wet level of the engine (+6 dB).
const DefaultOutputGain gain.Compensation = 2.0

// Transform is the engine side of the callback.
type Transform interface {
	Ready() bool
	Process(frames int, in, out *engine.Channels)
}

// Processor validates and repairs each incoming block, hands a non-aliased
// copy of the input to the engine, writes the result over the block and
// applies the output gain correction.
//
// Process never allocates, blocks or panics. Resize is the only method that
// allocates and belongs to the control context.
type Processor struct {
	transform Transform
	gain      gain.Compensation

	// dry holds a verbatim copy of the input for the engine to read.
	dry [Width][]float32
	// spare backs the second channel of a mono block when the host gave no room.
	spare  []float32
	stereo [Width][]float32

	in, out  engine.Channels
	capacity int
}

// NewProcessor creates a processor around t with the given output gain.
func NewProcessor(t Transform, g gain.Compensation) *Processor {
	return &Processor{
		transform: t,
		gain:      g,
	}
}

// Resize sizes the scratch buffers for blocks of up to maxFrames.
func (p *Processor) Resize(maxFrames int) {
	if maxFrames < 0 {
		maxFrames = 0
	}
	for ch := range p.dry {
		p.dry[ch] = make([]float32, maxFrames)
	}
	p.spare = make([]float32, maxFrames)
	p.capacity = maxFrames
}

// Capacity returns the largest block the scratch buffers can hold.
func (p *Processor) Capacity() int {
	return p.capacity
}

// OutputGain returns the post-processing gain.
func (p *Processor) OutputGain() gain.Compensation {
	return p.gain
}

// Process runs one callback on b in place.
//
// The block is left untouched when the engine is not ready, when it has no
// frames or channels, when a channel is shorter than Frames, or when Frames
// exceeds the configured capacity. A mono block comes back as a stereo
// block; its second channel is either the spare slot of b.Channels (when the
// host provided one) or processor-owned memory valid until the next call.
func (p *Processor) Process(b *Block) {
	if b == nil || !p.transform.Ready() {
		return
	}
	n := b.Frames
	if n <= 0 || len(b.Channels) == 0 || n > p.capacity || !b.valid() {
		return
	}

	if len(b.Channels) == 1 {
		p.repairMono(b)
	}
	left, right := b.Channels[0][:n], b.Channels[1][:n]

	copy(p.dry[0][:n], left)
	copy(p.dry[1][:n], right)

	p.in[0], p.in[1] = p.dry[0][:n], p.dry[1][:n]
	p.out[0], p.out[1] = left, right

	p.transform.Process(n, &p.in, &p.out)

	p.gain.Apply(b.Channels[:Width], n)
}

// repairMono duplicates channel 0 into a second channel.
func (p *Processor) repairMono(b *Block) {
	n := b.Frames
	mono := b.Channels[0]

	if cap(b.Channels) >= Width {
		if spare := b.Channels[:Width][1]; len(spare) >= n {
			copy(spare[:n], mono[:n])
			b.Channels = b.Channels[:Width]
			return
		}
	}

	copy(p.spare[:n], mono[:n])
	p.stereo[0] = mono
	p.stereo[1] = p.spare
	b.Channels = p.stereo[:]
}
