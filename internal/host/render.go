// Package host drives a reverb instance from files or a live audio device.
package host

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/justyntemme/zitarev/internal/audiofile"
	"github.com/justyntemme/zitarev/pkg/framework/debug"
	"github.com/justyntemme/zitarev/pkg/framework/process"
)

// ErrNotPrepared is returned when the processor's rate does not match the audio.
var ErrNotPrepared = errors.New("host: processor not prepared for this sample rate")

// Processor is the part of plugin.Reverb a host needs.
type Processor interface {
	ProcessBlock(b *process.Block)
	SampleRate() float64
}

// RenderOptions controls an offline render.
type RenderOptions struct {
	BlockSize int
	// Tail is silence appended after the input so the reverb can decay.
	Tail time.Duration
}

// RenderResult is the rendered audio plus what was measured on the way.
type RenderResult struct {
	Output   *audiofile.Clip
	Profile  debug.BlockStats
	Analysis debug.AnalysisResult
}

// Render runs clip through p block by block. p must already be prepared at
// clip.SampleRate with a maximum block size of at least opts.BlockSize.
// A mono clip comes back stereo.
func Render(ctx context.Context, p Processor, clip *audiofile.Clip, opts RenderOptions) (*RenderResult, error) {
	if opts.BlockSize <= 0 {
		return nil, fmt.Errorf("host: block size %d", opts.BlockSize)
	}
	if len(clip.Channels) == 0 {
		return nil, errors.New("host: clip has no channels")
	}
	if p.SampleRate() != float64(clip.SampleRate) {
		return nil, fmt.Errorf("%w: clip %d Hz, processor %g Hz", ErrNotPrepared, clip.SampleRate, p.SampleRate())
	}

	inChans := len(clip.Channels)
	outChans := max(inChans, process.Width)
	inFrames := clip.Frames()
	tail := int(opts.Tail.Seconds() * float64(clip.SampleRate))
	total := inFrames + tail

	out := audiofile.NewClip(clip.SampleRate, outChans, total)
	profiler := debug.NewBlockProfiler(float64(clip.SampleRate))
	analyzer := debug.NewAudioAnalyzer()

	// A mono block gets a spare slot for its second channel.
	scratch := make([][]float32, outChans)
	for ch := range scratch {
		scratch[ch] = make([]float32, opts.BlockSize)
	}
	block := &process.Block{}

	for pos := 0; pos < total; pos += opts.BlockSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		n := min(opts.BlockSize, total-pos)

		for ch := 0; ch < inChans; ch++ {
			buf := scratch[ch][:n]
			clear(buf)
			if pos < inFrames {
				copy(buf, clip.Channels[ch][pos:min(pos+n, inFrames)])
			}
		}
		block.Channels = scratch[:inChans]
		block.Frames = n

		start := time.Now()
		p.ProcessBlock(block)
		profiler.Record(n, time.Since(start))

		for ch, buf := range block.Channels {
			copy(out.Channels[ch][pos:pos+n], buf[:n])
			analyzer.Add(buf[:n])
		}
	}

	return &RenderResult{
		Output:   out,
		Profile:  profiler.Stats(),
		Analysis: analyzer.Result(),
	}, nil
}
