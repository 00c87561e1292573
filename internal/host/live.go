package host

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gordonklaus/portaudio"
	"github.com/justyntemme/zitarev/pkg/framework/debug"
	"github.com/justyntemme/zitarev/pkg/framework/process"
)

// LiveOptions controls a live duplex session.
type LiveOptions struct {
	SampleRate float64
	BlockSize  int
	// Duration stops the session after the given time. Zero runs until ctx is done.
	Duration time.Duration
	Logger   *slog.Logger
}

// newCallback returns the portaudio stream callback. It copies the input to
// the output buffers and processes them in place.
func newCallback(p Processor, profiler *debug.BlockProfiler) func(in, out [][]float32) {
	block := &process.Block{}
	return func(in, out [][]float32) {
		if len(out) == 0 {
			return
		}
		n := len(out[0])
		start := time.Now()

		for ch := range out {
			if ch < len(in) {
				copy(out[ch], in[ch])
			} else {
				clear(out[ch])
			}
		}
		block.Channels = out
		block.Frames = n
		p.ProcessBlock(block)

		profiler.Record(n, time.Since(start))
	}
}

// Live opens the default stereo duplex device and processes it until ctx is
// done or the duration elapses.
func Live(ctx context.Context, p Processor, opts LiveOptions) (err error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if p.SampleRate() != opts.SampleRate {
		return fmt.Errorf("%w: device %g Hz, processor %g Hz", ErrNotPrepared, opts.SampleRate, p.SampleRate())
	}

	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("host: portaudio init: %w", err)
	}
	defer portaudio.Terminate()

	profiler := debug.NewBlockProfiler(opts.SampleRate)
	stream, err := portaudio.OpenDefaultStream(
		process.Width,
		process.Width,
		opts.SampleRate,
		opts.BlockSize,
		newCallback(p, profiler),
	)
	if err != nil {
		return fmt.Errorf("host: open stream: %w", err)
	}
	defer func() {
		err = errors.Join(err, stream.Close())
	}()

	if err := stream.Start(); err != nil {
		return fmt.Errorf("host: start stream: %w", err)
	}
	logger.Info("live stream started",
		"sampleRate", opts.SampleRate,
		"blockSize", opts.BlockSize,
		"duration", opts.Duration,
	)

	if opts.Duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Duration)
		defer cancel()
	}
	<-ctx.Done()

	if err := stream.Stop(); err != nil {
		return fmt.Errorf("host: stop stream: %w", err)
	}

	stats := profiler.Stats()
	logger.Info("live stream stopped",
		"blocks", stats.Blocks,
		"average", stats.Average(),
		"max", stats.Max,
		"overruns", stats.Overruns,
		"load", stats.Load,
	)
	return nil
}
