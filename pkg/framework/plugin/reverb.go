// Package plugin composes the parameter table, the engine lifecycle and the
// block processor into a host-facing reverb instance.
package plugin

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"

	"github.com/google/uuid"
	"github.com/justyntemme/zitarev/pkg/dsp/gain"
	"github.com/justyntemme/zitarev/pkg/framework/engine"
	"github.com/justyntemme/zitarev/pkg/framework/param"
	"github.com/justyntemme/zitarev/pkg/framework/process"
	"github.com/justyntemme/zitarev/pkg/framework/state"
)

// ErrInvalidOptions is returned by New for a non-positive output gain or crossover.
var ErrInvalidOptions = errors.New("plugin: invalid options")

// Options holds the calibration of an instance.
type Options struct {
	// OutputGain is applied after the engine. Default +6 dB.
	OutputGain gain.Compensation
	// Crossover between the low and mid decay bands in Hz.
	Crossover float64
	// Logger receives control-context events. Defaults to slog.Default().
	Logger *slog.Logger
}

// DefaultOptions returns the calibration used by the reference plugin.
func DefaultOptions() Options {
	return Options{
		OutputGain: process.DefaultOutputGain,
		Crossover:  engine.DefaultCrossover,
	}
}

// Reverb is one plugin instance.
//
// Prepare, ReleaseResources, Close, SaveState and LoadState run in the
// control context. ProcessBlock runs in the audio context and never
// allocates, blocks or logs. SetParameter may be called from either.
type Reverb struct {
	info   Info
	id     uuid.UUID
	logger *slog.Logger

	params    *param.Store
	lifecycle *engine.Manager
	processor *process.Processor
	state     *state.Manager
}

// New creates an instance driving e.
func New(e engine.Engine, opts Options) (*Reverb, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if !(opts.OutputGain > 0) || math.IsInf(float64(opts.OutputGain), 0) {
		return nil, fmt.Errorf("%w: output gain %v", ErrInvalidOptions, opts.OutputGain)
	}
	if !(opts.Crossover > 0) || math.IsInf(opts.Crossover, 0) {
		return nil, fmt.Errorf("%w: crossover %v", ErrInvalidOptions, opts.Crossover)
	}

	id := uuid.New()
	r := &Reverb{
		info:   DefaultInfo(),
		id:     id,
		logger: logger.With("instance", id.String()),
		params: param.NewStore(),
	}

	if err := r.params.Add(Layout()...); err != nil {
		return nil, fmt.Errorf("plugin: declare parameters: %w", err)
	}

	r.lifecycle = engine.NewManager(e, r.params, r.logger)
	r.lifecycle.SetCrossover(opts.Crossover)
	r.params.AddListener(r.lifecycle.ApplyParameter)

	r.processor = process.NewProcessor(r.lifecycle, opts.OutputGain)
	r.state = state.NewManager(r.params)

	r.logger.Debug("plugin created",
		"name", r.info.Name,
		"outputGainDb", opts.OutputGain.Db(),
		"crossover", opts.Crossover,
	)
	return r, nil
}

// Info returns the plugin metadata.
func (r *Reverb) Info() Info {
	return r.info
}

// ID returns the instance id used in log lines.
func (r *Reverb) ID() uuid.UUID {
	return r.id
}

// Parameters returns the parameter table.
func (r *Reverb) Parameters() *param.Store {
	return r.params
}

// State returns the engine lifecycle state.
func (r *Reverb) State() engine.State {
	return r.lifecycle.State()
}

// SampleRate returns the configured rate, or 0 when not prepared.
func (r *Reverb) SampleRate() float64 {
	return r.lifecycle.SampleRate()
}

// SetParameter stores value for id and forwards it to a running engine.
// It panics on an unknown id.
func (r *Reverb) SetParameter(id string, value float64) {
	r.params.Set(id, value)
}

// Prepare configures the engine and sizes the processing buffers. A prepared
// instance is torn down and rebuilt.
func (r *Reverb) Prepare(sampleRate float64, maxBlockSize int) error {
	if err := r.lifecycle.Configure(sampleRate, maxBlockSize); err != nil {
		r.logger.Error("prepare failed", "error", err)
		return err
	}
	r.processor.Resize(maxBlockSize)
	return nil
}

// ReleaseResources returns the engine to the unprepared state.
func (r *Reverb) ReleaseResources() {
	r.lifecycle.Release()
}

// Close releases the engine for good.
func (r *Reverb) Close() {
	r.lifecycle.Close()
	r.logger.Debug("plugin closed")
}

// ProcessBlock processes b in place.
func (r *Reverb) ProcessBlock(b *process.Block) {
	r.processor.Process(b)
}

// TailSamples returns the reverb tail at the configured rate.
func (r *Reverb) TailSamples() int {
	return r.info.TailSamples(r.lifecycle.SampleRate())
}

// SaveState writes the parameter values to w.
func (r *Reverb) SaveState(w io.Writer) error {
	if err := r.state.Save(w); err != nil {
		r.logger.Error("save state failed", "error", err)
		return err
	}
	r.logger.Debug("state saved", "params", r.params.Count())
	return nil
}

// LoadState restores parameter values written by SaveState. On error no
// value is changed.
func (r *Reverb) LoadState(rd io.Reader) error {
	if err := r.state.Load(rd); err != nil {
		r.logger.Warn("load state failed", "error", err)
		return err
	}
	r.logger.Info("state loaded")
	return nil
}
