package engine

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync/atomic"
)

var (
	// ErrInvalidConfiguration is returned for a sample rate below MinSampleRate
	// or a non-positive block size.
	ErrInvalidConfiguration = errors.New("engine: invalid configuration")
	// ErrClosed is returned by Configure after Close.
	ErrClosed = errors.New("engine: manager closed")
)

// State is the lifecycle state of the engine.
type State int32

const (
	// Uninitialized means the engine holds no resources; Process is a no-op.
	Uninitialized State = iota
	// Ready means the engine is initialized for a sample rate and block size.
	Ready
	// Released is terminal: the owner has been destroyed.
	Released
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Ready:
		return "ready"
	case Released:
		return "released"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// Manager drives an Engine through Uninitialized -> Ready -> Uninitialized.
//
// Configure, Release and Close run in the control context and are
// serialized against Process by the host. ApplyParameter may run in either
// context.
type Manager struct {
	engine    Engine
	params    Params
	logger    *slog.Logger
	crossover float64

	state        atomic.Int32
	sampleRate   float64
	maxBlockSize int
}

// NewManager creates a manager for e that reads current values from params.
func NewManager(e Engine, params Params, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		engine:    e,
		params:    params,
		logger:    logger,
		crossover: DefaultCrossover,
	}
}

// SetCrossover overrides the crossover frequency pushed on Configure.
func (m *Manager) SetCrossover(hz float64) {
	m.crossover = hz
}

// State returns the current lifecycle state
func (m *Manager) State() State {
	return State(m.state.Load())
}

// Ready reports whether Process will run the engine.
func (m *Manager) Ready() bool {
	return m.State() == Ready
}

// SampleRate returns the configured sample rate, or 0 when not Ready.
func (m *Manager) SampleRate() float64 {
	if !m.Ready() {
		return 0
	}
	return m.sampleRate
}

// MaxBlockSize returns the configured maximum block size, or 0 when not Ready.
func (m *Manager) MaxBlockSize() int {
	if !m.Ready() {
		return 0
	}
	return m.maxBlockSize
}

// Configure (re)initializes the engine for sampleRate and maxBlockSize.
// A Ready engine is torn down first. The full parameter set and the
// crossover are pushed before the engine is prepared.
func (m *Manager) Configure(sampleRate float64, maxBlockSize int) error {
	if m.State() == Released {
		return ErrClosed
	}
	if !(sampleRate >= MinSampleRate) || math.IsInf(sampleRate, 0) || maxBlockSize <= 0 {
		return fmt.Errorf("%w: sample rate %g, block size %d", ErrInvalidConfiguration, sampleRate, maxBlockSize)
	}

	m.teardown()

	m.engine.Init(sampleRate, false)
	m.sampleRate = sampleRate
	m.maxBlockSize = maxBlockSize

	for _, id := range ParamIDs {
		m.forward(id, m.params.Get(id))
	}
	m.engine.SetXover(m.crossover)
	m.engine.Prepare(maxBlockSize)

	m.state.Store(int32(Ready))
	m.logger.Info("engine configured",
		"sampleRate", sampleRate,
		"maxBlockSize", maxBlockSize,
		"crossover", m.crossover,
	)
	return nil
}

// ApplyParameter forwards a changed value to the engine when Ready. When not
// Ready the value is picked up by the next Configure. It panics on an id the
// engine does not know.
func (m *Manager) ApplyParameter(id string, value float64) {
	if !known(id) {
		panic(fmt.Sprintf("engine: unknown parameter %q", id))
	}
	if !m.Ready() {
		return
	}
	m.forward(id, value)
}

func known(id string) bool {
	for _, k := range ParamIDs {
		if k == id {
			return true
		}
	}
	return false
}

func (m *Manager) forward(id string, value float64) {
	switch id {
	case ParamDelay:
		m.engine.SetDelay(value)
	case ParamRTMid:
		m.engine.SetRTMid(value)
	case ParamRTLow:
		m.engine.SetRTLow(value)
	case ParamDamp:
		m.engine.SetFdamp(value)
	case ParamMix:
		m.engine.SetOpmix(value)
	}
}

// Process re-primes the engine for frames and runs the transform. It is a
// silent no-op unless the engine is Ready.
func (m *Manager) Process(frames int, in, out *Channels) {
	if !m.Ready() || frames <= 0 {
		return
	}
	// Coefficients and gain ramps depend on the block size, so prepare runs
	// on every call, not only when the size changes.
	m.engine.Prepare(frames)
	m.engine.Process(frames, in, out)
}

// Release tears the engine down and returns to Uninitialized. It is idempotent.
func (m *Manager) Release() {
	if m.teardown() {
		m.logger.Info("engine released")
	}
}

// Close releases the engine and marks the manager Released. Later calls to
// Configure fail with ErrClosed.
func (m *Manager) Close() {
	m.teardown()
	m.state.Store(int32(Released))
}

func (m *Manager) teardown() bool {
	if m.State() != Ready {
		return false
	}
	m.state.Store(int32(Uninitialized))
	m.engine.Fini()
	return true
}
