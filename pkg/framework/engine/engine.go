// Package engine owns the lifecycle of the reverb engine: configuration on
// sample-rate or block-size changes, parameter forwarding, and per-block
// staging before the transform runs.
package engine

// MaxChannels is the fixed width of the engine's channel-pointer arrays.
const MaxChannels = 4

// Channels is a fixed-size channel array. Unused slots are nil.
type Channels [MaxChannels][]float32

// Parameter identifiers understood by the engine binding.
const (
	ParamDelay = "delay"
	ParamRTMid = "rtmid"
	ParamRTLow = "rtlow"
	ParamDamp  = "damp"
	ParamMix   = "mix"
)

// ParamIDs lists every identifier in the order the engine expects them to
// be pushed on configure.
var ParamIDs = [...]string{ParamDelay, ParamRTMid, ParamRTLow, ParamDamp, ParamMix}

// DefaultCrossover is the fixed frequency in Hz between the rtlow and rtmid
// decay bands.
const DefaultCrossover = 200.0

// MinSampleRate is the lowest rate at which every delay line of the engine
// is at least one sample long.
const MinSampleRate = 8000.0

// Engine is the capability surface of the reverb kernel.
//
// Init and Fini run in the control context and may allocate. Prepare and
// Process run in the audio context and must not. Process must never be
// handed the same memory for input and output.
type Engine interface {
	Init(sampleRate float64, ambisonic bool)
	Prepare(blockSize int)
	Process(frames int, in, out *Channels)
	Fini()

	SetDelay(seconds float64)
	SetRTMid(seconds float64)
	SetRTLow(seconds float64)
	SetFdamp(hz float64)
	SetOpmix(mix float64)
	SetXover(hz float64)
}

// Params is the read side of the parameter table.
type Params interface {
	Get(id string) float64
}
