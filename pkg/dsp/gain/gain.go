// Package gain provides amplitude and gain-related DSP operations.
package gain

import (
	"math"
)

// MinDB is the floor returned for silent or negative amplitudes.
const MinDB = -200.0

// LinearToDb converts a linear amplitude value to decibels.
// Returns MinDB for values <= 0.
func LinearToDb(linear float64) float64 {
	if linear <= 0 {
		return MinDB
	}
	return 20.0 * math.Log10(linear)
}

// DbToLinear converts a decibel value to linear amplitude.
// Values <= MinDB return 0.
func DbToLinear(db float64) float64 {
	if db <= MinDB {
		return 0
	}
	return math.Pow(10.0, db/20.0)
}

// ApplyBuffer multiplies buffer by gain in place.
func ApplyBuffer(buffer []float32, gain float32) {
	if gain == 1 {
		return
	}
	for i := range buffer {
		buffer[i] *= gain
	}
}

// Compensation is a fixed output gain correction expressed linearly.
type Compensation float32

// CompensationDb returns the Compensation for a gain in dB.
func CompensationDb(db float64) Compensation {
	return Compensation(DbToLinear(db))
}

// Db returns the correction in decibels.
func (c Compensation) Db() float64 {
	return LinearToDb(float64(c))
}

// Apply scales every channel in place over the first frames samples.
func (c Compensation) Apply(channels [][]float32, frames int) {
	for _, ch := range channels {
		ApplyBuffer(ch[:frames], float32(c))
	}
}
