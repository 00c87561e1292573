// Package param provides the lock-free parameter table shared between the
// control context and the audio context.
package param

import (
	"fmt"
	"math"
	"strconv"
	"sync/atomic"
)

// Parameter is a named continuous value with a fixed plain range.
// The current value is always inside [Min, Max].
type Parameter struct {
	ID           string
	Name         string
	Unit         string
	Min          float64
	Max          float64
	DefaultValue float64

	// Interval is the display step of a control surface. It is metadata only,
	// stored values are not quantized.
	Interval float64
	// Skew shapes the normalized mapping used by control surfaces (1 = linear).
	Skew float64

	// Atomic value for lock-free access in audio thread
	value atomic.Uint64

	// Value formatting
	formatFunc func(float64) string
	parseFunc  func(string) (float64, error)
}

// Value returns the current plain value.
func (p *Parameter) Value() float64 {
	return math.Float64frombits(p.value.Load())
}

// Clamp limits a plain value to the parameter range. NaN maps to the default.
func (p *Parameter) Clamp(v float64) float64 {
	switch {
	case math.IsNaN(v):
		return p.DefaultValue
	case v < p.Min:
		return p.Min
	case v > p.Max:
		return p.Max
	}
	return v
}

// store clamps and publishes v, returning the stored value.
func (p *Parameter) store(v float64) float64 {
	v = p.Clamp(v)
	p.value.Store(math.Float64bits(v))
	return v
}

// Normalize converts a plain value to the 0-1 range of a control surface,
// honoring the skew factor.
func (p *Parameter) Normalize(plain float64) float64 {
	if p.Max <= p.Min {
		return 0
	}
	proportion := (p.Clamp(plain) - p.Min) / (p.Max - p.Min)
	if p.Skew > 0 && p.Skew != 1 && proportion > 0 {
		proportion = math.Pow(proportion, p.Skew)
	}
	return proportion
}

// Denormalize converts a 0-1 control position back to a plain value.
func (p *Parameter) Denormalize(normalized float64) float64 {
	if normalized < 0 {
		normalized = 0
	} else if normalized > 1 {
		normalized = 1
	}
	if p.Skew > 0 && p.Skew != 1 && normalized > 0 {
		normalized = math.Exp(math.Log(normalized) / p.Skew)
	}
	return p.Min + normalized*(p.Max-p.Min)
}

// SetFormatter sets custom value formatting
func (p *Parameter) SetFormatter(format func(float64) string, parse func(string) (float64, error)) {
	p.formatFunc = format
	p.parseFunc = parse
}

// FormatValue renders a plain value for display.
func (p *Parameter) FormatValue(plain float64) string {
	if p.formatFunc != nil {
		return p.formatFunc(plain)
	}
	if p.Unit != "" {
		return fmt.Sprintf("%.2f %s", plain, p.Unit)
	}
	return fmt.Sprintf("%.2f", plain)
}

// ParseValue parses display text into a clamped plain value.
func (p *Parameter) ParseValue(str string) (float64, error) {
	var (
		plain float64
		err   error
	)
	if p.parseFunc != nil {
		plain, err = p.parseFunc(str)
	} else {
		plain, err = strconv.ParseFloat(str, 64)
	}
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", p.ID, err)
	}
	return p.Clamp(plain), nil
}
