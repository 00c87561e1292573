package debug

import (
	"fmt"
	"math"
)

// AudioAnalyzer accumulates level statistics over a stream of buffers.
type AudioAnalyzer struct {
	clippingThreshold float32
	silenceThreshold  float32

	peak       float32
	sum        float64
	sumSquares float64
	samples    int
	clipped    int
	nonFinite  int
}

// AnalysisResult contains the results of audio buffer analysis.
type AnalysisResult struct {
	Peak           float32
	PeakDb         float64
	RMS            float32
	DC             float32
	ClippedSamples int
	NaNCount       int
	Samples        int
	Silent         bool
}

// NewAudioAnalyzer creates a new audio analyzer with default settings.
func NewAudioAnalyzer() *AudioAnalyzer {
	return &AudioAnalyzer{
		clippingThreshold: 1.0,
		silenceThreshold:  0.0001,
	}
}

// Add folds buffer into the running statistics. NaN and Inf samples are
// counted and otherwise skipped.
func (a *AudioAnalyzer) Add(buffer []float32) {
	for _, sample := range buffer {
		f := float64(sample)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			a.nonFinite++
			continue
		}
		abs := float32(math.Abs(f))
		if abs > a.peak {
			a.peak = abs
		}
		if abs >= a.clippingThreshold {
			a.clipped++
		}
		a.sum += f
		a.sumSquares += f * f
		a.samples++
	}
}

// Result returns the statistics gathered so far.
func (a *AudioAnalyzer) Result() AnalysisResult {
	r := AnalysisResult{
		Peak:           a.peak,
		PeakDb:         -200,
		ClippedSamples: a.clipped,
		NaNCount:       a.nonFinite,
		Samples:        a.samples,
	}
	if a.peak > 0 {
		r.PeakDb = 20 * math.Log10(float64(a.peak))
	}
	if a.samples > 0 {
		r.RMS = float32(math.Sqrt(a.sumSquares / float64(a.samples)))
		r.DC = float32(a.sum / float64(a.samples))
	}
	r.Silent = r.RMS < a.silenceThreshold
	return r
}

// Analyze is a one-shot Add and Result on a fresh analyzer.
func Analyze(buffer []float32) AnalysisResult {
	a := NewAudioAnalyzer()
	a.Add(buffer)
	return a.Result()
}

// Issues lists problems worth reporting to the user.
func (r AnalysisResult) Issues() []string {
	var issues []string
	if r.NaNCount > 0 {
		issues = append(issues, fmt.Sprintf("%d non-finite samples", r.NaNCount))
	}
	if r.ClippedSamples > 0 {
		issues = append(issues, fmt.Sprintf("clipping detected (%d samples, peak %.3f)", r.ClippedSamples, r.Peak))
	}
	if math.Abs(float64(r.DC)) > 0.01 {
		issues = append(issues, fmt.Sprintf("DC offset %.3f", r.DC))
	}
	return issues
}
