package audiofile

import (
	"github.com/oov/audio/resampler"
)

// resampleQuality is the speex-style quality used by the resampler, 0..10.
const resampleQuality = 10

// Resample returns c converted to rate. The clip is returned unchanged when
// it is already at rate.
func (c *Clip) Resample(rate int) *Clip {
	if rate == c.SampleRate || rate <= 0 || c.SampleRate <= 0 {
		return c
	}

	in := c.Frames()
	want := int((int64(in)*int64(rate) + int64(c.SampleRate) - 1) / int64(c.SampleRate))
	// Zero padding pushes the filter delay line out.
	pad := 2 * c.SampleRate / 100

	out := NewClip(rate, len(c.Channels), want)
	r := resampler.New(len(c.Channels), c.SampleRate, rate, resampleQuality)

	for ch, src := range c.Channels {
		padded := make([]float32, in+pad)
		copy(padded, src)
		dst := make([]float32, want+2*rate/100+1)
		_, written := r.ProcessFloat32(ch, padded, dst)
		copy(out.Channels[ch], dst[:min(written, want)])
	}
	return out
}
