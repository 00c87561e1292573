package audiofile

import (
	"fmt"
	"io"
	"math"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const wavFormatPCM = 1

// DecodeWAV reads an integer PCM WAV stream.
func DecodeWAV(r io.ReadSeeker) (*Clip, error) {
	decoder := wav.NewDecoder(r)
	if !decoder.IsValidFile() {
		return nil, fmt.Errorf("%w: not a valid WAV file: %v", ErrUnsupported, decoder.Err())
	}
	if decoder.WavAudioFormat != wavFormatPCM {
		return nil, fmt.Errorf("%w: WAV encoding %d", ErrUnsupported, decoder.WavAudioFormat)
	}

	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("audiofile: decode WAV: %w", err)
	}

	numChans := int(decoder.NumChans)
	if numChans <= 0 {
		return nil, fmt.Errorf("%w: %d channels", ErrUnsupported, numChans)
	}
	bitDepth := int(decoder.BitDepth)

	clip := NewClip(int(decoder.SampleRate), numChans, len(buf.Data)/numChans)
	for i, v := range buf.Data[:clip.Frames()*numChans] {
		clip.Channels[i%numChans][i/numChans] = intToFloat(v, bitDepth)
	}
	return clip, nil
}

// EncodeWAV writes c as interleaved integer PCM of bitDepth bits.
// Samples outside [-1, 1] are clipped.
func EncodeWAV(w io.WriteSeeker, c *Clip, bitDepth int) error {
	if bitDepth != 16 && bitDepth != 24 && bitDepth != 32 {
		return fmt.Errorf("%w: bit depth %d", ErrUnsupported, bitDepth)
	}
	numChans := len(c.Channels)
	if numChans == 0 {
		return fmt.Errorf("%w: no channels", ErrUnsupported)
	}

	encoder := wav.NewEncoder(w, c.SampleRate, bitDepth, numChans, wavFormatPCM)

	frames := c.Frames()
	buf := &goaudio.IntBuffer{
		Format: &goaudio.Format{
			SampleRate:  c.SampleRate,
			NumChannels: numChans,
		},
		Data:           make([]int, frames*numChans),
		SourceBitDepth: bitDepth,
	}
	for i := 0; i < frames; i++ {
		for ch := 0; ch < numChans; ch++ {
			buf.Data[i*numChans+ch] = floatToInt(c.Channels[ch][i], bitDepth)
		}
	}

	if err := encoder.Write(buf); err != nil {
		return fmt.Errorf("audiofile: encode WAV: %w", err)
	}
	return encoder.Close()
}

func fullScale(bitDepth int) float64 {
	return float64(int64(1) << (bitDepth - 1))
}

func intToFloat(v, bitDepth int) float32 {
	if bitDepth == 8 {
		// 8-bit WAV is unsigned.
		return float32(v-128) / 128
	}
	return float32(float64(v) / fullScale(bitDepth))
}

func floatToInt(s float32, bitDepth int) int {
	f := float64(s)
	if math.IsNaN(f) {
		return 0
	}
	scale := fullScale(bitDepth)
	v := math.Round(f * scale)
	return int(math.Max(-scale, math.Min(scale-1, v)))
}
