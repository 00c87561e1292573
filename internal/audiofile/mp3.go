package audiofile

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/hajimehoshi/go-mp3"
)

// DecodeMP3 reads an MP3 stream. The decoder always yields 16-bit stereo.
func DecodeMP3(r io.Reader) (*Clip, error) {
	decoder, err := mp3.NewDecoder(r)
	if err != nil {
		return nil, fmt.Errorf("%w: MP3: %v", ErrUnsupported, err)
	}

	data, err := io.ReadAll(decoder)
	if err != nil {
		return nil, fmt.Errorf("audiofile: decode MP3: %w", err)
	}

	const bytesPerFrame = 4
	frames := len(data) / bytesPerFrame
	clip := NewClip(decoder.SampleRate(), 2, frames)
	for i := 0; i < frames; i++ {
		frame := data[i*bytesPerFrame:]
		left := int16(binary.LittleEndian.Uint16(frame[0:2]))
		right := int16(binary.LittleEndian.Uint16(frame[2:4]))
		clip.Channels[0][i] = float32(left) / -math.MinInt16
		clip.Channels[1][i] = float32(right) / -math.MinInt16
	}
	return clip, nil
}
