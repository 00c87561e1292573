// Package audiofile reads WAV and MP3 files into planar float32 clips and
// writes clips back out as PCM WAV.
package audiofile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrUnsupported is returned for file types and encodings the package cannot read.
var ErrUnsupported = errors.New("audiofile: unsupported format")

// Clip is decoded audio in planar layout.
type Clip struct {
	SampleRate int
	Channels   [][]float32
}

// NewClip allocates a silent clip.
func NewClip(sampleRate, channels, frames int) *Clip {
	c := &Clip{
		SampleRate: sampleRate,
		Channels:   make([][]float32, channels),
	}
	for ch := range c.Channels {
		c.Channels[ch] = make([]float32, frames)
	}
	return c
}

// Frames returns the length of the clip in samples per channel.
func (c *Clip) Frames() int {
	if len(c.Channels) == 0 {
		return 0
	}
	return len(c.Channels[0])
}

// Duration returns the clip length in seconds.
func (c *Clip) Duration() float64 {
	if c.SampleRate <= 0 {
		return 0
	}
	return float64(c.Frames()) / float64(c.SampleRate)
}

// Read decodes the file at path, choosing the decoder from its extension.
func Read(path string) (*Clip, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav", ".wave":
		return DecodeWAV(f)
	case ".mp3":
		return DecodeMP3(f)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, filepath.Ext(path))
	}
}

// Write encodes c to path as PCM WAV with the given bit depth.
func Write(path string, c *Clip, bitDepth int) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return EncodeWAV(f, c, bitDepth)
}
