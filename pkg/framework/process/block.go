// Package process provides the real-time block callback body.
package process

// Block is one host callback's worth of planar audio.
// Every channel holds at least Frames samples.
type Block struct {
	Channels [][]float32
	Frames   int
}

// NewBlock allocates a block with the given shape. Hosts call it during
// setup, never from the audio callback.
func NewBlock(channels, frames int) *Block {
	b := &Block{
		Channels: make([][]float32, channels),
		Frames:   frames,
	}
	for ch := range b.Channels {
		b.Channels[ch] = make([]float32, frames)
	}
	return b
}

// NumChannels returns the number of channels
func (b *Block) NumChannels() int {
	return len(b.Channels)
}

// valid reports whether every channel covers Frames samples.
func (b *Block) valid() bool {
	for _, ch := range b.Channels {
		if len(ch) < b.Frames {
			return false
		}
	}
	return true
}
