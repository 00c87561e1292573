package plugin

import "github.com/google/uuid"

// Info contains plugin metadata
type Info struct {
	ID       string // Reverse-DNS identifier, e.g. "com.justyntemme.zitarev"
	Name     string // Display name
	Version  string // Semantic version
	Vendor   string
	Category string

	// TailSeconds is how long output continues after the input stops.
	TailSeconds float64
	MIDIInput   bool
	MIDIOutput  bool
	Programs    []string
}

// DefaultInfo describes the reverb plugin.
func DefaultInfo() Info {
	return Info{
		ID:          "com.justyntemme.zitarev",
		Name:        "ZitaRev1",
		Version:     "1.0.0",
		Vendor:      "zitarev",
		Category:    "Fx|Reverb",
		TailSeconds: 8,
		Programs:    []string{"Default"},
	}
}

// UID derives a stable 16-byte class id from the string ID.
func (i Info) UID() [16]byte {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(i.ID))
}

// TailSamples returns the tail length at sampleRate.
func (i Info) TailSamples(sampleRate float64) int {
	if sampleRate <= 0 {
		return 0
	}
	return int(i.TailSeconds * sampleRate)
}
