// Package state persists the parameter table as a flat id -> value mapping.
package state

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
)

var (
	// ErrInvalidFormat is returned for data without the expected header or framing.
	ErrInvalidFormat = errors.New("state: invalid format")
	// ErrNewerVersion is returned for data written by a newer format version.
	ErrNewerVersion = errors.New("state: unsupported version")
)

const (
	magic = "ZREV"
	// Version of the binary layout written by Save.
	Version uint32 = 1

	maxIDLength = 255
	maxRecords  = 1 << 16
)

// Snapshotter is the parameter table as seen by the state manager.
type Snapshotter interface {
	Snapshot() map[string]float64
	Restore(map[string]float64)
}

// Manager handles plugin state saving and loading
type Manager struct {
	version uint32
	params  Snapshotter
}

// NewManager creates a new state manager
func NewManager(params Snapshotter) *Manager {
	return &Manager{
		version: Version,
		params:  params,
	}
}

// Save writes the current parameter snapshot to w.
//
// Layout (little endian): magic, version u32, count u32, then per record
// id length u8, id bytes, value as IEEE-754 bits u64. Records are sorted by
// id so equal states produce equal bytes.
func (m *Manager) Save(w io.Writer) error {
	return Encode(w, m.params.Snapshot())
}

// Load reads a state written by Save and restores it through the parameter
// table. Nothing is applied unless the whole stream decodes.
func (m *Manager) Load(r io.Reader) error {
	snap, err := Decode(r, m.version)
	if err != nil {
		return err
	}
	m.params.Restore(snap)
	return nil
}

// Encode writes snap in the binary state layout.
func Encode(w io.Writer, snap map[string]float64) error {
	ids := make([]string, 0, len(snap))
	for id := range snap {
		if len(id) == 0 || len(id) > maxIDLength {
			return fmt.Errorf("state: parameter id %q: length out of range", id)
		}
		ids = append(ids, id)
	}
	sort.Strings(ids)

	if _, err := io.WriteString(w, magic); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, Version); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(len(ids))); err != nil {
		return err
	}

	for _, id := range ids {
		if err := binary.Write(w, binary.LittleEndian, uint8(len(id))); err != nil {
			return err
		}
		if _, err := io.WriteString(w, id); err != nil {
			return err
		}
		if err := binary.Write(w, binary.LittleEndian, math.Float64bits(snap[id])); err != nil {
			return err
		}
	}
	return nil
}

// Decode reads a mapping written by Encode, rejecting versions above maxVersion.
func Decode(r io.Reader, maxVersion uint32) (map[string]float64, error) {
	header := make([]byte, len(magic))
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, fmt.Errorf("%w: header: %v", ErrInvalidFormat, err)
	}
	if string(header) != magic {
		return nil, fmt.Errorf("%w: bad magic %q", ErrInvalidFormat, header)
	}

	var version uint32
	if err := binary.Read(r, binary.LittleEndian, &version); err != nil {
		return nil, fmt.Errorf("%w: version: %v", ErrInvalidFormat, err)
	}
	if version > maxVersion {
		return nil, fmt.Errorf("%w: state version %d is newer than supported version %d", ErrNewerVersion, version, maxVersion)
	}

	var count uint32
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return nil, fmt.Errorf("%w: count: %v", ErrInvalidFormat, err)
	}
	if count > maxRecords {
		return nil, fmt.Errorf("%w: %d records", ErrInvalidFormat, count)
	}

	snap := make(map[string]float64, count)
	for i := uint32(0); i < count; i++ {
		var n uint8
		if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
			return nil, fmt.Errorf("%w: record %d: %v", ErrInvalidFormat, i, err)
		}
		id := make([]byte, n)
		if _, err := io.ReadFull(r, id); err != nil {
			return nil, fmt.Errorf("%w: record %d id: %v", ErrInvalidFormat, i, err)
		}
		var bits uint64
		if err := binary.Read(r, binary.LittleEndian, &bits); err != nil {
			return nil, fmt.Errorf("%w: record %d value: %v", ErrInvalidFormat, i, err)
		}
		snap[string(id)] = math.Float64frombits(bits)
	}
	return snap, nil
}
