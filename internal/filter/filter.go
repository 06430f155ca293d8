package filter

import "fmt"

// Filter identifiers. The first six are the standard HDF5 filter IDs;
// LZ4 and Zstd carry the IDs assigned to them in the HDF5 plugin
// registry so files stay recognizable to other tools.
const (
	IDDeflate     uint16 = 1
	IDShuffle     uint16 = 2
	IDFletcher32  uint16 = 3
	IDSZIP        uint16 = 4
	IDNBit        uint16 = 5
	IDScaleOffset uint16 = 6
	IDLZ4         uint16 = 32004
	IDZstd        uint16 = 32015
)

// Filter is the interface implemented by all chunk filters.
type Filter interface {
	// ID returns the filter identifier.
	ID() uint16

	// Name returns a short human-readable filter name.
	Name() string

	// Encode transforms raw data to its stored form.
	Encode(input []byte) ([]byte, error)

	// Decode transforms stored data back to its raw form.
	Decode(input []byte) ([]byte, error)
}

// Info describes a configured filter as recorded in dataset metadata.
type Info struct {
	ID         uint16   `msgpack:"id"`
	ClientData []uint32 `msgpack:"cd,omitempty"`
}

// Registry maps filter IDs to filter constructors.
var Registry = map[uint16]func([]uint32) Filter{
	IDDeflate:    func(cd []uint32) Filter { return NewDeflate(cd) },
	IDShuffle:    func(cd []uint32) Filter { return NewShuffle(cd) },
	IDFletcher32: func(cd []uint32) Filter { return NewFletcher32(cd) },
	IDLZ4:        func(cd []uint32) Filter { return NewLZ4(cd) },
	IDZstd:       func(cd []uint32) Filter { return NewZstd(cd) },
}

// filterNames maps known filter IDs to their names for better error messages.
var filterNames = map[uint16]string{
	IDDeflate:     "deflate/gzip",
	IDShuffle:     "shuffle",
	IDFletcher32:  "Fletcher32",
	IDSZIP:        "SZIP",
	IDNBit:        "N-bit",
	IDScaleOffset: "scale-offset",
	IDLZ4:         "LZ4",
	IDZstd:        "Zstandard",
}

// New creates a filter from an Info.
func New(info Info) (Filter, error) {
	constructor, ok := Registry[info.ID]
	if !ok {
		// Provide helpful error message for known filters
		if name, known := filterNames[info.ID]; known {
			return nil, fmt.Errorf("%s filter (ID %d) is not supported", name, info.ID)
		}
		return nil, fmt.Errorf("unsupported filter ID: %d", info.ID)
	}
	return constructor(info.ClientData), nil
}
