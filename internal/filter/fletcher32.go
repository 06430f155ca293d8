package filter

import (
	"encoding/binary"
	"fmt"
)

// Fletcher32 implements the Fletcher-32 checksum filter.
// Encoding appends a 4-byte checksum; decoding verifies and strips it.
type Fletcher32 struct{}

// NewFletcher32 creates a new Fletcher-32 filter.
func NewFletcher32(clientData []uint32) *Fletcher32 {
	return &Fletcher32{}
}

func (f *Fletcher32) ID() uint16 {
	return IDFletcher32
}

func (f *Fletcher32) Name() string {
	return "fletcher32"
}

// Encode appends the Fletcher-32 checksum of the data (little-endian).
func (f *Fletcher32) Encode(input []byte) ([]byte, error) {
	output := make([]byte, len(input)+4)
	copy(output, input)
	binary.LittleEndian.PutUint32(output[len(input):], fletcher32Sum(input))
	return output, nil
}

// Decode verifies the Fletcher-32 checksum and returns the data without it.
// The checksum is stored as the last 4 bytes of the input.
func (f *Fletcher32) Decode(input []byte) ([]byte, error) {
	if len(input) < 4 {
		return nil, fmt.Errorf("fletcher32: input too short for checksum")
	}

	data := input[:len(input)-4]
	stored := binary.LittleEndian.Uint32(input[len(input)-4:])

	if computed := fletcher32Sum(data); computed != stored {
		return nil, fmt.Errorf("fletcher32: checksum mismatch (stored=0x%08x, computed=0x%08x)",
			stored, computed)
	}

	return data, nil
}

// fletcher32Sum computes the Fletcher-32 checksum over 16-bit words,
// padding an odd trailing byte with zero.
func fletcher32Sum(data []byte) uint32 {
	var sum1, sum2 uint32

	length := len(data)
	i := 0
	for ; i+1 < length; i += 2 {
		word := uint32(data[i]) | uint32(data[i+1])<<8
		sum1 = (sum1 + word) % 65535
		sum2 = (sum2 + sum1) % 65535
	}

	if i < length {
		sum1 = (sum1 + uint32(data[i])) % 65535
		sum2 = (sum2 + sum1) % 65535
	}

	return (sum2 << 16) | sum1
}
