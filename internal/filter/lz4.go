package filter

import (
	"encoding/binary"
	"fmt"

	"github.com/pierrec/lz4/v4"
)

// lz4HeaderSize is the length of the block header:
// [UncompressedSize uint32][CompressedSize uint32][Data...]
// A CompressedSize of 0 marks a block stored uncompressed.
const lz4HeaderSize = 8

// LZ4 implements LZ4 block compression.
type LZ4 struct{}

// NewLZ4 creates a new LZ4 filter.
func NewLZ4(clientData []uint32) *LZ4 {
	return &LZ4{}
}

func (f *LZ4) ID() uint16 {
	return IDLZ4
}

func (f *LZ4) Name() string {
	return "lz4"
}

func (f *LZ4) Encode(input []byte) ([]byte, error) {
	compressed := make([]byte, lz4.CompressBlockBound(len(input)))
	n, err := lz4.CompressBlock(input, compressed, nil)
	if err != nil {
		return nil, fmt.Errorf("lz4 compress: %w", err)
	}

	// n == 0 means incompressible; store the block raw.
	if n == 0 || n >= len(input) {
		result := make([]byte, lz4HeaderSize+len(input))
		binary.LittleEndian.PutUint32(result[0:], uint32(len(input)))
		binary.LittleEndian.PutUint32(result[4:], 0)
		copy(result[lz4HeaderSize:], input)
		return result, nil
	}

	result := make([]byte, lz4HeaderSize+n)
	binary.LittleEndian.PutUint32(result[0:], uint32(len(input)))
	binary.LittleEndian.PutUint32(result[4:], uint32(n))
	copy(result[lz4HeaderSize:], compressed[:n])
	return result, nil
}

func (f *LZ4) Decode(input []byte) ([]byte, error) {
	if len(input) < lz4HeaderSize {
		return nil, fmt.Errorf("lz4: block too small for header")
	}

	uncompressedSize := binary.LittleEndian.Uint32(input[0:])
	compressedSize := binary.LittleEndian.Uint32(input[4:])

	if compressedSize == 0 {
		if uint32(len(input)) < lz4HeaderSize+uncompressedSize {
			return nil, fmt.Errorf("lz4: raw block truncated")
		}
		return input[lz4HeaderSize : lz4HeaderSize+uncompressedSize], nil
	}

	if uint32(len(input)) < lz4HeaderSize+compressedSize {
		return nil, fmt.Errorf("lz4: compressed block truncated")
	}

	output := make([]byte, uncompressedSize)
	n, err := lz4.UncompressBlock(input[lz4HeaderSize:lz4HeaderSize+compressedSize], output)
	if err != nil {
		return nil, fmt.Errorf("lz4 decompress: %w", err)
	}
	if uint32(n) != uncompressedSize {
		return nil, fmt.Errorf("lz4: decompressed size mismatch (got %d, want %d)", n, uncompressedSize)
	}
	return output, nil
}
