package filter

import (
	"fmt"

	"github.com/klauspost/compress/zstd"
)

// Zstd implements the Zstandard compression filter.
type Zstd struct {
	enc *zstd.Encoder
	dec *zstd.Decoder
}

// NewZstd creates a new Zstandard filter.
// Client data: [0] = zstd compression level (1-22, or default if empty)
func NewZstd(clientData []uint32) *Zstd {
	level := 3
	if len(clientData) > 0 && clientData[0] > 0 {
		level = int(clientData[0])
	}
	enc, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(level)))
	dec, _ := zstd.NewReader(nil)
	return &Zstd{enc: enc, dec: dec}
}

func (f *Zstd) ID() uint16 {
	return IDZstd
}

func (f *Zstd) Name() string {
	return "zstd"
}

func (f *Zstd) Encode(input []byte) ([]byte, error) {
	return f.enc.EncodeAll(input, nil), nil
}

func (f *Zstd) Decode(input []byte) ([]byte, error) {
	output, err := f.dec.DecodeAll(input, nil)
	if err != nil {
		return nil, fmt.Errorf("zstd decompress: %w", err)
	}
	return output, nil
}
