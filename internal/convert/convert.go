// Package convert maps Go containers onto the flat row-major transfer
// buffers the storage engines exchange.
//
// A container is classified once by type (Classify), then bound to one
// selection by New, which picks the strategy for its shape: scalars,
// flat slices, and fixed-size arrays lend their own storage to the
// engine without copying; nested slices go through a flat scratch
// slice; string slices exchange per-element byte views with the
// engine. All shape validation happens here, before the engine is
// ever called.
package convert

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/tpongo-afk/HighFive/internal/store"
)

// Converter binds one container to one selection for a single
// transfer.
//
// A write calls PrepareWrite and hands the buffer to the engine; the
// container must stay alive until the transfer returns. A read calls
// PrepareRead, lets the engine fill the buffer, then calls Finish to
// land the data in the container. Converters are single use and not
// safe for concurrent use.
type Converter interface {
	PrepareWrite() (*store.Buffer, error)
	PrepareRead() (*store.Buffer, error)
	Finish(buf *store.Buffer) error
}

// New selects the conversion strategy for a classified container. v is
// the container itself for writes and the addressable destination for
// reads; dims is the in-memory shape of the selection. Rank and
// fixed-array extents are validated here so that shape errors surface
// before any engine call.
func New(info Info, v reflect.Value, dims []uint64) (Converter, error) {
	if info.Rank != len(dims) {
		return nil, &RankError{ContainerRank: info.Rank, SpaceRank: len(dims)}
	}
	switch info.Class {
	case Scalar:
		return &scalarConverter{v: v, size: int(info.Elem.Size())}, nil
	case FlatPlain:
		return &flatConverter{v: v, extent: dims[0], size: int(info.Elem.Size())}, nil
	case FlatString:
		return &stringConverter{v: v, extent: dims[0]}, nil
	case Nested:
		return &nestedConverter{v: v, dims: dims, elem: info.Elem, size: int(info.Elem.Size())}, nil
	case FixedArray:
		return newFixedConverter(v, dims, int(info.Elem.Size()))
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, info.Class)
	}
}

var infoCache sync.Map // reflect.Type -> Info

// For classifies a container type, caching the result per type.
func For(t reflect.Type) (Info, error) {
	if cached, ok := infoCache.Load(t); ok {
		return cached.(Info), nil
	}
	info, err := Classify(t)
	if err != nil {
		return Info{}, err
	}
	infoCache.Store(t, info)
	return info, nil
}
