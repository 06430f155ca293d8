// Package h5 stores N-dimensional numeric and string data in a
// hierarchical file of groups and datasets.
package h5

import (
	"errors"
	"fmt"

	"github.com/tpongo-afk/HighFive/internal/convert"
	"github.com/tpongo-afk/HighFive/internal/store"
)

// Common errors. The object-tree sentinels are shared with the storage
// engines so errors.Is matches across the boundary.
var (
	ErrNotFound     = store.ErrNotFound
	ErrExists       = store.ErrExists
	ErrNotDataset   = store.ErrNotDataset
	ErrNotGroup     = store.ErrNotGroup
	ErrReadOnly     = store.ErrReadOnly
	ErrClosed       = store.ErrClosed
	ErrInvalidPath  = errors.New("invalid path")
	ErrUnsupported  = errors.New("unsupported feature")
	ErrTransfer     = errors.New("transfer failed")
	ErrTypeMismatch = errors.New("element type mismatch")

	// ErrShapeMismatch is matched by every dimension and rank error.
	ErrShapeMismatch = convert.ErrShape

	// ErrUnsupportedType is returned for containers that cannot map
	// onto a dataset, such as bools, maps or slices mixing element
	// kinds across axes.
	ErrUnsupportedType = convert.ErrUnsupported
)

// DimensionError reports a per-axis length mismatch between a
// container and the selection it is mapped onto. It matches
// ErrShapeMismatch.
type DimensionError = convert.DimensionError

// RankError reports a container whose structural rank differs from the
// selection's rank. It matches ErrShapeMismatch.
type RankError = convert.RankError

// TransferError wraps an engine failure during a read or write. It
// matches ErrTransfer and unwraps to the engine's error.
type TransferError struct {
	Op  string
	Err error
}

func (e *TransferError) Error() string {
	return fmt.Sprintf("error during %s: %v", e.Op, e.Err)
}

func (e *TransferError) Unwrap() error { return e.Err }

func (e *TransferError) Is(target error) bool { return target == ErrTransfer }
