package convert

import (
	"errors"
	"fmt"
)

var (
	// ErrShape is matched by every dimension and rank mismatch error.
	ErrShape = errors.New("shape mismatch")

	// ErrUnsupported reports a container or element type with no
	// conversion strategy.
	ErrUnsupported = errors.New("unsupported container type")
)

// DimensionError reports a per-axis length mismatch between a
// container and the selection it is mapped onto.
type DimensionError struct {
	Axis int
	Got  uint64 // container length at Axis
	Want uint64 // selection extent at Axis
}

func (e *DimensionError) Error() string {
	return fmt.Sprintf("mismatch between container length (%d) and selection extent (%d) on axis %d",
		e.Got, e.Want, e.Axis)
}

func (e *DimensionError) Is(target error) bool { return target == ErrShape }

// RankError reports a container whose structural rank differs from the
// rank of the selection it is mapped onto.
type RankError struct {
	ContainerRank int
	SpaceRank     int
}

func (e *RankError) Error() string {
	return fmt.Sprintf("cannot map a rank-%d container onto a rank-%d dataspace",
		e.ContainerRank, e.SpaceRank)
}

func (e *RankError) Is(target error) bool { return target == ErrShape }
