package h5

import (
	"errors"

	"github.com/tpongo-afk/HighFive/internal/store"
)

// ErrStopWalk stops a walk early when returned from a walk callback.
// The walk itself then returns nil.
var ErrStopWalk = errors.New("walk stopped")

// IsStopWalk reports whether err is ErrStopWalk.
func IsStopWalk(err error) bool { return errors.Is(err, ErrStopWalk) }

// WalkFunc is called once per object during traversal. path is the
// object's absolute path and obj is either *Group or *Dataset. When
// an object cannot be opened, obj is nil and err carries the reason.
// Return nil to continue, ErrStopWalk to stop early, or any other
// error to abort the walk with that error.
type WalkFunc func(path string, obj interface{}, err error) error

// Walk traverses every object under g in depth-first order, calling
// fn for each group and dataset, starting with g itself.
func Walk(g *Group, fn WalkFunc) error {
	if err := g.file.usable(); err != nil {
		return err
	}
	if err := walkGroup(g, fn); err != nil && !errors.Is(err, ErrStopWalk) {
		return err
	}
	return nil
}

// Walk traverses every object in the file starting from the root.
func (f *File) Walk(fn WalkFunc) error { return Walk(f.root, fn) }

func walkGroup(g *Group, fn WalkFunc) error {
	if err := fn(g.path, g, nil); err != nil {
		return err
	}
	entries, err := g.file.engine.List(g.path)
	if err != nil {
		return err
	}
	for _, e := range entries {
		childPath := store.JoinPath(g.path, e.Name)
		switch e.Kind {
		case store.KindGroup:
			child := &Group{file: g.file, path: childPath}
			if err := walkGroup(child, fn); err != nil {
				return err
			}
		case store.KindDataset:
			ds, err := newDatasetHandle(g.file, childPath)
			if err != nil {
				if ferr := fn(childPath, nil, err); ferr != nil {
					return ferr
				}
				continue
			}
			if err := fn(childPath, ds, nil); err != nil {
				return err
			}
		}
	}
	return nil
}

// AttrInfo describes one attribute encountered by WalkAttrs.
type AttrInfo struct {
	// Path is the full attribute path, such as "/group/dataset@attr".
	Path string

	// ObjectPath is the path of the object carrying the attribute.
	ObjectPath string

	// ObjectType is "group" or "dataset".
	ObjectType string

	// Name is the attribute's name.
	Name string

	// Attr gives access to the attribute for typed reading.
	Attr *Attribute

	// Value is the decoded value, nil when decoding failed.
	Value interface{}

	// Err is the decode error, if any.
	Err error
}

// WalkAttrsFunc is called once per attribute during WalkAttrs.
// Return nil to continue, ErrStopWalk to stop early, or any other
// error to abort the walk with that error.
type WalkAttrsFunc func(info AttrInfo) error

// WalkAttrs traverses every attribute in the file, visiting objects
// in the same depth-first order as Walk. Objects that cannot be
// opened are skipped.
func (f *File) WalkAttrs(fn WalkAttrsFunc) error {
	return f.Walk(func(path string, obj interface{}, err error) error {
		if err != nil {
			return nil
		}
		objType := "group"
		if _, ok := obj.(*Dataset); ok {
			objType = "dataset"
		}
		names, err := f.attrNames(path)
		if err != nil {
			return err
		}
		for _, name := range names {
			info := AttrInfo{
				Path:       JoinAttrPath(path, name),
				ObjectPath: path,
				ObjectType: objType,
				Name:       name,
			}
			a, aerr := f.attr(path, name)
			if aerr != nil {
				info.Err = aerr
			} else {
				info.Attr = a
				info.Value, info.Err = a.Value()
			}
			if err := fn(info); err != nil {
				return err
			}
		}
		return nil
	})
}
