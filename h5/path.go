package h5

import (
	"fmt"
	"strings"

	"github.com/tpongo-afk/HighFive/internal/store"
)

// ParseAttrPath splits an attribute path into the object path and the
// attribute name. Path format: /group/object@attribute_name
//
// Examples:
//   - "/@root_attr" -> objectPath="/", attrName="root_attr"
//   - "/data@units" -> objectPath="/data", attrName="units"
func ParseAttrPath(path string) (objectPath, attrName string, err error) {
	if path == "" {
		return "", "", fmt.Errorf("%w: empty attribute path", ErrInvalidPath)
	}

	atIdx := strings.LastIndex(path, "@")
	if atIdx == -1 {
		return "", "", fmt.Errorf("%w: attribute path must contain '@': %s", ErrInvalidPath, path)
	}

	objectPath = path[:atIdx]
	attrName = path[atIdx+1:]

	if attrName == "" {
		return "", "", fmt.Errorf("%w: attribute name cannot be empty: %s", ErrInvalidPath, path)
	}
	return store.CleanPath(objectPath), attrName, nil
}

// JoinAttrPath builds an attribute path from an object path and an
// attribute name.
func JoinAttrPath(objectPath, attrName string) string {
	if objectPath == "/" {
		return "/@" + attrName
	}
	return objectPath + "@" + attrName
}

// splitName validates a relative object name and returns its path
// components. Components must be non-empty and free of '@' and NUL.
func splitName(name string) ([]string, error) {
	if name == "" || name == "/" {
		return nil, fmt.Errorf("%w: empty name", ErrInvalidPath)
	}
	parts := store.SplitPath(name)
	if len(parts) == 0 {
		return nil, fmt.Errorf("%w: empty name", ErrInvalidPath)
	}
	for _, p := range parts {
		if strings.ContainsAny(p, "@\x00") {
			return nil, fmt.Errorf("%w: %q", ErrInvalidPath, name)
		}
	}
	return parts, nil
}
