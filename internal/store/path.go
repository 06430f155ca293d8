package store

import "strings"

// CleanPath normalizes a path, ensuring it starts with "/" and has no
// trailing slash.
func CleanPath(path string) string {
	if path == "" || path == "/" {
		return "/"
	}

	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	return strings.TrimSuffix(path, "/")
}

// SplitPath splits a path into its components.
// Leading and trailing slashes are handled, empty components are removed.
//
// Examples:
//   - "/" -> []string{}
//   - "/foo" -> []string{"foo"}
//   - "/foo/bar" -> []string{"foo", "bar"}
func SplitPath(path string) []string {
	path = strings.Trim(path, "/")
	if path == "" {
		return []string{}
	}
	parts := strings.Split(path, "/")
	out := parts[:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// ParentPath returns the path of the containing group ("/" for
// top-level objects and for the root itself).
func ParentPath(path string) string {
	path = CleanPath(path)
	idx := strings.LastIndex(path, "/")
	if idx <= 0 {
		return "/"
	}
	return path[:idx]
}

// BaseName returns the final component of the path ("" for the root).
func BaseName(path string) string {
	path = CleanPath(path)
	if path == "/" {
		return ""
	}
	return path[strings.LastIndex(path, "/")+1:]
}

// JoinPath joins a group path with a child name.
func JoinPath(dir, name string) string {
	if dir == "/" || dir == "" {
		return "/" + name
	}
	return dir + "/" + name
}
