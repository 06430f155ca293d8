// Command h5ls lists the contents of a data file: every group and
// dataset with its element type, shape, chunk shape and attributes.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/tpongo-afk/HighFive/h5"
)

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintln(os.Stderr, "Usage: h5ls <file>")
		os.Exit(2)
	}

	f, err := h5.Open(os.Args[1], h5.WithReadOnly())
	if err != nil {
		fmt.Fprintf(os.Stderr, "h5ls: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()

	err = f.Walk(func(path string, obj interface{}, err error) error {
		if err != nil {
			fmt.Fprintf(os.Stderr, "h5ls: %s: %v\n", path, err)
			return nil
		}
		switch o := obj.(type) {
		case *h5.Group:
			fmt.Printf("%s (group)\n", path)
			printAttrs(path, o)
		case *h5.Dataset:
			fmt.Printf("%s %s\n", path, describe(o))
			printAttrs(path, o)
		}
		return nil
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "h5ls: %v\n", err)
		os.Exit(1)
	}
}

func describe(ds *h5.Dataset) string {
	var b strings.Builder
	b.WriteString(ds.TypeName())
	if ds.IsScalar() {
		b.WriteString(" scalar")
	} else {
		fmt.Fprintf(&b, " %v", ds.Shape())
	}
	if chunks, err := ds.ChunkShape(); err == nil && chunks != nil {
		fmt.Fprintf(&b, " chunks %v", chunks)
	}
	return b.String()
}

// attributed is the part of Group and Dataset the lister needs.
type attributed interface {
	Attrs() ([]string, error)
	Attr(name string) (*h5.Attribute, error)
}

func printAttrs(path string, obj attributed) {
	names, err := obj.Attrs()
	if err != nil {
		fmt.Fprintf(os.Stderr, "h5ls: %s: %v\n", path, err)
		return
	}
	for _, name := range names {
		a, err := obj.Attr(name)
		if err != nil {
			fmt.Fprintf(os.Stderr, "h5ls: %s@%s: %v\n", path, name, err)
			continue
		}
		value, err := a.Value()
		if err != nil {
			fmt.Fprintf(os.Stderr, "h5ls: %s@%s: %v\n", path, name, err)
			continue
		}
		if s, ok := value.(string); ok {
			fmt.Printf("    @%s = %q\n", name, s)
		} else {
			fmt.Printf("    @%s = %v\n", name, value)
		}
	}
}
