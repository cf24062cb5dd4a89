package gomesh

import (
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// FormatForPath returns the GraphFormat implied by a file name.
func FormatForPath(pathname string) GraphFormat {
	if strings.EqualFold(filepath.Ext(pathname), ".xml") {
		return FormatXML
	}
	return FormatText
}

// ParseGraphFormat reads a format name as used on the command line ("auto", "text", "xml").
func ParseGraphFormat(name string) (GraphFormat, error) {
	switch strings.ToLower(name) {
	case "", "auto":
		return FormatAuto, nil
	case "text", "mesh":
		return FormatText, nil
	case "xml":
		return FormatXML, nil
	}
	return FormatAuto, errors.Wrapf(ErrUnsupportedFormat, "%q", name)
}

func (f GraphFormat) String() string {
	switch f {
	case FormatAuto:
		return "auto"
	case FormatText:
		return "text"
	case FormatXML:
		return "xml"
	}
	return "GraphFormat(" + strconv.Itoa(int(f)) + ")"
}

// SortBlocks puts blocks in canonical order: ascending by their smallest vertex ID.
// Each block's Vertices must already be sorted.
func SortBlocks(blocks []Block) {
	sort.Slice(blocks, func(i, j int) bool {
		return BlockComparator(blocks[i], blocks[j]) < 0
	})
}

// BlockComparator orders two blocks by their sorted vertex lists.
func BlockComparator(A, B Block) int {
	lenB := len(B.Vertices)

	for i, ai := range A.Vertices {
		if lenB == i {
			return 1
		}
		bi := B.Vertices[i]
		if ai < bi {
			return -1
		} else if ai > bi {
			return 1
		}
	}

	if len(A.Vertices) < lenB {
		return -1
	}
	return 0
}

// SameBlocks reports whether two canonically sorted block lists describe the same vertex sets.
// Mesh IDs are ignored.
func SameBlocks(A, B []Block) bool {
	if len(A) != len(B) {
		return false
	}
	for i := range A {
		if A[i].Label != B[i].Label || BlockComparator(A[i], B[i]) != 0 {
			return false
		}
	}
	return true
}

// WriteBlocks prints one block per line as space separated vertex IDs.
func WriteBlocks(out io.Writer, blocks []Block, opts PrintOpts) error {
	buf := strings.Builder{}
	buf.Grow(256)

	for _, Bi := range blocks {
		if opts.MeshID {
			fmt.Fprintf(&buf, "%d: ", Bi.ID)
		}
		if opts.Label {
			fmt.Fprintf(&buf, "[%d] ", Bi.Label)
		}
		for i, vi := range Bi.Vertices {
			if i > 0 {
				buf.WriteByte(' ')
			}
			buf.WriteString(strconv.FormatInt(int64(vi), 10))
		}
		buf.WriteByte('\n')
		if _, err := io.WriteString(out, buf.String()); err != nil {
			return err
		}
		buf.Reset()
	}
	return nil
}
