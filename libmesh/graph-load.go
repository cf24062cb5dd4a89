package libmesh

import (
	"io"
	"os"

	"github.com/2x3systems/gomesh/gomesh"
	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/plan-systems/klog"
)

// LoadGraph reads the graph file at pathname.  FormatAuto picks the format from the file extension.
//
// Loading either fully succeeds or returns an error wrapping gomesh.ErrBadGraph (or a file error).
func LoadGraph(pathname string, format gomesh.GraphFormat) (*Graph, error) {
	if format == gomesh.FormatAuto {
		format = gomesh.FormatForPath(pathname)
	}

	file, err := os.Open(pathname)
	if err != nil {
		return nil, errors.Wrap(err, "open graph")
	}
	defer file.Close()

	X, err := ReadGraph(file, pathname, format)
	if err != nil {
		return nil, err
	}

	klog.V(1).Infof("loaded %s: %s vertices, %s edges, %d labels", pathname,
		humanize.Comma(int64(X.NumVertices())),
		humanize.Comma(int64(X.NumEdges())),
		X.NumLabels())
	return X, nil
}

// ReadGraph reads a graph of the given format; name is only used in error messages.
func ReadGraph(in io.Reader, name string, format gomesh.GraphFormat) (*Graph, error) {
	switch format {
	case gomesh.FormatXML:
		X, err := ReadGraphXML(in)
		if err != nil {
			return nil, errors.Wrapf(err, "%s", name)
		}
		return X, nil
	case gomesh.FormatText, gomesh.FormatAuto:
		buf, err := io.ReadAll(in)
		if err != nil {
			return nil, errors.Wrapf(err, "read %s", name)
		}
		return ParseGraphExpr(name, string(buf))
	}
	return nil, errors.Wrapf(gomesh.ErrUnsupportedFormat, "%v", format)
}
