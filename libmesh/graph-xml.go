package libmesh

import (
	"encoding/xml"
	"io"
	"strconv"
	"strings"

	"github.com/2x3systems/gomesh/gomesh"
	"github.com/pkg/errors"
)

// XML graph documents list <node> and <edge> elements at any depth:
//
//	<graph>
//	  <node><id>1</id><capacity>7</capacity></node>
//	  <edge><srcid>2</srcid><dstid>1</dstid></edge>
//	</graph>
type xmlNode struct {
	ID       *string `xml:"id"`
	Capacity *string `xml:"capacity"`
}

type xmlEdge struct {
	SrcID *string `xml:"srcid"`
	DstID *string `xml:"dstid"`
}

// ReadGraphXML reads an XML graph document.  All nodes are added before any edge.
func ReadGraphXML(in io.Reader) (*Graph, error) {
	var (
		nodes []xmlNode
		edges []xmlEdge
	)

	dec := xml.NewDecoder(in)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(gomesh.ErrBadGraph, "xml: %v", err)
		}
		start, isStart := tok.(xml.StartElement)
		if !isStart {
			continue
		}
		switch start.Name.Local {
		case "node":
			var node xmlNode
			if err = dec.DecodeElement(&node, &start); err != nil {
				return nil, errors.Wrapf(gomesh.ErrBadGraph, "xml node #%d: %v", len(nodes)+1, err)
			}
			nodes = append(nodes, node)
		case "edge":
			var edge xmlEdge
			if err = dec.DecodeElement(&edge, &start); err != nil {
				return nil, errors.Wrapf(gomesh.ErrBadGraph, "xml edge #%d: %v", len(edges)+1, err)
			}
			edges = append(edges, edge)
		}
	}

	X := NewGraph()
	for i, node := range nodes {
		id, err := xmlInt(node.ID, "id")
		if err != nil {
			return nil, errors.Wrapf(err, "node #%d", i+1)
		}
		capacity, err := xmlInt(node.Capacity, "capacity")
		if err != nil {
			return nil, errors.Wrapf(err, "node #%d", i+1)
		}
		if err = X.AddVertex(gomesh.VtxID(id), gomesh.Label(capacity)); err != nil {
			return nil, err
		}
	}

	for i, edge := range edges {
		src, err := xmlInt(edge.SrcID, "srcid")
		if err != nil {
			return nil, errors.Wrapf(err, "edge #%d", i+1)
		}
		dst, err := xmlInt(edge.DstID, "dstid")
		if err != nil {
			return nil, errors.Wrapf(err, "edge #%d", i+1)
		}
		if err = X.AddEdge(gomesh.VtxID(src), gomesh.VtxID(dst)); err != nil {
			return nil, err
		}
	}

	return X, nil
}

func xmlInt(field *string, name string) (int64, error) {
	if field == nil {
		return 0, errors.Wrapf(gomesh.ErrBadGraph, "missing <%s>", name)
	}
	val, err := strconv.ParseInt(strings.TrimSpace(*field), 10, 64)
	if err != nil {
		return 0, errors.Wrapf(gomesh.ErrBadGraph, "<%s>: %v", name, err)
	}
	return val, nil
}
