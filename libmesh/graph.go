package libmesh

import (
	"encoding/binary"
	"sort"

	"github.com/2x3systems/gomesh/gomesh"
	"github.com/cespare/xxhash/v2"
	"github.com/pkg/errors"
)

// Graph is the vertex table of an input graph.
//
// Vertices are added first, then edges; each edge is recorded on its target vertex only.  Once refinement
// starts the table is read-only apart from each vertex's mesh ID.
type Graph struct {
	vtx       map[gomesh.VtxID]*Vertex
	order     []*Vertex      // insertion order
	labels    []gomesh.Label // distinct labels in first-seen order
	labelSeen map[gomesh.Label]struct{}
	edgeCount int
}

func NewGraph() *Graph {
	return &Graph{
		vtx:       make(map[gomesh.VtxID]*Vertex),
		labelSeen: make(map[gomesh.Label]struct{}),
	}
}

// AddVertex adds a vertex with the given ID and label.
func (X *Graph) AddVertex(ID gomesh.VtxID, label gomesh.Label) error {
	if _, exists := X.vtx[ID]; exists {
		return errors.Wrapf(gomesh.ErrDuplicateVtxID, "vertex %d", ID)
	}
	v := NewVertex(ID, label)
	X.vtx[ID] = v
	X.order = append(X.order, v)

	if _, seen := X.labelSeen[label]; !seen {
		X.labelSeen[label] = struct{}{}
		X.labels = append(X.labels, label)
	}
	return nil
}

// AddEdge records the directed edge src -> dst on dst.  Both vertices must already exist.
func (X *Graph) AddEdge(src, dst gomesh.VtxID) error {
	if _, exists := X.vtx[src]; !exists {
		return errors.Wrapf(gomesh.ErrUnknownVtxID, "edge %d->%d: source", src, dst)
	}
	target := X.vtx[dst]
	if target == nil {
		return errors.Wrapf(gomesh.ErrUnknownVtxID, "edge %d->%d: target", src, dst)
	}
	target.addIncoming(Edge{Src: src, Dst: dst})
	X.edgeCount++
	return nil
}

// Vertex returns the vertex with the given ID, or nil.
func (X *Graph) Vertex(ID gomesh.VtxID) *Vertex {
	return X.vtx[ID]
}

// Vertices returns all vertices in the order they were added.
func (X *Graph) Vertices() []*Vertex {
	return X.order
}

func (X *Graph) NumVertices() int {
	return len(X.order)
}

func (X *Graph) NumEdges() int {
	return X.edgeCount
}

// NumLabels returns the number of distinct labels, which is the size of the initial partition.
func (X *Graph) NumLabels() int {
	return len(X.labels)
}

// InitialPartition groups all vertices by label: one mesh per distinct label, inserted in the order labels were
// first seen, each with its boundary cache computed.
//
// Every vertex is reassigned, so calling this again resets the graph for another refinement run.
func (X *Graph) InitialPartition() *Partition {
	byLabel := make(map[gomesh.Label]*Mesh, len(X.labels))
	for _, li := range X.labels {
		byLabel[li] = NewMesh(li)
	}
	for _, v := range X.order {
		byLabel[v.Label].AddVertex(v)
	}

	P := NewPartition()
	for _, li := range X.labels {
		M := byLabel[li]
		P.Insert(M)
		M.UpdateBoundary()
	}
	return P
}

// Fingerprint returns a hash of the graph's canonical encoding: vertices sorted by ID with their labels,
// followed by all edges sorted by (Src, Dst).  Insertion order does not affect the result.
func (X *Graph) Fingerprint() uint64 {
	vtx := make([]*Vertex, len(X.order))
	copy(vtx, X.order)
	sort.Slice(vtx, func(i, j int) bool { return vtx[i].ID < vtx[j].ID })

	edges := make([]Edge, 0, X.edgeCount)
	for _, v := range vtx {
		edges = append(edges, v.incoming...)
	}
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].Src != edges[j].Src {
			return edges[i].Src < edges[j].Src
		}
		return edges[i].Dst < edges[j].Dst
	})

	h := xxhash.New()
	var scrap [2 * binary.MaxVarintLen64]byte

	n := binary.PutUvarint(scrap[:], uint64(len(vtx)))
	h.Write(scrap[:n])
	for _, v := range vtx {
		n = binary.PutVarint(scrap[:], int64(v.ID))
		n += binary.PutVarint(scrap[n:], int64(v.Label))
		h.Write(scrap[:n])
	}

	n = binary.PutUvarint(scrap[:], uint64(len(edges)))
	h.Write(scrap[:n])
	for _, e := range edges {
		n = binary.PutVarint(scrap[:], int64(e.Src))
		n += binary.PutVarint(scrap[n:], int64(e.Dst))
		h.Write(scrap[:n])
	}

	return h.Sum64()
}
