package libmesh

import (
	"github.com/2x3systems/gomesh/gomesh"
)

// Vertex is a graph vertex along with the ID of the mesh currently holding it.
//
// ID, Label and the incoming edge list are fixed once the graph is built.  The mesh ID is a lookup
// back-reference only; Mesh.members is the authority on membership.  It is written during initial
// assignment or by the worker committing a split that moves this vertex.
type Vertex struct {
	ID    gomesh.VtxID
	Label gomesh.Label

	meshID   gomesh.MeshID
	incoming []Edge
}

func NewVertex(ID gomesh.VtxID, label gomesh.Label) *Vertex {
	return &Vertex{
		ID:     ID,
		Label:  label,
		meshID: gomesh.NilMeshID,
	}
}

// MeshID returns the ID of the mesh containing this vertex.
func (v *Vertex) MeshID() gomesh.MeshID {
	return v.meshID
}

// Incoming returns the edges that end at this vertex, in the order they were added.
func (v *Vertex) Incoming() []Edge {
	return v.incoming
}

func (v *Vertex) addIncoming(e Edge) {
	v.incoming = append(v.incoming, e)
}
