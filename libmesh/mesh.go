package libmesh

import (
	"sort"
	"sync/atomic"

	"github.com/2x3systems/gomesh/gomesh"
	"github.com/emirpasic/gods/queues/linkedlistqueue"
)

// Mesh is one group of a partition: a set of vertices sharing a label.
//
// Structural fields (members, boundary, pending) are only written by the worker that owns the mesh in the
// current round -- as splitter (pending) or as split target (members, boundary).  Ownership is decided by the
// two claim flags, which are the only fields touched concurrently.
type Mesh struct {
	id       gomesh.MeshID
	label    gomesh.Label
	members  map[gomesh.VtxID]*Vertex
	boundary []Edge                 // all incoming edges of all members
	pending  *linkedlistqueue.Queue // *Vertex values whose split against this mesh was deferred

	claimedAsSplitter    atomic.Bool
	claimedAsSplitTarget atomic.Bool
}

func NewMesh(label gomesh.Label) *Mesh {
	return &Mesh{
		id:      gomesh.NilMeshID,
		label:   label,
		members: make(map[gomesh.VtxID]*Vertex),
		pending: linkedlistqueue.New(),
	}
}

// ID returns the ID assigned when this mesh was inserted into a Partition.
func (M *Mesh) ID() gomesh.MeshID {
	return M.id
}

func (M *Mesh) Label() gomesh.Label {
	return M.label
}

// Len returns the number of member vertices.
func (M *Mesh) Len() int {
	return len(M.members)
}

// Contains returns true if the given vertex is a member of this mesh.
func (M *Mesh) Contains(v *Vertex) bool {
	return M.members[v.ID] == v
}

// Boundary returns the cached incoming edges of all members.
func (M *Mesh) Boundary() []Edge {
	return M.boundary
}

// AddVertex adds v as a member.  Used while building an initial partition, before the mesh is published.
func (M *Mesh) AddVertex(v *Vertex) {
	M.members[v.ID] = v
	v.meshID = M.id
}

// MoveVertex transfers v from this mesh to dst and points v at dst.
//
// Returns false if v was not a member of this mesh.  Neither boundary cache is refreshed; call UpdateBoundary
// on both meshes once all moves for a split are done.
func (M *Mesh) MoveVertex(v *Vertex, dst *Mesh) bool {
	if M.members[v.ID] != v {
		return false
	}
	delete(M.members, v.ID)
	dst.members[v.ID] = v
	v.meshID = dst.id
	return true
}

// UpdateBoundary recomputes the boundary edge cache from the current members.
func (M *Mesh) UpdateBoundary() {
	n := 0
	for _, v := range M.members {
		n += len(v.incoming)
	}

	boundary := M.boundary[:0]
	if cap(boundary) < n {
		boundary = make([]Edge, 0, n)
	}
	for _, v := range M.members {
		boundary = append(boundary, v.incoming...)
	}
	M.boundary = boundary
}

// VertexIDs returns the member IDs, sorted ascending.
func (M *Mesh) VertexIDs() []gomesh.VtxID {
	ids := make([]gomesh.VtxID, 0, len(M.members))
	for id := range M.members {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Block exports this mesh's current membership.
func (M *Mesh) Block() gomesh.Block {
	return gomesh.Block{
		ID:       M.id,
		Label:    M.label,
		Vertices: M.VertexIDs(),
	}
}

// HasPending returns true if a previous round deferred part of this mesh's split work.
func (M *Mesh) HasPending() bool {
	return !M.pending.Empty()
}

// PushPending defers the given preimage vertices to a later round.
func (M *Mesh) PushPending(vtx []*Vertex) {
	for _, v := range vtx {
		M.pending.Enqueue(v)
	}
}

// TakePending drains and returns the deferred vertices.
func (M *Mesh) TakePending() []*Vertex {
	vtx := make([]*Vertex, 0, M.pending.Size())
	for {
		val, ok := M.pending.Dequeue()
		if !ok {
			break
		}
		vtx = append(vtx, val.(*Vertex))
	}
	return vtx
}

// ClearPending drops any deferred vertices.
func (M *Mesh) ClearPending() {
	M.pending.Clear()
}

// TryClaimAsSplitter atomically claims this mesh as a splitter.
//
// Returns true if the mesh was already claimed (the caller failed to claim it), false if the caller now owns it.
func (M *Mesh) TryClaimAsSplitter() bool {
	return !M.claimedAsSplitter.CompareAndSwap(false, true)
}

// ReleaseSplitter puts this mesh back into play as a splitter candidate.
func (M *Mesh) ReleaseSplitter() {
	M.claimedAsSplitter.Store(false)
}

// IsClaimedAsSplitter reports the current splitter claim.
func (M *Mesh) IsClaimedAsSplitter() bool {
	return M.claimedAsSplitter.Load()
}

// TryClaimAsSplitTarget atomically marks this mesh as the target of a split this round.
//
// Returns true if another splitter already holds the claim, false if the caller now owns it.
func (M *Mesh) TryClaimAsSplitTarget() bool {
	return !M.claimedAsSplitTarget.CompareAndSwap(false, true)
}

// ReleaseSplitTarget clears the split target claim.
func (M *Mesh) ReleaseSplitTarget() {
	M.claimedAsSplitTarget.Store(false)
}
