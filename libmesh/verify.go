package libmesh

import (
	"github.com/2x3systems/gomesh/gomesh"
	"github.com/bits-and-blooms/bitset"
	"github.com/pkg/errors"
)

// VerifyStable checks that P is a stable, label-respecting partition of X's vertices:
//   - every vertex is a member of exactly the mesh its mesh ID names, and no vertex is lost or duplicated;
//   - every mesh holds vertices of a single label;
//   - for any two vertices u, v in the same mesh and any mesh T, u has an edge into T iff v does.
//
// A failure wraps gomesh.ErrNotStable.  P must not be under refinement.
func VerifyStable(X *Graph, P *Partition) error {
	if n := P.NumVertices(); n != X.NumVertices() {
		return errors.Wrapf(gomesh.ErrNotStable, "partition holds %d vertices, graph has %d", n, X.NumVertices())
	}

	for _, v := range X.Vertices() {
		M := P.Get(v.MeshID())
		if M == nil || !M.Contains(v) {
			return errors.Wrapf(gomesh.ErrNotStable, "vertex %d is not a member of mesh %d", v.ID, v.MeshID())
		}
		if M.Label() != v.Label {
			return errors.Wrapf(gomesh.ErrNotStable, "vertex %d (label %d) is in mesh %d (label %d)", v.ID, v.Label, M.ID(), M.Label())
		}
	}

	// Each vertex's signature is the set of meshes it has an edge into
	numMeshes := uint(P.Size())
	sigs := make(map[gomesh.VtxID]*bitset.BitSet, X.NumVertices())
	for _, v := range X.Vertices() {
		sigs[v.ID] = bitset.New(numMeshes)
	}
	for _, t := range X.Vertices() {
		for _, e := range t.Incoming() {
			sigs[e.Src].Set(uint(t.MeshID()))
		}
	}

	for i := 0; i < P.Size(); i++ {
		M := P.Get(gomesh.MeshID(i))
		var (
			first    gomesh.VtxID
			firstSig *bitset.BitSet
		)
		for _, id := range M.VertexIDs() {
			sig := sigs[id]
			if firstSig == nil {
				first, firstSig = id, sig
				continue
			}
			if !sig.Equal(firstSig) {
				return errors.Wrapf(gomesh.ErrNotStable, "mesh %d: vertices %d and %d point into different meshes (%v vs %v)",
					M.ID(), first, id, firstSig, sig)
			}
		}
	}

	return nil
}
