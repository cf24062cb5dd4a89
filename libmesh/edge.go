package libmesh

import (
	"fmt"

	"github.com/2x3systems/gomesh/gomesh"
)

// Edge is a directed edge Src -> Dst.
//
// An Edge is recorded only on its target vertex (as an incoming edge), so a preimage is found by walking the
// incoming edges of a mesh's members and resolving each Src.  Edges compare structurally with ==.
type Edge struct {
	Src gomesh.VtxID
	Dst gomesh.VtxID
}

func (e Edge) String() string {
	return fmt.Sprintf("%d->%d", e.Src, e.Dst)
}
