package libmesh

import (
	"sync"
	"sync/atomic"

	"github.com/2x3systems/gomesh/gomesh"
	"github.com/emirpasic/gods/sets/treeset"
)

// Partition is the shared, growable store of meshes.
//
// A mesh's ID is the partition size at the moment it was inserted, so IDs are dense, strictly increasing and
// double as the next free ID.  Insert is the only operation that serializes writers.
type Partition struct {
	mu     sync.RWMutex // guards growth of meshes
	meshes []*Mesh
	size   atomic.Int32
}

func NewPartition() *Partition {
	return &Partition{
		meshes: make([]*Mesh, 0, 16),
	}
}

// Insert publishes M under the next free ID and returns that ID.
//
// M must be fully built (members added) before it is inserted; member vertices are pointed at the new ID.
func (P *Partition) Insert(M *Mesh) gomesh.MeshID {
	P.mu.Lock()
	id := gomesh.MeshID(len(P.meshes))
	M.id = id
	for _, v := range M.members {
		v.meshID = id
	}
	P.meshes = append(P.meshes, M)
	P.size.Store(int32(id) + 1)
	P.mu.Unlock()
	return id
}

// Get returns the mesh with the given ID or nil if no such mesh exists.
func (P *Partition) Get(id gomesh.MeshID) *Mesh {
	P.mu.RLock()
	defer P.mu.RUnlock()
	if id < 0 || int(id) >= len(P.meshes) {
		return nil
	}
	return P.meshes[id]
}

// Size returns the number of meshes inserted so far.  It needs no lock.
func (P *Partition) Size() int {
	return int(P.size.Load())
}

// NumVertices returns the total number of member vertices across all meshes.
func (P *Partition) NumVertices() int {
	P.mu.RLock()
	defer P.mu.RUnlock()
	n := 0
	for _, M := range P.meshes {
		n += M.Len()
	}
	return n
}

// Blocks exports all non-empty meshes in canonical order (ascending by smallest vertex ID).
//
// Must not be called while workers are committing splits.
func (P *Partition) Blocks() []gomesh.Block {
	set := treeset.NewWith(func(a, b interface{}) int {
		return gomesh.BlockComparator(a.(gomesh.Block), b.(gomesh.Block))
	})

	P.mu.RLock()
	for _, M := range P.meshes {
		if M.Len() > 0 {
			set.Add(M.Block())
		}
	}
	P.mu.RUnlock()

	blocks := make([]gomesh.Block, 0, set.Size())
	for _, val := range set.Values() {
		blocks = append(blocks, val.(gomesh.Block))
	}
	return blocks
}
