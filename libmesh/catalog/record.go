package catalog

import (
	"github.com/2x3systems/gomesh/gomesh"
	proto "github.com/gogo/protobuf/proto"
)

// CatalogState is the catalog header stored under gCatalogStateKey.
type CatalogState struct {
	MajorVers  int32 `protobuf:"varint,1,opt,name=major_vers,json=majorVers,proto3" json:"major_vers,omitempty"`
	MinorVers  int32 `protobuf:"varint,2,opt,name=minor_vers,json=minorVers,proto3" json:"minor_vers,omitempty"`
	NumEntries int64 `protobuf:"varint,3,opt,name=num_entries,json=numEntries,proto3" json:"num_entries,omitempty"`
}

func (m *CatalogState) Reset()         { *m = CatalogState{} }
func (m *CatalogState) String() string { return proto.CompactTextString(m) }
func (*CatalogState) ProtoMessage()    {}

// PartitionRecord is a stored refinement result: the final meshes of the graph with the given fingerprint.
type PartitionRecord struct {
	Fingerprint uint64        `protobuf:"varint,1,opt,name=fingerprint,proto3" json:"fingerprint,omitempty"`
	NumVertices int64         `protobuf:"varint,2,opt,name=num_vertices,json=numVertices,proto3" json:"num_vertices,omitempty"`
	Meshes      []*MeshRecord `protobuf:"bytes,3,rep,name=meshes,proto3" json:"meshes,omitempty"`
}

func (m *PartitionRecord) Reset()         { *m = PartitionRecord{} }
func (m *PartitionRecord) String() string { return proto.CompactTextString(m) }
func (*PartitionRecord) ProtoMessage()    {}

// MeshRecord is one stored mesh.
type MeshRecord struct {
	Label     int64   `protobuf:"varint,1,opt,name=label,proto3" json:"label,omitempty"`
	VertexIDs []int64 `protobuf:"varint,2,rep,packed,name=vertex_ids,json=vertexIds,proto3" json:"vertex_ids,omitempty"`
}

func (m *MeshRecord) Reset()         { *m = MeshRecord{} }
func (m *MeshRecord) String() string { return proto.CompactTextString(m) }
func (*MeshRecord) ProtoMessage()    {}

// NewPartitionRecord exports the given blocks, in order.
func NewPartitionRecord(fingerprint uint64, blocks []gomesh.Block) *PartitionRecord {
	rec := &PartitionRecord{
		Fingerprint: fingerprint,
		Meshes:      make([]*MeshRecord, len(blocks)),
	}
	for i, b := range blocks {
		ids := make([]int64, len(b.Vertices))
		for j, id := range b.Vertices {
			ids[j] = int64(id)
		}
		rec.Meshes[i] = &MeshRecord{
			Label:     int64(b.Label),
			VertexIDs: ids,
		}
		rec.NumVertices += int64(len(ids))
	}
	return rec
}

// Blocks returns the stored meshes, numbering them in stored order.
func (rec *PartitionRecord) Blocks() []gomesh.Block {
	blocks := make([]gomesh.Block, len(rec.Meshes))
	for i, m := range rec.Meshes {
		ids := make([]gomesh.VtxID, len(m.VertexIDs))
		for j, id := range m.VertexIDs {
			ids[j] = gomesh.VtxID(id)
		}
		blocks[i] = gomesh.Block{
			ID:       gomesh.MeshID(i),
			Label:    gomesh.Label(m.Label),
			Vertices: ids,
		}
	}
	return blocks
}
