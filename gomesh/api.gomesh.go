package gomesh

import (
	"runtime"

	"github.com/prometheus/client_golang/prometheus"
)

// VtxID identifies a vertex of an input graph.  IDs are assigned by the graph source and need not be dense.
type VtxID int64

// Label is the initial grouping key of a vertex (the "capacity" of the original graph format).
type Label int64

// MeshID identifies a mesh in a partition.  IDs are dense, assigned in insertion order, and never reused.
type MeshID int32

// NilMeshID marks a vertex that has not been assigned to any mesh yet.
const NilMeshID MeshID = -1

// GraphFormat names an encoding of an input graph.
type GraphFormat int32

const (
	// FormatAuto picks a format from the file extension (".xml" is XML, anything else is text).
	FormatAuto GraphFormat = iota

	// FormatText is the line-oriented graph grammar: "node <id> = <capacity>" and edge runs "1 -> 2 -> 3".
	FormatText

	// FormatXML is the <node>/<edge> XML document format.
	FormatXML
)

// RefineOpts specifies params for a refinement run.
type RefineOpts struct {

	// Workers is the number of splitter workers.  Zero selects DefaultWorkers().
	Workers int

	// Registerer, if set, receives the run's prometheus collectors.
	Registerer prometheus.Registerer

	// OnRound, if set, is called once at the end of every round by the worker that completes the round.
	// It must not block.
	OnRound func(round RoundInfo)
}

// RoundInfo summarizes one completed round.
type RoundInfo struct {
	Round     int // one-based round number
	Splits    int // meshes split in this round
	Conflicts int // split targets deferred because another splitter claimed them first
	Inactive  int // workers that found no splittable mesh
	Meshes    int // partition size after the round
}

// Stats describes a completed refinement.
type Stats struct {
	Workers   int // number of workers that ran
	Meshes    int // final mesh count
	Rounds    int // rounds run, including the final idle round
	Splits    int // total splits committed
	Conflicts int // total deferred split targets
}

// Block is one mesh of a final partition.
type Block struct {
	ID       MeshID
	Label    Label
	Vertices []VtxID // sorted ascending
}

// CatalogOpts specifies params for opening a Catalog
type CatalogOpts struct {
	DbPathName string // omit for an in-memory db
	ReadOnly   bool   // open in read-only mode
}

// Catalog stores refinement results keyed by graph fingerprint.
type Catalog interface {

	// Returns true if this catalog was opened for read-only access.
	IsReadOnly() bool

	// Lookup returns the blocks stored for the given graph fingerprint.
	//
	// If nothing is stored under the fingerprint, ErrNotFound is returned.
	Lookup(fingerprint uint64) ([]Block, error)

	// Store records the blocks of a stable partition under the given graph fingerprint, replacing any previous entry.
	Store(fingerprint uint64, blocks []Block) error

	// NumEntries returns the number of stored results.
	NumEntries() int64

	Close() error
}

// PrintOpts specifies what is printed when printing a partition
type PrintOpts struct {
	Label  bool // If set, each mesh is prefixed with its label
	MeshID bool // If set, each mesh is prefixed with its mesh ID
}

// DefaultWorkers returns the worker count used when none is given: available parallelism plus one.
func DefaultWorkers() int {
	return runtime.NumCPU() + 1
}
