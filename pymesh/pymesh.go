package pymesh

import (
	"errors"
	"strings"

	"github.com/2x3systems/gomesh/gomesh"
	"github.com/2x3systems/gomesh/libmesh"
	"github.com/2x3systems/gomesh/libmesh/splitter"
	"github.com/go-python/gpython/py"
)

var (
	LIB_VERSION = "v1.2024.1"
)

var (
	pyGraphType     = py.NewType("Graph", "a directed graph of labelled vertices")
	pyPartitionType = py.NewType("Partition", "the coarsest stable partition of a Graph")
)

type pyGraph struct {
	*libmesh.Graph
}

func (X pyGraph) Type() *py.Type {
	return pyGraphType
}

type pyPartition struct {
	P     *libmesh.Partition
	stats gomesh.Stats
}

func (p *pyPartition) Type() *py.Type {
	return pyPartitionType
}

func (p *pyPartition) M__str__() (py.Object, error) {
	var b strings.Builder
	if err := gomesh.WriteBlocks(&b, p.P.Blocks(), gomesh.PrintOpts{}); err != nil {
		return nil, err
	}
	return py.String(b.String()), nil
}

func (p *pyPartition) M__repr__() (py.Object, error) {
	return p.M__str__()
}

func runtimeError(err error) error {
	return py.ExceptionNewf(py.RuntimeError, "%v", err)
}

// Arg 1 (str): graph pathname (".xml" or text grammar)
func py_Load(module py.Object, args py.Tuple) (py.Object, error) {
	if len(args) != 1 {
		return nil, py.ExceptionNewf(py.TypeError, "Load() takes 1 argument (%d given)", len(args))
	}
	pathname, ok := args[0].(py.String)
	if !ok {
		return nil, py.ExceptionNewf(py.TypeError, "expected str pathname (got %v)", args[0].Type().Name)
	}
	X, err := libmesh.LoadGraph(string(pathname), gomesh.FormatAuto)
	if err != nil {
		return nil, loadError(err)
	}
	return pyGraph{X}, nil
}

// loadError maps a LoadGraph failure to a python exception: malformed graphs raise ValueError.
func loadError(err error) error {
	if errors.Is(err, gomesh.ErrBadGraph) || errors.Is(err, gomesh.ErrUnknownVtxID) || errors.Is(err, gomesh.ErrDuplicateVtxID) {
		return py.ExceptionNewf(py.ValueError, "%v", err)
	}
	return py.ExceptionNewf(py.FileNotFoundError, "%v", err)
}

// Arg 1 (str): graph expression, e.g. "node 1 2 = 0; 2 -> 1"
func py_Parse(module py.Object, args py.Tuple) (py.Object, error) {
	if len(args) != 1 {
		return nil, py.ExceptionNewf(py.TypeError, "Parse() takes 1 argument (%d given)", len(args))
	}
	expr, ok := args[0].(py.String)
	if !ok {
		return nil, py.ExceptionNewf(py.TypeError, "expected str expression (got %v)", args[0].Type().Name)
	}
	X, err := libmesh.ParseGraphExpr("<python>", string(expr))
	if err != nil {
		return nil, py.ExceptionNewf(py.ValueError, "%v", err)
	}
	return pyGraph{X}, nil
}

func getGraph(obj py.Object) (*libmesh.Graph, error) {
	switch arg := obj.(type) {
	case pyGraph:
		return arg.Graph, nil
	case py.String:
		X, err := libmesh.LoadGraph(string(arg), gomesh.FormatAuto)
		if err != nil {
			return nil, loadError(err)
		}
		return X, nil
	}
	return nil, py.ExceptionNewf(py.TypeError, "expected Graph or str pathname (got %v)", obj.Type().Name)
}

// Arg 1 (Graph or str): graph to refine, or a graph pathname
// Arg 2 (int, optional): worker count
//
// Refining a Graph again repoints its vertices at the new Partition; an earlier Partition of the same Graph
// must not be used after that.
func py_Refine(module py.Object, args py.Tuple) (py.Object, error) {
	if len(args) < 1 || len(args) > 2 {
		return nil, py.ExceptionNewf(py.TypeError, "Refine() takes 1 or 2 arguments (%d given)", len(args))
	}
	X, err := getGraph(args[0])
	if err != nil {
		return nil, err
	}

	opts := gomesh.RefineOpts{}
	if len(args) > 1 {
		workers, err := py.GetInt(args[1])
		if err != nil {
			return nil, err
		}
		opts.Workers = int(workers)
	}

	P, stats, err := splitter.Refine(X, opts)
	if err != nil {
		return nil, runtimeError(err)
	}
	return &pyPartition{P, stats}, nil
}

// Arg 1 (Graph or str): graph to refine, or a graph pathname
func py_MeshCount(module py.Object, args py.Tuple) (py.Object, error) {
	obj, err := py_Refine(module, args)
	if err != nil {
		return nil, err
	}
	return py.Int(obj.(*pyPartition).P.Size()), nil
}

func py_Graph_NumVerts(self py.Object, args py.Tuple) (py.Object, error) {
	X := self.(pyGraph)
	return py.Int(X.NumVertices()), nil
}

func py_Graph_NumEdges(self py.Object, args py.Tuple) (py.Object, error) {
	X := self.(pyGraph)
	return py.Int(X.NumEdges()), nil
}

func py_Graph_Fingerprint(self py.Object, args py.Tuple) (py.Object, error) {
	X := self.(pyGraph)
	return py.Int(int64(X.Fingerprint())), nil
}

func py_Partition_MeshCount(self py.Object, args py.Tuple) (py.Object, error) {
	p := self.(*pyPartition)
	return py.Int(p.P.Size()), nil
}

func py_Partition_Rounds(self py.Object, args py.Tuple) (py.Object, error) {
	p := self.(*pyPartition)
	return py.Int(p.stats.Rounds), nil
}

// Blocks exports the partition as a tuple of vertex ID tuples in canonical order.
func py_Partition_Blocks(self py.Object, args py.Tuple) (py.Object, error) {
	p := self.(*pyPartition)
	blocks := p.P.Blocks()

	out := make(py.Tuple, len(blocks))
	for i, b := range blocks {
		ids := make(py.Tuple, len(b.Vertices))
		for j, id := range b.Vertices {
			ids[j] = py.Int(id)
		}
		out[i] = ids
	}
	return out, nil
}

func init() {

	/////////////////////////////////
	// Graph
	{
		pyGraphType.Dict["NumVerts"] = py.MustNewMethod("NumVerts", py_Graph_NumVerts, 0, "")
		pyGraphType.Dict["NumEdges"] = py.MustNewMethod("NumEdges", py_Graph_NumEdges, 0, "")
		pyGraphType.Dict["Fingerprint"] = py.MustNewMethod("Fingerprint", py_Graph_Fingerprint, 0, "returns the graph's 64-bit content hash")
	}

	/////////////////////////////////
	// Partition
	{
		pyPartitionType.Dict["MeshCount"] = py.MustNewMethod("MeshCount", py_Partition_MeshCount, 0, "")
		pyPartitionType.Dict["Rounds"] = py.MustNewMethod("Rounds", py_Partition_Rounds, 0, "")
		pyPartitionType.Dict["Blocks"] = py.MustNewMethod("Blocks", py_Partition_Blocks, 0, "exports each mesh as a tuple of vertex IDs")
	}

	{
		methods := []*py.Method{
			py.MustNewMethod("Load", py_Load, 0, "loads a graph file"),
			py.MustNewMethod("Parse", py_Parse, 0, "parses a graph expression"),
			py.MustNewMethod("Refine", py_Refine, 0, "computes the coarsest stable partition of a graph"),
			py.MustNewMethod("MeshCount", py_MeshCount, 0, "refines a graph and returns the final mesh count"),
		}

		globals := py.StringDict{
			"LIB_VERSION": py.String(LIB_VERSION),
		}

		py.RegisterModule(&py.ModuleImpl{
			Info: py.ModuleInfo{
				Name: "_pymesh",
				Doc:  "coarsest stable partition gpython module",
			},
			Methods: methods,
			Globals: globals,
		})
	}
}
