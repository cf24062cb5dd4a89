package libmesh

import (
	"github.com/2x3systems/gomesh/gomesh"
	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
	"github.com/pkg/errors"
)

// GraphExpr is the text form of a graph:
//
//	# four vertices of capacity 7, three of them pointing at vertex 1
//	node 1 2 3 4 = 7
//	2 -> 1; 3 -> 1, 4 -> 1
//
// Node declarations and edge runs may appear in any order.  An edge run "a -> b -> c" adds a->b and b->c.
type GraphExpr struct {
	Stmts []*Stmt `parser:"( @@ ( \";\" | \",\" )? )*"`
}

type Stmt struct {
	Node *NodeDecl `parser:"  @@"`
	Run  *EdgeRun  `parser:"| @@"`
}

type NodeDecl struct {
	IDs      []int64 `parser:"\"node\" @Int+"`
	Capacity int64   `parser:"\"=\" @Int"`
}

type EdgeRun struct {
	Start int64   `parser:"@Int"`
	Next  []int64 `parser:"( \"->\" @Int )+"`
}

var sMeshLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Comment", Pattern: `#[^\n]*`},
	{Name: "Ident", Pattern: `[A-Za-z_][A-Za-z0-9_]*`},
	{Name: "Arrow", Pattern: `->`},
	{Name: "Int", Pattern: `-?[0-9]+`},
	{Name: "Punct", Pattern: `[=;,]`},
	{Name: "Whitespace", Pattern: `[ \t\r\n]+`},
})

var parseGraphExpr = participle.MustBuild[GraphExpr](
	participle.Lexer(sMeshLexer),
	participle.Elide("Comment", "Whitespace"),
)

// ParseGraphExpr parses a graph in text form.
func ParseGraphExpr(filename, graphExpr string) (*Graph, error) {
	Xexpr, err := parseGraphExpr.ParseString(filename, graphExpr)
	if err != nil {
		return nil, errors.Wrapf(gomesh.ErrBadGraph, "%v", err)
	}

	X := NewGraph()
	if err = X.applyGraphExpr(Xexpr); err != nil {
		return nil, errors.Wrapf(err, "%s", filename)
	}
	return X, nil
}

// initFromString adds the vertices and edges of a text graph expression to X.
func (X *Graph) initFromString(graphExpr string) error {
	Xexpr, err := parseGraphExpr.ParseString("", graphExpr)
	if err != nil {
		return errors.Wrapf(gomesh.ErrBadGraph, "%v", err)
	}
	return X.applyGraphExpr(Xexpr)
}

func (X *Graph) applyGraphExpr(Xexpr *GraphExpr) error {

	// Vertices first so that edges may precede the declarations they refer to
	for _, stmt := range Xexpr.Stmts {
		if stmt.Node == nil {
			continue
		}
		for _, id := range stmt.Node.IDs {
			if err := X.AddVertex(gomesh.VtxID(id), gomesh.Label(stmt.Node.Capacity)); err != nil {
				return err
			}
		}
	}

	for _, stmt := range Xexpr.Stmts {
		run := stmt.Run
		if run == nil {
			continue
		}
		onVtx := run.Start
		for _, nextVtx := range run.Next {
			if err := X.AddEdge(gomesh.VtxID(onVtx), gomesh.VtxID(nextVtx)); err != nil {
				return err
			}
			onVtx = nextVtx
		}
	}

	return nil
}
