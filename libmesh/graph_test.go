package libmesh

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/2x3systems/gomesh/gomesh"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const starXML = `<?xml version="1.0"?>
<graph>
  <nodes>
    <node><id> 1 </id><capacity>5</capacity></node>
    <node><id>2</id><capacity>5</capacity></node>
    <node><id>3</id><capacity>5</capacity></node>
    <node><id>4</id><capacity>5</capacity></node>
  </nodes>
  <edge><srcid>2</srcid><dstid>1</dstid></edge>
  <edge><srcid>3</srcid><dstid>1</dstid></edge>
  <edge><srcid>4</srcid><dstid>1</dstid></edge>
</graph>
`

func TestGraphExpr(t *testing.T) {
	X, err := ParseGraphExpr("expr", `
		# a chain and a fan-in
		1 -> 2 -> 3, 4 -> 3
		node 1 2 = 0
		node 3 4 = -1
	`)
	require.NoError(t, err)

	assert.Equal(t, 4, X.NumVertices())
	assert.Equal(t, 3, X.NumEdges())
	assert.Equal(t, 2, X.NumLabels())
	assert.Equal(t, gomesh.Label(-1), X.Vertex(4).Label)
	assert.Equal(t, []Edge{{1, 2}}, X.Vertex(2).Incoming())
	assert.Equal(t, []Edge{{2, 3}, {4, 3}}, X.Vertex(3).Incoming())
	assert.Empty(t, X.Vertex(1).Incoming())
	assert.Nil(t, X.Vertex(5))
}

func TestGraphExprErrors(t *testing.T) {
	for expr, want := range map[string]error{
		"node 1 = 0; node 1 = 2": gomesh.ErrDuplicateVtxID,
		"node 1 = 0; 1 -> 2":     gomesh.ErrUnknownVtxID,
		"node 1 = 0; 2 -> 1":     gomesh.ErrUnknownVtxID,
		"node 1 = ":              gomesh.ErrBadGraph,
		"vertex 1 = 0":           gomesh.ErrBadGraph,
		"node 1 = 0; 1 ->":       gomesh.ErrBadGraph,
	} {
		_, err := ParseGraphExpr("bad", expr)
		assert.True(t, errors.Is(err, want), "%q: got %v", expr, err)
	}
}

func TestInitFromString(t *testing.T) {
	X := NewGraph()
	require.NoError(t, X.initFromString("node 1 2 = 3; 1 -> 2 -> 1"))
	assert.Equal(t, 2, X.NumEdges())
	assert.Error(t, X.initFromString("node 1 = 3"))
}

func TestGraphXML(t *testing.T) {
	X, err := ReadGraphXML(strings.NewReader(starXML))
	require.NoError(t, err)

	assert.Equal(t, 4, X.NumVertices())
	assert.Equal(t, 3, X.NumEdges())
	assert.Equal(t, gomesh.Label(5), X.Vertex(1).Label)
	assert.Equal(t, []Edge{{2, 1}, {3, 1}, {4, 1}}, X.Vertex(1).Incoming())
}

func TestGraphXMLErrors(t *testing.T) {
	const node1 = `<node><id>1</id><capacity>1</capacity></node>`
	for doc, want := range map[string]error{
		`<graph><node><id>1</id></node></graph>`:                                    gomesh.ErrBadGraph,
		`<graph><node><id>x</id><capacity>1</capacity></node></graph>`:              gomesh.ErrBadGraph,
		`<graph>` + node1 + `<edge><srcid>1</srcid></edge></graph>`:                 gomesh.ErrBadGraph,
		`<graph>` + node1 + `<edge><srcid>1</srcid><dstid>9</dstid></edge></graph>`: gomesh.ErrUnknownVtxID,
		`<graph><node><id>1</id><capacity>1</capacity>`:                             gomesh.ErrBadGraph,
	} {
		_, err := ReadGraphXML(strings.NewReader(doc))
		assert.True(t, errors.Is(err, want), "%s: got %v", doc, err)
	}
}

func TestLoadGraph(t *testing.T) {
	dir := t.TempDir()

	xmlPath := filepath.Join(dir, "star.xml")
	require.NoError(t, os.WriteFile(xmlPath, []byte(starXML), 0644))
	textPath := filepath.Join(dir, "star.mesh")
	require.NoError(t, os.WriteFile(textPath, []byte("node 1 2 3 4 = 5\n2 -> 1; 3 -> 1; 4 -> 1\n"), 0644))

	Xa, err := LoadGraph(xmlPath, gomesh.FormatAuto)
	require.NoError(t, err)
	Xb, err := LoadGraph(textPath, gomesh.FormatAuto)
	require.NoError(t, err)
	assert.Equal(t, Xa.Fingerprint(), Xb.Fingerprint())

	_, err = LoadGraph(xmlPath, gomesh.FormatText)
	assert.True(t, errors.Is(err, gomesh.ErrBadGraph))

	_, err = LoadGraph(filepath.Join(dir, "missing.mesh"), gomesh.FormatAuto)
	assert.True(t, errors.Is(err, os.ErrNotExist))

	_, err = ReadGraph(strings.NewReader(""), "x", gomesh.GraphFormat(42))
	assert.True(t, errors.Is(err, gomesh.ErrUnsupportedFormat))
}

func TestFingerprint(t *testing.T) {
	Xa, err := ParseGraphExpr("a", "node 1 2 3 = 0; 1 -> 2; 2 -> 3")
	require.NoError(t, err)
	Xb, err := ParseGraphExpr("b", "2 -> 3; node 3 = 0; 1 -> 2; node 2 1 = 0")
	require.NoError(t, err)
	assert.Equal(t, Xa.Fingerprint(), Xb.Fingerprint())

	Xc, err := ParseGraphExpr("c", "node 1 2 3 = 0; 2 -> 1; 2 -> 3")
	require.NoError(t, err)
	assert.NotEqual(t, Xa.Fingerprint(), Xc.Fingerprint())

	Xd, err := ParseGraphExpr("d", "node 1 2 = 0; node 3 = 1; 1 -> 2; 2 -> 3")
	require.NoError(t, err)
	assert.NotEqual(t, Xa.Fingerprint(), Xd.Fingerprint())
}
