package splitter

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"testing"

	"github.com/2x3systems/gomesh/gomesh"
	"github.com/2x3systems/gomesh/libmesh"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func blockIDs(blocks []gomesh.Block) [][]gomesh.VtxID {
	ids := make([][]gomesh.VtxID, len(blocks))
	for i, b := range blocks {
		ids[i] = b.Vertices
	}
	return ids
}

func mustParse(t *testing.T, expr string) *libmesh.Graph {
	t.Helper()
	X, err := libmesh.ParseGraphExpr(t.Name(), expr)
	require.NoError(t, err)
	return X
}

func TestRefineStar(t *testing.T) {
	for _, workers := range []int{1, 4} {
		X := mustParse(t, "node 1 2 3 4 = 0; 2 -> 1; 3 -> 1; 4 -> 1")

		P, stats, err := Refine(X, gomesh.RefineOpts{Workers: workers})
		require.NoError(t, err)
		require.NoError(t, libmesh.VerifyStable(X, P))

		assert.Equal(t, [][]gomesh.VtxID{{1}, {2, 3, 4}}, blockIDs(P.Blocks()), "workers=%d", workers)
		assert.Equal(t, 2, stats.Meshes)
		assert.Equal(t, 1, stats.Splits)
		assert.Equal(t, 2, stats.Rounds)
		assert.Equal(t, workers, stats.Workers)
	}
}

func TestRefineNoEdges(t *testing.T) {
	X := mustParse(t, "node 1 = 1; node 2 = 2")

	P, stats, err := Refine(X, gomesh.RefineOpts{Workers: 3})
	require.NoError(t, err)
	assert.Equal(t, [][]gomesh.VtxID{{1}, {2}}, blockIDs(P.Blocks()))
	assert.Equal(t, 0, stats.Splits)
	assert.Equal(t, 1, stats.Rounds)
	assert.Equal(t, 2, stats.Meshes)
}

func TestRefineEmptyGraph(t *testing.T) {
	P, stats, err := Refine(libmesh.NewGraph(), gomesh.RefineOpts{Workers: 2})
	require.NoError(t, err)
	assert.Equal(t, 0, P.Size())
	assert.Equal(t, 1, stats.Rounds)
}

func TestRefineBadWorkerCount(t *testing.T) {
	_, _, err := Refine(libmesh.NewGraph(), gomesh.RefineOpts{Workers: -1})
	assert.True(t, errors.Is(err, gomesh.ErrBadWorkerCount))
}

func TestRefineDefaultWorkers(t *testing.T) {
	X := mustParse(t, "node 1 2 = 0; 1 -> 2")
	_, stats, err := Refine(X, gomesh.RefineOpts{})
	require.NoError(t, err)
	assert.Equal(t, gomesh.DefaultWorkers(), stats.Workers)
}

// Two splitters both split mesh {1,2,3}; with two workers exactly one of them is deferred to the next round.
func TestRefineConflict(t *testing.T) {
	const expr = "node 1 2 3 = 0; node 4 = 1; node 5 = 2; 1 -> 4; 2 -> 5"

	X := mustParse(t, expr)
	P, stats, err := Refine(X, gomesh.RefineOpts{Workers: 2})
	require.NoError(t, err)
	require.NoError(t, libmesh.VerifyStable(X, P))

	assert.Equal(t, [][]gomesh.VtxID{{1}, {2}, {3}, {4}, {5}}, blockIDs(P.Blocks()))
	assert.Equal(t, 1, stats.Conflicts)
	assert.Equal(t, 2, stats.Splits)
	assert.Equal(t, 3, stats.Rounds)

	X = mustParse(t, expr)
	_, stats, err = Refine(X, gomesh.RefineOpts{Workers: 1})
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Conflicts)
	assert.Equal(t, 3, stats.Rounds)
}

func TestRefineOnRound(t *testing.T) {
	X := mustParse(t, "node 1 2 3 4 = 0; 1 -> 2 -> 3 -> 4")

	var rounds []gomesh.RoundInfo
	_, stats, err := Refine(X, gomesh.RefineOpts{
		Workers: 3,
		OnRound: func(info gomesh.RoundInfo) {
			rounds = append(rounds, info)
		},
	})
	require.NoError(t, err)

	require.Len(t, rounds, stats.Rounds)
	splits := 0
	for i, info := range rounds {
		assert.Equal(t, i+1, info.Round)
		splits += info.Splits
		if i < len(rounds)-1 {
			assert.Positive(t, info.Splits, "every round but the last splits")
		}
	}
	last := rounds[len(rounds)-1]
	assert.Equal(t, 3, last.Inactive)
	assert.Equal(t, 0, last.Splits)
	assert.Equal(t, 4, last.Meshes)
	assert.Equal(t, stats.Splits, splits)
}

func gatheredValue(t *testing.T, reg *prometheus.Registry, name string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		m := mf.GetMetric()[0]
		if m.GetCounter() != nil {
			return m.GetCounter().GetValue()
		}
		return m.GetGauge().GetValue()
	}
	t.Fatalf("metric %s not gathered", name)
	return 0
}

func TestRefineMetrics(t *testing.T) {
	X := mustParse(t, "node 1 2 3 4 = 0; 2 -> 1; 3 -> 1; 4 -> 1")

	reg := prometheus.NewRegistry()
	_, _, err := Refine(X, gomesh.RefineOpts{
		Workers:    1,
		Registerer: reg,
	})
	require.NoError(t, err)

	assert.Equal(t, 2.0, gatheredValue(t, reg, "gomesh_refine_rounds_total"))
	assert.Equal(t, 1.0, gatheredValue(t, reg, "gomesh_refine_splits_total"))
	assert.Equal(t, 0.0, gatheredValue(t, reg, "gomesh_refine_conflicts_total"))
	assert.Equal(t, 1.0, gatheredValue(t, reg, "gomesh_refine_idle_worker_rounds_total"))
	assert.Equal(t, 2.0, gatheredValue(t, reg, "gomesh_refine_meshes"))
}

func TestRefineWorkerFault(t *testing.T) {
	testHookCommit = func(workerID int) {
		if workerID == 0 {
			panic("injected fault")
		}
	}
	defer func() { testHookCommit = nil }()

	X := mustParse(t, "node 1 2 3 4 = 0; 2 -> 1; 3 -> 1; 4 -> 1")
	_, _, err := Refine(X, gomesh.RefineOpts{Workers: 4})
	require.Error(t, err)
	assert.True(t, errors.Is(err, gomesh.ErrWorkerFault), "got %v", err)
	assert.Contains(t, err.Error(), "injected fault")
}

func TestCoordinatorKeepsFirstFault(t *testing.T) {
	c := newCoordinator(3, libmesh.NewPartition(), gomesh.RefineOpts{})
	require.Equal(t, 3, c.barrier.Parties())

	first := errors.New("first")
	c.setFault(first)
	c.setFault(errors.New("second"))

	assert.True(t, c.barrier.IsBroken())
	assert.Equal(t, first, c.fault)
	assert.True(t, errors.Is(c.barrier.Await(), gomesh.ErrBarrierBroken))
}

// randomGraph returns a graph expression of n vertices over the given number of labels.
func randomGraph(rng *rand.Rand, n, labels, edges int) string {
	var b strings.Builder
	for i := 1; i <= n; i++ {
		fmt.Fprintf(&b, "node %d = %d\n", i*3, rng.Intn(labels))
	}
	for i := 0; i < edges; i++ {
		fmt.Fprintf(&b, "%d -> %d\n", (rng.Intn(n)+1)*3, (rng.Intn(n)+1)*3)
	}
	return b.String()
}

// naiveRefine computes the coarsest stable partition sequentially: each pass gives every vertex the signature
// (class, set of classes it has an edge into) until the number of classes stops growing.
func naiveRefine(X *libmesh.Graph) [][]gomesh.VtxID {
	vertices := X.Vertices()
	class := make(map[gomesh.VtxID]int, len(vertices))
	labelClass := make(map[gomesh.Label]int)
	for _, v := range vertices {
		if _, ok := labelClass[v.Label]; !ok {
			labelClass[v.Label] = len(labelClass)
		}
		class[v.ID] = labelClass[v.Label]
	}
	numClasses := len(labelClass)

	for {
		succ := make(map[gomesh.VtxID]map[int]struct{}, len(vertices))
		for _, t := range vertices {
			for _, e := range t.Incoming() {
				if succ[e.Src] == nil {
					succ[e.Src] = make(map[int]struct{})
				}
				succ[e.Src][class[t.ID]] = struct{}{}
			}
		}

		sigClass := make(map[string]int)
		next := make(map[gomesh.VtxID]int, len(vertices))
		for _, v := range vertices {
			var out []int
			for c := range succ[v.ID] {
				out = append(out, c)
			}
			sort.Ints(out)
			sig := fmt.Sprint(class[v.ID], out)
			if _, ok := sigClass[sig]; !ok {
				sigClass[sig] = len(sigClass)
			}
			next[v.ID] = sigClass[sig]
		}
		class = next
		if len(sigClass) == numClasses {
			break
		}
		numClasses = len(sigClass)
	}

	groups := make(map[int][]gomesh.VtxID)
	for _, v := range vertices {
		groups[class[v.ID]] = append(groups[class[v.ID]], v.ID)
	}
	blocks := make([][]gomesh.VtxID, 0, len(groups))
	for _, ids := range groups {
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
		blocks = append(blocks, ids)
	}
	sort.Slice(blocks, func(i, j int) bool { return blocks[i][0] < blocks[j][0] })
	return blocks
}

func TestRefineMatchesNaive(t *testing.T) {
	rng := rand.New(rand.NewSource(2718))

	for trial := 0; trial < 40; trial++ {
		n := 1 + rng.Intn(60)
		expr := randomGraph(rng, n, 1+rng.Intn(3), rng.Intn(2*n+1))

		X, err := libmesh.ParseGraphExpr("random", expr)
		require.NoError(t, err)
		want := naiveRefine(X)

		for _, workers := range []int{1, 2, 8} {
			X, err := libmesh.ParseGraphExpr("random", expr)
			require.NoError(t, err)

			P, stats, err := Refine(X, gomesh.RefineOpts{Workers: workers})
			require.NoError(t, err)
			require.NoError(t, libmesh.VerifyStable(X, P), "trial %d, workers=%d", trial, workers)

			blocks := P.Blocks()
			require.Equal(t, want, blockIDs(blocks), "trial %d, workers=%d:\n%s", trial, workers, expr)
			assert.Equal(t, len(blocks), stats.Meshes, "no mesh is ever emptied")
			assert.LessOrEqual(t, stats.Rounds, n, "trial %d, workers=%d", trial, workers)

			for _, b := range blocks {
				for _, id := range b.Vertices {
					assert.Equal(t, b.Label, X.Vertex(id).Label)
				}
			}
		}
	}
}
