package splitter

import (
	"sort"

	"github.com/2x3systems/gomesh/gomesh"
	"github.com/2x3systems/gomesh/libmesh"
	"github.com/pkg/errors"
	"github.com/plan-systems/klog"
)

// testHookCommit, if set, is called by every worker at the start of its commit phase.
var testHookCommit func(workerID int)

// splitter is one worker of a refinement run.
type splitter struct {
	id    int
	X     *libmesh.Graph
	P     *libmesh.Partition
	coord *coordinator

	release []*libmesh.Mesh // splitters whose work was partly deferred, put back into play at commit
	splits  []split         // claimed split targets, committed after the first barrier
}

type split struct {
	target *libmesh.Mesh
	vtx    []*libmesh.Vertex
}

// run executes rounds until the coordinator reports that every worker went idle in the same round.
func (s *splitter) run() (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Wrapf(gomesh.ErrWorkerFault, "worker %d: %v", s.id, r)
			s.coord.setFault(err)
		}
	}()

	for {
		active := s.scan()
		if err := s.coord.barrier.Await(); err != nil {
			return errors.Wrapf(err, "worker %d", s.id)
		}

		s.commit()

		done, err := s.coord.endRound(active)
		if err != nil {
			return errors.Wrapf(err, "worker %d", s.id)
		}
		if done {
			return nil
		}
	}
}

// scan looks for the first unclaimed mesh that splits at least one other mesh and claims its targets.
// Returns false if no such mesh was found this round.
//
// Nothing structural is mutated here; every worker is scanning until the first barrier.
func (s *splitter) scan() bool {
	s.release = s.release[:0]
	s.splits = s.splits[:0]

	size := s.P.Size()
	for i := 0; i < size; i++ {
		M := s.P.Get(gomesh.MeshID(i))
		if M.IsClaimedAsSplitter() || M.TryClaimAsSplitter() {
			continue
		}
		if s.claimTargets(M) {
			return true
		}
	}
	return false
}

// claimTargets computes M's preimage and claims each mesh it properly splits.
//
// A target already claimed by another worker is deferred: its share of the preimage is queued on M and M is
// released at commit so it is picked up again next round.
func (s *splitter) claimTargets(M *libmesh.Mesh) bool {
	groups := s.preimage(M)

	targets := make([]gomesh.MeshID, 0, len(groups))
	for id := range groups {
		targets = append(targets, id)
	}
	sort.Slice(targets, func(i, j int) bool { return targets[i] < targets[j] })

	deferred := false
	for _, id := range targets {
		N := s.P.Get(id)
		V := groups[id]
		if len(V) == N.Len() {
			continue
		}
		if N.TryClaimAsSplitTarget() {
			M.PushPending(V)
			s.coord.conflicts.Add(1)
			if !deferred {
				deferred = true
				s.release = append(s.release, M)
			}
			continue
		}
		s.splits = append(s.splits, split{
			target: N,
			vtx:    V,
		})
	}
	return len(s.splits) > 0
}

// preimage returns the vertices with an edge into M, grouped by their current mesh.
// Deferred work queued on M takes the place of M's boundary.
func (s *splitter) preimage(M *libmesh.Mesh) map[gomesh.MeshID][]*libmesh.Vertex {
	var sources []*libmesh.Vertex
	if M.HasPending() {
		sources = M.TakePending()
	} else {
		boundary := M.Boundary()
		sources = make([]*libmesh.Vertex, 0, len(boundary))
		for _, e := range boundary {
			sources = append(sources, s.X.Vertex(e.Src))
		}
	}

	seen := make(map[gomesh.VtxID]struct{}, len(sources))
	groups := make(map[gomesh.MeshID][]*libmesh.Vertex)
	for _, v := range sources {
		if _, dupe := seen[v.ID]; dupe {
			continue
		}
		seen[v.ID] = struct{}{}
		groups[v.MeshID()] = append(groups[v.MeshID()], v)
	}
	return groups
}

// commit applies this worker's claimed splits.  Targets claimed by different workers are disjoint.
func (s *splitter) commit() {
	if testHookCommit != nil {
		testHookCommit(s.id)
	}

	for _, M := range s.release {
		M.ReleaseSplitter()
	}

	for _, sp := range s.splits {
		N := sp.target
		M := libmesh.NewMesh(N.Label())
		s.P.Insert(M)
		for _, v := range sp.vtx {
			N.MoveVertex(v, M)
		}
		N.UpdateBoundary()
		M.UpdateBoundary()

		N.ReleaseSplitTarget()
		N.ClearPending()
		N.ReleaseSplitter()

		klog.V(3).Infof("worker %d: split %d vertices from mesh %d into mesh %d", s.id, len(sp.vtx), N.ID(), M.ID())
	}
	s.coord.splits.Add(int32(len(s.splits)))
}
