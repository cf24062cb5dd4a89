package splitter

import (
	"github.com/2x3systems/gomesh/gomesh"
	"github.com/2x3systems/gomesh/libmesh"
	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/plan-systems/klog"
	"golang.org/x/sync/errgroup"
)

// Refine computes the coarsest stable refinement of X's label partition.
func Refine(X *libmesh.Graph, opts gomesh.RefineOpts) (*libmesh.Partition, gomesh.Stats, error) {
	P := X.InitialPartition()
	stats, err := RefinePartition(X, P, opts)
	return P, stats, err
}

// RefinePartition refines P in place until it is stable with respect to X's edges.
//
// P must partition X's vertices with every mesh's boundary current (see Graph.InitialPartition).  If a worker
// faults, the run is abandoned and the returned error wraps gomesh.ErrWorkerFault; P is then unusable.
func RefinePartition(X *libmesh.Graph, P *libmesh.Partition, opts gomesh.RefineOpts) (gomesh.Stats, error) {
	workers := opts.Workers
	if workers < 0 {
		return gomesh.Stats{}, errors.Wrapf(gomesh.ErrBadWorkerCount, "%d workers", workers)
	}
	if workers == 0 {
		workers = gomesh.DefaultWorkers()
	}

	klog.V(1).Infof("refining %s vertices in %d meshes with %d workers",
		humanize.Comma(int64(X.NumVertices())), P.Size(), workers)

	c := newCoordinator(workers, P, opts)

	var group errgroup.Group
	for i := 0; i < workers; i++ {
		s := &splitter{
			id:    i,
			X:     X,
			P:     P,
			coord: c,
		}
		group.Go(s.run)
	}
	err := group.Wait()
	if c.fault != nil {
		err = c.fault
	}

	stats := c.stats
	stats.Workers = workers
	stats.Meshes = P.Size()
	if err != nil {
		return stats, errors.Wrap(err, "refine")
	}

	klog.V(1).Infof("refined to %s meshes in %d rounds (%s splits, %s conflicts)",
		humanize.Comma(int64(stats.Meshes)), stats.Rounds,
		humanize.Comma(int64(stats.Splits)), humanize.Comma(int64(stats.Conflicts)))
	return stats, nil
}
