package splitter

import (
	"sync"
	"sync/atomic"

	"github.com/2x3systems/gomesh/gomesh"
	"github.com/2x3systems/gomesh/libmesh"
	"github.com/plan-systems/klog"
)

// coordinator is the state shared by all workers of a run: the barrier, the per-round counters and the
// termination decision.
//
// Every round trips the barrier twice.  On the second trip the barrier action closes the round: it takes the
// counters, decides whether all workers went idle and resets for the next round.  The decision is read by each
// worker after its second Await returns, so it needs no lock of its own.
type coordinator struct {
	P       *libmesh.Partition
	barrier *Barrier
	metrics *Metrics
	onRound func(gomesh.RoundInfo)

	inactive  atomic.Int32
	splits    atomic.Int32
	conflicts atomic.Int32

	trips int          // only touched by the barrier action
	done  bool         // set by the barrier action
	stats gomesh.Stats // updated by the barrier action

	faultOnce sync.Once
	fault     error
}

func newCoordinator(workers int, P *libmesh.Partition, opts gomesh.RefineOpts) *coordinator {
	c := &coordinator{
		P:       P,
		metrics: NewMetrics(opts.Registerer),
		onRound: opts.OnRound,
	}
	c.barrier = NewBarrier(workers, c.onTrip)
	c.metrics.Meshes.Set(float64(P.Size()))
	return c
}

func (c *coordinator) onTrip() {
	c.trips++
	if c.trips%2 != 0 {
		return
	}

	info := gomesh.RoundInfo{
		Round:     c.trips / 2,
		Splits:    int(c.splits.Swap(0)),
		Conflicts: int(c.conflicts.Swap(0)),
		Inactive:  int(c.inactive.Swap(0)),
		Meshes:    c.P.Size(),
	}
	c.done = info.Inactive == c.barrier.Parties()

	c.stats.Rounds = info.Round
	c.stats.Splits += info.Splits
	c.stats.Conflicts += info.Conflicts

	c.metrics.Rounds.Inc()
	c.metrics.Splits.Add(float64(info.Splits))
	c.metrics.Conflicts.Add(float64(info.Conflicts))
	c.metrics.IdleWorkers.Add(float64(info.Inactive))
	c.metrics.Meshes.Set(float64(info.Meshes))

	klog.V(2).Infof("round %d: %d splits, %d conflicts, %d/%d idle, %d meshes",
		info.Round, info.Splits, info.Conflicts, info.Inactive, c.barrier.Parties(), info.Meshes)

	if c.onRound != nil {
		c.onRound(info)
	}
}

// endRound reports whether the calling worker was active this round and waits at the round's second barrier.
// It returns true once every worker was idle in the same round.
func (c *coordinator) endRound(active bool) (bool, error) {
	if !active {
		c.inactive.Add(1)
	}
	if err := c.barrier.Await(); err != nil {
		return false, err
	}
	return c.done, nil
}

// setFault records the first worker fault and releases every other worker.
func (c *coordinator) setFault(err error) {
	c.faultOnce.Do(func() {
		c.fault = err
	})
	if !c.barrier.IsBroken() {
		klog.Errorf("refine: %v", err)
		c.barrier.Break()
	}
}
