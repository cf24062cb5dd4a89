package splitter

import (
	"sync"

	"github.com/2x3systems/gomesh/gomesh"
)

// Barrier is a reusable cyclic rendezvous for a fixed number of parties.
//
// Each call to Await blocks until all parties have called it; the last to arrive runs the trip action (if any)
// before anyone is released, then the barrier resets for the next cycle.
type Barrier struct {
	mu      sync.Mutex
	parties int
	count   int
	gen     *generation
	action  func()
}

type generation struct {
	done   chan struct{}
	broken bool
}

func newGeneration() *generation {
	return &generation{
		done: make(chan struct{}),
	}
}

// NewBarrier returns a barrier for the given number of parties.  action may be nil.
func NewBarrier(parties int, action func()) *Barrier {
	return &Barrier{
		parties: parties,
		gen:     newGeneration(),
		action:  action,
	}
}

func (b *Barrier) Parties() int {
	return b.parties
}

// IsBroken reports whether Break has been called.
func (b *Barrier) IsBroken() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.gen.broken
}

// Await blocks until all parties have arrived or the barrier is broken.
//
// Returns gomesh.ErrBarrierBroken if the barrier was broken before or while waiting.
func (b *Barrier) Await() error {
	b.mu.Lock()
	gen := b.gen
	if gen.broken {
		b.mu.Unlock()
		return gomesh.ErrBarrierBroken
	}

	b.count++
	if b.count < b.parties {
		b.mu.Unlock()
		<-gen.done
		if gen.broken {
			return gomesh.ErrBarrierBroken
		}
		return nil
	}

	// Last to arrive: every other party is parked on gen.done, so the action runs alone.
	b.count = 0
	b.mu.Unlock()
	if b.action != nil {
		b.action()
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if gen.broken {
		return gomesh.ErrBarrierBroken
	}
	b.gen = newGeneration()
	close(gen.done)
	return nil
}

// Break releases every waiting party with ErrBarrierBroken; all later calls to Await fail the same way.
func (b *Barrier) Break() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.gen.broken {
		b.gen.broken = true
		close(b.gen.done)
	}
}
