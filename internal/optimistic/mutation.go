package optimistic

import (
	"context"
	"fmt"
	"sync"

	"github.com/desertthunder/vkx/internal/shared"
)

// Mutation is a local change plus the remote call that confirms it.
//
// Rollback is implicit: the cell keeps the value it held before Apply and restores it if Run fails.
type Mutation[S any] struct {
	Apply func(S) S
	Run   func(context.Context) error
}

// Outcome is how a pending mutation settled against its cell.
type Outcome int

const (
	// Confirmed means the call succeeded and the applied value stands.
	Confirmed Outcome = iota + 1
	// RolledBack means the call failed and the snapshot was restored.
	RolledBack
	// Discarded means the cell was closed or re-keyed first, so nothing changed.
	Discarded
)

func (o Outcome) String() string {
	switch o {
	case Confirmed:
		return "confirmed"
	case RolledBack:
		return "rolled back"
	case Discarded:
		return "discarded"
	default:
		return "unknown"
	}
}

// Cell holds one value that mutations are applied to. At most one mutation is pending at a time.
type Cell[S any] struct {
	mu      sync.Mutex
	state   S
	gen     uint64
	pending *Pending[S]
	closed  bool
}

// NewCell creates a cell holding initial.
func NewCell[S any](initial S) *Cell[S] {
	return &Cell[S]{state: initial}
}

// Get returns the current value.
func (c *Cell[S]) Get() S {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// InFlight reports whether a mutation is waiting to settle.
func (c *Cell[S]) InFlight() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending != nil
}

// Closed reports whether [Cell.Close] was called.
func (c *Cell[S]) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Begin applies m locally and returns the pending call. The previous value is kept for rollback.
func (c *Cell[S]) Begin(m Mutation[S]) (*Pending[S], error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, shared.ErrClosed
	}
	if c.pending != nil {
		return nil, shared.ErrInFlight
	}

	p := &Pending[S]{cell: c, gen: c.gen, snapshot: c.state, run: m.Run}
	c.state = m.Apply(c.state)
	c.pending = p
	return p, nil
}

// Reset replaces the value, dropping any pending mutation so its settlement is ignored.
func (c *Cell[S]) Reset(s S) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.gen++
	c.pending = nil
	c.state = s
}

// ReplaceIdle replaces the value only when nothing is pending and reports whether it did.
func (c *Cell[S]) ReplaceIdle(s S) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.pending != nil {
		return false
	}
	c.state = s
	return true
}

// Close detaches the cell from its owner. Later settlements are discarded and later Begins fail.
func (c *Cell[S]) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.pending = nil
}

// Pending is a mutation applied locally whose remote call has not settled.
type Pending[S any] struct {
	cell     *Cell[S]
	gen      uint64
	snapshot S
	run      func(context.Context) error

	once    sync.Once
	outcome Outcome
}

// Snapshot is the value the cell held before the mutation.
func (p *Pending[S]) Snapshot() S {
	return p.snapshot
}

// Run performs the remote call and settles with its result.
//
// The call runs even when the cell has been closed; only the settlement is skipped.
func (p *Pending[S]) Run(ctx context.Context) (Outcome, error) {
	var err error
	if p.run != nil {
		err = runSafely(ctx, p.run)
	}
	return p.Settle(err), err
}

// Settle applies the result of the remote call. Only the first call has an effect.
func (p *Pending[S]) Settle(err error) Outcome {
	p.once.Do(func() {
		c := p.cell
		c.mu.Lock()
		defer c.mu.Unlock()

		if c.closed || c.gen != p.gen || c.pending != p {
			p.outcome = Discarded
			return
		}

		c.pending = nil
		if err != nil {
			c.state = p.snapshot
			p.outcome = RolledBack
			return
		}
		p.outcome = Confirmed
	})
	return p.outcome
}

// runSafely turns a panic in the remote call into an error so the cell always settles.
func runSafely(ctx context.Context, fn func(context.Context) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("remote call panicked: %v", r)
		}
	}()
	return fn(ctx)
}
