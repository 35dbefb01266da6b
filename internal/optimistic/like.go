package optimistic

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/desertthunder/vkx/internal/models"
	"github.com/desertthunder/vkx/internal/shared"
)

// Remote performs like and unlike calls for one kind of entity.
type Remote interface {
	Like(ctx context.Context, id int64) error
	Unlike(ctx context.Context, id int64) error
}

// RemoteFuncs adapts a pair of functions to [Remote].
type RemoteFuncs struct {
	LikeFunc   func(ctx context.Context, id int64) error
	UnlikeFunc func(ctx context.Context, id int64) error
}

func (r RemoteFuncs) Like(ctx context.Context, id int64) error   { return r.LikeFunc(ctx, id) }
func (r RemoteFuncs) Unlike(ctx context.Context, id int64) error { return r.UnlikeFunc(ctx, id) }

// LikeCell is the shadow like state of one rendered entity.
//
// Cells are never shared between instances: a list row and a detail view each hold their own.
type LikeCell struct {
	cell   *Cell[models.LikeState]
	gate   *Gate
	clock  clockwork.Clock
	remote Remote
}

// LikeOption configures a [LikeCell].
type LikeOption func(*LikeCell)

// WithClock sets the time source used by the cooldown.
func WithClock(c clockwork.Clock) LikeOption {
	return func(l *LikeCell) { l.clock = c }
}

// WithCooldown sets the cooldown window.
func WithCooldown(d time.Duration) LikeOption {
	return func(l *LikeCell) { l.gate = NewGate(d) }
}

// NewLikeCell creates a cell from server values.
func NewLikeCell(initial models.LikeState, remote Remote, opts ...LikeOption) *LikeCell {
	l := &LikeCell{
		cell:   NewCell(models.NewLikeState(initial.ID, initial.LikesCount, initial.Liked)),
		remote: remote,
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.gate == nil {
		l.gate = NewGate(DefaultCooldown)
	}
	l.clock = clockOrReal(l.clock)
	return l
}

// State returns the displayed (possibly optimistic) values.
func (l *LikeCell) State() models.LikeState {
	return l.cell.Get()
}

// ID is the identity of the entity the cell shadows.
func (l *LikeCell) ID() int64 {
	return l.cell.Get().ID
}

// Pending reports whether a like or unlike call is in flight.
func (l *LikeCell) Pending() bool {
	return l.cell.InFlight()
}

// Busy reports whether a toggle right now would be refused.
func (l *LikeCell) Busy() bool {
	return l.gate.InFlight() || l.gate.State(l.clock.Now()) == Cooling
}

// LikeCall is a toggle that has been applied locally and awaits its remote call.
type LikeCall struct {
	Intent  models.LikeIntent
	ID      int64
	Before  models.LikeState
	pending *Pending[models.LikeState]
	gate    *Gate
}

// Run performs the remote call and settles the cell. It is safe to call from any goroutine.
func (c *LikeCall) Run(ctx context.Context) (Outcome, error) {
	defer c.gate.End()
	return c.pending.Run(ctx)
}

// Toggle flips the like locally and returns the call to run.
//
// Returns [shared.ErrCooldown] when the gate refuses and [shared.ErrClosed] after [LikeCell.Close].
func (l *LikeCell) Toggle() (*LikeCall, error) {
	if l.cell.Closed() {
		return nil, shared.ErrClosed
	}
	if !l.gate.Admit(l.clock.Now()) {
		return nil, shared.ErrCooldown
	}

	before := l.cell.Get()
	_, intent := before.Toggled()
	id := before.ID

	pending, err := l.cell.Begin(Mutation[models.LikeState]{
		Apply: func(s models.LikeState) models.LikeState {
			next, _ := s.Toggled()
			return next
		},
		Run: func(ctx context.Context) error {
			if intent == models.Unlike {
				return l.remote.Unlike(ctx, id)
			}
			return l.remote.Like(ctx, id)
		},
	})
	if err != nil {
		return nil, err
	}

	l.gate.Begin()
	return &LikeCall{Intent: intent, ID: id, Before: before, pending: pending, gate: l.gate}, nil
}

// Sync re-initializes from server values only when the entity's identity changed and reports whether it did.
//
// A refetch of the same id never overwrites the shadow copy.
func (l *LikeCell) Sync(server models.LikeState) bool {
	if server.ID == l.cell.Get().ID {
		return false
	}
	l.cell.Reset(models.NewLikeState(server.ID, server.LikesCount, server.Liked))
	return true
}

// Reset adopts server values for the same entity when nothing is pending and reports whether it did.
func (l *LikeCell) Reset(server models.LikeState) bool {
	if server.ID != l.cell.Get().ID {
		return l.Sync(server)
	}
	return l.cell.ReplaceIdle(models.NewLikeState(server.ID, server.LikesCount, server.Liked))
}

// Close detaches the cell from its view. Settlements arriving later are ignored.
func (l *LikeCell) Close() {
	l.cell.Close()
}
