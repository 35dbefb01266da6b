package tasks

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/jonboulle/clockwork"

	"github.com/desertthunder/vkx/internal/models"
	"github.com/desertthunder/vkx/internal/optimistic"
	"github.com/desertthunder/vkx/internal/query"
	"github.com/desertthunder/vkx/internal/services"
)

// Target is the kind of entity a like applies to.
type Target int

const (
	CollectionTarget Target = iota
	PlaceTarget
)

func (t Target) String() string {
	if t == PlaceTarget {
		return "place"
	}
	return "collection"
}

func (t Target) kind() query.Kind {
	if t == PlaceTarget {
		return query.PlaceLike
	}
	return query.CollectionLike
}

// LikeEngine builds like cells and reconciles the cache after their calls settle.
type LikeEngine struct {
	gateway services.Gateway
	cache   *query.Client
	logger  *log.Logger
	clock   clockwork.Clock
	opts    engineOpts
}

// NewLikeEngine creates a [LikeEngine]. cache may be nil.
func NewLikeEngine(gateway services.Gateway, cache *query.Client, opts ...Option) *LikeEngine {
	o := newEngineOpts(opts)
	return &LikeEngine{gateway: gateway, cache: cache, logger: o.logger, clock: o.clock, opts: o}
}

// Cell creates a cell for one rendered instance of an entity. Cells must not be shared between instances.
func (e *LikeEngine) Cell(t Target, initial models.LikeState) *optimistic.LikeCell {
	remote := optimistic.RemoteFuncs{LikeFunc: e.gateway.LikeCollection, UnlikeFunc: e.gateway.UnlikeCollection}
	if t == PlaceTarget {
		remote = optimistic.RemoteFuncs{LikeFunc: e.gateway.LikePlace, UnlikeFunc: e.gateway.UnlikePlace}
	}

	cellOpts := []optimistic.LikeOption{optimistic.WithClock(e.clock)}
	if e.opts.cooldown > 0 {
		cellOpts = append(cellOpts, optimistic.WithCooldown(e.opts.cooldown))
	}
	return optimistic.NewLikeCell(initial, remote, cellOpts...)
}

// Run performs call and reconciles. Whenever the backend accepted the change the entity's
// views are invalidated, even if the cell was closed meanwhile. Failures are logged at
// debug level and never returned to the user.
func (e *LikeEngine) Run(ctx context.Context, t Target, call *optimistic.LikeCall) optimistic.Outcome {
	outcome, err := call.Run(ctx)
	if err != nil {
		e.logger.Debug("like call failed", "target", t, "id", call.ID, "intent", call.Intent, "outcome", outcome, "error", err)
		return outcome
	}

	invalidate(e.cache, t.kind(), call.ID)
	e.logger.Debug("like call settled", "target", t, "id", call.ID, "intent", call.Intent, "outcome", outcome)
	return outcome
}

// Toggle is [optimistic.LikeCell.Toggle] followed by [LikeEngine.Run] on the caller's goroutine.
func (e *LikeEngine) Toggle(ctx context.Context, t Target, cell *optimistic.LikeCell) (models.LikeState, optimistic.Outcome, error) {
	call, err := cell.Toggle()
	if err != nil {
		return cell.State(), optimistic.Discarded, err
	}
	outcome := e.Run(ctx, t, call)
	return cell.State(), outcome, nil
}
