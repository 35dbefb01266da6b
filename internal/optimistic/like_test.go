package optimistic

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/desertthunder/vkx/internal/models"
	"github.com/desertthunder/vkx/internal/shared"
	tu "github.com/desertthunder/vkx/internal/testing"
)

func collectionRemote(g *tu.FakeGateway) Remote {
	return RemoteFuncs{LikeFunc: g.LikeCollection, UnlikeFunc: g.UnlikeCollection}
}

func newTestCell(state models.LikeState, g *tu.FakeGateway) (*LikeCell, *clockwork.FakeClock) {
	clock := clockwork.NewFakeClock()
	return NewLikeCell(state, collectionRemote(g), WithClock(clock), WithCooldown(time.Second)), clock
}

func TestLikeCell(t *testing.T) {
	ctx := context.Background()

	t.Run("Toggle is synchronous with the click", func(t *testing.T) {
		g := tu.NewFakeGateway()
		cell, _ := newTestCell(models.LikeState{ID: 1, LikesCount: 5}, g)

		call, err := cell.Toggle()
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if call.Intent != models.Like {
			t.Errorf("expected like intent, got %v", call.Intent)
		}
		if s := cell.State(); !s.Liked || s.LikesCount != 6 {
			t.Errorf("expected liked with 6 before the call runs, got %+v", s)
		}
		if g.Total() != 0 {
			t.Error("expected no network call before Run")
		}
	})

	t.Run("double click within the cooldown sends one call", func(t *testing.T) {
		g := tu.NewFakeGateway()
		cell, clock := newTestCell(models.LikeState{ID: 1, LikesCount: 5}, g)

		first, err := cell.Toggle()
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		clock.Advance(150 * time.Millisecond)
		if _, err := cell.Toggle(); !errors.Is(err, shared.ErrCooldown) {
			t.Errorf("expected ErrCooldown, got %v", err)
		}
		first.Run(ctx)

		if g.Total() != 1 || g.Calls("LikeCollection") != 1 {
			t.Errorf("expected exactly one like call, got %d", g.Total())
		}
		if s := cell.State(); !s.Liked || s.LikesCount != 6 {
			t.Errorf("expected a single toggle applied, got %+v", s)
		}
	})

	t.Run("second toggle waits for both settle and cooldown", func(t *testing.T) {
		g := tu.NewFakeGateway()
		g.Hold = make(chan struct{})
		cell, clock := newTestCell(models.LikeState{ID: 1, LikesCount: 5}, g)

		call, _ := cell.Toggle()
		done := make(chan struct{})
		go func() {
			call.Run(ctx)
			close(done)
		}()

		clock.Advance(2 * time.Second)
		if _, err := cell.Toggle(); !errors.Is(err, shared.ErrCooldown) {
			t.Errorf("expected refusal while in flight, got %v", err)
		}
		if !cell.Busy() {
			t.Error("expected cell to be busy")
		}

		g.Hold <- struct{}{}
		<-done

		next, err := cell.Toggle()
		if err != nil {
			t.Fatalf("expected toggle after settle and cooldown, got %v", err)
		}
		if next.Intent != models.Unlike {
			t.Errorf("expected unlike, got %v", next.Intent)
		}
	})

	t.Run("failed like rolls back to the pre-click values", func(t *testing.T) {
		g := tu.NewFakeGateway()
		g.Err = errors.New("503")
		cell, _ := newTestCell(models.LikeState{ID: 1, LikesCount: 5, Liked: false}, g)

		call, _ := cell.Toggle()
		outcome, err := call.Run(ctx)
		if err == nil || outcome != RolledBack {
			t.Fatalf("expected rollback, got %v (%v)", outcome, err)
		}
		if s := cell.State(); s.Liked || s.LikesCount != 5 {
			t.Errorf("expected liked=false count=5, got %+v", s)
		}
	})

	t.Run("rollback target is the last confirmed state", func(t *testing.T) {
		g := tu.NewFakeGateway()
		cell, clock := newTestCell(models.LikeState{ID: 1, LikesCount: 5}, g)

		call, _ := cell.Toggle()
		call.Run(ctx)
		clock.Advance(time.Second)

		g.SetErr(errors.New("boom"))
		call, _ = cell.Toggle()
		call.Run(ctx)

		if s := cell.State(); !s.Liked || s.LikesCount != 6 {
			t.Errorf("expected liked=true count=6, got %+v", s)
		}
	})

	t.Run("count never goes below zero", func(t *testing.T) {
		g := tu.NewFakeGateway()
		cell, clock := newTestCell(models.LikeState{ID: 1, LikesCount: 0, Liked: true}, g)

		for range 4 {
			call, err := cell.Toggle()
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if cell.State().LikesCount < 0 {
				t.Fatalf("count went negative: %+v", cell.State())
			}
			call.Run(ctx)
			clock.Advance(time.Second)
			g.SetErr(errors.New("flaky"))
		}
		if cell.State().LikesCount < 0 {
			t.Errorf("count went negative: %+v", cell.State())
		}

		if s := NewLikeCell(models.LikeState{ID: 2, LikesCount: -3}, collectionRemote(g)).State(); s.LikesCount != 0 {
			t.Errorf("expected construction to clamp, got %d", s.LikesCount)
		}
	})

	t.Run("refetch of the same id does not clobber a pending toggle", func(t *testing.T) {
		g := tu.NewFakeGateway()
		cell, _ := newTestCell(models.LikeState{ID: 1, LikesCount: 5}, g)

		call, _ := cell.Toggle()
		if cell.Sync(models.LikeState{ID: 1, LikesCount: 42, Liked: false}) {
			t.Error("expected Sync to ignore same identity")
		}
		if cell.Reset(models.LikeState{ID: 1, LikesCount: 42}) {
			t.Error("expected Reset to refuse while pending")
		}
		if s := cell.State(); !s.Liked || s.LikesCount != 6 {
			t.Errorf("expected optimistic value to survive, got %+v", s)
		}

		call.Run(ctx)
		if !cell.Reset(models.LikeState{ID: 1, LikesCount: 42, Liked: true}) {
			t.Error("expected Reset once idle")
		}
		if cell.State().LikesCount != 42 {
			t.Errorf("expected 42 after reset, got %d", cell.State().LikesCount)
		}
	})

	t.Run("new identity re-initializes and orphans the old call", func(t *testing.T) {
		g := tu.NewFakeGateway()
		g.Err = errors.New("boom")
		cell, _ := newTestCell(models.LikeState{ID: 1, LikesCount: 5}, g)

		call, _ := cell.Toggle()
		if !cell.Sync(models.LikeState{ID: 2, LikesCount: 9, Liked: true}) {
			t.Fatal("expected Sync to adopt a new identity")
		}

		outcome, _ := call.Run(ctx)
		if outcome != Discarded {
			t.Errorf("expected discarded, got %v", outcome)
		}
		if s := cell.State(); s.ID != 2 || s.LikesCount != 9 || !s.Liked {
			t.Errorf("expected new entity state, got %+v", s)
		}
	})

	t.Run("settling after Close changes nothing and does not panic", func(t *testing.T) {
		for _, fail := range []bool{false, true} {
			g := tu.NewFakeGateway()
			if fail {
				g.Err = errors.New("boom")
			}
			cell, _ := newTestCell(models.LikeState{ID: 1, LikesCount: 5}, g)

			call, _ := cell.Toggle()
			after := cell.State()
			cell.Close()

			outcome, _ := call.Run(ctx)
			if outcome != Discarded {
				t.Errorf("fail=%v: expected discarded, got %v", fail, outcome)
			}
			if cell.State() != after {
				t.Errorf("fail=%v: state changed after close: %+v", fail, cell.State())
			}
			if g.Total() != 1 {
				t.Errorf("fail=%v: expected the pending call to still run", fail)
			}
			if _, err := cell.Toggle(); !errors.Is(err, shared.ErrClosed) {
				t.Errorf("fail=%v: expected ErrClosed, got %v", fail, err)
			}
		}
	})

	t.Run("concurrent toggles admit exactly one", func(t *testing.T) {
		g := tu.NewFakeGateway()
		cell, _ := newTestCell(models.LikeState{ID: 1, LikesCount: 5}, g)

		var (
			wg       sync.WaitGroup
			mu       sync.Mutex
			admitted []*LikeCall
		)
		for range 16 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if call, err := cell.Toggle(); err == nil {
					mu.Lock()
					admitted = append(admitted, call)
					mu.Unlock()
				}
			}()
		}
		wg.Wait()

		if len(admitted) != 1 {
			t.Fatalf("expected one admitted toggle, got %d", len(admitted))
		}
		admitted[0].Run(ctx)
		if g.Total() != 1 {
			t.Errorf("expected one network call, got %d", g.Total())
		}
	})
}
