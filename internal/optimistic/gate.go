package optimistic

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// DefaultCooldown is the minimum spacing between two admitted actions on one instance.
const DefaultCooldown = time.Second

// GateState is the position of a [Gate] in its Idle/Cooling cycle.
type GateState int

const (
	Idle GateState = iota
	Cooling
)

func (s GateState) String() string {
	if s == Cooling {
		return "cooling"
	}
	return "idle"
}

// Gate admits at most one action per window and none while a call is in flight.
type Gate struct {
	mu       sync.Mutex
	window   time.Duration
	expiry   time.Time
	inFlight bool
}

// NewGate creates an idle gate. A non-positive window uses [DefaultCooldown].
func NewGate(window time.Duration) *Gate {
	if window <= 0 {
		window = DefaultCooldown
	}
	return &Gate{window: window}
}

// Window returns the cooldown length.
func (g *Gate) Window() time.Duration {
	return g.window
}

// Admit enters Cooling(now+window) and returns true when the gate is idle and nothing is in flight.
func (g *Gate) Admit(now time.Time) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.inFlight || now.Before(g.expiry) {
		return false
	}
	g.expiry = now.Add(g.window)
	return true
}

// Begin marks a call as in flight.
func (g *Gate) Begin() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.inFlight = true
}

// End clears the in-flight mark.
func (g *Gate) End() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.inFlight = false
}

// State reports the gate's phase at now.
func (g *Gate) State(now time.Time) GateState {
	g.mu.Lock()
	defer g.mu.Unlock()
	if now.Before(g.expiry) {
		return Cooling
	}
	return Idle
}

// InFlight reports whether a call is outstanding.
func (g *Gate) InFlight() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.inFlight
}

// Remaining is how long until the gate idles, zero when it already is.
func (g *Gate) Remaining(now time.Time) time.Duration {
	g.mu.Lock()
	defer g.mu.Unlock()
	return max(0, g.expiry.Sub(now))
}

// clockOrReal falls back to the wall clock.
func clockOrReal(c clockwork.Clock) clockwork.Clock {
	if c == nil {
		return clockwork.NewRealClock()
	}
	return c
}
