// Package search implements the debounced search input used by the collection and add-vinyls views.
//
// The [Controller] is a pure state machine driven by explicit timestamps. The caller schedules
// a timer for each tag returned by [Controller.Input] and hands the tag back to
// [Controller.Fire] when it expires; only the newest tag can commit.
package search

import (
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/desertthunder/vkx/internal/shared"
)

const (
	DefaultDebounce  = 500 * time.Millisecond
	DefaultMinLength = 2
)

// Phase is where the controller is between keystrokes and commits.
type Phase int

const (
	Idle Phase = iota
	Typing
	TooShort
	Committed
)

func (p Phase) String() string {
	switch p {
	case Typing:
		return "typing"
	case TooShort:
		return "too short"
	case Committed:
		return "committed"
	default:
		return "idle"
	}
}

// Status is what a results area should render.
type Status int

const (
	StatusIdle Status = iota
	StatusTooShort
	StatusSearching
	StatusResults
	StatusNoResults
)

// Tag identifies one keystroke's debounce timer.
type Tag uint64

// Controller debounces a text input into committed queries.
type Controller struct {
	mu        sync.Mutex
	window    time.Duration
	minLen    int
	text      string
	tag       Tag
	changedAt time.Time
	phase     Phase
	committed string
	hasCommit bool
}

// Option configures a [Controller].
type Option func(*Controller)

// WithWindow sets the debounce window.
func WithWindow(d time.Duration) Option {
	return func(c *Controller) {
		if d >= 0 {
			c.window = d
		}
	}
}

// WithMinLength sets the minimum query length in runes.
func WithMinLength(n int) Option {
	return func(c *Controller) {
		if n > 0 {
			c.minLen = n
		}
	}
}

// NewController creates a controller with a 500ms window and a minimum of 2 characters.
func NewController(opts ...Option) *Controller {
	c := &Controller{window: DefaultDebounce, minLen: DefaultMinLength}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Window returns the debounce window, for scheduling timers.
func (c *Controller) Window() time.Duration {
	return c.window
}

// MinLength returns the minimum query length.
func (c *Controller) MinLength() int {
	return c.minLen
}

// Input records a keystroke and restarts the window. The returned tag is the only one
// [Controller.Fire] will honor until the next keystroke. Input below the minimum length
// moves straight to [TooShort]; its tag never commits.
func (c *Controller) Input(text string, now time.Time) Tag {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.tag++
	c.text = text
	c.changedAt = now

	if strings.TrimSpace(text) == "" {
		c.phase = Idle
		c.committed = ""
		c.hasCommit = false
		return c.tag
	}
	if shared.RuneLen(shared.NormalizeQuery(text)) < c.minLen {
		c.phase = TooShort
		return c.tag
	}

	c.phase = Typing
	return c.tag
}

// Fire is called when the timer for tag expires. It returns the query to run, or false when
// the tag is stale, the input has not been stable for the window, the input is too short, or
// the query equals the last commit.
func (c *Controller) Fire(tag Tag, now time.Time) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if tag != c.tag || c.phase == Idle || c.phase == TooShort {
		return "", false
	}
	if now.Sub(c.changedAt) < c.window {
		return "", false
	}
	return c.commit()
}

// Submit commits the current input immediately, skipping the debounce.
func (c *Controller) Submit(now time.Time) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.phase == Idle {
		return "", false
	}
	c.tag++
	c.changedAt = now.Add(-c.window)
	return c.commit()
}

func (c *Controller) commit() (string, bool) {
	q := shared.NormalizeQuery(c.text)
	if shared.RuneLen(q) < c.minLen {
		c.phase = TooShort
		return "", false
	}

	c.phase = Committed
	if c.hasCommit && q == c.committed {
		return "", false
	}
	c.committed = q
	c.hasCommit = true
	return q, true
}

// Phase returns the current phase.
func (c *Controller) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

// Text returns the raw input.
func (c *Controller) Text() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.text
}

// Committed returns the last committed query.
func (c *Controller) Committed() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.committed, c.hasCommit
}

// Reset clears input and commit state. Outstanding tags become stale.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tag++
	c.text = ""
	c.phase = Idle
	c.committed = ""
	c.hasCommit = false
}

// Status maps the phase plus the fetch state onto what the view shows.
func (c *Controller) Status(results int, loading bool) Status {
	switch c.Phase() {
	case Idle:
		return StatusIdle
	case TooShort:
		return StatusTooShort
	case Typing:
		return StatusSearching
	}
	if loading {
		return StatusSearching
	}
	if results > 0 {
		return StatusResults
	}
	return StatusNoResults
}

// Hint is the helper line for the current status.
func (c *Controller) Hint(results int, loading bool) string {
	switch c.Status(results, loading) {
	case StatusTooShort:
		return "Type at least " + strconv.Itoa(c.minLen) + " characters"
	case StatusSearching:
		return "Searching..."
	case StatusNoResults:
		q, _ := c.Committed()
		return "No results for " + q
	case StatusResults:
		return strconv.Itoa(results) + " results"
	default:
		return ""
	}
}
