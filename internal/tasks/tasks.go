package tasks

import (
	"time"

	"github.com/charmbracelet/log"
	"github.com/jonboulle/clockwork"

	"github.com/desertthunder/vkx/internal/query"
)

// Severity grades a [Notice].
type Severity int

const (
	Info Severity = iota
	Success
	Error
)

func (s Severity) String() string {
	switch s {
	case Success:
		return "success"
	case Error:
		return "error"
	default:
		return "info"
	}
}

// Notice is a user-facing outcome of a mutation.
type Notice struct {
	Severity  Severity
	Message   string
	Retryable bool
}

func errorNotice(msg string) Notice {
	return Notice{Severity: Error, Message: msg, Retryable: true}
}

// Option configures the engines.
type Option func(*engineOpts)

type engineOpts struct {
	logger   *log.Logger
	clock    clockwork.Clock
	cooldown time.Duration
}

// WithLogger sets the logger. Defaults to [log.Default].
func WithLogger(l *log.Logger) Option {
	return func(o *engineOpts) { o.logger = l }
}

// WithClock injects the clock used by like cells.
func WithClock(c clockwork.Clock) Option {
	return func(o *engineOpts) { o.clock = c }
}

// WithCooldown sets the like cooldown window.
func WithCooldown(d time.Duration) Option {
	return func(o *engineOpts) { o.cooldown = d }
}

func newEngineOpts(opts []Option) engineOpts {
	o := engineOpts{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = log.Default()
	}
	if o.clock == nil {
		o.clock = clockwork.NewRealClock()
	}
	return o
}

// invalidate tolerates a nil cache so engines can run without one in the CLI.
func invalidate(c *query.Client, kind query.Kind, id int64) {
	if c != nil {
		c.Invalidate(kind, id)
	}
}
