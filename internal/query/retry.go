package query

import (
	"context"
	"errors"
	"time"

	"github.com/avast/retry-go/v4"
)

// RetryPolicy controls how a failed request is repeated.
type RetryPolicy struct {
	// Retries is the number of attempts after the first.
	Retries uint
	// BaseDelay is the wait before the first retry; each retry doubles it.
	BaseDelay time.Duration
	// MaxBackoff caps a single wait.
	MaxBackoff time.Duration
}

// ReadPolicy retries reads twice with exponential backoff capped at 30s.
var ReadPolicy = RetryPolicy{Retries: 2, BaseDelay: time.Second, MaxBackoff: 30 * time.Second}

// MutationPolicy never retries.
var MutationPolicy = RetryPolicy{}

// temporary is implemented by errors that know whether a retry could help.
type temporary interface {
	Temporary() bool
}

// retryable reports whether err is worth another attempt. Client errors (4xx) are final.
func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var t temporary
	if errors.As(err, &t) {
		return t.Temporary()
	}
	return true
}

func (p RetryPolicy) options(ctx context.Context) []retry.Option {
	base := p.BaseDelay
	if base <= 0 {
		base = time.Second
	}
	return []retry.Option{
		retry.Context(ctx),
		retry.Attempts(p.Retries + 1),
		retry.Delay(base),
		retry.MaxDelay(p.MaxBackoff),
		retry.DelayType(retry.BackOffDelay),
		retry.RetryIf(retryable),
		retry.LastErrorOnly(true),
	}
}

// Do runs fn under the policy.
func (p RetryPolicy) Do(ctx context.Context, fn func(context.Context) error) error {
	return retry.Do(func() error { return fn(ctx) }, p.options(ctx)...)
}

// doWithData runs fn under the policy and returns its value.
func doWithData[T any](ctx context.Context, p RetryPolicy, fn func(context.Context) (T, error)) (T, error) {
	return retry.DoWithData(func() (T, error) { return fn(ctx) }, p.options(ctx)...)
}
