package query

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/jonboulle/clockwork"
	"github.com/sourcegraph/conc/pool"
	"golang.org/x/sync/singleflight"
)

// Options configures a [Client].
type Options struct {
	Size      int
	StaleTime time.Duration
	Read      RetryPolicy
	Mutation  RetryPolicy
	Registry  *Registry
	Clock     clockwork.Clock
	Logger    *log.Logger
}

type entry struct {
	value     any
	fetchedAt time.Time
	stale     bool
}

// Client caches reads and reconciles them after mutations.
type Client struct {
	mu       sync.Mutex
	cache    *lru.Cache[Key, *entry]
	group    singleflight.Group
	opts     Options
	registry *Registry
	clock    clockwork.Clock
	logger   *log.Logger
}

// NewClient creates a cache. Zero options fall back to 256 entries, 30s stale time,
// [ReadPolicy], [MutationPolicy] and [DefaultRegistry].
func NewClient(opts Options) (*Client, error) {
	if opts.Size <= 0 {
		opts.Size = 256
	}
	if opts.StaleTime <= 0 {
		opts.StaleTime = 30 * time.Second
	}
	if opts.Read == (RetryPolicy{}) {
		opts.Read = ReadPolicy
	}
	if opts.Registry == nil {
		opts.Registry = DefaultRegistry()
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}

	cache, err := lru.New[Key, *entry](opts.Size)
	if err != nil {
		return nil, fmt.Errorf("failed to create query cache: %w", err)
	}

	return &Client{
		cache:    cache,
		opts:     opts,
		registry: opts.Registry,
		clock:    opts.Clock,
		logger:   opts.Logger,
	}, nil
}

// Registry returns the invalidation graph in use.
func (c *Client) Registry() *Registry {
	return c.registry
}

// Peek returns the cached value for key without fetching. ok is false when absent or of another type.
func Peek[T any](c *Client, key Key) (value T, stale bool, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, found := c.cache.Peek(key)
	if !found {
		return value, false, false
	}
	v, ok := e.value.(T)
	if !ok {
		return value, false, false
	}
	return v, e.stale || c.clock.Since(e.fetchedAt) >= c.opts.StaleTime, true
}

// Fetch returns the cached value for key when fresh, otherwise loads it.
//
// Concurrent fetches of one key share a single load. The load is retried under the read policy.
// A caller whose ctx ends stops waiting; the shared load continues for the others.
func Fetch[T any](ctx context.Context, c *Client, key Key, load func(context.Context) (T, error)) (T, error) {
	if v, stale, ok := Peek[T](c, key); ok && !stale {
		c.mu.Lock()
		c.cache.Get(key)
		c.mu.Unlock()
		return v, nil
	}

	ch := c.group.DoChan(key.String(), func() (any, error) {
		v, err := doWithData(context.WithoutCancel(ctx), c.opts.Read, load)
		if err != nil {
			return nil, err
		}
		c.store(key, v)
		return v, nil
	})

	var zero T
	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		v, ok := res.Val.(T)
		if !ok {
			return zero, fmt.Errorf("query %s: cached %T, want %T", key, res.Val, zero)
		}
		return v, nil
	}
}

func (c *Client) store(key Key, v any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache.Add(key, &entry{value: v, fetchedAt: c.clock.Now()})
}

// Set seeds the cache, e.g. with data the caller already has.
func (c *Client) Set(key Key, v any) {
	c.store(key, v)
}

// Mutate runs fn under the mutation policy and, on success, invalidates views of kind for id.
func (c *Client) Mutate(ctx context.Context, kind Kind, id int64, fn func(context.Context) error) error {
	if err := c.opts.Mutation.Do(ctx, fn); err != nil {
		return err
	}
	c.Invalidate(kind, id)
	return nil
}

// Invalidate marks every entry that a mutation of kind on id affects as stale and returns how many.
//
// Entries stay in the cache so views keep rendering them until their next fetch.
func (c *Client) Invalidate(kind Kind, id int64) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for _, key := range c.cache.Keys() {
		if !c.registry.Matches(kind, id, key) {
			continue
		}
		if e, ok := c.cache.Peek(key); ok && !e.stale {
			e.stale = true
			n++
		}
	}

	if c.logger != nil {
		c.logger.Debug("invalidated views", "kind", kind, "id", id, "entries", n)
	}
	return n
}

// Stale reports whether key is cached and marked stale or expired.
func (c *Client) Stale(key Key) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.cache.Peek(key)
	return ok && (e.stale || c.clock.Since(e.fetchedAt) >= c.opts.StaleTime)
}

// Len is the number of cached entries.
func (c *Client) Len() int {
	return c.cache.Len()
}

// Clear drops every entry, used at logout.
func (c *Client) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache.Purge()
}

// Job is one read for [Client.Refresh].
type Job struct {
	Key  Key
	Load func(context.Context) (any, error)
}

// Refresh reloads the given keys in parallel, bypassing freshness, and returns the first error.
func (c *Client) Refresh(ctx context.Context, jobs ...Job) error {
	p := pool.New().WithErrors().WithContext(ctx).WithMaxGoroutines(4)
	for _, job := range jobs {
		p.Go(func(ctx context.Context) error {
			v, err := doWithData(ctx, c.opts.Read, job.Load)
			if err != nil {
				return fmt.Errorf("refresh %s: %w", job.Key, err)
			}
			c.store(job.Key, v)
			return nil
		})
	}
	return p.Wait()
}
