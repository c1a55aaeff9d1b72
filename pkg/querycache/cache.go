package querycache

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

const (
	// DefaultGCTime is how long an unused entry survives Collect.
	DefaultGCTime = 5 * time.Minute
	// DefaultFetchTimeout bounds a shared fetch once its callers are gone.
	DefaultFetchTimeout = 30 * time.Second
)

// Key identifies a cached query. The first segment is the company slug and
// the second the table or domain, e.g. {"acme", "posts", "space", id}.
type Key []string

// String joins the escaped segments with "/". Patterns passed to
// InvalidateMatch are matched against this form.
func (k Key) String() string {
	parts := make([]string, len(k))
	for i, s := range k {
		parts[i] = url.PathEscape(s)
	}
	return strings.Join(parts, "/")
}

// Company returns the tenant segment of k.
func (k Key) Company() string {
	if len(k) == 0 {
		return ""
	}
	return k[0]
}

// HasPrefix reports whether k starts with every segment of prefix.
func (k Key) HasPrefix(prefix Key) bool {
	if len(prefix) > len(k) {
		return false
	}
	for i := range prefix {
		if k[i] != prefix[i] {
			return false
		}
	}
	return true
}

type entry struct {
	key       Key
	value     interface{}
	hasValue  bool
	fetchedAt time.Time
	lastUsed  time.Time
	// epoch changes on every invalidation so fetches started before it are
	// neither joined nor trusted. Epochs come from a cache-wide sequence, so
	// an entry recreated after Remove or Clear never reuses an old one.
	epoch   uint64
	invalid bool
}

// Cache is an in-memory query cache. It is safe for concurrent use.
type Cache struct {
	mu      sync.Mutex
	entries map[string]*entry
	group   singleflight.Group
	seq     uint64
	gcTime  time.Duration
	timeout time.Duration
	now     func() time.Time
	log     zerolog.Logger
}

type Option func(*Cache)

// WithGCTime sets how long an entry may go unused before Collect drops it.
func WithGCTime(d time.Duration) Option {
	return func(c *Cache) {
		c.gcTime = d
	}
}

// WithFetchTimeout bounds each shared fetch. A fetch outlives the caller
// that started it as long as another caller is waiting on it.
func WithFetchTimeout(d time.Duration) Option {
	return func(c *Cache) {
		c.timeout = d
	}
}

func WithLogger(log zerolog.Logger) Option {
	return func(c *Cache) {
		c.log = log
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		c.now = now
	}
}

func New(opts ...Option) *Cache {
	c := &Cache{
		entries: make(map[string]*entry),
		gcTime:  DefaultGCTime,
		timeout: DefaultFetchTimeout,
		now:     time.Now,
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchFunc loads the value for a key.
type FetchFunc func(ctx context.Context) (interface{}, error)

// Fetch returns the cached value for key when it is younger than staleTime
// and was not invalidated. Otherwise it calls fn and caches the result.
// Concurrent fetches of the same key share one call of fn, which runs on a
// context detached from any single caller. Each caller stops waiting when
// its own ctx is done. A failed fetch leaves the previous value in place.
func (c *Cache) Fetch(ctx context.Context, key Key, staleTime time.Duration, fn FetchFunc) (interface{}, error) {
	if len(key) == 0 {
		return nil, fmt.Errorf("querycache: empty key")
	}
	k := key.String()

	c.mu.Lock()
	now := c.now()
	e := c.entries[k]
	if e == nil {
		e = c.newEntry(k, key)
	}
	e.lastUsed = now
	if e.hasValue && !e.invalid && now.Sub(e.fetchedAt) < staleTime {
		v := e.value
		c.mu.Unlock()
		return v, nil
	}
	epoch := e.epoch
	c.mu.Unlock()

	ch := c.group.DoChan(k+"#"+strconv.FormatUint(epoch, 10), func() (interface{}, error) {
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
		defer cancel()
		start := c.now()
		v, err := fn(fctx)
		if err != nil {
			return nil, err
		}
		c.store(k, key, epoch, v, start)
		return v, nil
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-ch:
		return r.Val, r.Err
	}
}

// newEntry adds an entry for key. c.mu must be held.
func (c *Cache) newEntry(k string, key Key) *entry {
	c.seq++
	e := &entry{key: append(Key(nil), key...), epoch: c.seq}
	c.entries[k] = e
	return e
}

func (c *Cache) store(k string, key Key, epoch uint64, v interface{}, fetchedAt time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e := c.entries[k]
	if e == nil {
		// Removed while the fetch was in flight.
		return
	}
	if e.epoch != epoch && e.hasValue && !e.fetchedAt.Before(fetchedAt) {
		// A newer value landed while this fetch ran.
		return
	}
	e.value = v
	e.hasValue = true
	e.fetchedAt = fetchedAt
	e.lastUsed = c.now()
	e.invalid = e.epoch != epoch
	if e.invalid {
		c.log.Debug().Str("key", k).Msg("query invalidated during fetch")
	}
}

// Get returns the cached value for key, stale or not.
func (c *Cache) Get(key Key) (interface{}, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e := c.entries[key.String()]
	if e == nil || !e.hasValue {
		return nil, false
	}
	e.lastUsed = c.now()
	return e.value, true
}

// Set stores v under key as freshly fetched.
func (c *Cache) Set(key Key, v interface{}) {
	k := key.String()
	c.mu.Lock()
	defer c.mu.Unlock()
	e := c.entries[k]
	if e == nil {
		e = c.newEntry(k, key)
	} else {
		c.seq++
		e.epoch = c.seq
	}
	now := c.now()
	e.value = v
	e.hasValue = true
	e.fetchedAt = now
	e.lastUsed = now
	e.invalid = false
}

// Invalidate marks key stale. It returns the number of entries affected.
func (c *Cache) Invalidate(key Key) int {
	k := key.String()
	return c.invalidate(func(s string, _ Key) bool { return s == k }, k)
}

// InvalidatePrefix marks every key starting with prefix stale.
func (c *Cache) InvalidatePrefix(prefix Key) int {
	return c.invalidate(func(_ string, k Key) bool { return k.HasPrefix(prefix) }, prefix.String()+"/*")
}

// InvalidateMatch marks every key whose String form matches the doublestar
// pattern stale, e.g. "acme/posts/**" or "*/leaderboard".
func (c *Cache) InvalidateMatch(pattern string) (int, error) {
	if !doublestar.ValidatePattern(pattern) {
		return 0, fmt.Errorf("querycache: invalid pattern %q", pattern)
	}
	return c.invalidate(func(s string, _ Key) bool {
		ok, _ := doublestar.Match(pattern, s)
		return ok
	}, pattern), nil
}

// InvalidateFunc marks every key for which pred returns true stale.
func (c *Cache) InvalidateFunc(pred func(Key) bool) int {
	return c.invalidate(func(_ string, k Key) bool { return pred(k) }, "func")
}

func (c *Cache) invalidate(match func(string, Key) bool, desc string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for s, e := range c.entries {
		if !match(s, e.key) {
			continue
		}
		c.seq++
		e.invalid = true
		e.epoch = c.seq
		n++
	}
	if n > 0 {
		c.log.Debug().Str("match", desc).Int("count", n).Msg("invalidated queries")
	}
	return n
}

// Remove drops key.
func (c *Cache) Remove(key Key) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key.String())
}

// Clear drops every entry belonging to company.
func (c *Cache) Clear(company string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for s, e := range c.entries {
		if e.key.Company() == company {
			delete(c.entries, s)
			n++
		}
	}
	return n
}

// Collect drops entries unused for longer than the gc time and returns how
// many were dropped.
func (c *Cache) Collect() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	cutoff := c.now().Add(-c.gcTime)
	n := 0
	for s, e := range c.entries {
		if e.lastUsed.Before(cutoff) {
			delete(c.entries, s)
			n++
		}
	}
	if n > 0 {
		c.log.Debug().Int("count", n).Msg("collected queries")
	}
	return n
}

// RunCollector calls Collect every interval until ctx is done.
func (c *Cache) RunCollector(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Collect()
		}
	}
}

// Len returns the number of entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Fetch is the typed form of Cache.Fetch.
func Fetch[T any](ctx context.Context, c *Cache, key Key, staleTime time.Duration, fn func(context.Context) (T, error)) (T, error) {
	v, err := c.Fetch(ctx, key, staleTime, func(ctx context.Context) (interface{}, error) {
		return fn(ctx)
	})
	if err != nil {
		var zero T
		return zero, err
	}
	t, ok := v.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("querycache: %s holds %T", key, v)
	}
	return t, nil
}
