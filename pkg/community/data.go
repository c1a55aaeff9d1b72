package community

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/doodlesbykumbi/community-in-go/pkg/client"
	"github.com/doodlesbykumbi/community-in-go/pkg/errs"
	"github.com/doodlesbykumbi/community-in-go/pkg/events"
	"github.com/doodlesbykumbi/community-in-go/pkg/querycache"
)

// Staleness windows. Queries pick the one matching how often their data
// changes.
const (
	staleNever   = 0
	staleShort   = 30 * time.Second
	staleDefault = time.Minute
	staleLong    = 5 * time.Minute
)

// Domains that are not tables but still get cache keys.
const (
	keyLeaderboard = "leaderboard"
	keyStats       = "stats"
	keyFunctions   = "functions"
	keySignedURLs  = "signed_urls"
)

// derived lists the non-table domains a table change makes stale.
var derived = map[string][]string{
	"profiles":           {keyLeaderboard, keyStats},
	"posts":              {keyStats},
	"comments":           {keyStats},
	"courses":            {keyStats},
	"course_completions": {keyStats},
	"purchases":          {keyStats},
	"events":             {keyStats},
	"storage_objects":    {keySignedURLs},
}

// Notifier tells the user how an operation went.
type Notifier interface {
	Success(ctx context.Context, message string)
	Error(ctx context.Context, message string, err error)
}

// LogNotifier writes notifications to a zerolog logger.
type LogNotifier struct {
	Log zerolog.Logger
}

func (n LogNotifier) Success(_ context.Context, message string) {
	n.Log.Info().Msg(message)
}

func (n LogNotifier) Error(_ context.Context, message string, err error) {
	n.Log.Error().Err(err).Msg(message)
}

// Data is the data-access layer for one company. Reads are served through
// the query cache and writes invalidate the keys they affect.
type Data struct {
	client *client.Client
	cache  *querycache.Cache
	notify Notifier
	log    zerolog.Logger
}

type Option func(*Data)

// WithCache shares a cache between several Data values.
func WithCache(c *querycache.Cache) Option {
	return func(d *Data) {
		d.cache = c
	}
}

func WithNotifier(n Notifier) Option {
	return func(d *Data) {
		d.notify = n
	}
}

func WithLogger(log zerolog.Logger) Option {
	return func(d *Data) {
		d.log = log
	}
}

func New(c *client.Client, opts ...Option) *Data {
	d := &Data{
		client: c,
		log:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.cache == nil {
		d.cache = querycache.New(querycache.WithLogger(d.log))
	}
	if d.notify == nil {
		d.notify = LogNotifier{Log: d.log}
	}
	return d
}

// Company returns the slug of the company d reads and writes.
func (d *Data) Company() string {
	return d.client.Company()
}

func (d *Data) Client() *client.Client {
	return d.client
}

func (d *Data) Cache() *querycache.Cache {
	return d.cache
}

// key builds a cache key in d's company.
func (d *Data) key(parts ...string) querycache.Key {
	return append(querycache.Key{d.Company()}, parts...)
}

// ApplyChange invalidates the cached queries a server-side change makes
// stale. Changes for other companies are ignored. It returns the number of
// entries invalidated.
func (d *Data) ApplyChange(c events.Change) int {
	if c.Slug != d.Company() || c.Table == "" {
		return 0
	}
	n := d.cache.InvalidatePrefix(d.key(c.Table))
	for _, domain := range derived[c.Table] {
		n += d.cache.InvalidatePrefix(d.key(domain))
	}
	d.log.Debug().Str("table", c.Table).Str("op", string(c.Op)).Int("invalidated", n).Msg("applied change")
	return n
}

// HandleChange adapts ApplyChange to an events.Handler.
func (d *Data) HandleChange(_ context.Context, c events.Change) error {
	d.ApplyChange(c)
	return nil
}

// querySpec describes a cached read.
type querySpec struct {
	key     querycache.Key
	stale   time.Duration
	failure string
}

func fetch[T any](ctx context.Context, d *Data, q querySpec, fn func(context.Context) (T, error)) (T, error) {
	v, err := querycache.Fetch(ctx, d.cache, q.key, q.stale, fn)
	if err != nil {
		d.notify.Error(ctx, message(q.failure, err), err)
	}
	return v, err
}

// mutation describes a write. Every key in invalidates is dropped by
// prefix after a successful write, along with its derived domains.
type mutation struct {
	success     string
	failure     string
	invalidates []string
}

func mutate[T any](ctx context.Context, d *Data, m mutation, fn func(context.Context) (T, error)) (T, error) {
	v, err := fn(ctx)
	if err != nil {
		d.notify.Error(ctx, message(m.failure, err), err)
		return v, err
	}
	for _, domain := range m.invalidates {
		d.cache.InvalidatePrefix(d.key(domain))
		for _, dep := range derived[domain] {
			d.cache.InvalidatePrefix(d.key(dep))
		}
	}
	if m.success != "" {
		d.notify.Success(ctx, m.success)
	}
	return v, nil
}

// message prefers the server's explanation of a client error over the
// static fallback, and reports the first field of a local validation
// failure. Server errors and transport failures get the fallback.
func message(fallback string, err error) string {
	var ce *client.Error
	if errors.As(err, &ce) && ce.Status < http.StatusInternalServerError && ce.Message != "" {
		return ce.Message
	}
	var he *errs.HTTPError
	if errors.As(err, &he) {
		if len(he.Errors) > 0 {
			return he.Errors[0].Field + " " + he.Errors[0].Error
		}
		return he.Message
	}
	if errors.Is(err, client.ErrNotAuthenticated) || errors.Is(err, client.ErrTokenExpired) {
		return "Your session has expired. Please sign in again."
	}
	return fallback
}
