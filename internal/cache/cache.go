// Package cache memoizes reads from the remote data provider.
//
// Entries live in memory with a fixed TTL and are mirrored best-effort into a durable
// Store so a restarted process can reuse them. Durable writes happen on a background
// writer and never delay or fail a Fetch. Stale durable entries are purged at Load
// time, and the in-memory layer never returns an expired entry.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

const (
	DefaultTTL    = 24 * time.Hour
	DefaultPrefix = "pokeapi_"

	DefaultFetchTimeout = 30 * time.Second

	writeQueueSize = 256
	persistTimeout = 5 * time.Second
)

type entry struct {
	mu        sync.Mutex
	value     any
	raw       json.RawMessage
	timestamp time.Time
}

type write struct {
	key        string
	payload    []byte
	generation uint64
}

type DataCache struct {
	ttl          time.Duration
	fetchTimeout time.Duration
	prefix       string
	store        Store
	logger zerolog.Logger
	now    func() time.Time

	mem    *gocache.Cache
	flight singleflight.Group

	// persistMu orders durable writes against Clear.
	persistMu  sync.Mutex
	generation uint64

	queueMu sync.Mutex
	closed  bool
	writes  chan write
	pending sync.WaitGroup
	done    chan struct{}
}

type Option func(*DataCache)

func WithTTL(ttl time.Duration) Option {
	return func(c *DataCache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithFetchTimeout bounds a shared fetch. It runs detached from any single caller.
func WithFetchTimeout(d time.Duration) Option {
	return func(c *DataCache) {
		if d > 0 {
			c.fetchTimeout = d
		}
	}
}

func WithPrefix(prefix string) Option {
	return func(c *DataCache) { c.prefix = prefix }
}

func WithClock(now func() time.Time) Option {
	return func(c *DataCache) { c.now = now }
}

// New builds a cache. store may be nil for a memory-only cache.
func New(store Store, logger zerolog.Logger, opts ...Option) *DataCache {
	c := &DataCache{
		ttl:          DefaultTTL,
		fetchTimeout: DefaultFetchTimeout,
		prefix:       DefaultPrefix,
		store:        store,
		logger: logger.With().Str("component", "data_cache").Logger(),
		now:    time.Now,
		writes: make(chan write, writeQueueSize),
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.mem = gocache.New(c.ttl, c.ttl)

	go c.writer()
	return c
}

func (c *DataCache) TTL() time.Duration {
	return c.ttl
}

func (c *DataCache) Len() int {
	return c.mem.ItemCount()
}

// Fetch returns the cached value for key when fresh, otherwise calls fetcher once for all
// concurrent callers of the same key and caches its result. Fetcher errors are returned
// as-is and nothing is cached for them. The shared fetch is not cancelled by any one
// caller; a caller whose ctx ends stops waiting and gets ctx.Err().
func Fetch[T any](ctx context.Context, c *DataCache, key string, fetcher func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	if v, ok, err := lookup[T](c, key); ok || err != nil {
		return v, err
	}

	ch := c.flight.DoChan(key, func() (any, error) {
		if v, ok, err := lookup[T](c, key); ok || err != nil {
			return v, err
		}

		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.fetchTimeout)
		defer cancel()

		data, err := fetcher(fetchCtx)
		if err != nil {
			return nil, err
		}
		c.put(key, data)
		return data, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		c.logger.Debug().Str("key", key).Bool("shared", res.Shared).Msg("cache miss")
		return res.Val.(T), nil
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

func lookup[T any](c *DataCache, key string) (T, bool, error) {
	var zero T

	obj, found := c.mem.Get(key)
	if !found {
		return zero, false, nil
	}
	e := obj.(*entry)
	if c.now().Sub(e.timestamp) >= c.ttl {
		c.mem.Delete(key)
		return zero, false, nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if v, ok := e.value.(T); ok {
		return v, true, nil
	}

	// rehydrated entries carry only their JSON form until first typed read
	var v T
	if err := json.Unmarshal(e.raw, &v); err != nil {
		return zero, false, fmt.Errorf("cached value for %s has unexpected shape: %w", key, err)
	}
	e.value = v
	return v, true, nil
}

func (c *DataCache) put(key string, data any) {
	ts := c.now()

	c.persistMu.Lock()
	c.mem.Set(key, &entry{value: data, timestamp: ts}, c.ttl)
	gen := c.generation
	c.persistMu.Unlock()

	if c.store == nil {
		return
	}

	payload, err := encodeEntry(data, ts)
	if err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("failed to encode cache entry")
		return
	}

	c.enqueue(write{key: c.prefix + key, payload: payload, generation: gen})
}

func (c *DataCache) enqueue(w write) {
	c.queueMu.Lock()
	defer c.queueMu.Unlock()

	if c.closed {
		return
	}

	c.pending.Add(1)
	select {
	case c.writes <- w:
	default:
		c.pending.Done()
		c.logger.Warn().Str("key", w.key).Msg("durable write queue full, dropping entry")
	}
}

func (c *DataCache) writer() {
	defer close(c.done)
	for w := range c.writes {
		c.persist(w)
		c.pending.Done()
	}
}

func (c *DataCache) persist(w write) {
	c.persistMu.Lock()
	defer c.persistMu.Unlock()

	if w.generation != c.generation {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()

	if err := c.store.Set(ctx, w.key, w.payload); err != nil {
		c.logger.Warn().Err(err).Str("key", w.key).Msg("failed to persist cache entry")
	}
}

// Load rehydrates fresh durable entries into memory and deletes stale or unreadable ones.
func (c *DataCache) Load(ctx context.Context) error {
	if c.store == nil {
		return nil
	}

	stored, err := c.store.List(ctx, c.prefix)
	if err != nil {
		return fmt.Errorf("failed to list cache entries: %w", err)
	}

	now := c.now()
	var loaded, evicted int
	for storeKey, payload := range stored {
		key := strings.TrimPrefix(storeKey, c.prefix)

		e, err := decodeEntry(payload)
		if err != nil {
			c.logger.Warn().Err(err).Str("key", storeKey).Msg("discarding unreadable cache entry")
			c.evict(ctx, storeKey)
			evicted++
			continue
		}

		ts := time.UnixMilli(e.Timestamp)
		age := now.Sub(ts)
		if age >= c.ttl {
			c.evict(ctx, storeKey)
			evicted++
			continue
		}

		c.mem.Set(key, &entry{raw: e.Data, timestamp: ts}, c.ttl-age)
		loaded++
	}

	c.logger.Info().Int("loaded", loaded).Int("evicted", evicted).Msg("cache loaded from durable store")
	return nil
}

func (c *DataCache) evict(ctx context.Context, storeKey string) {
	if err := c.store.Delete(ctx, storeKey); err != nil {
		c.logger.Warn().Err(err).Str("key", storeKey).Msg("failed to delete stale cache entry")
	}
}

// Clear wipes durable then memory state. Writes queued before Clear are discarded. When
// the durable delete fails nothing is changed, so a later Load cannot resurrect entries
// that memory has already dropped.
func (c *DataCache) Clear(ctx context.Context) error {
	c.persistMu.Lock()
	defer c.persistMu.Unlock()

	if c.store != nil {
		if err := c.store.DeletePrefix(ctx, c.prefix); err != nil {
			return fmt.Errorf("failed to clear durable cache: %w", err)
		}
	}

	c.generation++
	c.mem.Flush()

	c.logger.Info().Msg("cache cleared")
	return nil
}

// Flush blocks until every queued durable write has been attempted.
func (c *DataCache) Flush() {
	c.pending.Wait()
}

func (c *DataCache) Close() {
	c.queueMu.Lock()
	if c.closed {
		c.queueMu.Unlock()
		return
	}
	c.closed = true
	close(c.writes)
	c.queueMu.Unlock()

	<-c.done
}
