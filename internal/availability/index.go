// Package availability answers whether a species can be obtained in a given game.
package availability

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// ManifestSource lists the species names of one provider pokedex.
type ManifestSource interface {
	PokedexSpecies(ctx context.Context, id int) ([]string, error)
}

type Index struct {
	source      ManifestSource
	collections map[Collection]CollectionInfo
	order       []Collection
	logger      zerolog.Logger

	// inflight holds one pending load per collection; singleflight drops the entry
	// once the load settles, on success and on failure.
	inflight singleflight.Group

	mu       sync.RWMutex
	settled  map[Collection]map[string]struct{}
	pendings map[Collection]int
}

func New(source ManifestSource, logger zerolog.Logger, collections ...CollectionInfo) *Index {
	if len(collections) == 0 {
		collections = DefaultCollections
	}
	byKey := make(map[Collection]CollectionInfo, len(collections))
	order := make([]Collection, 0, len(collections))
	for _, c := range collections {
		if _, dup := byKey[c.Key]; !dup {
			order = append(order, c.Key)
		}
		byKey[c.Key] = c
	}
	return &Index{
		source:      source,
		collections: byKey,
		order:       order,
		logger:      logger.With().Str("component", "availability_index").Logger(),
		settled:     make(map[Collection]map[string]struct{}),
		pendings:    make(map[Collection]int),
	}
}

func (i *Index) Collections() []CollectionInfo {
	out := make([]CollectionInfo, 0, len(i.order))
	for _, key := range i.order {
		out = append(out, i.collections[key])
	}
	return out
}

func (i *Index) DisplayName(c Collection) string {
	if info, ok := i.collections[c]; ok && info.DisplayName != "" {
		return info.DisplayName
	}
	return string(c)
}

func (i *Index) configured(c Collection) (CollectionInfo, bool) {
	info, ok := i.collections[c]
	return info, ok && len(info.PokedexIDs) > 0
}

// Preload loads the collection's species set once. Concurrent callers for the same
// collection wait on a single load. Collections without a data source are a no-op.
func (i *Index) Preload(ctx context.Context, c Collection) error {
	info, ok := i.configured(c)
	if !ok {
		return nil
	}
	if i.isSettled(c) {
		return nil
	}

	i.markPending(c, 1)
	ch := i.inflight.DoChan(string(c), func() (any, error) {
		return nil, i.load(context.WithoutCancel(ctx), info)
	})

	select {
	case res := <-ch:
		i.markPending(c, -1)
		return res.Err
	case <-ctx.Done():
		i.markPending(c, -1)
		return ctx.Err()
	}
}

func (i *Index) load(ctx context.Context, info CollectionInfo) error {
	if i.isSettled(info.Key) {
		return nil
	}

	lists := make([][]string, len(info.PokedexIDs))
	g, gCtx := errgroup.WithContext(ctx)
	for n, id := range info.PokedexIDs {
		g.Go(func() error {
			names, err := i.source.PokedexSpecies(gCtx, id)
			if err != nil {
				return fmt.Errorf("pokedex %d: %w", id, err)
			}
			lists[n] = names
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		i.logger.Warn().Err(err).Str("collection", string(info.Key)).Msg("failed to load collection")
		return fmt.Errorf("failed to load collection %s: %w", info.Key, err)
	}

	set := make(map[string]struct{})
	for _, names := range lists {
		for _, name := range names {
			set[Normalize(name)] = struct{}{}
		}
	}

	i.mu.Lock()
	i.settled[info.Key] = set
	i.mu.Unlock()

	i.logger.Info().Str("collection", string(info.Key)).Int("species", len(set)).Msg("collection loaded")
	return nil
}

// IsMember reports Unknown when the collection has no data source or its data could not be loaded.
func (i *Index) IsMember(ctx context.Context, species string, c Collection) Membership {
	if _, ok := i.configured(c); !ok {
		return Unknown
	}
	if err := i.Preload(ctx, c); err != nil {
		return Unknown
	}

	i.mu.RLock()
	set, ok := i.settled[c]
	i.mu.RUnlock()
	if !ok {
		return Unknown
	}

	if _, found := set[Normalize(species)]; found {
		return Available
	}
	return Unavailable
}

func (i *Index) isSettled(c Collection) bool {
	i.mu.RLock()
	defer i.mu.RUnlock()
	_, ok := i.settled[c]
	return ok
}

func (i *Index) markPending(c Collection, delta int) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.pendings[c] += delta
	if i.pendings[c] <= 0 {
		delete(i.pendings, c)
	}
}

func (i *Index) state(c Collection) loadState {
	i.mu.RLock()
	defer i.mu.RUnlock()
	if _, ok := i.settled[c]; ok {
		return stateSettled
	}
	if i.pendings[c] > 0 {
		return statePending
	}
	return stateAbsent
}

// Reset forgets every settled collection so the next query reloads it.
func (i *Index) Reset() {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.settled = make(map[Collection]map[string]struct{})
}
