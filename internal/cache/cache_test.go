package cache

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	mu      sync.Mutex
	data    map[string][]byte
	setErr    error
	deleteErr error
	setHook   func()
}

func newMemStore() *memStore {
	return &memStore{data: make(map[string][]byte)}
}

func (s *memStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.data[key]
	return v, ok, nil
}

func (s *memStore) Set(_ context.Context, key string, value []byte) error {
	if s.setHook != nil {
		s.setHook()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.setErr != nil {
		return s.setErr
	}
	s.data[key] = value
	return nil
}

func (s *memStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}

func (s *memStore) List(_ context.Context, prefix string) (map[string][]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string][]byte)
	for k, v := range s.data {
		if strings.HasPrefix(k, prefix) {
			out[k] = v
		}
	}
	return out, nil
}

func (s *memStore) DeletePrefix(_ context.Context, prefix string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.deleteErr != nil {
		return s.deleteErr
	}
	for k := range s.data {
		if strings.HasPrefix(k, prefix) {
			delete(s.data, k)
		}
	}
	return nil
}

func (s *memStore) keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var keys []string
	for k := range s.data {
		keys = append(keys, k)
	}
	return keys
}

type species struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}

func countingFetcher(calls *atomic.Int32, v species) func(context.Context) (species, error) {
	return func(context.Context) (species, error) {
		calls.Add(1)
		return v, nil
	}
}

func TestFetch_MemoizesWithinTTL(t *testing.T) {
	c := New(newMemStore(), zerolog.Nop())
	defer c.Close()

	var calls atomic.Int32
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		got, err := Fetch(ctx, c, "pokemon_25", countingFetcher(&calls, species{ID: 25, Name: "pikachu"}))
		require.NoError(t, err)
		assert.Equal(t, "pikachu", got.Name)
	}
	assert.Equal(t, int32(1), calls.Load())
}

func TestFetch_RefetchesAfterTTL(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	c := New(nil, zerolog.Nop(), WithTTL(time.Hour), WithClock(clock.Now))
	defer c.Close()

	var calls atomic.Int32
	fetch := countingFetcher(&calls, species{ID: 1, Name: "bulbasaur"})
	ctx := context.Background()

	_, err := Fetch(ctx, c, "pokemon_1", fetch)
	require.NoError(t, err)

	clock.Advance(59 * time.Minute)
	_, err = Fetch(ctx, c, "pokemon_1", fetch)
	require.NoError(t, err)
	assert.Equal(t, int32(1), calls.Load())

	clock.Advance(time.Minute)
	_, err = Fetch(ctx, c, "pokemon_1", fetch)
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestFetch_ErrorIsNotCached(t *testing.T) {
	c := New(newMemStore(), zerolog.Nop())
	defer c.Close()

	boom := errors.New("provider down")
	ctx := context.Background()

	_, err := Fetch(ctx, c, "pokemon_4", func(context.Context) (species, error) {
		return species{}, boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, c.Len())

	var calls atomic.Int32
	got, err := Fetch(ctx, c, "pokemon_4", countingFetcher(&calls, species{ID: 4, Name: "charmander"}))
	require.NoError(t, err)
	assert.Equal(t, "charmander", got.Name)
	assert.Equal(t, int32(1), calls.Load())
}

func TestFetch_ConcurrentMissesShareOneFetch(t *testing.T) {
	c := New(nil, zerolog.Nop())
	defer c.Close()

	var calls atomic.Int32
	release := make(chan struct{})
	fetch := func(context.Context) (species, error) {
		calls.Add(1)
		<-release
		return species{ID: 7, Name: "squirtle"}, nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := Fetch(context.Background(), c, "pokemon_7", fetch)
			assert.NoError(t, err)
			assert.Equal(t, 7, got.ID)
		}()
	}

	require.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
}

func TestFetch_PersistsToStore(t *testing.T) {
	store := newMemStore()
	c := New(store, zerolog.Nop())
	defer c.Close()

	_, err := Fetch(context.Background(), c, "pokemon_25", func(context.Context) (species, error) {
		return species{ID: 25, Name: "pikachu"}, nil
	})
	require.NoError(t, err)
	c.Flush()

	payload, ok, err := store.Get(context.Background(), "pokeapi_pokemon_25")
	require.NoError(t, err)
	require.True(t, ok)

	e, err := decodeEntry(payload)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":25,"name":"pikachu"}`, string(e.Data))
}

func TestFetch_StoreFailureDoesNotFailCall(t *testing.T) {
	store := newMemStore()
	store.setErr = errors.New("disk full")
	c := New(store, zerolog.Nop())
	defer c.Close()

	got, err := Fetch(context.Background(), c, "pokemon_25", func(context.Context) (species, error) {
		return species{ID: 25, Name: "pikachu"}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "pikachu", got.Name)
	c.Flush()
	assert.Empty(t, store.keys())
}

func TestFetch_SlowStoreDoesNotDelayCall(t *testing.T) {
	store := newMemStore()
	unblock := make(chan struct{})
	store.setHook = func() { <-unblock }
	c := New(store, zerolog.Nop())
	defer c.Close()
	defer close(unblock)

	done := make(chan struct{})
	go func() {
		_, err := Fetch(context.Background(), c, "pokemon_25", func(context.Context) (species, error) {
			return species{ID: 25}, nil
		})
		assert.NoError(t, err)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("fetch blocked on durable write")
	}
}

func TestLoad_RehydratesFreshAndEvictsStale(t *testing.T) {
	store := newMemStore()
	now := time.Now()

	fresh, err := encodeEntry(species{ID: 1, Name: "bulbasaur"}, now.Add(-time.Hour))
	require.NoError(t, err)
	stale, err := encodeEntry(species{ID: 2, Name: "ivysaur"}, now.Add(-25*time.Hour))
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, store.Set(ctx, "pokeapi_pokemon_1", fresh))
	require.NoError(t, store.Set(ctx, "pokeapi_pokemon_2", stale))
	require.NoError(t, store.Set(ctx, "pokeapi_broken", []byte("{not json")))
	require.NoError(t, store.Set(ctx, "other_key", []byte("untouched")))

	c := New(store, zerolog.Nop(), WithClock(func() time.Time { return now }))
	defer c.Close()
	require.NoError(t, c.Load(ctx))

	assert.ElementsMatch(t, []string{"pokeapi_pokemon_1", "other_key"}, store.keys())
	assert.Equal(t, 1, c.Len())

	var calls atomic.Int32
	got, err := Fetch(ctx, c, "pokemon_1", countingFetcher(&calls, species{}))
	require.NoError(t, err)
	assert.Equal(t, "bulbasaur", got.Name)
	assert.Equal(t, int32(0), calls.Load())

	got, err = Fetch(ctx, c, "pokemon_2", countingFetcher(&calls, species{ID: 2, Name: "ivysaur"}))
	require.NoError(t, err)
	assert.Equal(t, "ivysaur", got.Name)
	assert.Equal(t, int32(1), calls.Load())
}

func TestClear_WipesMemoryAndStore(t *testing.T) {
	store := newMemStore()
	c := New(store, zerolog.Nop())
	defer c.Close()

	ctx := context.Background()
	var calls atomic.Int32
	fetch := countingFetcher(&calls, species{ID: 9, Name: "blastoise"})

	_, err := Fetch(ctx, c, "pokemon_9", fetch)
	require.NoError(t, err)
	c.Flush()
	require.NoError(t, store.Set(ctx, "unrelated", []byte("x")))

	require.NoError(t, c.Clear(ctx))
	assert.Equal(t, 0, c.Len())
	assert.Equal(t, []string{"unrelated"}, store.keys())

	_, err = Fetch(ctx, c, "pokemon_9", fetch)
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestClear_DropsQueuedWrites(t *testing.T) {
	store := newMemStore()
	unblock := make(chan struct{})
	var once sync.Once
	store.setHook = func() { once.Do(func() { <-unblock }) }

	c := New(store, zerolog.Nop())
	defer c.Close()
	ctx := context.Background()

	for _, key := range []string{"a", "b", "c"} {
		_, err := Fetch(ctx, c, key, func(context.Context) (species, error) { return species{Name: key}, nil })
		require.NoError(t, err)
	}

	cleared := make(chan error)
	go func() { cleared <- c.Clear(ctx) }()

	close(unblock)
	require.NoError(t, <-cleared)
	c.Flush()

	// the write in flight when Clear started may land before it, never after
	assert.Empty(t, store.keys())
}

func TestClose_IsIdempotent(t *testing.T) {
	c := New(newMemStore(), zerolog.Nop())
	c.Close()
	c.Close()

	got, err := Fetch(context.Background(), c, "k", func(context.Context) (species, error) {
		return species{ID: 1}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, got.ID)
}

func TestFetch_CallerCancellationDoesNotFailOthers(t *testing.T) {
	c := New(newMemStore(), zerolog.Nop())
	defer c.Close()

	started := make(chan struct{})
	release := make(chan struct{})
	var calls atomic.Int32
	fetch := func(ctx context.Context) (species, error) {
		if calls.Add(1) == 1 {
			close(started)
		}
		<-release
		if err := ctx.Err(); err != nil {
			return species{}, err
		}
		return species{ID: 150, Name: "mewtwo"}, nil
	}

	ctxA, cancelA := context.WithCancel(context.Background())
	errA := make(chan error, 1)
	go func() {
		_, err := Fetch(ctxA, c, "pokemon_150", fetch)
		errA <- err
	}()
	<-started

	type result struct {
		v   species
		err error
	}
	resB := make(chan result, 1)
	go func() {
		v, err := Fetch(context.Background(), c, "pokemon_150", fetch)
		resB <- result{v, err}
	}()

	cancelA()
	assert.ErrorIs(t, <-errA, context.Canceled)

	close(release)
	got := <-resB
	require.NoError(t, got.err)
	assert.Equal(t, "mewtwo", got.v.Name)
	assert.Equal(t, int32(1), calls.Load())

	// the detached fetch still populated the cache
	v, err := Fetch(context.Background(), c, "pokemon_150", fetch)
	require.NoError(t, err)
	assert.Equal(t, 150, v.ID)
	assert.Equal(t, int32(1), calls.Load())
}

func TestFetch_SharedFetchIsBounded(t *testing.T) {
	c := New(nil, zerolog.Nop(), WithFetchTimeout(20*time.Millisecond))
	defer c.Close()

	_, err := Fetch(context.Background(), c, "slow", func(ctx context.Context) (species, error) {
		<-ctx.Done()
		return species{}, ctx.Err()
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 0, c.Len())
}

func TestClear_StoreFailureLeavesStateIntact(t *testing.T) {
	store := newMemStore()
	c := New(store, zerolog.Nop())
	defer c.Close()

	ctx := context.Background()
	var calls atomic.Int32
	fetch := countingFetcher(&calls, species{ID: 6, Name: "charizard"})

	_, err := Fetch(ctx, c, "pokemon_6", fetch)
	require.NoError(t, err)
	c.Flush()

	store.deleteErr = errors.New("disk full")
	assert.Error(t, c.Clear(ctx))
	assert.Equal(t, 1, c.Len())
	assert.Equal(t, []string{"pokeapi_pokemon_6"}, store.keys())

	_, err = Fetch(ctx, c, "pokemon_6", fetch)
	require.NoError(t, err)
	assert.Equal(t, int32(1), calls.Load())
}
