package idgen

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memStore set of taken identifiers with insert-time uniqueness
type memStore struct {
	mu  sync.Mutex
	ids map[string]bool
}

func newMemStore(taken ...string) *memStore {
	s := &memStore{ids: make(map[string]bool)}
	for _, id := range taken {
		s.ids[id] = true
	}
	return s
}

func (s *memStore) exists(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ids[id], nil
}

func (s *memStore) insert(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ids[id] {
		return ErrCollision
	}
	s.ids[id] = true
	return nil
}

// scripted replays offsets, then repeats the last one
func scripted(offsets ...int64) Source {
	var mu sync.Mutex
	i := 0
	return func(int64) (int64, error) {
		mu.Lock()
		defer mu.Unlock()
		v := offsets[i]
		if i < len(offsets)-1 {
			i++
		}
		return v, nil
	}
}

func TestScheme_Contains(t *testing.T) {
	assert.True(t, User.Contains("1000"))
	assert.True(t, User.Contains("9999"))
	assert.False(t, User.Contains("0999"))
	assert.False(t, User.Contains("10000"))
	assert.False(t, User.Contains("12a4"))

	assert.True(t, Shipment.Contains("SHP100000"))
	assert.True(t, Shipment.Contains("SHP999999"))
	assert.False(t, Shipment.Contains("100000"))
	assert.False(t, Shipment.Contains("SHP099999"))
	assert.False(t, Shipment.Contains("SHP1000000"))
}

func TestCandidate_Bounds(t *testing.T) {
	low := New(Shipment, WithSource(scripted(0)))
	id, err := low.Candidate()
	require.NoError(t, err)
	assert.Equal(t, "SHP100000", id)

	high := New(User, WithSource(scripted(User.Size()-1)))
	id, err = high.Candidate()
	require.NoError(t, err)
	assert.Equal(t, "9999", id)
}

func TestNext_SequentialAllocationsDistinctAndInRange(t *testing.T) {
	for _, scheme := range []Scheme{User, Shipment} {
		store := newMemStore()
		g := New(scheme, WithMaxAttempts(0))
		seen := make(map[string]bool)

		for i := 0; i < 500; i++ {
			id, err := g.Next(context.Background(), store.exists)
			require.NoError(t, err)
			require.True(t, scheme.Contains(id), "%s out of range: %s", scheme.Name, id)
			require.False(t, seen[id], "duplicate %s", id)
			seen[id] = true
			require.NoError(t, store.insert(context.Background(), id))
		}
	}
}

func TestNext_RetriesOnCollision(t *testing.T) {
	store := newMemStore("1000", "1001")
	g := New(User, WithSource(scripted(0, 1, 2)))

	id, err := g.Next(context.Background(), store.exists)
	require.NoError(t, err)
	assert.Equal(t, "1002", id)
}

func TestNext_StoreFailurePropagates(t *testing.T) {
	boom := errors.New("connection refused")
	g := New(User)

	_, err := g.Next(context.Background(), func(context.Context, string) (bool, error) {
		return false, boom
	})
	assert.ErrorIs(t, err, ErrGenerate)
	assert.ErrorIs(t, err, boom)
}

func TestNext_Exhausted(t *testing.T) {
	store := newMemStore("1000")
	g := New(User, WithSource(scripted(0)), WithMaxAttempts(5))

	_, err := g.Next(context.Background(), store.exists)
	assert.ErrorIs(t, err, ErrExhausted)
}

func TestNext_UnboundedStopsOnCancel(t *testing.T) {
	store := newMemStore("1000")
	g := New(User, WithSource(scripted(0)), WithMaxAttempts(0))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := g.Next(ctx, store.exists)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestAllocate_RetriesOnInsertCollision(t *testing.T) {
	// the pre-check misses the row a concurrent writer inserted in between
	store := newMemStore("SHP100000")
	never := func(context.Context, string) (bool, error) { return false, nil }
	g := New(Shipment, WithSource(scripted(0, 0, 7)))

	id, err := g.Allocate(context.Background(), never, store.insert)
	require.NoError(t, err)
	assert.Equal(t, "SHP100007", id)
}

func TestAllocate_OtherInsertErrorAborts(t *testing.T) {
	boom := errors.New("disk full")
	calls := 0
	g := New(Shipment)

	_, err := g.Allocate(context.Background(), nil, func(context.Context, string) error {
		calls++
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)
}

func TestAllocate_Exhausted(t *testing.T) {
	g := New(User, WithMaxAttempts(3))
	calls := 0

	_, err := g.Allocate(context.Background(), nil, func(context.Context, string) error {
		calls++
		return ErrCollision
	})
	assert.ErrorIs(t, err, ErrExhausted)
	assert.Equal(t, 3, calls)
}

func TestAllocate_ConcurrentWritersGetDistinctIDs(t *testing.T) {
	store := newMemStore()
	// a narrow range forces contention on the same candidates
	narrow := Scheme{Name: "narrow", Prefix: "N", Min: 10, Max: 99}
	g := New(narrow, WithMaxAttempts(0))

	const writers = 40
	ids := make(chan string, writers)
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			id, err := g.Allocate(ctx, store.exists, store.insert)
			if assert.NoError(t, err) {
				ids <- id
			}
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[string]bool)
	for id := range ids {
		assert.False(t, seen[id], "duplicate %s", id)
		seen[id] = true
	}
	assert.Len(t, seen, writers)
}
