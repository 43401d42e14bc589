package slot

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	mu     sync.Mutex
	values map[string][]byte
	fail   bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{values: make(map[string][]byte)}
}

func (f *fakeStore) Restore(name string) ([]byte, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.values[name]
	return v, ok, nil
}

func (f *fakeStore) Persist(name string, value []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return assert.AnError
	}
	f.values[name] = value
	return nil
}

func TestSubscribeReplaysCurrentValue(t *testing.T) {
	s := New("test", 42)

	var got []int
	sub := s.Subscribe(func(v int) { got = append(got, v) })
	defer sub.Cancel()

	assert.Equal(t, []int{42}, got)
}

func TestSetNotifiesAllSubscribers(t *testing.T) {
	s := New("test", "initial")

	var a, b []string
	subA := s.Subscribe(func(v string) { a = append(a, v) })
	subB := s.Subscribe(func(v string) { b = append(b, v) })
	defer subA.Cancel()
	defer subB.Cancel()

	s.Set("next")

	assert.Equal(t, []string{"initial", "next"}, a)
	assert.Equal(t, []string{"initial", "next"}, b)
	assert.Equal(t, "next", s.Current())
}

func TestCancelStopsDelivery(t *testing.T) {
	s := New("test", 0)

	var got []int
	sub := s.Subscribe(func(v int) { got = append(got, v) })

	s.Set(1)
	sub.Cancel()
	s.Set(2)

	assert.Equal(t, []int{0, 1}, got)
}

func TestCancelIsIdempotent(t *testing.T) {
	s := New("test", 0)

	sub := s.Subscribe(func(int) {})
	sub.Cancel()
	assert.NotPanics(t, func() {
		sub.Cancel()
		sub.Cancel()
	})

	// Other subscribers keep receiving.
	var got []int
	other := s.Subscribe(func(v int) { got = append(got, v) })
	defer other.Cancel()
	s.Set(7)
	assert.Equal(t, []int{0, 7}, got)
}

func TestConcurrentSetsAreSerialized(t *testing.T) {
	s := New("test", 0)

	var mu sync.Mutex
	var seen []int
	sub := s.Subscribe(func(v int) {
		mu.Lock()
		seen = append(seen, v)
		mu.Unlock()
	})
	defer sub.Cancel()

	var wg sync.WaitGroup
	for i := 1; i <= 50; i++ {
		wg.Add(1)
		go func(v int) {
			defer wg.Done()
			s.Set(v)
		}(i)
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	// One notification per Set plus the replay on subscribe, no torn values.
	assert.Len(t, seen, 51)
	for _, v := range seen {
		assert.GreaterOrEqual(t, v, 0)
		assert.LessOrEqual(t, v, 50)
	}
}

func TestSubscribeReplayNotOvertakenByConcurrentSet(t *testing.T) {
	// A Set racing a Subscribe must not deliver the new value before the
	// stale replay; the subscriber's last observed value would then trail
	// Current() forever. The replay runs under the write lock, so whichever
	// side wins the lock, the subscriber ends on the latest value.
	for i := 0; i < 200; i++ {
		s := New("test", 0)

		var mu sync.Mutex
		var seen []int

		subCh := make(chan *Subscription, 1)

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			s.Set(1)
		}()
		go func() {
			defer wg.Done()
			subCh <- s.Subscribe(func(v int) {
				mu.Lock()
				seen = append(seen, v)
				mu.Unlock()
			})
		}()
		wg.Wait()

		mu.Lock()
		require.NotEmpty(t, seen)
		assert.Equal(t, s.Current(), seen[len(seen)-1])
		mu.Unlock()

		(<-subCh).Cancel()
	}
}

func TestPersistentSlotWritesThrough(t *testing.T) {
	store := newFakeStore()

	s := NewPersistent("favorites", map[string]bool{}, store)
	s.Set(map[string]bool{"abc": true})

	restored := NewPersistent("favorites", map[string]bool{}, store)
	assert.Equal(t, map[string]bool{"abc": true}, restored.Current())
}

func TestPersistentSlotRestoresInitialWhenEmpty(t *testing.T) {
	store := newFakeStore()

	s := NewPersistent("votes", map[string]string{"a": "good"}, store)
	assert.Equal(t, map[string]string{"a": "good"}, s.Current())
}

func TestPersistFailureDoesNotBlockUpdate(t *testing.T) {
	store := newFakeStore()
	store.fail = true

	s := NewPersistent("feed", 0, store)

	var got []int
	sub := s.Subscribe(func(v int) { got = append(got, v) })
	defer sub.Cancel()

	require.NotPanics(t, func() { s.Set(9) })
	assert.Equal(t, 9, s.Current())
	assert.Equal(t, []int{0, 9}, got)
}
