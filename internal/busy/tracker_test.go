package busy

import (
	"math/rand"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingIndicator tracks visibility and transitions
type recordingIndicator struct {
	mu      sync.Mutex
	visible bool
	shows   int
	hides   int
}

func (r *recordingIndicator) Show() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.visible = true
	r.shows++
}

func (r *recordingIndicator) Hide() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.visible = false
	r.hides++
}

type countObserver struct {
	mu   sync.Mutex
	seen []int
}

func (c *countObserver) InFlightChanged(n int) {
	c.mu.Lock()
	c.seen = append(c.seen, n)
	c.mu.Unlock()
}

func TestTracker_OverlappingCallsShareOneIndicator(t *testing.T) {
	ind := &recordingIndicator{}
	tr := NewTracker(ind)

	a := tr.Acquire()
	b := tr.Acquire()
	assert.Equal(t, 2, tr.InFlight())
	assert.True(t, ind.visible)
	assert.Equal(t, 1, ind.shows)

	a.Release()
	assert.True(t, ind.visible, "indicator hides only when the last call settles")

	b.Release()
	assert.False(t, ind.visible)
	assert.Equal(t, 0, tr.InFlight())
	assert.Equal(t, 1, ind.hides)
}

func TestTracker_ReleaseIsIdempotent(t *testing.T) {
	tr := NewTracker(nil)

	s := tr.Acquire()
	s.Release()
	s.Release()

	assert.Equal(t, 0, tr.InFlight())
}

func TestTracker_ConcurrentCallsReturnToZero(t *testing.T) {
	for _, n := range []int{0, 1, 7, 200} {
		ind := &recordingIndicator{}
		tr := NewTracker(ind)

		scopes := make([]*Scope, n)
		for i := range scopes {
			scopes[i] = tr.Acquire()
		}
		rand.Shuffle(len(scopes), func(i, j int) { scopes[i], scopes[j] = scopes[j], scopes[i] })

		var wg sync.WaitGroup
		for _, s := range scopes {
			wg.Add(1)
			go func(s *Scope) {
				defer wg.Done()
				s.Release()
			}(s)
		}
		wg.Wait()

		require.Equal(t, 0, tr.InFlight(), "n=%d", n)
		assert.False(t, ind.visible, "n=%d", n)
	}
}

func TestTracker_Observer(t *testing.T) {
	obs := &countObserver{}
	tr := NewTracker(nil, obs)

	a := tr.Acquire()
	b := tr.Acquire()
	b.Release()
	a.Release()

	assert.Equal(t, []int{1, 2, 1, 0}, obs.seen)
}
