// Package busy counts outstanding calls and drives a single busy indicator:
// the indicator is visible exactly while at least one call is in flight.
package busy

import "sync"

// Indicator is shown on the first outstanding call and hidden after the last
type Indicator interface {
	Show()
	Hide()
}

// Observer is told about every change of the in-flight count
type Observer interface {
	InFlightChanged(n int)
}

// Tracker owns the in-flight counter shared by every call of a client
type Tracker struct {
	mu        sync.Mutex
	inFlight  int
	indicator Indicator
	observers []Observer
}

// NewTracker creates a tracker driving indicator; nil means no indicator
func NewTracker(indicator Indicator, observers ...Observer) *Tracker {
	if indicator == nil {
		indicator = NopIndicator{}
	}
	return &Tracker{indicator: indicator, observers: observers}
}

// Acquire registers one outstanding call. The returned scope must be
// released when the call settles, successfully or not.
func (t *Tracker) Acquire() *Scope {
	t.mu.Lock()
	t.inFlight++
	if t.inFlight == 1 {
		t.indicator.Show()
	}
	t.notify()
	t.mu.Unlock()

	return &Scope{tracker: t}
}

// InFlight returns the number of unreleased scopes
func (t *Tracker) InFlight() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.inFlight
}

func (t *Tracker) release() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.inFlight--
	if t.inFlight == 0 {
		t.indicator.Hide()
	}
	t.notify()
}

// notify must be called with mu held
func (t *Tracker) notify() {
	for _, o := range t.observers {
		o.InFlightChanged(t.inFlight)
	}
}

// Scope is one outstanding call
type Scope struct {
	tracker *Tracker
	once    sync.Once
}

// Release settles the call. Only the first call has an effect.
func (s *Scope) Release() {
	s.once.Do(s.tracker.release)
}

// NopIndicator shows nothing
type NopIndicator struct{}

func (NopIndicator) Show() {}
func (NopIndicator) Hide() {}
