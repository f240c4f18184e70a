package health

import (
	"sort"
	"sync"
	"time"
)

// DefaultUnhealthyAfter is the number of consecutive failures that turns a
// degraded operation unhealthy.
const DefaultUnhealthyAfter = 3

// Tracker records collaborator outcomes per operation. It is safe for
// concurrent use.
type Tracker struct {
	mu             sync.RWMutex
	operations     map[string]*record
	unhealthyAfter int
	now            func() time.Time
}

type record struct {
	metrics Metrics
	lastErr string
}

// TrackerOption configures a Tracker
type TrackerOption func(*Tracker)

// WithUnhealthyAfter sets the consecutive failure threshold; values below 1
// are ignored.
func WithUnhealthyAfter(n int) TrackerOption {
	return func(t *Tracker) {
		if n > 0 {
			t.unhealthyAfter = n
		}
	}
}

// WithClock replaces time.Now
func WithClock(now func() time.Time) TrackerOption {
	return func(t *Tracker) {
		if now != nil {
			t.now = now
		}
	}
}

// NewTracker creates a tracker with no recorded operations
func NewTracker(opts ...TrackerOption) *Tracker {
	t := &Tracker{
		operations:     make(map[string]*record),
		unhealthyAfter: DefaultUnhealthyAfter,
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Record notes the outcome of one call; a nil err is a success
func (t *Tracker) Record(operation string, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	r, ok := t.operations[operation]
	if !ok {
		r = &record{}
		t.operations[operation] = r
	}

	now := t.now()
	r.metrics.Calls++
	if err == nil {
		r.metrics.ConsecutiveFailures = 0
		r.metrics.LastSuccess = now
		r.lastErr = ""
		return
	}
	r.metrics.Failures++
	r.metrics.ConsecutiveFailures++
	r.metrics.LastFailure = now
	r.lastErr = err.Error()
}

// Status reports one operation; false if it was never recorded
func (t *Tracker) Status(operation string) (Status, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	r, ok := t.operations[operation]
	if !ok {
		return Status{}, false
	}
	return t.status(operation, r), true
}

func (t *Tracker) status(operation string, r *record) Status {
	now := t.now()
	var status Status
	switch {
	case r.metrics.ConsecutiveFailures == 0:
		status = newStatus(operation, StateHealthy, "Last call succeeded", now)
	case r.metrics.ConsecutiveFailures < t.unhealthyAfter:
		status = newStatus(operation, StateDegraded, sanitizeErrorMessage(r.lastErr), now)
	default:
		status = newStatus(operation, StateUnhealthy, sanitizeErrorMessage(r.lastErr), now)
	}
	metrics := r.metrics
	status.Metrics = &metrics
	return status
}

// Aggregate reports every recorded operation under system, ordered by name
func (t *Tracker) Aggregate(system string) Status {
	t.mu.RLock()
	defer t.mu.RUnlock()

	names := make([]string, 0, len(t.operations))
	for name := range t.operations {
		names = append(names, name)
	}
	sort.Strings(names)

	subs := make([]Status, 0, len(names))
	for _, name := range names {
		subs = append(subs, t.status(name, t.operations[name]))
	}
	return Aggregate(system, subs, t.now())
}

// Reset forgets an operation's history
func (t *Tracker) Reset(operation string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.operations, operation)
}
