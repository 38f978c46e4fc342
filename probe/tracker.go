package probe

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"github.com/encodeous/dvr/perf"
	"github.com/encodeous/dvr/state"
	"github.com/google/uuid"
	"github.com/jellydator/ttlcache/v3"
)

// Tracker follows traceroute probes through the network. It is safe for concurrent use. A tracker with a timeout
// expires probes in the background until it is closed.
type Tracker struct {
	mu       sync.Mutex
	inflight *ttlcache.Cache[uuid.UUID, *Result]
	done     []Result
	// evicted holds probes the cache expired or pushed out, they are reported as lost
	evicted map[uuid.UUID]struct{}
	sent    int
	// removed counts probes taken out of inflight by the tracker itself, the rest of the cache's evictions were lost
	removed  uint64
	maxHops  int
	expiring bool

	evictMu   sync.Mutex
	stopEvict func()
	closed    bool
}

// NewTracker creates a tracker. Probes that take longer than timeout are considered lost, a zero timeout never
// expires probes.
func NewTracker(timeout time.Duration) *Tracker {
	ttl := ttlcache.NoTTL
	if timeout > 0 {
		ttl = timeout
	}
	t := &Tracker{
		inflight: ttlcache.New[uuid.UUID, *Result](
			ttlcache.WithTTL[uuid.UUID, *Result](ttl),
			ttlcache.WithCapacity[uuid.UUID, *Result](state.ProbeCapacity),
			ttlcache.WithDisableTouchOnHit[uuid.UUID, *Result](),
		),
		evicted:  make(map[uuid.UUID]struct{}),
		maxHops:  state.MaxProbeHops,
		expiring: timeout > 0,
	}
	t.stopEvict = t.inflight.OnEviction(t.onEviction)
	if t.expiring {
		go t.inflight.Start()
	}
	return t
}

func (t *Tracker) onEviction(_ context.Context, reason ttlcache.EvictionReason, item *ttlcache.Item[uuid.UUID, *Result]) {
	if reason == ttlcache.EvictionReasonDeleted {
		return // finished by the tracker
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	r := *item.Value()
	if _, ok := t.evicted[r.Id]; ok {
		return
	}
	t.evicted[r.Id] = struct{}{}
	r.Path = slices.Clone(r.Path)
	r.Status = Lost
	t.done = append(t.done, r)
	perf.ProbesLost.Add(1)
}

// settle waits until every eviction so far is recorded in done. The cache runs eviction handlers on their own
// goroutines, so a fresh handler is registered before the old one is drained.
func (t *Tracker) settle() {
	t.evictMu.Lock()
	defer t.evictMu.Unlock()
	if t.closed {
		return
	}
	stop := t.stopEvict
	t.stopEvict = t.inflight.OnEviction(t.onEviction)
	stop()
}

// Close stops expiring probes and records the ones already evicted. Results and Summary remain usable.
func (t *Tracker) Close() {
	t.evictMu.Lock()
	defer t.evictMu.Unlock()
	if t.closed {
		return
	}
	t.closed = true
	if t.expiring {
		t.inflight.Stop()
	}
	t.stopEvict()
}

// Start registers a new probe that leaves from at time at
func (t *Tracker) Start(from, to state.NodeId, at time.Duration) uuid.UUID {
	t.mu.Lock()
	defer t.mu.Unlock()
	id := uuid.New()
	t.sent++
	t.inflight.Set(id, &Result{
		Id:     id,
		From:   from,
		To:     to,
		Path:   []state.NodeId{from},
		Status: Pending,
		Sent:   at,
	}, ttlcache.DefaultTTL)
	return id
}

// Hop records that the probe reached node. It returns false if the probe should not travel any further, either
// because it is unknown or because it exceeded the hop limit.
func (t *Tracker) Hop(id uuid.UUID, node state.NodeId) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	item := t.inflight.Get(id)
	if item == nil {
		return false
	}
	r := item.Value()
	r.Path = append(r.Path, node)
	if r.Hops() > t.maxHops {
		t.finish(id, Looped, 0)
		return false
	}
	return true
}

// Deliver marks the probe as having arrived at its destination
func (t *Tracker) Deliver(id uuid.UUID, at time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.finish(id, Delivered, at)
}

// Drop marks the probe as discarded by node, which had no route
func (t *Tracker) Drop(id uuid.UUID, node state.NodeId) {
	t.mu.Lock()
	defer t.mu.Unlock()
	item := t.inflight.Get(id)
	if item == nil {
		return
	}
	if r := item.Value(); r.Path[len(r.Path)-1] != node {
		r.Path = append(r.Path, node)
	}
	t.finish(id, Dropped, 0)
}

func (t *Tracker) finish(id uuid.UUID, status Status, at time.Duration) {
	item, ok := t.inflight.GetAndDelete(id)
	if !ok {
		return
	}
	t.removed++
	r := *item.Value()
	r.Status = status
	r.Arrived = at
	t.done = append(t.done, r)
	if status == Delivered {
		perf.ProbesDelivered.Add(1)
	} else {
		perf.ProbesLost.Add(1)
	}
}

// Results returns every probe, ordered by send time. Probes that have not finished, timed out or were pushed out of
// the in-flight table are reported as lost.
func (t *Tracker) Results() []Result {
	t.settle()
	t.mu.Lock()
	defer t.mu.Unlock()
	res := slices.Clone(t.done)
	for _, item := range t.inflight.Items() {
		r := *item.Value()
		r.Path = slices.Clone(r.Path)
		r.Status = Lost
		res = append(res, r)
	}
	slices.SortStableFunc(res, func(a, b Result) int {
		return cmp.Or(
			cmp.Compare(a.Sent, b.Sent),
			cmp.Compare(a.From, b.From),
			cmp.Compare(a.To, b.To),
			cmp.Compare(a.Id.String(), b.Id.String()),
		)
	})
	return res
}

func (t *Tracker) Summary() Summary {
	t.mu.Lock()
	defer t.mu.Unlock()
	s := Summary{Sent: t.sent}
	for _, r := range t.done {
		switch r.Status {
		case Delivered:
			s.Delivered++
		case Dropped:
			s.Dropped++
		case Looped:
			s.Looped++
		}
	}
	s.Lost = s.Sent - s.Delivered - s.Dropped - s.Looped
	return s
}

// Evicted is the number of probes that were pushed out of the in-flight table before they finished
func (t *Tracker) Evicted() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.inflight.Metrics().Evictions - t.removed
}
