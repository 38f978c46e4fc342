package sim

import (
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/encodeous/dvr/core"
	"github.com/encodeous/dvr/probe"
	"github.com/encodeous/dvr/protocol"
	"github.com/encodeous/dvr/state"
)

// Simulator runs every node of a scenario against one virtual clock. Events for the same instant run in the order
// they were scheduled, and each runs to completion before the next, so a run is deterministic.
type Simulator struct {
	scn      *state.Scenario
	log      *slog.Logger
	now      time.Duration
	seq      uint64
	queue    eventQueue
	hosts    map[state.NodeId]*nodeHost
	links    []*link
	tracker  *probe.Tracker
	resolver *probe.Resolver
}

func New(scn *state.Scenario, log *slog.Logger) (*Simulator, error) {
	codec, err := protocol.CodecByName(scn.Codec)
	if err != nil {
		return nil, err
	}
	s := &Simulator{
		scn:      scn,
		log:      log,
		hosts:    make(map[state.NodeId]*nodeHost),
		tracker:  probe.NewTracker(0),
		resolver: probe.NewResolver(scn.Nodes),
	}
	for _, ncfg := range scn.Nodes {
		h := &nodeHost{
			sim:   s,
			id:    ncfg.Id,
			log:   log.With("node", ncfg.Id),
			ports: make(map[state.Port]*link),
		}
		h.node, err = core.NewNode(core.NodeCfg{
			Id:        ncfg.Id,
			Heartbeat: scn.Heartbeat,
			Infinity:  scn.Infinity,
			Codec:     codec,
		}, h)
		if err != nil {
			return nil, err
		}
		s.hosts[ncfg.Id] = h
	}

	for _, lcfg := range scn.Links {
		if s.hosts[lcfg.A] == nil || s.hosts[lcfg.B] == nil {
			return nil, fmt.Errorf("link %s-%s: %w", lcfg.A, lcfg.B, state.ErrUnknownNode)
		}
		l := &link{
			a:       lcfg.A,
			b:       lcfg.B,
			cost:    lcfg.Cost,
			latency: lcfg.Latency,
		}
		s.links = append(s.links, l)
		s.schedule(0, "link up", func(s *Simulator) error {
			return s.linkUp(l, l.cost)
		})
	}

	for _, change := range scn.Changes {
		idx := scn.FindLink(change.A, change.B)
		if idx == -1 {
			return nil, fmt.Errorf("change at %s references undefined link %s-%s", change.At, change.A, change.B)
		}
		l := s.links[idx]
		switch change.Op {
		case state.LinkUp:
			cost := change.Cost
			s.schedule(change.At, "link up", func(s *Simulator) error {
				if cost != nil {
					return s.linkUp(l, *cost)
				}
				return s.linkUp(l, l.cost)
			})
		case state.LinkDown:
			s.schedule(change.At, "link down", func(s *Simulator) error {
				s.linkDown(l)
				return nil
			})
		default:
			return nil, fmt.Errorf("unknown link operation %q", change.Op)
		}
	}

	for _, pcfg := range scn.Probes {
		to, err := s.resolver.Resolve(pcfg.To)
		if err != nil {
			return nil, err
		}
		if s.hosts[pcfg.From] == nil {
			return nil, fmt.Errorf("probe from %s: %w", pcfg.From, state.ErrUnknownNode)
		}
		for i := range pcfg.Count {
			from := pcfg.From
			s.schedule(pcfg.At+time.Duration(i)*pcfg.Every, "probe", func(s *Simulator) error {
				return s.sendProbe(from, to)
			})
		}
	}

	s.schedule(0, "tick", (*Simulator).tick)
	return s, nil
}

func (s *Simulator) schedule(at time.Duration, name string, run func(s *Simulator) error) {
	s.seq++
	s.queue.push(&event{
		at:   at,
		seq:  s.seq,
		name: name,
		run:  run,
	})
}

// tick advances the clock of every router and schedules the next tick
func (s *Simulator) tick() error {
	for _, id := range s.NodeIds() {
		s.hosts[id].node.HandleTime(s.now)
	}
	s.schedule(s.now+s.scn.Tick, "tick", (*Simulator).tick)
	return nil
}

func (s *Simulator) sendProbe(from, to state.NodeId) error {
	id := s.tracker.Start(from, to, s.now)
	if from == to {
		s.tracker.Deliver(id, s.now)
		return nil
	}
	h := s.hosts[from]
	pkt := protocol.NewTraceroutePacket(from, to, id[:])
	if state.DBG_log_probe {
		h.log.Debug("probe sent", "probe", id, "dst", to, "at", s.now)
	}
	return h.route(id, 0, pkt)
}

// Step runs the next event. It returns false once the queue is empty.
func (s *Simulator) Step() (bool, error) {
	if s.queue.Len() == 0 {
		return false, nil
	}
	e := s.queue.pop()
	s.now = e.at
	if err := e.run(s); err != nil {
		return true, fmt.Errorf("%s at %s: %w", e.name, e.at, err)
	}
	return true, nil
}

// Run processes every event up to and including until, then leaves the clock at until
func (s *Simulator) Run(until time.Duration) error {
	for {
		next := s.queue.peek()
		if next == nil || next.at > until {
			break
		}
		if _, err := s.Step(); err != nil {
			return err
		}
	}
	s.now = max(s.now, until)
	return nil
}

func (s *Simulator) Now() time.Duration {
	return s.now
}

func (s *Simulator) Node(id state.NodeId) (*core.Node, bool) {
	h, ok := s.hosts[id]
	if !ok {
		return nil, false
	}
	return h.node, true
}

// NodeIds returns every simulated node in sorted order
func (s *Simulator) NodeIds() []state.NodeId {
	ids := make([]state.NodeId, 0, len(s.hosts))
	for id := range s.hosts {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

func (s *Simulator) Results() []probe.Result {
	return s.tracker.Results()
}

func (s *Simulator) ProbeSummary() probe.Summary {
	return s.tracker.Summary()
}

// Snapshot copies the tables of every node, sorted by node id
func (s *Simulator) Snapshot() []core.Snapshot {
	snap := make([]core.Snapshot, 0, len(s.hosts))
	for _, id := range s.NodeIds() {
		snap = append(snap, s.hosts[id].node.Snapshot())
	}
	return snap
}
