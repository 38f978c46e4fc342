package live

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/encodeous/dvr/core"
	"github.com/encodeous/dvr/perf"
	"github.com/encodeous/dvr/probe"
	"github.com/encodeous/dvr/protocol"
	"github.com/encodeous/dvr/state"
	"golang.org/x/sync/errgroup"
)

type endpoint struct {
	node state.NodeId
	port state.Port
}

type wire struct {
	link *netLink
	to   endpoint
}

type netLink struct {
	cfg   state.LinkCfg
	cost  state.Cost
	up    bool
	epoch int
	portA state.Port
	portB state.Port
}

// Network runs every node of a scenario on its own main loop, connected by in-memory links
type Network struct {
	scn      *state.Scenario
	log      *slog.Logger
	ctx      context.Context
	cancel   context.CancelCauseFunc
	group    *errgroup.Group
	epoch    time.Time
	tracker  *probe.Tracker
	resolver *probe.Resolver

	nodes map[state.NodeId]*state.State

	mu       sync.RWMutex
	wires    map[endpoint]wire
	links    []*netLink
	nextPort map[state.NodeId]state.Port
}

// Start brings up every node and link of scn. The network runs until ctx is cancelled, Stop is called or a node
// fails.
func Start(ctx context.Context, scn *state.Scenario, log *slog.Logger) (*Network, error) {
	ctx, cancel := context.WithCancelCause(ctx)
	group, gctx := errgroup.WithContext(ctx)
	n := &Network{
		scn:      scn,
		log:      log,
		ctx:      gctx,
		cancel:   cancel,
		group:    group,
		epoch:    time.Now(),
		tracker:  probe.NewTracker(state.ProbeTimeout),
		resolver: probe.NewResolver(scn.Nodes),
		nodes:    make(map[state.NodeId]*state.State),
		wires:    make(map[endpoint]wire),
		nextPort: make(map[state.NodeId]state.Port),
	}

	for _, ncfg := range scn.Nodes {
		nctx, ncancel := context.WithCancelCause(gctx)
		dispatch := make(chan func(*state.State) error, state.DispatchBuffer)
		s := &state.State{
			Modules: make(map[string]state.NyModule),
			Env: &state.Env{
				DispatchChannel: dispatch,
				Id:              ncfg.Id,
				Scenario:        scn,
				Context:         nctx,
				Cancel:          ncancel,
				Log:             log.With("node", ncfg.Id),
				Epoch:           n.epoch,
			},
		}
		err := initModules(s, &RouterModule{net: n})
		if err != nil {
			cancel(err)
			_ = n.Wait()
			return nil, fmt.Errorf("init %s: %w", ncfg.Id, err)
		}
		n.nodes[ncfg.Id] = s
		n.group.Go(func() error {
			return MainLoop(s, dispatch)
		})
	}

	for _, lcfg := range scn.Links {
		l := &netLink{cfg: lcfg, cost: lcfg.Cost}
		n.links = append(n.links, l)
		if err := n.linkUp(l, l.cost); err != nil {
			cancel(err)
			_ = n.Wait()
			return nil, err
		}
	}

	n.group.Go(n.drive)
	log.Info("network started", "nodes", len(scn.Nodes), "links", len(scn.Links))
	return n, nil
}

// Stop shuts every node down. It does not wait for them, see Wait.
func (n *Network) Stop() {
	n.cancel(ErrStopped)
}

// Wait blocks until every node has stopped, returning the first node failure
func (n *Network) Wait() error {
	err := n.group.Wait()
	n.tracker.Close()
	return err
}

// Done is closed once the network starts shutting down
func (n *Network) Done() <-chan struct{} {
	return n.ctx.Done()
}

func (n *Network) Now() time.Duration {
	return time.Since(n.epoch)
}

// drive applies the scenario's link changes and probes at their scheduled times
func (n *Network) drive() error {
	type action struct {
		at  time.Duration
		run func() error
	}
	actions := make([]action, 0)
	for _, change := range n.scn.Changes {
		idx := n.scn.FindLink(change.A, change.B)
		if idx == -1 {
			return fmt.Errorf("change at %s references undefined link %s-%s", change.At, change.A, change.B)
		}
		l := n.links[idx]
		switch change.Op {
		case state.LinkUp:
			cost := change.Cost
			actions = append(actions, action{change.At, func() error {
				if cost != nil {
					return n.linkUp(l, *cost)
				}
				return n.linkUp(l, l.cost)
			}})
		case state.LinkDown:
			actions = append(actions, action{change.At, func() error {
				n.linkDown(l)
				return nil
			}})
		}
	}
	for _, pcfg := range n.scn.Probes {
		to, err := n.resolver.Resolve(pcfg.To)
		if err != nil {
			return err
		}
		for i := range pcfg.Count {
			from := pcfg.From
			actions = append(actions, action{pcfg.At + time.Duration(i)*pcfg.Every, func() error {
				return n.probe(from, to)
			}})
		}
	}
	slices.SortStableFunc(actions, func(a, b action) int {
		return cmp.Compare(a.at, b.at)
	})

	timer := time.NewTimer(0)
	defer timer.Stop()
	for _, a := range actions {
		timer.Reset(time.Until(n.epoch.Add(a.at)))
		select {
		case <-n.ctx.Done():
			return nil
		case <-timer.C:
		}
		if err := a.run(); err != nil {
			return err
		}
	}
	return nil
}

func (n *Network) env(id state.NodeId) (*state.Env, error) {
	s, ok := n.nodes[id]
	if !ok {
		return nil, fmt.Errorf("%s: %w", id, state.ErrUnknownNode)
	}
	return s.Env, nil
}

// linkUp and linkDown run outside the node loops. They dispatch synchronously, so each node sees link changes in the
// order they were made.
func (n *Network) linkUp(l *netLink, cost state.Cost) error {
	ea, err := n.env(l.cfg.A)
	if err != nil {
		return err
	}
	eb, err := n.env(l.cfg.B)
	if err != nil {
		return err
	}

	n.mu.Lock()
	if !l.up {
		l.up = true
		l.epoch++
		n.nextPort[l.cfg.A]++
		n.nextPort[l.cfg.B]++
		l.portA, l.portB = n.nextPort[l.cfg.A], n.nextPort[l.cfg.B]
		n.wires[endpoint{l.cfg.A, l.portA}] = wire{l, endpoint{l.cfg.B, l.portB}}
		n.wires[endpoint{l.cfg.B, l.portB}] = wire{l, endpoint{l.cfg.A, l.portA}}
	}
	l.cost = cost
	portA, portB := l.portA, l.portB
	n.mu.Unlock()

	n.log.Debug("link up", "a", l.cfg.A, "b", l.cfg.B, "cost", cost)
	ea.Dispatch(func(s *state.State) error {
		return Get[*RouterModule](s).Node.HandleNewLink(portA, l.cfg.B, cost)
	})
	eb.Dispatch(func(s *state.State) error {
		return Get[*RouterModule](s).Node.HandleNewLink(portB, l.cfg.A, cost)
	})
	return nil
}

func (n *Network) linkDown(l *netLink) {
	n.mu.Lock()
	if !l.up {
		n.mu.Unlock()
		return
	}
	l.up = false
	delete(n.wires, endpoint{l.cfg.A, l.portA})
	delete(n.wires, endpoint{l.cfg.B, l.portB})
	portA, portB := l.portA, l.portB
	n.mu.Unlock()

	n.log.Debug("link down", "a", l.cfg.A, "b", l.cfg.B)
	n.nodes[l.cfg.A].Dispatch(func(s *state.State) error {
		Get[*RouterModule](s).Node.HandleRemoveLink(portA)
		return nil
	})
	n.nodes[l.cfg.B].Dispatch(func(s *state.State) error {
		Get[*RouterModule](s).Node.HandleRemoveLink(portB)
		return nil
	})
}

// send carries pkt across the link behind (from, port), arriving after the link's latency
func (n *Network) send(from state.NodeId, port state.Port, pkt *protocol.Packet) {
	n.mu.RLock()
	w, ok := n.wires[endpoint{from, port}]
	var epoch int
	if ok {
		epoch = w.link.epoch
	}
	n.mu.RUnlock()
	if !ok {
		perf.LinkPacketsLost.Add(1)
		return
	}

	pkt = pkt.Copy()
	n.nodes[w.to.node].ScheduleTask(func(s *state.State) error {
		n.mu.RLock()
		alive := w.link.up && w.link.epoch == epoch
		n.mu.RUnlock()
		if !alive {
			perf.LinkPacketsLost.Add(1)
			return nil
		}
		return Get[*RouterModule](s).receive(w.to.port, pkt)
	}, w.link.cfg.Latency)
}

func (n *Network) probe(from, to state.NodeId) error {
	env, err := n.env(from)
	if err != nil {
		return err
	}
	env.Dispatch(func(s *state.State) error {
		Get[*RouterModule](s).sendProbe(to)
		return nil
	})
	return nil
}

// Snapshot reads the tables of every node from its main loop, sorted by node id
func (n *Network) Snapshot() ([]core.Snapshot, error) {
	ids := make([]state.NodeId, 0, len(n.nodes))
	for id := range n.nodes {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	snap := make([]core.Snapshot, 0, len(ids))
	for _, id := range ids {
		res, err := n.nodes[id].DispatchWait(func(s *state.State) (any, error) {
			return Get[*RouterModule](s).Node.Snapshot(), nil
		})
		if err != nil {
			return nil, fmt.Errorf("snapshot of %s: %w", id, err)
		}
		snap = append(snap, res.(core.Snapshot))
	}
	return snap, nil
}

// Inspect renders the tables of one node
func (n *Network) Inspect(id state.NodeId) (string, error) {
	env, err := n.env(id)
	if err != nil {
		return "", err
	}
	res, err := env.DispatchWait(func(s *state.State) (any, error) {
		return Get[*RouterModule](s).Node.Inspect(), nil
	})
	if err != nil {
		return "", err
	}
	return res.(string), nil
}

func (n *Network) Results() []probe.Result {
	return n.tracker.Results()
}

func (n *Network) ProbeSummary() probe.Summary {
	return n.tracker.Summary()
}
