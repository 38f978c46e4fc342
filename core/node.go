package core

import (
	"errors"
	"fmt"
	"maps"
	"time"

	"github.com/encodeous/dvr/perf"
	"github.com/encodeous/dvr/protocol"
	"github.com/encodeous/dvr/state"
)

// Host is everything a Node needs from the environment that runs it. The host must serialize every call into the
// Node it drives.
type Host interface {
	// Send hands pkt to the link behind port. Delivery is best-effort. pkt and its Content may be shared with other
	// sends, so a host that keeps pkt after Send returns must keep pkt.Copy() instead.
	Send(port state.Port, pkt *protocol.Packet)
	Log(event RouterEvent, desc string, args ...any)
}

type NodeCfg struct {
	Id        state.NodeId
	Heartbeat time.Duration
	// Infinity is the cost cap, DefaultInfinity if zero
	Infinity state.Cost
	// Codec encodes advertisements, ProtoCodec if nil
	Codec protocol.Codec
}

// Node is a distance vector router
type Node struct {
	cfg  NodeCfg
	host Host
	rs   *state.RouterState
}

func NewNode(cfg NodeCfg, host Host) (*Node, error) {
	if err := state.NameValidator(string(cfg.Id)); err != nil {
		return nil, err
	}
	if cfg.Heartbeat <= 0 {
		return nil, fmt.Errorf("heartbeat must be positive, got %s", cfg.Heartbeat)
	}
	if cfg.Infinity == 0 {
		cfg.Infinity = state.DefaultInfinity
	}
	if cfg.Infinity < 0 {
		return nil, fmt.Errorf("infinity must be positive, got %d", cfg.Infinity)
	}
	if cfg.Codec == nil {
		cfg.Codec = protocol.ProtoCodec{}
	}
	if host == nil {
		return nil, errors.New("node requires a host")
	}
	return &Node{
		cfg:  cfg,
		host: host,
		rs:   state.NewRouterState(cfg.Id),
	}, nil
}

// HandleNewLink records a link to neigh on port. A link already on port is replaced. Negative costs are rejected,
// costs above infinity are capped.
func (n *Node) HandleNewLink(port state.Port, neigh state.NodeId, cost state.Cost) error {
	if cost < 0 {
		err := fmt.Errorf("%d: %w", cost, state.ErrNegativeCost)
		n.host.Log(RejectedLink, "link rejected", "port", port, "neigh", neigh, "cost", cost, "err", err)
		return fmt.Errorf("link to %s on port %d: %w", neigh, port, err)
	}
	if cost > n.cfg.Infinity {
		n.host.Log(LinkCapped, "link cost capped at infinity", "port", port, "neigh", neigh, "cost", cost)
		cost = n.cfg.Infinity
	}
	n.rs.Links[port] = cost
	n.rs.PortNeigh[port] = neigh
	n.host.Log(LinkAdded, "link added", "port", port, "neigh", neigh, "cost", cost)
	n.update()
	return nil
}

// HandleRemoveLink forgets the link on port along with everything its neighbour advertised. Unknown ports are ignored.
func (n *Node) HandleRemoveLink(port state.Port) {
	neigh, ok := n.rs.GetNeighbour(port)
	if !ok {
		return
	}
	delete(n.rs.Links, port)
	delete(n.rs.PortNeigh, port)
	delete(n.rs.NeighVectors, neigh)
	n.host.Log(LinkRemoved, "link removed", "port", port, "neigh", neigh)
	n.update()
}

// HandlePacket processes a packet that arrived on port. Only a routing packet that cannot be decoded is an error,
// in which case the node is left untouched. Advertisements are stored under their sender even when port has no
// link, they take effect once a link to the sender exists.
func (n *Node) HandlePacket(port state.Port, pkt *protocol.Packet) error {
	if pkt.IsTraceroute() {
		n.forward(pkt)
		return nil
	}

	if _, ok := n.rs.GetNeighbour(port); !ok {
		n.host.Log(UnknownPort, "routing packet on unknown port", "port", port, "src", pkt.Src)
	}
	vec, err := n.cfg.Codec.Unmarshal(pkt.Content)
	if err != nil {
		n.host.Log(MalformedAdvertisement, "failed to decode advertisement", "port", port, "src", pkt.Src, "err", err)
		return fmt.Errorf("advertisement from %s: %w", pkt.Src, err)
	}
	perf.AdvertsReceived.Add(1)
	n.rs.NeighVectors[pkt.Src] = vec
	n.host.Log(AdvertisementAccepted, "advertisement accepted", "port", port, "src", pkt.Src, "vector", vec)
	n.update()
	return nil
}

// HandleTime advances the node's clock to now, broadcasting the vector if a heartbeat is due
func (n *Node) HandleTime(now time.Duration) {
	if now-n.rs.LastBroadcast < n.cfg.Heartbeat {
		return
	}
	n.rs.LastBroadcast = now
	n.broadcast(HeartbeatBroadcast)
}

func (n *Node) forward(pkt *protocol.Packet) {
	port, ok := n.rs.Forward[pkt.Dst]
	if !ok {
		perf.PacketsDropped.Add(1)
		n.host.Log(PacketDropped, "no route to destination", "src", pkt.Src, "dst", pkt.Dst)
		return
	}
	perf.PacketsForwarded.Add(1)
	n.host.Log(PacketForwarded, "forwarding packet", "src", pkt.Src, "dst", pkt.Dst, "port", port)
	n.host.Send(port, pkt)
}

// update recomputes routes and advertises them if anything changed
func (n *Node) update() {
	start := time.Now()
	changed := ComputeRoutes(n.rs, n.cfg.Infinity)
	perf.RecomputeLatency.Add(float64(time.Since(start).Microseconds()))

	if state.DBG_log_router {
		n.host.Log(RoutesComputed, "routes computed", "changed", changed, "vector", n.rs.Vector)
	}
	if !changed {
		return
	}
	if state.DBG_log_route_table {
		n.host.Log(RoutesChanged, "routes changed", "vector", n.rs.Vector, "forward", n.rs.Forward)
	} else {
		n.host.Log(RoutesChanged, "routes changed", "vector", n.rs.Vector)
	}
	n.broadcast(VectorBroadcast)
}

func (n *Node) Id() state.NodeId {
	return n.cfg.Id
}

func (n *Node) Infinity() state.Cost {
	return n.cfg.Infinity
}

func (n *Node) Vector() state.Vector {
	return n.rs.Vector.Clone()
}

func (n *Node) ForwardTable() state.ForwardTable {
	return n.rs.Forward.Clone()
}

func (n *Node) Links() map[state.Port]state.Cost {
	return maps.Clone(n.rs.Links)
}

// NeighbourVector returns the vector neigh last advertised, or false if none is stored
func (n *Node) NeighbourVector(neigh state.NodeId) (state.Vector, bool) {
	vec, ok := n.rs.NeighVectors[neigh]
	if !ok {
		return nil, false
	}
	return vec.Clone(), true
}

// Route returns the port and cost used to reach dst. The node itself has no route.
func (n *Node) Route(dst state.NodeId) (state.Port, state.Cost, bool) {
	port, ok := n.rs.Forward[dst]
	if !ok {
		return 0, 0, false
	}
	return port, n.rs.Vector[dst], true
}

// Snapshot is a copy of a node's derived tables
type Snapshot struct {
	Id      state.NodeId
	Vector  state.Vector
	Forward state.ForwardTable
}

func (n *Node) Snapshot() Snapshot {
	return Snapshot{
		Id:      n.cfg.Id,
		Vector:  n.Vector(),
		Forward: n.ForwardTable(),
	}
}
