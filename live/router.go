package live

import (
	"fmt"

	"github.com/encodeous/dvr/core"
	"github.com/encodeous/dvr/protocol"
	"github.com/encodeous/dvr/state"
	"github.com/google/uuid"
)

// RouterModule runs a distance vector router on a node's main loop
type RouterModule struct {
	*state.State
	Node      *core.Node
	net       *Network
	forwarded bool
}

func (r *RouterModule) Init(s *state.State) error {
	r.State = s
	codec, err := protocol.CodecByName(s.Scenario.Codec)
	if err != nil {
		return err
	}
	r.Node, err = core.NewNode(core.NodeCfg{
		Id:        s.Id,
		Heartbeat: s.Scenario.Heartbeat,
		Infinity:  s.Scenario.Infinity,
		Codec:     codec,
	}, r)
	if err != nil {
		return err
	}
	s.RepeatTask(func(s *state.State) error {
		r.Node.HandleTime(s.Now())
		return nil
	}, s.Scenario.Tick)
	return nil
}

func (r *RouterModule) Cleanup(s *state.State) error {
	return nil
}

func (r *RouterModule) Send(port state.Port, pkt *protocol.Packet) {
	if pkt.IsTraceroute() {
		r.forwarded = true
	}
	r.net.send(r.Id, port, pkt)
}

func (r *RouterModule) Log(event core.RouterEvent, desc string, args ...any) {
	if event.IsWarning() {
		r.Env.Log.Warn(fmt.Sprintf("%s %s", event.String(), desc), args...)
	} else {
		r.Env.Log.Debug(fmt.Sprintf("%s %s", event.String(), desc), args...)
	}
}

func (r *RouterModule) receive(port state.Port, pkt *protocol.Packet) error {
	if !pkt.IsTraceroute() {
		err := r.Node.HandlePacket(port, pkt)
		if err != nil {
			r.Env.Log.Debug("advertisement discarded", "err", err)
		}
		return nil
	}

	id, err := uuid.FromBytes(pkt.Content)
	if err != nil {
		r.Env.Log.Warn("traceroute packet without probe id", "src", pkt.Src, "err", err)
		return nil
	}
	tracker := r.net.tracker
	if !tracker.Hop(id, r.Id) {
		return nil
	}
	if state.DBG_log_probe {
		r.Env.Log.Debug("probe hop", "probe", id, "dst", pkt.Dst)
	}
	if pkt.Dst == r.Id {
		tracker.Deliver(id, r.Now())
		return nil
	}
	r.route(id, port, pkt)
	return nil
}

func (r *RouterModule) route(id uuid.UUID, port state.Port, pkt *protocol.Packet) {
	r.forwarded = false
	_ = r.Node.HandlePacket(port, pkt)
	if !r.forwarded {
		r.net.tracker.Drop(id, r.Id)
	}
}

func (r *RouterModule) sendProbe(to state.NodeId) {
	id := r.net.tracker.Start(r.Id, to, r.Now())
	if to == r.Id {
		r.net.tracker.Deliver(id, r.Now())
		return
	}
	if state.DBG_log_probe {
		r.Env.Log.Debug("probe sent", "probe", id, "dst", to)
	}
	r.route(id, 0, protocol.NewTraceroutePacket(r.Id, to, id[:]))
}
