package sim

import (
	"fmt"
	"log/slog"

	"github.com/encodeous/dvr/core"
	"github.com/encodeous/dvr/perf"
	"github.com/encodeous/dvr/protocol"
	"github.com/encodeous/dvr/state"
	"github.com/google/uuid"
)

// nodeHost connects one router to the simulated links
type nodeHost struct {
	sim      *Simulator
	id       state.NodeId
	node     *core.Node
	log      *slog.Logger
	nextPort state.Port
	ports    map[state.Port]*link
	// forwarded is set when the router sends the traceroute packet it is handling
	forwarded bool
}

func (h *nodeHost) Send(port state.Port, pkt *protocol.Packet) {
	l, ok := h.ports[port]
	if !ok || !l.up {
		return
	}
	if pkt.IsTraceroute() {
		h.forwarded = true
	}
	to, toPort := l.other(h.id)
	epoch := l.epoch
	pkt = pkt.Copy()
	h.sim.schedule(h.sim.now+l.latency, "deliver", func(s *Simulator) error {
		if !l.up || l.epoch != epoch {
			perf.LinkPacketsLost.Add(1)
			return nil
		}
		return s.hosts[to].receive(toPort, pkt)
	})
}

func (h *nodeHost) Log(event core.RouterEvent, desc string, args ...any) {
	msg := fmt.Sprintf("%s %s", event.String(), desc)
	args = append(args, "at", h.sim.now)
	if event.IsWarning() {
		h.log.Warn(msg, args...)
	} else {
		h.log.Debug(msg, args...)
	}
}

func (h *nodeHost) allocPort() state.Port {
	h.nextPort++
	return h.nextPort
}

func (h *nodeHost) receive(port state.Port, pkt *protocol.Packet) error {
	if !pkt.IsTraceroute() {
		err := h.node.HandlePacket(port, pkt)
		if err != nil {
			// the router has already reported it, a bad advertisement does not stop the simulation
			h.log.Debug("advertisement discarded", "err", err)
		}
		return nil
	}

	id, err := uuid.FromBytes(pkt.Content)
	if err != nil {
		return fmt.Errorf("traceroute packet at %s without probe id: %w", h.id, err)
	}
	if !h.sim.tracker.Hop(id, h.id) {
		return nil
	}
	if state.DBG_log_probe {
		h.log.Debug("probe hop", "probe", id, "dst", pkt.Dst, "at", h.sim.now)
	}
	if pkt.Dst == h.id {
		h.sim.tracker.Deliver(id, h.sim.now)
		return nil
	}
	return h.route(id, port, pkt)
}

// route hands a traceroute packet to the router and notices when it is not sent anywhere
func (h *nodeHost) route(id uuid.UUID, port state.Port, pkt *protocol.Packet) error {
	h.forwarded = false
	err := h.node.HandlePacket(port, pkt)
	if err != nil {
		return err
	}
	if !h.forwarded {
		h.sim.tracker.Drop(id, h.id)
	}
	return nil
}
