package sim

import (
	"time"

	"github.com/encodeous/dvr/state"
)

// link is the simulated state of a configured link
type link struct {
	a, b    state.NodeId
	cost    state.Cost
	latency time.Duration
	up      bool
	// epoch changes every time the link comes up, so packets sent before an outage are lost
	epoch int
	portA state.Port
	portB state.Port
}

// other returns the far end of the link as seen from node
func (l *link) other(node state.NodeId) (state.NodeId, state.Port) {
	if node == l.a {
		return l.b, l.portB
	}
	return l.a, l.portA
}

func (s *Simulator) linkUp(l *link, cost state.Cost) error {
	ha, hb := s.hosts[l.a], s.hosts[l.b]
	if !l.up {
		l.up = true
		l.epoch++
		l.portA = ha.allocPort()
		l.portB = hb.allocPort()
		ha.ports[l.portA] = l
		hb.ports[l.portB] = l
	}
	l.cost = cost
	s.log.Debug("link up", "a", l.a, "b", l.b, "cost", cost, "at", s.now)
	if err := ha.node.HandleNewLink(l.portA, l.b, cost); err != nil {
		return err
	}
	return hb.node.HandleNewLink(l.portB, l.a, cost)
}

func (s *Simulator) linkDown(l *link) {
	if !l.up {
		return
	}
	l.up = false
	ha, hb := s.hosts[l.a], s.hosts[l.b]
	delete(ha.ports, l.portA)
	delete(hb.ports, l.portB)
	s.log.Debug("link down", "a", l.a, "b", l.b, "at", s.now)
	ha.node.HandleRemoveLink(l.portA)
	hb.node.HandleRemoveLink(l.portB)
}
