package sim

import (
	"fmt"

	"github.com/encodeous/dvr/state"
)

// ShortestPaths computes the cost from src to every node over the links that are currently up, capped at the
// scenario's infinity. Unreachable nodes are absent.
func (s *Simulator) ShortestPaths(src state.NodeId) state.Vector {
	inf := s.scn.Infinity
	dist := state.Vector{src: 0}
	for range len(s.hosts) {
		relaxed := false
		for _, l := range s.links {
			if !l.up {
				continue
			}
			for _, e := range [][2]state.NodeId{{l.a, l.b}, {l.b, l.a}} {
				from, to := e[0], e[1]
				d, ok := dist[from]
				if !ok {
					continue
				}
				cand := min(inf, d+l.cost)
				if cur, ok := dist[to]; !ok || cand < cur {
					dist[to] = cand
					relaxed = true
				}
			}
		}
		if !relaxed {
			break
		}
	}
	return dist
}

// Converged checks every node's vector against shortest paths over the live topology. Destinations a node cannot
// reach must be absent or advertised at infinity.
func (s *Simulator) Converged() error {
	inf := s.scn.Infinity
	for _, id := range s.NodeIds() {
		want := s.ShortestPaths(id)
		got := s.hosts[id].node.Vector()
		for dst, cost := range want {
			if cost == inf {
				continue
			}
			if got[dst] != cost {
				return fmt.Errorf("%s: cost to %s is %d, expected %d", id, dst, got[dst], cost)
			}
		}
		for dst, cost := range got {
			if _, ok := want[dst]; !ok || want[dst] == inf {
				if cost != inf {
					return fmt.Errorf("%s: %s is unreachable but has cost %d", id, dst, cost)
				}
			}
		}
	}
	return nil
}
