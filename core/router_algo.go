package core

import (
	"maps"

	"github.com/encodeous/dvr/state"
)

// ComputeRoutes rebuilds the distance vector and forward table of s from its links and the vectors its neighbours
// last advertised. Nothing from the previous result is reused. It returns true if either table changed.
func ComputeRoutes(s *state.RouterState, inf state.Cost) bool {
	vec := state.Vector{s.Id: 0}
	fwd := make(state.ForwardTable)

	best := func(dst state.NodeId) state.Cost {
		if c, ok := vec[dst]; ok {
			return c
		}
		return inf + 1
	}

	ports := s.Ports()

	// direct links first, so a direct route wins a tie against a learned one
	for _, port := range ports {
		neigh := s.PortNeigh[port]
		cost := AddCost(s.Links[port], 0, inf)
		if cost < best(neigh) {
			vec[neigh] = cost
			fwd[neigh] = port
		}
	}

	for _, port := range ports {
		neigh := s.PortNeigh[port]
		for dst, adv := range s.NeighVectors[neigh] {
			if dst == s.Id {
				continue
			}
			cand := AddCost(s.Links[port], adv, inf)
			if cand < best(dst) {
				vec[dst] = cand
				fwd[dst] = port
			}
		}
	}

	changed := !maps.Equal(vec, s.Vector) || !maps.Equal(fwd, s.Forward)
	s.Vector = vec
	s.Forward = fwd
	return changed
}

// AddCost returns a + b, capped at inf. Both costs must be non-negative.
func AddCost(a, b, inf state.Cost) state.Cost {
	if a >= inf || b >= inf-a {
		return inf
	}
	return a + b
}
