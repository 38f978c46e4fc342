package state

import (
	"maps"
	"slices"
	"time"
)

// RouterState is everything a distance vector router knows. It must only be accessed from the goroutine that drives the router.
type RouterState struct {
	Id NodeId
	// Links holds the direct cost of every active port
	Links map[Port]Cost
	// PortNeigh is kept in lockstep with Links
	PortNeigh map[Port]NodeId
	// NeighVectors holds the last vector advertised by each neighbour
	NeighVectors map[NodeId]Vector
	// Vector and Forward are derived from the fields above by route computation, never edited in place
	Vector  Vector
	Forward ForwardTable

	LastBroadcast time.Duration
}

func NewRouterState(id NodeId) *RouterState {
	return &RouterState{
		Id:           id,
		Links:        make(map[Port]Cost),
		PortNeigh:    make(map[Port]NodeId),
		NeighVectors: make(map[NodeId]Vector),
		Vector:       Vector{id: 0},
		Forward:      make(ForwardTable),
	}
}

// Ports returns the active ports in ascending order
func (s *RouterState) Ports() []Port {
	return slices.Sorted(maps.Keys(s.Links))
}

func (s *RouterState) GetNeighbour(port Port) (NodeId, bool) {
	n, ok := s.PortNeigh[port]
	return n, ok
}

// PortsTo returns every active port that leads to neigh
func (s *RouterState) PortsTo(neigh NodeId) []Port {
	ports := make([]Port, 0, 1)
	for _, port := range s.Ports() {
		if s.PortNeigh[port] == neigh {
			ports = append(ports, port)
		}
	}
	return ports
}
