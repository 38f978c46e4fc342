package state

import (
	"fmt"
	"maps"
	"slices"
	"strings"
)

// NodeId is the opaque address of a router
type NodeId string

// Port identifies one active link on a router. Ports are local to the router that owns them.
type Port int

// Cost is an additive link metric. Valid costs are in [0, INF].
type Cost int

// Vector maps a destination to the best known cost of reaching it
type Vector map[NodeId]Cost

// ForwardTable maps a destination to the port that traffic for it leaves on
type ForwardTable map[NodeId]Port

func (v Vector) Clone() Vector {
	if v == nil {
		return Vector{}
	}
	return maps.Clone(v)
}

func (v Vector) Destinations() []NodeId {
	return slices.Sorted(maps.Keys(v))
}

func (v Vector) String() string {
	parts := make([]string, 0, len(v))
	for _, dst := range v.Destinations() {
		parts = append(parts, fmt.Sprintf("%s:%d", dst, v[dst]))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

func (f ForwardTable) Clone() ForwardTable {
	if f == nil {
		return ForwardTable{}
	}
	return maps.Clone(f)
}

func (f ForwardTable) String() string {
	dsts := slices.Sorted(maps.Keys(f))
	parts := make([]string, 0, len(dsts))
	for _, dst := range dsts {
		parts = append(parts, fmt.Sprintf("%s:%d", dst, f[dst]))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
