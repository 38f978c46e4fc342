package probe

import (
	"fmt"
	"net/netip"

	"github.com/encodeous/dvr/state"
	"github.com/gaissmai/bart"
)

// Resolver maps probe targets to the nodes that own them
type Resolver struct {
	nodes    map[state.NodeId]struct{}
	prefixes bart.Table[state.NodeId]
}

func NewResolver(nodes []state.NodeCfg) *Resolver {
	r := &Resolver{
		nodes: make(map[state.NodeId]struct{}),
	}
	for _, node := range nodes {
		r.nodes[node.Id] = struct{}{}
		for _, prefix := range node.Prefixes {
			r.prefixes.Insert(prefix.Masked(), node.Id)
		}
	}
	return r
}

// Resolve accepts a node id or an address, which resolves to the node with the longest matching prefix
func (r *Resolver) Resolve(target string) (state.NodeId, error) {
	if _, ok := r.nodes[state.NodeId(target)]; ok {
		return state.NodeId(target), nil
	}
	addr, err := netip.ParseAddr(target)
	if err != nil {
		return "", fmt.Errorf("%s: %w", target, state.ErrUnknownNode)
	}
	node, ok := r.prefixes.Lookup(addr)
	if !ok {
		return "", fmt.Errorf("no node owns %s: %w", addr, state.ErrUnknownNode)
	}
	return node, nil
}
