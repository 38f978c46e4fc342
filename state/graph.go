package state

import (
	"fmt"
	"slices"
	"strings"
)

/*
ParseGraph expands the graph shorthand into a list of links. Each line is either a group definition or a pairing:

	core = a, b, c     // defines group core
	edge = d, e
	core, edge         // every node of core is linked to every node of edge, but not within a group
	core, core         // every node of core is linked to every other node of core
	a, f               // a plain link

Groups may reference other groups, but not cyclically. nodes lists the names every group finally evaluates to.
The result is sorted, contains no duplicates and no self links.
*/
func ParseGraph(graph []string, nodes []string) ([]Pair[NodeId, NodeId], error) {
	defs := make(map[string][]string)
	pairings := make([][]string, 0)

	symbols := slices.Clone(nodes)
	for _, line := range graph {
		line = strings.ToLower(strings.TrimSpace(line))
		if !strings.Contains(line, "=") {
			continue
		}
		spl := strings.Split(line, "=")
		if len(spl) != 2 {
			return nil, fmt.Errorf("invalid graph: %s. group definition must contain one '='", line)
		}
		grp := strings.TrimSpace(spl[0])
		if slices.Contains(nodes, grp) {
			return nil, fmt.Errorf("group name must not be a node name: %s", grp)
		}
		symbols = append(symbols, grp)
	}

	for _, line := range graph {
		line = strings.ToLower(strings.TrimSpace(line))
		if grp, members, isDef := strings.Cut(line, "="); isDef {
			grp = strings.TrimSpace(grp)
			if _, ok := defs[grp]; ok {
				return nil, fmt.Errorf("duplicate group name: %s", grp)
			}
			lst, err := parseSymbolList(members, symbols)
			if err != nil {
				return nil, err
			}
			defs[grp] = lst
			continue
		}
		lst, err := parseSymbolList(line, symbols)
		if err != nil {
			return nil, err
		}
		if len(lst) < 2 {
			return nil, fmt.Errorf("invalid pairing, %v", lst)
		}
		pairings = append(pairings, lst)
	}

	expanded, err := expandGroups(defs, nodes)
	if err != nil {
		return nil, err
	}
	members := func(sym string) []string {
		if slices.Contains(nodes, sym) {
			return []string{sym}
		}
		return expanded[sym]
	}

	links := make([]Pair[NodeId, NodeId], 0)
	for _, line := range pairings {
		// parseSymbolList sorts the line, so a repeated symbol appears as adjacent entries
		for i := range line {
			for j := i + 1; j < len(line); j++ {
				for _, x := range members(line[i]) {
					for _, y := range members(line[j]) {
						if x != y {
							links = append(links, MakeSortedPair(NodeId(x), NodeId(y)))
						}
					}
				}
			}
		}
	}
	SortPairs(links)
	return slices.Compact(links), nil
}

// expandGroups resolves every group down to the terminal nodes it contains, rejecting cycles
func expandGroups(defs map[string][]string, nodes []string) (map[string][]string, error) {
	expanded := make(map[string][]string)
	pending := make(map[string]bool)
	for grp := range defs {
		pending[grp] = true
	}
	for len(pending) > 0 {
		progress := false
		for grp := range pending {
			ready := true
			res := make([]string, 0)
			for _, sym := range defs[grp] {
				if slices.Contains(nodes, sym) {
					res = append(res, sym)
				} else if pending[sym] {
					ready = false
					break
				} else {
					res = append(res, expanded[sym]...)
				}
			}
			if !ready {
				continue
			}
			slices.Sort(res)
			expanded[grp] = slices.Compact(res)
			delete(pending, grp)
			progress = true
		}
		if !progress {
			cycle := make([]string, 0, len(pending))
			for grp := range pending {
				cycle = append(cycle, grp)
			}
			slices.Sort(cycle)
			return nil, fmt.Errorf("cycle detected in graph: %v", cycle)
		}
	}
	return expanded, nil
}

func parseSymbolList(s string, validSymbols []string) ([]string, error) {
	line := make([]string, 0)
	for _, sym := range strings.Split(strings.TrimSpace(s), ",") {
		x := strings.TrimSpace(sym)
		if x == "" {
			continue
		}
		if !slices.Contains(validSymbols, x) {
			return nil, fmt.Errorf(`%s is not a valid node/group`, x)
		}
		line = append(line, x)
	}
	if len(line) == 0 {
		return nil, fmt.Errorf(`node/group list must not be empty`)
	}
	slices.Sort(line)
	return line, nil
}
