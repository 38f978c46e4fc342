package core

import (
	"fmt"
	"maps"
	"slices"
	"strings"
)

// Inspect renders the node's tables for humans
func (n *Node) Inspect() string {
	sb := strings.Builder{}
	rs := n.rs

	sb.WriteString(fmt.Sprintf("Node %s (infinity %d, heartbeat %s)\n", rs.Id, n.cfg.Infinity, n.cfg.Heartbeat))

	sb.WriteString("\nLinks:\n")
	rt := make([]string, 0)
	for _, port := range rs.Ports() {
		rt = append(rt, fmt.Sprintf(" - port %d to %s cost %d", port, rs.PortNeigh[port], rs.Links[port]))
	}
	writeLines(&sb, rt)

	sb.WriteString("\nNeighbour Vectors:\n")
	rt = make([]string, 0)
	for _, neigh := range slices.Sorted(maps.Keys(rs.NeighVectors)) {
		rt = append(rt, fmt.Sprintf(" - %s: %s", neigh, rs.NeighVectors[neigh]))
	}
	writeLines(&sb, rt)

	sb.WriteString("\nDistance Vector:\n")
	rt = make([]string, 0)
	for _, dst := range rs.Vector.Destinations() {
		cost := rs.Vector[dst]
		line := fmt.Sprintf(" - %s: %d", dst, cost)
		if cost >= n.cfg.Infinity {
			line += " (unreachable)"
		}
		rt = append(rt, line)
	}
	writeLines(&sb, rt)

	sb.WriteString("\nForward Table:\n")
	rt = make([]string, 0)
	for _, dst := range slices.Sorted(maps.Keys(rs.Forward)) {
		port := rs.Forward[dst]
		rt = append(rt, fmt.Sprintf(" - %s via port %d (%s)", dst, port, rs.PortNeigh[port]))
	}
	writeLines(&sb, rt)
	return sb.String()
}

func writeLines(sb *strings.Builder, lines []string) {
	if len(lines) == 0 {
		sb.WriteString(" (none)\n")
		return
	}
	sb.WriteString(strings.Join(lines, "\n") + "\n")
}
