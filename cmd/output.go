package cmd

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/encodeous/dvr/core"
	"github.com/encodeous/dvr/probe"
	"github.com/encodeous/dvr/state"
)

func formatSnapshots(snaps []core.Snapshot, inf state.Cost) string {
	sb := strings.Builder{}
	for _, snap := range snaps {
		sb.WriteString(fmt.Sprintf("%s:\n", snap.Id))
		dsts := make([]state.NodeId, 0, len(snap.Vector))
		for dst := range snap.Vector {
			dsts = append(dsts, dst)
		}
		slices.Sort(dsts)
		for _, dst := range dsts {
			cost := snap.Vector[dst]
			if dst == snap.Id {
				continue
			}
			port, ok := snap.Forward[dst]
			switch {
			case cost >= inf:
				sb.WriteString(fmt.Sprintf(" - %s unreachable\n", dst))
			case ok:
				sb.WriteString(fmt.Sprintf(" - %s cost %d via port %d\n", dst, cost, port))
			default:
				sb.WriteString(fmt.Sprintf(" - %s cost %d\n", dst, cost))
			}
		}
	}
	return sb.String()
}

func printProbes(w io.Writer, results []probe.Result, summary probe.Summary) {
	if len(results) == 0 {
		return
	}
	_, _ = fmt.Fprintln(w, "Probes:")
	for _, res := range results {
		_, _ = fmt.Fprintf(w, " - %s\n", res)
	}
	_, _ = fmt.Fprintln(w, summary)
}
