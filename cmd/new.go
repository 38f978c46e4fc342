package cmd

import (
	"fmt"
	"net/netip"
	"strings"
	"time"

	"github.com/encodeous/dvr/state"
	"github.com/spf13/cobra"
)

var (
	newNodes     int
	newOutput    string
	newHeartbeat time.Duration
	newCost      state.Cost
)

var newCmd = &cobra.Command{
	Use:       "new [line|ring|mesh]",
	Short:     "Generates a scenario",
	Long:      `Generates a scenario of n nodes connected as a line, a ring or a full mesh, with a probe across the network.`,
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"line", "ring", "mesh"},
	RunE: func(cmd *cobra.Command, args []string) error {
		scn, err := generateScenario(args[0], newNodes, newHeartbeat, newCost)
		if err != nil {
			return err
		}
		err = state.WriteScenario(newOutput, scn)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s scenario with %d nodes to %s\n", args[0], newNodes, newOutput)
		return nil
	},
	GroupID: "cfg",
}

// generateScenario builds a topology of n nodes named n1..nN, each owning 10.0.0.i/32. The mesh is written with the
// graph shorthand, the other shapes as explicit links.
func generateScenario(shape string, n int, heartbeat time.Duration, cost state.Cost) (*state.Scenario, error) {
	if n < 2 || n > 254 {
		return nil, fmt.Errorf("node count must be between 2 and 254, got %d", n)
	}
	scn := &state.Scenario{
		Heartbeat: heartbeat,
		Infinity:  state.DefaultInfinity,
		Codec:     state.DefaultCodec,
		Duration:  heartbeat * 30,
	}
	ids := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		id := state.NodeId(fmt.Sprintf("n%d", i))
		ids = append(ids, string(id))
		scn.Nodes = append(scn.Nodes, state.NodeCfg{
			Id:       id,
			Prefixes: []netip.Prefix{netip.PrefixFrom(netip.AddrFrom4([4]byte{10, 0, 0, byte(i)}), 32)},
		})
	}

	switch shape {
	case "line", "ring":
		for i := 0; i+1 < n; i++ {
			scn.Links = append(scn.Links, state.LinkCfg{A: scn.Nodes[i].Id, B: scn.Nodes[i+1].Id, Cost: cost})
		}
		if shape == "ring" && n > 2 {
			scn.Links = append(scn.Links, state.LinkCfg{A: scn.Nodes[n-1].Id, B: scn.Nodes[0].Id, Cost: cost})
		}
	case "mesh":
		scn.Graph = []string{
			"all = " + strings.Join(ids, ", "),
			"all, all",
		}
	default:
		return nil, fmt.Errorf("unknown shape %q", shape)
	}

	last := scn.Nodes[n-1]
	scn.Probes = append(scn.Probes, state.ProbeCfg{
		From:  scn.Nodes[0].Id,
		To:    last.Prefixes[0].Addr().String(),
		At:    heartbeat * 10,
		Every: heartbeat,
		Count: 5,
	})

	// validate a copy, the written file keeps the shorthand
	check := *scn
	check.Links = append([]state.LinkCfg(nil), scn.Links...)
	check.Probes = append([]state.ProbeCfg(nil), scn.Probes...)
	err := state.ExpandScenario(&check)
	if err != nil {
		return nil, err
	}
	err = state.ScenarioValidator(&check)
	if err != nil {
		return nil, err
	}
	return scn, nil
}

func init() {
	rootCmd.AddCommand(newCmd)

	newCmd.Flags().IntVarP(&newNodes, "nodes", "n", 4, "Number of nodes")
	newCmd.Flags().StringVarP(&newOutput, "output", "o", "scenario.yaml", "Path to write the scenario to")
	newCmd.Flags().DurationVar(&newHeartbeat, "heartbeat", state.DefaultHeartbeat, "Heartbeat interval")
	newCmd.Flags().IntVar((*int)(&newCost), "cost", 1, "Cost of every link")
}
