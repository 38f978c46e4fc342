package cmd

import (
	"fmt"
	"time"

	"github.com/encodeous/dvr/sim"
	"github.com/encodeous/dvr/state"
	"github.com/spf13/cobra"
)

var inspectAt time.Duration

var inspectCmd = &cobra.Command{
	Use:     "inspect <scenario.yaml> <node>",
	Aliases: []string{"i"},
	Short:   "Inspects a node's state at a point in virtual time",
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		scn, err := state.ReadScenario(args[0])
		if err != nil {
			return err
		}
		id := state.NodeId(args[1])
		if !scn.IsNode(id) {
			return fmt.Errorf("%w: %s", state.ErrUnknownNode, id)
		}
		log, closeLog, err := newLogger("sim ", false)
		if err != nil {
			return err
		}
		defer closeLog()

		s, err := sim.New(scn, log)
		if err != nil {
			return err
		}
		at := scn.Duration
		if cmd.Flags().Changed("at") {
			at = inspectAt
		}
		err = s.Run(at)
		if err != nil {
			return err
		}
		node, _ := s.Node(id)
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "At %s:\n%s", s.Now(), node.Inspect())
		return nil
	},
	GroupID: "dvr",
}

func init() {
	rootCmd.AddCommand(inspectCmd)

	inspectCmd.Flags().DurationVar(&inspectAt, "at", 0, "Virtual time to inspect at, defaults to the scenario duration")
}
