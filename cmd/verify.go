package cmd

import (
	"fmt"

	"github.com/encodeous/dvr/state"
	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"
)

var verifyCmd = &cobra.Command{
	Use:   "verify <scenario.yaml>",
	Short: "Validates a scenario and prints it with defaults filled in",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		scn, err := state.ReadScenario(args[0])
		if err != nil {
			return err
		}
		cfgYaml, err := yaml.Marshal(scn)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		_, _ = fmt.Fprintf(out, "Scenario is valid: %d nodes, %d links, %d changes, %d probes\n",
			len(scn.Nodes), len(scn.Links), len(scn.Changes), len(scn.Probes))
		_, _ = fmt.Fprintln(out, string(cfgYaml))
		return nil
	},
	GroupID: "cfg",
}

func init() {
	rootCmd.AddCommand(verifyCmd)
}
