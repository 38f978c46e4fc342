package cmd

import (
	"fmt"
	"time"

	"github.com/encodeous/dvr/sim"
	"github.com/encodeous/dvr/state"
	"github.com/spf13/cobra"
)

var (
	simUntil time.Duration
	simCheck bool
)

var simCmd = &cobra.Command{
	Use:   "sim <scenario.yaml>",
	Short: "Simulates a scenario in virtual time",
	Long: `Runs every node of the scenario in a deterministic discrete event simulation, then prints the final routing
tables and the result of every probe. The same scenario always produces the same output.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		scn, err := state.ReadScenario(args[0])
		if err != nil {
			return err
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
		until := scn.Duration
		if simUntil != 0 {
			until = simUntil
		}
		err = s.Run(until)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		_, _ = fmt.Fprintf(out, "Tables at %s:\n", s.Now())
		_, _ = fmt.Fprint(out, formatSnapshots(s.Snapshot(), scn.Infinity))
		printProbes(out, s.Results(), s.ProbeSummary())

		if simCheck {
			if err := s.Converged(); err != nil {
				return fmt.Errorf("not converged at %s: %w", s.Now(), err)
			}
			_, _ = fmt.Fprintln(out, "Converged")
		}
		return nil
	},
	GroupID: "dvr",
}

func init() {
	rootCmd.AddCommand(simCmd)

	simCmd.Flags().DurationVar(&simUntil, "until", 0, "Virtual time to stop at, defaults to the scenario duration")
	simCmd.Flags().BoolVar(&simCheck, "check", false, "Fail unless every table matches the shortest paths over live links")
}
