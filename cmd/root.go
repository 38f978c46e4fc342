package cmd

import (
	"os"

	"github.com/encodeous/dvr/state"
	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "dvr",
	Short: "Distance vector routing simulator",
	Long: `dvr runs distance vector routers over a scenario: a set of nodes, the links between them and the changes
those links go through. Scenarios run either in a deterministic simulation or live, with one event loop per node.`,
	SilenceUsage: true,
}

var (
	verbose bool
	logPath string
)

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddGroup(&cobra.Group{
		ID:    "cfg",
		Title: "Scenario Commands",
	})
	rootCmd.AddGroup(&cobra.Group{
		ID:    "dvr",
		Title: "Routing Commands",
	})
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().StringVar(&logPath, "log", "", "Also write logs to this file")
	rootCmd.PersistentFlags().BoolVarP(&state.DBG_log_router, "lroute", "r", false, "Log every route computation")
	rootCmd.PersistentFlags().BoolVarP(&state.DBG_log_route_table, "ltable", "t", false, "Log the forward table when it changes")
	rootCmd.PersistentFlags().BoolVarP(&state.DBG_log_probe, "lprobe", "p", false, "Log every probe hop")
}
