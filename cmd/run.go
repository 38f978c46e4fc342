package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/encodeous/dvr/live"
	"github.com/encodeous/dvr/state"
	"github.com/spf13/cobra"
)

var (
	runFor    time.Duration
	debugAddr string
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run <scenario.yaml>",
	Short: "Runs a scenario in real time",
	Long: `Runs every node of the scenario on its own event loop, with link latencies and scenario changes applied in
wall clock time. Stops after the scenario duration or on Ctrl+C, then prints the routing tables.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		scn, err := state.ReadScenario(args[0])
		if err != nil {
			return err
		}
		log, closeLog, err := newLogger("dvr ", true)
		if err != nil {
			return err
		}
		defer closeLog()

		if debugAddr != "" {
			state.DBG_debug = true
			srv := &http.Server{Addr: debugAddr}
			go func() {
				log.Info("serving debug endpoints", "addr", debugAddr)
				err := srv.ListenAndServe()
				if err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Error("debug server failed", "error", err)
				}
			}()
			defer srv.Close()
		}

		ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer cancel()

		n, err := live.Start(ctx, scn, log)
		if err != nil {
			return err
		}
		dur := scn.Duration
		if runFor != 0 {
			dur = runFor
		}
		select {
		case <-time.After(dur):
		case <-n.Done():
		}

		snaps, snapErr := n.Snapshot()
		n.Stop()
		err = n.Wait()
		if err != nil {
			return err
		}
		if snapErr != nil {
			if errors.Is(snapErr, context.Canceled) || errors.Is(snapErr, live.ErrStopped) {
				log.Info("interrupted, no tables to print")
				return nil
			}
			return snapErr
		}

		out := cmd.OutOrStdout()
		_, _ = fmt.Fprintf(out, "Tables at %s:\n", dur)
		_, _ = fmt.Fprint(out, formatSnapshots(snaps, scn.Infinity))
		printProbes(out, n.Results(), n.ProbeSummary())
		return nil
	},
	GroupID: "dvr",
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().DurationVar(&runFor, "for", 0, "How long to run, defaults to the scenario duration")
	runCmd.Flags().StringVar(&debugAddr, "debug-addr", "", "Serve expvar and metrics on this address")
}
