package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/SanjoDeundiak/forge/pkg/lib/lifecycle"
	"github.com/SanjoDeundiak/forge/pkg/lib/outputlog"
	"github.com/spf13/cobra"
)

func newStartCmd(state *cliState) *cobra.Command {
	var follow bool

	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start the database server unless it is already running",
		Long: "Start the database server and keep it running until interrupted.\n" +
			"If a verified instance is already running, report it and exit.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			m := state.manager()
			session, err := m.EnsureRunning(ctx, state.serverOptions())
			if err != nil {
				return err
			}

			printSessionTable(cmd.OutOrStdout(), session, state.cfg.Server.Path)
			if !session.Launched {
				return nil
			}
			// A fresh context: ctx is already done when cleanup runs.
			defer session.Cleanup(context.Background())

			var wg sync.WaitGroup
			if follow {
				wg.Add(1)
				go func() {
					defer wg.Done()
					streamOutput(ctx, cmd.OutOrStdout(), cmd.ErrOrStderr(), session.Instance.Output())
				}()
			}
			defer wg.Wait()

			select {
			case <-ctx.Done():
				state.logger.Info("stopping server", "pid", session.Instance.PID)
				return nil
			case <-session.Instance.Done():
				st := session.Instance.Status()
				code := -1
				if st.ExitCode != nil {
					code = *st.ExitCode
				}
				return &lifecycle.LaunchError{
					Reason:   lifecycle.ReasonExited,
					Message:  fmt.Sprintf("server exited unexpectedly with code %d", code),
					ExitCode: code,
					PID:      session.Instance.PID,
					Hint:     "rerun with --follow to see the server output",
				}
			}
		},
	}

	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "stream server output until interrupted")

	return cmd
}

// streamOutput replays the server output from its first line and follows it.
func streamOutput(ctx context.Context, stdout, stderr io.Writer, output *outputlog.Log) {
	for line := range output.Subscribe(ctx, 64) {
		w := stdout
		if line.Stream == outputlog.Stderr {
			w = stderr
		}
		if _, err := fmt.Fprintln(w, line.Text); err != nil {
			return
		}
	}
}
