package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newStopCmd(state *cliState) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stop [pid|keyword]",
		Short: "Stop database server instances",
		Long: "Stop a process by PID, or every process whose command line matches a keyword.\n" +
			"Without an argument, every running server instance is stopped.\n" +
			"On POSIX the keyword is matched against full command lines, so it should not\n" +
			"also appear in forge's own arguments; forge itself is never stopped.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m := state.manager()
			target := m.Pattern()
			if len(args) == 1 {
				target = args[0]
			}

			out := cmd.OutOrStdout()
			if _, err := strconv.Atoi(target); err == nil {
				m.Terminate(cmd.Context(), target)
				fmt.Fprintf(out, "Sent termination to %s\n", target)
				return nil
			}

			pid, matched := m.Terminate(cmd.Context(), target)
			if !matched {
				fmt.Fprintf(out, "No process matches %q\n", target)
				return nil
			}
			fmt.Fprintf(out, "Stopped processes matching %q (first pid %d)\n", target, pid)
			return nil
		},
	}
	return cmd
}
