package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newStatusCmd(state *cliState) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show running database server instances",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m := state.manager()
			handles := m.Handles(cmd.Context())
			if len(handles) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "%s is not running\n", m.Binary())
				return nil
			}
			printHandlesTable(cmd.OutOrStdout(), handles)
			return nil
		},
	}
	return cmd
}
