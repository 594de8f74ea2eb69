package main

import (
	"io"

	"github.com/SanjoDeundiak/forge/pkg/lib/config"
	"github.com/SanjoDeundiak/forge/pkg/lib/lifecycle"
	"github.com/SanjoDeundiak/forge/pkg/lib/proctable"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

// cliState is shared by every command of one invocation.
type cliState struct {
	configFile string
	cfg        *config.Config
	logger     *log.Logger

	// managerOptions are appended to the options derived from cfg.
	managerOptions []lifecycle.Option
}

func (s *cliState) manager() *lifecycle.Manager {
	opts := []lifecycle.Option{
		lifecycle.WithBinary(s.cfg.Server.Binary),
		lifecycle.WithLaunchTimeout(s.cfg.Server.LaunchTimeout),
	}
	return lifecycle.NewManager(append(opts, s.managerOptions...)...)
}

func (s *cliState) serverOptions() lifecycle.ServerOptions {
	return lifecycle.ServerOptions{
		Path:          s.cfg.Server.Path,
		DataDir:       s.cfg.Server.DataDir,
		MigrationsDir: s.cfg.Server.MigrationsDir,
		HTTP:          s.cfg.Server.HTTP,
	}
}

func newLogger(w io.Writer, level string) *log.Logger {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		lvl = log.InfoLevel
	}
	return log.NewWithOptions(w, log.Options{
		Level:           lvl,
		Prefix:          "forge",
		ReportTimestamp: true,
	})
}

func NewRootCmd(opts ...lifecycle.Option) *cobra.Command {
	state := &cliState{managerOptions: opts}

	root := &cobra.Command{
		Use:           "forge",
		Short:         "Developer tooling for forge projects",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(state.configFile, cmd.Flags())
			if err != nil {
				return err
			}
			state.cfg = cfg

			state.logger = newLogger(cmd.ErrOrStderr(), cfg.Log.Level)
			lifecycle.SetLogger(state.logger.WithPrefix("lifecycle"))
			proctable.SetLogger(state.logger.WithPrefix("proctable"))
			return nil
		},
	}

	root.PersistentFlags().StringVar(&state.configFile, "config", "", "config file (default ./forge.yaml or ~/.forge/forge.yaml)")
	config.RegisterFlags(root.PersistentFlags())

	root.AddCommand(newDBCmd(state))

	return root
}

func newDBCmd(state *cliState) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "db",
		Short: "Manage the bundled database server",
	}

	cmd.AddCommand(newStartCmd(state))
	cmd.AddCommand(newStatusCmd(state))
	cmd.AddCommand(newStopCmd(state))

	return cmd
}
