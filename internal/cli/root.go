package cli

import (
	"fmt"

	"github.com/ds124wfegd/eshikshan/config"
	"github.com/ds124wfegd/eshikshan/internal/appServer"

	"github.com/spf13/cobra"
)

// RootOptions holds state shared by all commands.
type RootOptions struct {
	Config *config.Config
}

// NewRootCommand creates the eshikshan command tree.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "eshikshan",
		Short: "Application and registration lifecycle service",
		Long: `Serves the job application and hackathon registration API of eShikshan:
submissions, status changes, ownership routing and notifications.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.loadConfig()
		},
		// Without a subcommand the binary serves.
		RunE: func(cmd *cobra.Command, args []string) error {
			return appServer.NewServer(opts.Config)
		},
	}

	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewMigrateCommand(opts))
	cmd.AddCommand(NewTokenCommand(opts))

	return cmd
}

func (o *RootOptions) loadConfig() error {
	if o.Config != nil {
		return nil
	}

	viperInstance, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("cannot load config: %w", err)
	}

	cfg, err := config.ParseConfig(viperInstance)
	if err != nil {
		return fmt.Errorf("cannot parse config: %w", err)
	}
	o.Config = cfg
	return nil
}
