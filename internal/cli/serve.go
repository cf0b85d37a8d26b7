package cli

import (
	"github.com/ds124wfegd/eshikshan/internal/appServer"

	"github.com/spf13/cobra"
)

func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if port != "" {
				rootOpts.Config.Server.Port = port
			}
			return appServer.NewServer(rootOpts.Config)
		},
	}

	cmd.Flags().StringVarP(&port, "port", "p", "", "override server.port")
	return cmd
}
