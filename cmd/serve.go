package cmd

import (
	"github.com/spf13/cobra"

	"formrelay/pkg/server"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "serve",
		Short:   "Start the relay server",
		Long:    "Run the HTTP server that accepts contact-form submissions and forwards them to Discord.",
		Example: "  formrelay serve --config config.yaml",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return server.RunConfig(configPath)
		},
	}
	return cmd
}
