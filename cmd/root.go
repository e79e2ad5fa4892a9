package cmd

import "github.com/spf13/cobra"

// NewRootCmd returns the Cobra entrypoint for the relay.
func NewRootCmd() *cobra.Command {
	configPath = "config.yaml"
	root := &cobra.Command{
		Use:   "formrelay",
		Short: "Contact form to Discord webhook relay",
		Long: "formrelay accepts contact-form submissions over HTTP, validates them, and " +
			"forwards each one to a Discord-compatible webhook as a formatted message.",
		Example: "  formrelay serve --config config.yaml\n" +
			"  formrelay init --config config.yaml",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
	root.PersistentFlags().StringVar(&configPath, "config", configPath, "Path to config file")
	root.AddCommand(newServeCmd())
	root.AddCommand(newInitCmd())
	return root
}

var configPath string
