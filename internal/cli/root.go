package cli

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	port       string
	configPath string
)

// Execute runs the CLI.
func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	envConfig := os.Getenv("CONFIG_PATH")
	if envConfig == "" {
		envConfig = "config/config.yaml"
	}

	cmd := &cobra.Command{
		Use:          "gdpr-quiz",
		Short:        "GDPR awareness quiz with scored regional and global leaderboards",
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&configPath, "config", envConfig, "path to YAML config")
	startCmd := NewStartCmd(&configPath, &port)
	// empty keeps server.port from config (or PORT)
	startCmd.Flags().StringVar(&port, "port", "", "port to listen on")
	cmd.AddCommand(startCmd)
	cmd.AddCommand(NewMigrateCmd(&configPath))
	cmd.AddCommand(NewScoreCmd(&configPath))
	cmd.AddCommand(NewSeedCmd(&configPath))
	cmd.AddCommand(NewResetCmd(&configPath))
	cmd.AddCommand(NewStandingsCmd(&configPath))
	return cmd
}
