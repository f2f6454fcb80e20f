package cli

import (
	"fmt"
	"os"

	"quiz-client/internal/backend"

	"github.com/spf13/cobra"
)

// rootFlags are shared by every subcommand.
type rootFlags struct {
	configPath string
	baseURL    string
}

// Execute runs the CLI. Backend failures are printed with their field violations.
func Execute() error {
	err := newRootCmd().Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", backend.Message(err))
	}
	return err
}

func newRootCmd() *cobra.Command {
	envConfig := os.Getenv("CONFIG_PATH")
	if envConfig == "" {
		envConfig = "config/config.yaml"
	}

	flags := &rootFlags{}
	cmd := &cobra.Command{
		Use:           "quiz-client",
		Short:         "Client for the quiz backend: take quizzes, author them, bridge a browser",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&flags.configPath, "config", envConfig, "path to YAML config")
	cmd.PersistentFlags().StringVar(&flags.baseURL, "base-url", "", "backend base URL (overrides config)")
	cmd.AddCommand(NewWhoamiCmd(flags))
	cmd.AddCommand(NewLoginCmd(flags))
	cmd.AddCommand(NewLogoutCmd(flags))
	cmd.AddCommand(NewServeCmd(flags))
	cmd.AddCommand(NewAuthorCmd(flags))
	cmd.AddCommand(NewMigrateCmd(flags))
	return cmd
}
