package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"specgen/pkg/config"
	"specgen/pkg/logger"
)

var (
	cfg       *config.Config
	cfgSource string
	log       *logger.Logger
)

type rootFlags struct {
	configPath string
	endpoint   string
	target     string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	rootCmd := &cobra.Command{
		Use:   "specgen",
		Short: "Generate test specifications from design documents",
		Long: `specgen uploads design documents to the test specification generator
and saves the archive it returns.

Modes:
  unit          one design document
  integration   structured design documents plus a transition diagram`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return loadRuntime(cmd, flags)
		},
	}

	rootCmd.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "",
		"Path to configuration file (default: search specgen.yaml)")
	rootCmd.PersistentFlags().StringVar(&flags.endpoint, "endpoint", "",
		"Upload endpoint URL, overrides the configured target")
	rootCmd.PersistentFlags().StringVar(&flags.target, "target", "",
		"Endpoint target: local or deployed")
	rootCmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "",
		"Log level: DEBUG, INFO, WARN, ERROR")

	rootCmd.AddCommand(newSubmitCmd())
	rootCmd.AddCommand(newModesCmd())
	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

func Execute() error {
	return newRootCmd().Execute()
}

// loadRuntime resolves configuration and the logger before any subcommand runs.
func loadRuntime(cmd *cobra.Command, flags *rootFlags) error {
	loaded, source, err := config.LoadConfig(flags.configPath)
	if err != nil {
		return err
	}

	if flags.endpoint != "" {
		loaded.Endpoint.URL = flags.endpoint
	}
	if flags.target != "" {
		loaded.Endpoint.Target = flags.target
	}
	if flags.logLevel != "" {
		loaded.Logging.Level = flags.logLevel
	}
	if flags.endpoint != "" || flags.target != "" || flags.logLevel != "" {
		if err := loaded.Validate(); err != nil {
			return fmt.Errorf("invalid command line override: %w", err)
		}
	}

	l, err := logger.NewFromStrings(loaded.Logging.Level, loaded.Logging.Format, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	cfg = loaded
	cfgSource = source
	log = l

	log.Debug("configuration loaded", "source", source, "endpoint", cfg.ResolveEndpoint())
	return nil
}

// skipRuntime replaces the root pre-run for commands that need no configuration.
func skipRuntime(*cobra.Command, []string) error {
	return nil
}
