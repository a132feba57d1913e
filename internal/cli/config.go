package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"specgen/pkg/config"
)

const redacted = "********"

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or create configuration",
	}

	cmd.AddCommand(newConfigShowCmd())
	cmd.AddCommand(newConfigInitCmd())

	return cmd
}

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration as YAML",
		RunE:  runConfigShow,
	}
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	shown := *cfg
	if shown.S3.SecretAccessKey != "" {
		shown.S3.SecretAccessKey = redacted
	}

	data, err := shown.ToYAML()
	if err != nil {
		return fmt.Errorf("failed to render configuration: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "# source: %s\n", cfgSource)
	fmt.Fprintf(out, "# endpoint: %s\n", cfg.ResolveEndpoint())
	_, err = out.Write(data)
	return err
}

func newConfigInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write the default configuration to a file",
		Args:  cobra.MaximumNArgs(1),
		// the file being created may be the one that fails to load
		PersistentPreRunE: skipRuntime,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "specgen.yaml"
			if len(args) == 1 {
				path = args[0]
			}
			return runConfigInit(cmd, path, force)
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing file")

	return cmd
}

func runConfigInit(cmd *cobra.Command, path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}

	if err := config.GenerateDefaultConfig(path); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Wrote default configuration to %s\n", path)
	return nil
}
