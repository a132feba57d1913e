package cli

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"specgen/pkg/config"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:               "version",
		Short:             "Print the version",
		Args:              cobra.NoArgs,
		PersistentPreRunE: skipRuntime,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "specgen %s (%s %s/%s)\n",
				config.Version, runtime.Version(), runtime.GOOS, runtime.GOARCH)
		},
	}
}
