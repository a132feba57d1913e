package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"specgen/internal/domain"
)

func newModesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "modes",
		Short: "List generation modes and the files each one needs",
		RunE: func(cmd *cobra.Command, args []string) error {
			formatModes(cmd.OutOrStdout(), cfg.Profiles(), cfg.ModeNames())
			return nil
		},
	}
}

func formatModes(out io.Writer, profiles map[domain.Mode]domain.Profile, names []string) {
	maxFieldWidth := len("FIELD")
	maxLabelWidth := len("DESCRIPTION")
	for _, p := range profiles {
		for _, s := range p.Slots {
			if len(s.Field) > maxFieldWidth {
				maxFieldWidth = len(s.Field)
			}
			if len(s.DisplayName()) > maxLabelWidth {
				maxLabelWidth = len(s.DisplayName())
			}
		}
	}

	for i, name := range names {
		mode, err := domain.ParseMode(name)
		if err != nil {
			continue
		}
		profile := profiles[mode]
		if i > 0 {
			fmt.Fprintln(out)
		}
		fmt.Fprintf(out, "%s\n", mode)
		fmt.Fprintf(out, "  %-*s  %-*s  %s\n", maxFieldWidth, "FIELD", maxLabelWidth, "DESCRIPTION", "FILES")
		fmt.Fprintf(out, "  %s  %s  %s\n", strings.Repeat("-", maxFieldWidth), strings.Repeat("-", maxLabelWidth), "-----")
		for _, s := range profile.Slots {
			count := "one"
			if s.Multiple {
				count = "one or more"
			}
			fmt.Fprintf(out, "  %-*s  %-*s  %s\n", maxFieldWidth, s.Field, maxLabelWidth, s.DisplayName(), count)
		}
	}
}
