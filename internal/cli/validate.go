package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kode4food/bpmspec/internal/scenario"
)

func newValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [patterns...]",
		Short: "Check scenario files without running them",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			files, err := scenario.LoadAll(args...)
			for _, f := range files {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "ok   %s (%d steps)\n",
					f.Path, len(f.Steps))
			}
			return err
		},
	}
}
