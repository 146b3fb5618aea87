package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/kode4food/bpmspec/internal/config"
)

const DefaultDebounce = 200 * time.Millisecond

func newRunCommand(cfg *config.Config) *cobra.Command {
	var (
		watch    bool
		debounce time.Duration
	)

	cmd := &cobra.Command{
		Use:   "run [patterns...]",
		Short: "Run scenario files",
		Long: `Run every scenario file matching the patterns. Patterns may
use ** to match any number of directories. The command fails if any
scenario fails, or if any file is invalid.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := openSession(ctx, cfg, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer s.close()

			if watch {
				return s.watch(ctx, args, debounce)
			}
			return s.runOnce(ctx, args)
		},
	}

	cmd.Flags().BoolVarP(&watch, "watch", "w", false,
		"rerun whenever a scenario or payload file changes")
	cmd.Flags().DurationVar(&debounce, "debounce", DefaultDebounce,
		"quiet period before a watched change triggers a rerun")
	return cmd
}
