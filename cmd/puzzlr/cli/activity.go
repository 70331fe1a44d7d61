package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/akhndelwal86/goodreads-for-puzzles-sub003/internal/model"
)

func newActivityCmd(opts *rootOptions) *cobra.Command {
	var (
		limit      int
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "activity",
		Short: "Show the admin audit trail, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			entries, err := a.sessions.GetRecentActivity(cmd.Context(), limit)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if jsonOutput {
				if entries == nil {
					entries = []model.ActivityEntry{}
				}
				return printJSON(out, entries)
			}

			if len(entries) == 0 {
				fmt.Fprintln(out, "No admin activity recorded.")
				return nil
			}

			fmt.Fprintf(out, "%-20s  %-20s  %-16s  %s\n", "WHEN", "ADMIN", "ACTION", "TARGET")
			for _, e := range entries {
				target := ""
				if e.TargetType != model.TargetNone {
					target = string(e.TargetType) + ":" + e.TargetID
				}
				fmt.Fprintf(out, "%-20s  %-20s  %-16s  %s\n",
					e.OccurredAt.Format(time.DateTime), e.AdminUsername, e.Action, target)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Number of entries (default activity.default_limit, capped at activity.max_limit)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}
