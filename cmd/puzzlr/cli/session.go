package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/akhndelwal86/goodreads-for-puzzles-sub003/internal/model"
)

func newSessionCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "session",
		Aliases: []string{"sessions"},
		Short:   "Inspect and purge admin sessions",
	}

	cmd.AddCommand(newSessionListCmd(opts))
	cmd.AddCommand(newSessionPurgeCmd(opts))

	return cmd
}

// ---------- session list ----------

func newSessionListCmd(opts *rootOptions) *cobra.Command {
	var (
		username   string
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List live admin sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			sessions, err := a.sessions.ListSessions(cmd.Context(), username)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if jsonOutput {
				if sessions == nil {
					sessions = []model.AdminSession{}
				}
				return printJSON(out, sessions)
			}

			if len(sessions) == 0 {
				fmt.Fprintln(out, "No live sessions.")
				return nil
			}

			fmt.Fprintf(out, "%-36s  %-20s  %-20s  %-20s  %s\n", "ID", "ADMIN", "LAST ACCESSED", "EXPIRES", "IP")
			for _, s := range sessions {
				fmt.Fprintf(out, "%-36s  %-20s  %-20s  %-20s  %s\n",
					s.ID, s.AdminUsername,
					s.LastAccessedAt.Format(time.DateTime), s.ExpiresAt.Format(time.DateTime),
					s.IPAddress)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&username, "admin", "", "Only list sessions of this admin")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}

// ---------- session purge ----------

func newSessionPurgeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "purge",
		Short: "Delete every expired admin session",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			n, err := a.sessions.PurgeExpired(cmd.Context(), model.Actor{})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Purged %d expired session(s)\n", n)
			return nil
		},
	}
}
