package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/akhndelwal86/goodreads-for-puzzles-sub003/internal/model"
)

type seedPuzzle struct {
	title  string
	brand  string
	pieces int
	status model.PuzzleStatus
}

var (
	seedUsers = []string{"jigsaw_jane", "cornerpiece", "edgecase_ed", "skyblue", "puzzlemaster"}

	seedPuzzles = []seedPuzzle{
		{"Alpine Lake at Dawn", "Ravensburger", 1000, model.PuzzleApproved},
		{"Night Market", "Cobble Hill", 500, model.PuzzleApproved},
		{"Harbour Lights", "Eurographics", 1000, model.PuzzlePending},
		{"Spice Route", "Pomegranate", 750, model.PuzzlePending},
		{"Botanical Study No. 3", "Galison", 500, model.PuzzlePending},
		{"Untitled Blue", "", 2000, model.PuzzleRejected},
	}

	seedFeedback = []string{
		"The piece count for Night Market is listed as 500 but my box says 520.",
		"Could you add a filter for puzzles under 300 pieces?",
		"Search does not find brands with accents.",
	}
)

func newSeedCmd(opts *rootOptions) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Fill the catalog tables with demo data",
		Long: `Insert demo users, puzzles (some pending moderation), feedback and completions
so the dashboard and moderation queue have something to show. Refuses to run
against a catalog that already has users unless --force is given.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := cmd.Context()
			now := time.Now().UTC()

			stats, err := a.store.DashboardStats(ctx, now)
			if err != nil {
				return err
			}
			if stats.TotalUsers > 0 && !force {
				return fmt.Errorf("catalog already has %d user(s); use --force to add the demo data anyway", stats.TotalUsers)
			}

			userIDs := make([]string, 0, len(seedUsers))
			for i, name := range seedUsers {
				if force {
					name = fmt.Sprintf("%s_%d", name, now.Unix())
				}
				u := &model.User{Username: name, CreatedAt: now.Add(-time.Duration(i*3) * 24 * time.Hour)}
				if err := a.store.CreateUser(ctx, u); err != nil {
					return err
				}
				userIDs = append(userIDs, u.ID)
			}

			var approved []string
			for i, sp := range seedPuzzles {
				p := &model.Puzzle{
					Title:       sp.title,
					Brand:       sp.brand,
					PieceCount:  sp.pieces,
					Status:      sp.status,
					SubmittedBy: userIDs[i%len(userIDs)],
					SubmittedAt: now.Add(-time.Duration(len(seedPuzzles)-i) * time.Hour),
				}
				if sp.status != model.PuzzlePending {
					reviewed := p.SubmittedAt.Add(30 * time.Minute)
					p.ReviewedAt = &reviewed
					p.ReviewedBy = "seed"
				}
				if sp.status == model.PuzzleRejected {
					p.RejectionReason = "missing box art"
				}
				if err := a.store.CreatePuzzle(ctx, p); err != nil {
					return err
				}
				if sp.status == model.PuzzleApproved {
					approved = append(approved, p.ID)
				}
			}

			for i, msg := range seedFeedback {
				f := &model.Feedback{UserID: userIDs[i%len(userIDs)], Message: msg, CreatedAt: now.Add(-time.Duration(i) * time.Hour)}
				if err := a.store.CreateFeedback(ctx, f); err != nil {
					return err
				}
			}

			completions := 0
			for i, uid := range userIDs {
				for j, pid := range approved {
					if (i+j)%2 == 0 {
						if err := a.store.RecordCompletion(ctx, uid, pid, now.Add(-time.Duration(i+j)*time.Hour)); err != nil {
							return err
						}
						completions++
					}
				}
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d users, %d puzzles, %d feedback messages, %d completions\n",
				len(userIDs), len(seedPuzzles), len(seedFeedback), completions)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Seed even if the catalog already has users")

	return cmd
}
