package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/akhndelwal86/goodreads-for-puzzles-sub003/internal/model"
	"github.com/akhndelwal86/goodreads-for-puzzles-sub003/internal/service"
	"github.com/akhndelwal86/goodreads-for-puzzles-sub003/internal/store"
)

const minPasswordLength = 8

func newAdminCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Manage admin credentials",
		Long:  "Create, list and re-key the admin accounts allowed to sign in to the admin panel.",
	}

	cmd.AddCommand(newAdminCreateCmd(opts))
	cmd.AddCommand(newAdminListCmd(opts))
	cmd.AddCommand(newAdminPasswdCmd(opts))

	return cmd
}

// ---------- admin create ----------

func newAdminCreateCmd(opts *rootOptions) *cobra.Command {
	var (
		username string
		password string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new admin account",
		Example: `  puzzlr admin create --username alice --password 's3cret-pass'
  puzzlr admin create --username alice  # prompts for password`,
		RunE: func(cmd *cobra.Command, args []string) error {
			username = strings.TrimSpace(username)
			if username == "" {
				return fmt.Errorf("--username must not be empty")
			}
			pw, err := passwordOrPrompt(password)
			if err != nil {
				return err
			}

			a, err := opts.openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			hash, err := service.HashPassword(pw)
			if err != nil {
				return err
			}
			err = a.store.CreateCredential(cmd.Context(), &model.AdminCredential{
				Username:     username,
				PasswordHash: hash,
				CreatedAt:    time.Now().UTC(),
			})
			if errors.Is(err, store.ErrAlreadyExists) {
				return fmt.Errorf("admin %q already exists (use 'puzzlr admin passwd' to change the password)", username)
			}
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Created admin %q\n", username)
			return nil
		},
	}

	cmd.Flags().StringVar(&username, "username", "", "Admin username (required)")
	cmd.Flags().StringVar(&password, "password", "", "Admin password (prompted if omitted)")
	cmd.MarkFlagRequired("username")

	return cmd
}

// ---------- admin passwd ----------

func newAdminPasswdCmd(opts *rootOptions) *cobra.Command {
	var (
		username string
		password string
	)

	cmd := &cobra.Command{
		Use:   "passwd",
		Short: "Change an admin's password",
		Long:  "Replace an admin's password hash. Existing sessions stay valid until they expire or are purged.",
		RunE: func(cmd *cobra.Command, args []string) error {
			pw, err := passwordOrPrompt(password)
			if err != nil {
				return err
			}

			a, err := opts.openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			hash, err := service.HashPassword(pw)
			if err != nil {
				return err
			}
			err = a.store.UpdatePasswordHash(cmd.Context(), username, hash)
			if errors.Is(err, store.ErrNotFound) {
				return fmt.Errorf("admin %q not found", username)
			}
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Password updated for %q\n", username)
			return nil
		},
	}

	cmd.Flags().StringVar(&username, "username", "", "Admin username (required)")
	cmd.Flags().StringVar(&password, "password", "", "New password (prompted if omitted)")
	cmd.MarkFlagRequired("username")

	return cmd
}

// passwordOrPrompt returns password, or reads and confirms one from the
// terminal when it is empty.
func passwordOrPrompt(password string) (string, error) {
	if password == "" {
		fmt.Print("Password: ")
		pwBytes, err := term.ReadPassword(int(os.Stdin.Fd()))
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		fmt.Println()
		password = string(pwBytes)

		fmt.Print("Confirm password: ")
		confirmBytes, err := term.ReadPassword(int(os.Stdin.Fd()))
		if err != nil {
			return "", fmt.Errorf("failed to read confirmation: %w", err)
		}
		fmt.Println()

		if password != string(confirmBytes) {
			return "", fmt.Errorf("passwords do not match")
		}
	}

	if len(password) < minPasswordLength {
		return "", fmt.Errorf("password must be at least %d characters", minPasswordLength)
	}
	return password, nil
}

// ---------- admin list ----------

func newAdminListCmd(opts *rootOptions) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List all admin accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			admins, err := a.store.ListCredentials(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if jsonOutput {
				if admins == nil {
					admins = []model.AdminCredential{}
				}
				return printJSON(out, admins)
			}

			if len(admins) == 0 {
				fmt.Fprintln(out, "No admin accounts configured. Use 'puzzlr admin create' to create one.")
				return nil
			}

			fmt.Fprintf(out, "%-30s %-25s\n", "USERNAME", "CREATED")
			fmt.Fprintf(out, "%-30s %-25s\n", "--------", "-------")
			for _, adm := range admins {
				fmt.Fprintf(out, "%-30s %-25s\n", adm.Username, adm.CreatedAt.Format(time.RFC3339))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}
