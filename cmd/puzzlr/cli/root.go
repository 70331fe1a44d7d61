package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/akhndelwal86/goodreads-for-puzzles-sub003/internal/config"
)

// rootOptions carries the persistent flags and build info down to the
// subcommands.
type rootOptions struct {
	cfgFile string
	dataDir string

	version string
	commit  string
	date    string
}

// Execute creates the root command tree and runs it.
func Execute(version, commit, date string) error {
	return newRootCmd(version, commit, date).Execute()
}

func newRootCmd(version, commit, date string) *cobra.Command {
	opts := &rootOptions{version: version, commit: commit, date: date}

	cmd := &cobra.Command{
		Use:   "puzzlr",
		Short: "Puzzlr admin service",
		Long: `Puzzlr admin service: session-authenticated admin API and panel for moderating
user-submitted puzzles, triaging feedback and reviewing the admin audit trail.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.cfgFile, "config", "", "config file (default is ./puzzlr.yaml or ~/.puzzlr/puzzlr.yaml)")
	cmd.PersistentFlags().StringVar(&opts.dataDir, "data-dir", "", "data directory for the SQLite store (default: ~/.puzzlr)")

	cmd.AddCommand(newServeCmd(opts))
	cmd.AddCommand(newVersionCmd(opts))
	cmd.AddCommand(newAdminCmd(opts))
	cmd.AddCommand(newSessionCmd(opts))
	cmd.AddCommand(newActivityCmd(opts))
	cmd.AddCommand(newSeedCmd(opts))
	cmd.AddCommand(newOpenAPICmd(opts))
	cmd.AddCommand(newMCPCmd(opts))
	cmd.AddCommand(newConfigCmd(opts))

	return cmd
}

// newViper returns a viper instance with the config file (if any) loaded
// and PUZZLR_* environment overrides enabled.
func (o *rootOptions) newViper() (*viper.Viper, error) {
	v := config.NewViper()
	if o.cfgFile != "" {
		v.SetConfigFile(o.cfgFile)
	} else {
		v.SetConfigName("puzzlr")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.puzzlr")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if o.cfgFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	if o.dataDir != "" {
		v.Set("database.data_dir", o.dataDir)
	}
	return v, nil
}

// loadConfig returns the effective, validated configuration.
func (o *rootOptions) loadConfig() (*config.Config, error) {
	v, err := o.newViper()
	if err != nil {
		return nil, err
	}
	return config.Load(v)
}
