package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/akhndelwal86/goodreads-for-puzzles-sub003/internal/jobs"
	"github.com/akhndelwal86/goodreads-for-puzzles-sub003/internal/server"
)

const banner = `
 ___  _   _ ___ ___ _    ___
| _ \| | | |_  )_  ) |  | _ \
|  _/| |_| |/ / / /| |__|   /
|_|   \___//___/___|____|_|_\
`

func newServeCmd(opts *rootOptions) *cobra.Command {
	var (
		port int
		host string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the admin API server",
		Long:  "Start the HTTP server that exposes the session-authenticated admin API and panel.",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			if cmd.Flags().Changed("port") {
				a.cfg.Server.Port = port
			}
			if cmd.Flags().Changed("host") {
				a.cfg.Server.Host = host
			}
			return runServe(cmd, opts, a)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 8080, "HTTP listen port (overrides server.port)")
	cmd.Flags().StringVar(&host, "host", "0.0.0.0", "HTTP listen host (overrides server.host)")

	return cmd
}

func runServe(cmd *cobra.Command, opts *rootOptions, a *app) error {
	out := cmd.OutOrStdout()
	fmt.Fprint(out, banner)
	fmt.Fprintln(out)

	ctx := cmd.Context()
	a.log.Info().Str("driver", a.store.Driver()).Str("data_dir", a.cfg.Database.DataDir).Msg("store initialized")

	hasAdmin, err := a.store.HasAnyCredential(ctx)
	if err != nil {
		a.log.Warn().Err(err).Msg("failed to check for admin credentials")
	}
	if !hasAdmin {
		a.log.Warn().Msg("no admin account found - run: puzzlr admin create --username <name>")
	}

	sweeper := jobs.NewSweeper(a.sessions, a.log)
	if err := sweeper.Start(a.cfg.Sessions.SweepSchedule); err != nil {
		return err
	}
	defer sweeper.Stop()

	srvCfg := server.ConfigFrom(*a.cfg)
	srvCfg.Version = opts.versionString()
	srv := server.New(srvCfg, server.Deps{
		Store:      a.store,
		Sessions:   a.sessions,
		Moderation: a.moderation,
	}, a.log)

	base := fmt.Sprintf("http://%s:%d", a.cfg.Server.Host, a.cfg.Server.Port)
	fmt.Fprintf(out, "→ Puzzlr %s\n", opts.versionString())
	fmt.Fprintf(out, "→ Listening on %s\n", base)
	fmt.Fprintf(out, "→ Admin panel: %s%s\n", base, a.cfg.Auth.AdminPrefix)
	fmt.Fprintf(out, "→ OpenAPI:     %s/openapi.json\n", base)
	fmt.Fprintf(out, "→ Health:      %s/healthz\n", base)
	fmt.Fprintln(out)

	return srv.ListenAndServe(ctx)
}
