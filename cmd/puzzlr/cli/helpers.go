package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/akhndelwal86/goodreads-for-puzzles-sub003/internal/config"
	applog "github.com/akhndelwal86/goodreads-for-puzzles-sub003/internal/log"
	"github.com/akhndelwal86/goodreads-for-puzzles-sub003/internal/service"
	"github.com/akhndelwal86/goodreads-for-puzzles-sub003/internal/store"
)

// app bundles the store and services every command works through.
type app struct {
	cfg        *config.Config
	log        zerolog.Logger
	store      *store.Store
	activity   *service.ActivityLogger
	sessions   *service.SessionManager
	moderation *service.ModerationService
}

// openApp loads the configuration, opens the store and wires the services.
// The caller must Close the returned app.
func (o *rootOptions) openApp() (*app, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, err
	}
	resolveDataDir(cfg)

	logger := applog.New(cfg.Environment, cfg.Log.Level, cfg.Log.Format)

	st, err := store.Open(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	activity := service.NewActivityLogger(st, logger, service.ActivityOptions{
		DefaultLimit: cfg.Activity.DefaultLimit,
		MaxLimit:     cfg.Activity.MaxLimit,
		WriteTimeout: cfg.Activity.WriteTimeout,
	})
	sessions := service.NewSessionManager(st, service.NewCredentialVerifier(st), activity, st, logger,
		service.SessionOptions{Lifetime: cfg.Auth.SessionLifetime})
	moderation := service.NewModerationService(st, activity, service.ModerationOptions{
		DefaultLimit: cfg.Moderation.DefaultLimit,
		MaxLimit:     cfg.Moderation.MaxLimit,
	})

	return &app{
		cfg:        cfg,
		log:        logger,
		store:      st,
		activity:   activity,
		sessions:   sessions,
		moderation: moderation,
	}, nil
}

func (a *app) Close() error {
	return a.store.Close()
}

// resolveDataDir points the default SQLite store at ~/.puzzlr unless a data
// dir or DSN was configured. An in-memory store would lose every session
// and admin between runs.
func resolveDataDir(cfg *config.Config) {
	db := &cfg.Database
	if db.Driver != "sqlite" || db.DSN != "" || db.DataDir != "" {
		return
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return
	}
	db.DataDir = filepath.Join(home, ".puzzlr")
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// versionString returns a display version string.
func (o *rootOptions) versionString() string {
	if o.version == "" || o.version == "dev" {
		return "dev"
	}
	if strings.HasPrefix(o.version, "v") {
		return o.version
	}
	return "v" + o.version
}
