// Package main provides the fusion daemon entry point.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/neurofusion/fusion/internal/config"
	"github.com/neurofusion/fusion/internal/db/sqlite"
	"github.com/neurofusion/fusion/internal/legacy"
	"github.com/neurofusion/fusion/internal/notify"
	"github.com/neurofusion/fusion/internal/prompts"
	"github.com/neurofusion/fusion/internal/tracking"
	"github.com/neurofusion/fusion/internal/watcher"
	"github.com/neurofusion/fusion/internal/worker"
)

// Version is set at build time via ldflags.
var Version = "dev"

func main() {
	port := flag.Int("port", 0, "HTTP worker port (default: from settings)")
	dataDir := flag.String("data-dir", "", "Data directory (default: ~/.fusion)")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if *debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, NoColor: true})

	if err := config.EnsureAll(); err != nil {
		log.Fatal().Err(err).Msg("Failed to ensure data directory")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Warn().Err(err).Msg("Failed to load config, using defaults")
		cfg = config.Default()
	}
	if *port > 0 {
		cfg.WorkerPort = *port
	}
	if *debug {
		cfg.Debug = true
	}

	dbPath := cfg.DBPath
	legacyPath := cfg.LegacyStorePath
	markerPath := config.MigrationMarkerPath()
	if *dataDir != "" {
		dbPath = *dataDir + "/fusion.db"
		legacyPath = *dataDir + "/legacy-store.json"
		markerPath = *dataDir + "/.migration-done"
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Info().Msg("Shutting down")
		cancel()
	}()

	store, err := sqlite.NewStore(sqlite.StoreConfig{
		Path:     dbPath,
		MaxConns: cfg.MaxConns,
		WALMode:  true,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize SQLite store")
	}
	defer store.Close()

	scheduler := notify.NewLocalScheduler(nil)
	defer scheduler.Close()

	var tracker tracking.Tracker = tracking.LogTracker{}
	if cfg.TrackingEndpoint != "" {
		tracker = tracking.NewInsightsTracker(cfg.TrackingEndpoint)
	}

	repo := prompts.NewRepository(store, scheduler, tracker)

	// Reschedule campaigns for everything already stored
	if err := rescheduleAll(ctx, repo, scheduler); err != nil {
		log.Fatal().Err(err).Msg("Failed to restore notification campaigns")
	}

	migrator := prompts.NewMigrator(
		legacy.NewFileStore(legacyPath),
		repo, tracker,
		prompts.MigratorConfig{
			Confirm: func(title, message string) {
				log.Info().Str("title", title).Msg(message)
			},
			Restart: func() {
				// The migration wants a clean restart so every consumer picks
				// up the relational data. Exit after the marker is written and
				// let the supervisor bring the daemon back.
				go func() {
					time.Sleep(200 * time.Millisecond)
					os.Exit(0)
				}()
			},
		},
	)

	runStartupMigration(ctx, migrator, markerPath)
	startSettingsWatcher()

	svc := worker.NewService(Version, cfg, store, repo, migrator)
	svc.MarkReady()

	log.Info().Str("version", Version).Int("port", cfg.WorkerPort).Msg("Starting fusion daemon")
	if err := svc.Run(ctx); err != nil {
		log.Fatal().Err(err).Msg("Worker error")
	}
}

// rescheduleAll re-arms notification campaigns for all stored prompts. The
// scheduler holds campaigns in memory only, so every boot starts from the
// database.
func rescheduleAll(ctx context.Context, repo *prompts.Repository, scheduler *notify.LocalScheduler) error {
	all, err := repo.ReadAllPrompts(ctx)
	if err != nil {
		return err
	}
	for _, prompt := range all {
		if err := scheduler.ScheduleCampaign(ctx, prompt); err != nil {
			log.Warn().Err(err).Str("uuid", prompt.UUID).Msg("Failed to schedule campaign")
		}
	}
	log.Debug().Int("count", len(all)).Msg("Restored notification campaigns")
	return nil
}

// runStartupMigration runs the legacy migration once per installation. The
// marker file records completion so the post-migration restart does not
// trigger it again.
func runStartupMigration(ctx context.Context, migrator *prompts.Migrator, markerPath string) {
	if _, err := os.Stat(markerPath); err == nil {
		log.Debug().Msg("Legacy migration already completed")
		return
	}

	if err := migrator.RunMigration(ctx); err != nil {
		if prompts.ErrMigrationCorrupt(err) {
			log.Error().Err(err).Msg("Legacy store is corrupt, skipping migration")
		} else {
			log.Error().Err(err).Msg("Legacy migration failed")
		}
		return
	}

	if err := os.WriteFile(markerPath, []byte(time.Now().UTC().Format(time.RFC3339)+"\n"), 0600); err != nil {
		log.Warn().Err(err).Msg("Failed to write migration marker")
	}
}

// startSettingsWatcher exits the process when settings.json changes so the
// supervisor restarts it with fresh configuration.
func startSettingsWatcher() {
	settingsPath := config.SettingsPath()
	w, err := watcher.New(settingsPath, func() {
		log.Warn().Str("path", settingsPath).Msg("Settings changed, exiting for restart...")
		time.Sleep(100 * time.Millisecond) // Give logs time to flush
		os.Exit(0)
	})
	if err != nil {
		log.Warn().Err(err).Msg("Failed to create settings watcher")
		return
	}
	if err := w.Start(); err != nil {
		log.Warn().Err(err).Msg("Failed to start settings watcher")
		return
	}
	log.Info().Str("path", settingsPath).Msg("Settings file watcher started")
}
