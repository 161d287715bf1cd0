// Package main is the entry point for the sine-wave animation server.
// It only handles dependency injection and server initialization.
// NO animation logic belongs here.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/pkg/profile"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/MRamiBalles/sinewave/internal/engine"
	"github.com/MRamiBalles/sinewave/internal/events"
	"github.com/MRamiBalles/sinewave/internal/infra/storage"
	"github.com/MRamiBalles/sinewave/internal/network"
	"github.com/MRamiBalles/sinewave/internal/platform/config"
	"github.com/MRamiBalles/sinewave/internal/platform/logger"
	"github.com/MRamiBalles/sinewave/internal/platform/metrics"
)

const shutdownTimeout = 5 * time.Second

type serveOptions struct {
	configPath  string
	addr        string
	journalPath string
	profileMode string
	lowResource bool
}

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var opts serveOptions

	run := func(cmd *cobra.Command, args []string) error {
		return serve(cmd.Context(), opts)
	}

	root := &cobra.Command{
		Use:          "sinewave-server",
		Short:        "Serve the sine-wave animation to browsers over WebSocket",
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE:         run,
	}
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the animation (the default when no subcommand is given)",
		Args:  cobra.NoArgs,
		RunE:  run,
	}
	addServeFlags(root.Flags(), &opts)
	addServeFlags(serveCmd.Flags(), &opts)

	root.AddCommand(serveCmd)
	root.AddCommand(newFrameCmd())
	return root
}

func addServeFlags(fs *pflag.FlagSet, opts *serveOptions) {
	fs.StringVar(&opts.configPath, "config", "", "YAML config file (defaults apply when empty)")
	fs.StringVar(&opts.addr, "addr", "", "listen address, overrides the config file")
	fs.StringVar(&opts.journalPath, "journal", "", "SQLite diagnostics journal path, overrides the config file")
	fs.StringVar(&opts.profileMode, "profile", "", "write a cpu or mem profile to the working directory")
	fs.BoolVar(&opts.lowResource, "low-resource", false, "start from the small development preset instead of the production defaults")
}

func serve(ctx context.Context, opts serveOptions) error {
	base := config.DefaultConfig()
	if opts.lowResource {
		base = config.LowResourceConfig()
	}
	cfg, err := config.LoadOver(base, opts.configPath)
	if err != nil {
		return err
	}
	if opts.addr != "" {
		cfg.Addr = opts.addr
	}
	if opts.journalPath != "" {
		cfg.JournalPath = opts.journalPath
	}

	level, err := logger.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	appLogger := logger.New(os.Stdout, os.Stderr, level)
	appLogger.Info("Initializing sine-wave animation server...")

	switch opts.profileMode {
	case "":
	case "cpu":
		defer profile.Start(profile.CPUProfile, profile.ProfilePath("."), profile.NoShutdownHook).Stop()
	case "mem":
		defer profile.Start(profile.MemProfile, profile.ProfilePath("."), profile.NoShutdownHook).Stop()
	default:
		return fmt.Errorf("unknown profile mode %q (want cpu or mem)", opts.profileMode)
	}

	m := metrics.Get()

	var persister events.Persister
	var archive network.Archive
	if cfg.JournalPath != "" {
		appLogger.Info("Initializing SQLite journal '" + cfg.JournalPath + "'...")
		db, err := storage.InitSQLite(cfg.JournalPath, cfg.DBMaxOpenConns)
		if err != nil {
			appLogger.Error("Failed to initialize SQLite: " + err.Error())
			return err
		}
		defer db.Close()

		store := newJournalStore(storage.NewSQLiteJournalRepository(db), uuid.NewString(), cfg.JournalCapacity)
		persister, archive = store, store
		appLogger.Info("Journal run ID " + store.runID)
	}

	appLogger.Info("Bootstrapping journal...")
	journal := events.NewEventLog(cfg.JournalCapacity, cfg.JournalQueue, persister, m)

	appLogger.Info("Bootstrapping animation engine...")
	eng := engine.NewEngine(journal, appLogger, engine.TimerScheduler{}, m)

	appLogger.Info("Bootstrapping WebSocket Hub...")
	hub := network.NewHub(cfg, appLogger, m)
	eng.AddPublisher(hub)

	startedAt := time.Now()
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           network.NewMux(hub, eng, network.NewJournalHandler(journal, archive, appLogger), m, startedAt),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return journal.Run(gctx) })
	g.Go(func() error { return hub.Run(gctx) })
	g.Go(func() error { return eng.Run(gctx) })
	g.Go(func() error {
		appLogger.Info("HTTP & WS server listening on " + cfg.Addr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		appLogger.Info("Shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	err = g.Wait()
	appLogger.Info(fmt.Sprintf("Stopped at count %d after %s, %s frames published.",
		eng.State().Count,
		time.Since(startedAt).Round(time.Second),
		humanize.Comma(m.FramesPublished)))
	return err
}
