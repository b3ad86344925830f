package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/talgya/gridcity/internal/api"
	"github.com/talgya/gridcity/internal/catalog"
	"github.com/talgya/gridcity/internal/clock"
	"github.com/talgya/gridcity/internal/session"
)

type serveOptions struct {
	port     int
	dbPath   string
	city     string
	speed    float64
	interval time.Duration
}

func serveCmd(g *globals) *cobra.Command {
	var opts serveOptions

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the JSON API and event stream",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return runServe(g, opts)
		},
	}

	cmd.Flags().IntVarP(&opts.port, "port", "p", 8080, "HTTP server port")
	cmd.Flags().StringVar(&opts.dbPath, "db", "", "SQLite event journal (empty: no journal, no history)")
	cmd.Flags().StringVar(&opts.city, "city", catalog.DefaultCity, "city activated at startup")
	cmd.Flags().Float64Var(&opts.speed, "speed", 0, "auto-advance speed multiplier (0: manual ticks only)")
	cmd.Flags().DurationVar(&opts.interval, "interval", 10*time.Second, "real time per month at speed 1")
	return cmd
}

func runServe(g *globals, opts serveOptions) error {
	if opts.interval <= 0 {
		return fmt.Errorf("--interval must be positive, got %s", opts.interval)
	}

	cat, err := g.loadCatalog()
	if err != nil {
		return err
	}

	// ── Journal ───────────────────────────────────────────────────────
	db, err := openJournal(opts.dbPath)
	if err != nil {
		return err
	}
	var sessOpts []session.Option
	if db != nil {
		defer db.Close()
		sessOpts = append(sessOpts, session.WithJournal(db))
	}

	// ── Session ───────────────────────────────────────────────────────
	sess := session.New(cat, sessOpts...)
	if _, err := sess.Activate(opts.city); err != nil {
		return err
	}
	slog.Info("session started", "session", sess.ID(), "city", opts.city)

	// ── Clock ─────────────────────────────────────────────────────────
	clk := clock.New(opts.interval, func() {
		if _, err := sess.AdvanceActive(); err != nil && !errors.Is(err, session.ErrNoActiveCity) {
			slog.Error("auto-advance failed", "error", err)
		}
	})
	clk.SetSpeed(opts.speed)

	// ── HTTP API ──────────────────────────────────────────────────────
	adminKey := os.Getenv("GRIDCITY_ADMIN_KEY")
	if adminKey == "" {
		slog.Warn("GRIDCITY_ADMIN_KEY not set; speed changes over HTTP are disabled")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	hub := api.NewHub(sess, api.OriginChecker())
	go hub.Run(ctx)

	srv := &api.Server{
		Session:  sess,
		Clock:    clk,
		DB:       db,
		Hub:      hub,
		Port:     opts.port,
		AdminKey: adminKey,
	}
	srv.Start()

	fmt.Printf("\n%s is open for building.\n", opts.city)
	fmt.Printf("API: http://localhost:%d/api/v1/status\n", opts.port)
	if opts.speed > 0 {
		fmt.Printf("One month every %s (Ctrl+C to stop)\n", time.Duration(float64(opts.interval)/opts.speed))
	} else {
		fmt.Println("Clock paused; advance with POST /api/v1/city/{key}/tick (Ctrl+C to stop)")
	}

	clk.Run(ctx)

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP shutdown failed", "error", err)
	}

	if c, err := sess.Snapshot(sess.Active()); err == nil {
		fmt.Println()
		printCity(os.Stdout, c)
	}
	return nil
}
