package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	web "shotbuzz/internal/adapters/http"
	"shotbuzz/internal/adapters/http/perf"
	"shotbuzz/internal/adapters/storage"
	attendanceStore "shotbuzz/internal/adapters/storage/attendance"
	projectStore "shotbuzz/internal/adapters/storage/project"
	shotStore "shotbuzz/internal/adapters/storage/shot"
	"shotbuzz/internal/application/orchestrators"
	"shotbuzz/internal/application/shell"
	"shotbuzz/internal/application/viewstate"
	"shotbuzz/internal/config"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

// sweepInterval is how often idle workspaces are expired.
const sweepInterval = time.Minute

// shutdownTimeout bounds graceful HTTP shutdown.
const shutdownTimeout = 10 * time.Second

// flags override the environment configuration.
type flags struct {
	addr     string
	dsn      string
	logLevel string
}

func main() {
	if err := rootCmd().Execute(); err != nil {
		log.Fatalf("shotbuzz: %v", err)
	}
}

func rootCmd() *cobra.Command {
	var f flags

	cmd := &cobra.Command{
		Use:           "shotbuzz",
		Short:         "VFX production dashboard",
		Long:          "ShotBuzz serves the production dashboard, shot tracking and team attendance pages.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), f)
		},
	}
	cmd.PersistentFlags().StringVar(&f.addr, "addr", "", "Listen address (overrides SHOTBUZZ_ADDR)")
	cmd.PersistentFlags().StringVar(&f.dsn, "dsn", "", "Database DSN (overrides SHOTBUZZ_DB_DSN)")
	cmd.PersistentFlags().StringVar(&f.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Run the HTTP server (default)",
			RunE: func(cmd *cobra.Command, args []string) error {
				return serve(cmd.Context(), f)
			},
		},
		&cobra.Command{
			Use:   "migrate",
			Short: "Create the local SQLite schema",
			RunE: func(cmd *cobra.Command, args []string) error {
				return migrate(f)
			},
		},
		&cobra.Command{
			Use:   "seed",
			Short: "Load sample shots and attendance into SQLite",
			RunE: func(cmd *cobra.Command, args []string) error {
				return seed(cmd.Context(), f)
			},
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Printf("shotbuzz %s\n", version)
			},
		},
	)
	return cmd
}

// setup configures logging and loads the configuration with flag overrides applied.
func setup(f flags) (config.Config, error) {
	level := slog.LevelInfo
	switch strings.ToLower(f.logLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, err
	}
	if f.addr != "" {
		cfg.Addr = f.addr
	}
	if f.dsn != "" {
		cfg.DBDSN = f.dsn
	}
	return cfg, cfg.Validate()
}

// openDB opens and pings the record store.
func openDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	db, err := storage.Open(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("database unreachable: %w", err)
	}
	return db, nil
}

// requireSQLite rejects commands that write the schema or sample rows to a hosted store.
func requireSQLite(cfg config.Config, command string) error {
	if cfg.DBDriver != storage.DriverSQLite {
		return fmt.Errorf("%s only supports the %s driver; the %s schema is owned by the hosted backend",
			command, storage.DriverSQLite, cfg.DBDriver)
	}
	return nil
}

func migrate(f flags) error {
	cfg, err := setup(f)
	if err != nil {
		return err
	}
	if err := requireSQLite(cfg, "migrate"); err != nil {
		return err
	}
	db, err := openDB(context.Background(), cfg)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := storage.InitDB(db); err != nil {
		return fmt.Errorf("init schema: %w", err)
	}
	log.Printf("Schema ready at %s", cfg.DBDSN)
	return nil
}

func seed(ctx context.Context, f flags) error {
	cfg, err := setup(f)
	if err != nil {
		return err
	}
	if err := requireSQLite(cfg, "seed"); err != nil {
		return err
	}
	if ctx == nil {
		ctx = context.Background()
	}
	db, err := openDB(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := storage.InitDB(db); err != nil {
		return fmt.Errorf("init schema: %w", err)
	}
	projects, err := projectSource(cfg)
	if err != nil {
		return err
	}
	result, err := seedSamples(ctx, db, projects)
	if err != nil {
		return err
	}
	log.Printf("Seeded %d shots and %d attendance records", result.Shots, result.Attendance)
	return nil
}

func seedSamples(ctx context.Context, db storage.SQLDB, projects projectStore.Source) (orchestrators.SeedSamplesResult, error) {
	result, err := orchestrators.ExecuteSeedSamples(ctx, orchestrators.SeedSamplesDeps{
		ShotStore:       shotStore.NewSQLStore(db),
		AttendanceStore: attendanceStore.NewSQLStore(db),
		Projects:        projects.Projects(),
	}, time.Now())
	if err != nil {
		return result, fmt.Errorf("seed samples: %w", err)
	}
	return result, nil
}

// projectSource returns the YAML-backed source when a file is configured,
// otherwise the built-in seed list.
func projectSource(cfg config.Config) (projectStore.Source, error) {
	if cfg.ProjectsFile == "" {
		return projectStore.NewStaticSource(nil), nil
	}
	src, err := projectStore.NewFileSource(cfg.ProjectsFile)
	if err != nil {
		return nil, fmt.Errorf("load projects: %w", err)
	}
	return src, nil
}

func serve(parent context.Context, f flags) error {
	cfg, err := setup(f)
	if err != nil {
		return err
	}
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := openDB(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()
	if cfg.DBDriver == storage.DriverSQLite {
		if err := storage.InitDB(db); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	log.Println("Database initialized successfully!")

	// Performance instrumentation: wrap DB with timing, create collector
	collector := perf.NewCollector(perf.DefaultRingSize)
	metrics := perf.NewMetrics(collector)
	timedDB := storage.NewTimedDB(db, collector, cfg.SlowQuery())

	projects, err := projectSource(cfg)
	if err != nil {
		return err
	}
	if fs, ok := projects.(*projectStore.FileSource); ok {
		if err := fs.Watch(ctx); err != nil {
			return err
		}
		log.Printf("Watching %s for project changes", cfg.ProjectsFile)
	}

	if cfg.Seed {
		if _, err := seedSamples(ctx, timedDB, projects); err != nil {
			return err
		}
	}

	shots := shotStore.NewSQLStore(timedDB)
	attendance := attendanceStore.NewSQLStore(timedDB)
	loaders := shell.Loaders{
		Shots:      shots.ListAll,
		Attendance: attendance.ListAll,
		Options:    viewstate.Options{Timeout: cfg.FetchTimeout, Observer: metrics},
	}
	workspaces := shell.NewWorkspaceStore(func() *shell.Workspace {
		return shell.NewWorkspace(ctx, loaders)
	}, shell.StoreOptions{TTL: cfg.WorkspaceTTL, Capacity: cfg.WorkspaceMax})
	go workspaces.Run(ctx, sweepInterval)

	csrfKey, err := cfg.CSRFKeyBytes()
	if err != nil {
		return err
	}
	if cfg.CSRFKey == "" {
		log.Println("WARNING: using random CSRF key (tokens won't survive restart). Set SHOTBUZZ_CSRF_KEY for production.")
	}

	handler := web.NewMux(web.Deps{
		Loaders:    loaders,
		Projects:   projects,
		Workspaces: workspaces,
		Collector:  collector,
		Metrics:    metrics,
		DB:         timedDB,
		Base:       ctx,
		Options: web.Options{
			LoadWait:       cfg.LoadWait,
			SlowRequest:    cfg.SlowRequest(),
			CSRFKey:        csrfKey,
			TrustedOrigins: trustedOrigins(cfg.Addr),
			RateLimit:      cfg.RateLimit,
			SecureCookies:  cfg.IsProduction(),
		},
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Printf("ShotBuzz %s starting on %s (env=%s, driver=%s)", version, cfg.Addr, cfg.Env, cfg.DBDriver)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("shutdown_started")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// trustedOrigins lists the local origins allowed to submit forms for addr.
func trustedOrigins(addr string) []string {
	port := addr
	if i := strings.LastIndex(addr, ":"); i >= 0 {
		port = addr[i+1:]
	}
	if port == "" {
		return nil
	}
	return []string{"localhost:" + port, "127.0.0.1:" + port}
}
