// Package main runs the training catalog server.
package main

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	_ "modernc.org/sqlite"

	"formations/internal/adapters/email"
	web "formations/internal/adapters/http"
	"formations/internal/adapters/http/perf"
	"formations/internal/adapters/metrics"
	"formations/internal/adapters/storage"
	"formations/internal/adapters/upload"
	"formations/internal/application/catalog"
	"formations/internal/application/orchestrators"
	"formations/internal/application/projections"
	"formations/internal/config"
	"formations/internal/domain/outbox"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

const shutdownTimeout = 15 * time.Second

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var envFile string

	cmd := &cobra.Command{
		Use:           "formations",
		Short:         "Continuing-education catalog for speech therapists",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Optional .env file read before the environment")

	cmd.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Migrate the database and serve HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(envFile)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(envFile)
			if err != nil {
				return err
			}
			db, err := openDB(cfg.DBPath)
			if err != nil {
				return err
			}
			defer db.Close()
			v, err := storage.SchemaVersion(db)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "schema version %d (latest %d)\n", v, storage.LatestSchemaVersion())
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "formations %s (schema %d)\n", version, storage.LatestSchemaVersion())
		},
	})

	return cmd
}

func newID() string {
	return uuid.New().String()
}

func loadConfig(envFile string) (config.Config, error) {
	cfg, err := config.Load(envFile)
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel})))
	return cfg, nil
}

// openDB opens the SQLite file with WAL and foreign keys, then migrates it.
func openDB(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", storage.OpenDSN(path))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// Connection pool settings for WAL mode
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("database unreachable: %w", err)
	}
	if err := storage.MigrateDB(db, path); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	return db, nil
}

func serve(ctx context.Context, cfg config.Config) error {
	db, err := openDB(cfg.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()

	collector := perf.NewCollector(perf.DefaultRingSize)
	timedDB := storage.NewTimedDB(db, collector, cfg.SlowQueryMs)
	stores := web.NewSQLiteStores(timedDB)
	appMetrics := metrics.New()

	seedDeps := orchestrators.CreateAccountDeps{AccountStore: stores.AccountStore, GenerateID: newID, Now: time.Now}
	if err := orchestrators.ExecuteSeedAdmin(ctx, seedDeps, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}

	catalogCache := catalog.NewCache(projections.NewCatalogLoader(stores.CourseStore, stores.ReviewStore, appMetrics))

	var sender email.Sender
	if cfg.ResendKey != "" {
		sender = email.NewResendSender(cfg.ResendKey, cfg.EmailFrom)
		slog.Info("email_sender", "provider", "resend")
	} else {
		sender = email.NewNoopSender()
		if cfg.IsProduction() {
			slog.Warn("email_sender", "provider", "noop", "reason", "FORMATIONS_RESEND_KEY is not set")
		}
	}
	var recipients []string
	if cfg.AdminRecipient != "" {
		recipients = []string{cfg.AdminRecipient}
	}
	processor := orchestrators.NewOutboxProcessor(stores.OutboxStore, map[string]orchestrators.ActionExecutor{
		outbox.ActionTypeAdminEmail: &orchestrators.AdminEmailExecutor{Sender: sender, To: recipients},
	}, appMetrics)
	outboxStop := make(chan struct{})
	outboxDone := orchestrators.StartBackgroundWorker(processor, cfg.OutboxInterval, outboxStop)

	csrfKey := cfg.CSRFKey
	if csrfKey == nil {
		csrfKey = make([]byte, 32)
		rand.Read(csrfKey)
	}

	handler, stopMux := web.NewMux(web.Options{
		Stores:        stores,
		Catalog:       catalogCache,
		Outbox:        processor,
		Uploads:       upload.NewStore(cfg.UploadDir, cfg.UploadPublicURL),
		Metrics:       appMetrics,
		Collector:     collector,
		CSRFKey:       csrfKey,
		Production:    cfg.IsProduction(),
		SlowRequestMs: cfg.SlowRequestMs,
		Ping:          timedDB.Ping,
	})
	defer stopMux()

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server_started", "version", version, "addr", cfg.Addr, "env", cfg.Env, "schema", storage.LatestSchemaVersion())
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		close(outboxStop)
		<-outboxDone
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("server_stopping")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err = srv.Shutdown(shutdownCtx)
	close(outboxStop)
	<-outboxDone
	if err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	slog.Info("server_stopped")
	return nil
}
