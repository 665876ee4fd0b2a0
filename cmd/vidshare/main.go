// Package main provides the vidshare API server and its maintenance commands.
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/vidshare/vidshare/internal/auth"
	"github.com/vidshare/vidshare/internal/database"
	"github.com/vidshare/vidshare/internal/geoip"
	"github.com/vidshare/vidshare/internal/server"
	"github.com/vidshare/vidshare/internal/storage"
	"github.com/vidshare/vidshare/internal/store"
	"github.com/vidshare/vidshare/internal/upload"
)

var version = "dev"

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "load .env: %v\n", err)
		os.Exit(1)
	}
	slog.SetDefault(newLogger(os.Getenv("LOG_FORMAT"), os.Getenv("LOG_LEVEL")))

	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "vidshare",
		Short:        "Video sharing API server",
		Version:      version,
		SilenceUsage: true,
	}
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newMigrateCmd())
	return rootCmd
}

func newLogger(format, level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: lvl}
	if strings.EqualFold(format, "text") {
		return slog.New(slog.NewTextHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, opts))
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			databaseURL := os.Getenv("DATABASE_URL")
			if databaseURL == "" {
				return errors.New("DATABASE_URL is required")
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			defer cancel()

			db, err := database.Connect(ctx, databaseURL)
			if err != nil {
				return fmt.Errorf("database connection failed: %w", err)
			}
			defer db.Close()

			if err := db.Migrate(databaseURL); err != nil {
				return fmt.Errorf("database migration failed: %w", err)
			}
			slog.Info("database migrations applied")
			return nil
		},
	}
}

func newServeCmd() *cobra.Command {
	var port string
	var inMemory bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			if port == "" {
				port = getEnv("PORT", "8080")
			}
			return serve(cmd.Context(), port, inMemory)
		},
	}
	cmd.Flags().StringVar(&port, "port", "", "listen port (defaults to $PORT or 8080)")
	cmd.Flags().BoolVar(&inMemory, "in-memory", false, "keep all data in process instead of PostgreSQL")
	return cmd
}

func serve(ctx context.Context, port string, inMemory bool) error {
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		return errors.New("JWT_SECRET is required")
	}

	startCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	cfg := server.Config{
		JWTSecret:      jwtSecret,
		CookieName:     getEnv("ACCESS_COOKIE_NAME", auth.DefaultCookieName),
		BaseURL:        getEnv("BASE_URL", "http://localhost:8080"),
		AllowedOrigins: splitList(getEnv("CLIENT_URL", "http://localhost:3000")),
		MaxUploadBytes: getEnvInt64("MAX_UPLOAD_BYTES", upload.DefaultMaxUploadBytes),
		StoragePublic:  os.Getenv("S3_PUBLIC_ENDPOINT"),
		TrustProxy:     getEnvBool("TRUST_PROXY", false),
	}

	if inMemory {
		slog.Warn("using in-memory store; data is lost on exit")
		cfg.Store = store.NewMemory()
	} else {
		databaseURL := os.Getenv("DATABASE_URL")
		if databaseURL == "" {
			return errors.New("DATABASE_URL is required (or pass --in-memory)")
		}
		db, err := database.Connect(startCtx, databaseURL)
		if err != nil {
			return fmt.Errorf("database connection failed: %w", err)
		}
		defer db.Close()

		if err := db.Migrate(databaseURL); err != nil {
			return fmt.Errorf("database migration failed: %w", err)
		}
		slog.Info("database migrations applied")
		cfg.Store = store.NewPostgres(db.Pool)
		cfg.Pinger = db
	}

	if bucket := os.Getenv("S3_BUCKET"); bucket != "" {
		assets, err := storage.New(startCtx, storage.Config{
			Endpoint:       getEnv("S3_ENDPOINT", "http://localhost:9000"),
			PublicEndpoint: os.Getenv("S3_PUBLIC_ENDPOINT"),
			Bucket:         bucket,
			AccessKey:      os.Getenv("S3_ACCESS_KEY"),
			SecretKey:      os.Getenv("S3_SECRET_KEY"),
			Region:         getEnv("S3_REGION", "us-east-1"),
		})
		if err != nil {
			return fmt.Errorf("storage initialization failed: %w", err)
		}
		if err := assets.EnsureBucket(startCtx); err != nil {
			return fmt.Errorf("storage bucket check failed: %w", err)
		}
		slog.Info("storage bucket ready", "bucket", bucket)
		cfg.Assets = assets
	} else {
		slog.Warn("S3_BUCKET not set, uploads disabled")
	}

	if geo := geoip.New(os.Getenv("GEOIP_DB_PATH")); geo.Enabled() {
		defer func() { _ = geo.Close() }()
		cfg.Locator = geo
	}

	httpServer := &http.Server{
		Addr:              ":" + port,
		Handler:           server.New(cfg),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       120 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		slog.Info("vidshare listening", "port", port)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("listen: %w", err)
	case <-shutdownCh:
	}
	slog.Info("shutting down")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	slog.Info("shutdown complete")
	return nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt64(key string, fallback int64) int64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseInt(value, 10, 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
