package main

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/mvartia/marquee/internal/auth"
	"github.com/mvartia/marquee/internal/config"
	"github.com/mvartia/marquee/internal/domain/activity"
	"github.com/mvartia/marquee/internal/domain/queue"
	"github.com/mvartia/marquee/internal/domain/quota"
	"github.com/mvartia/marquee/internal/domain/slide"
	"github.com/mvartia/marquee/internal/sqlite"
	"github.com/mvartia/marquee/internal/transport"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Log.Level),
	}))

	if err := ensureDBDir(cfg.DB.Path); err != nil {
		logger.Error("failed to prepare database path", "error", err)
		os.Exit(1)
	}

	db, err := sqlite.New(cfg.DB.Path)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.RunMigrations(); err != nil {
		// Schema already present on restarts; anything else is fatal.
		if !strings.Contains(err.Error(), "already exists") {
			logger.Error("failed to run migrations", "error", err)
			os.Exit(1)
		}
	}

	if err := ensureBootstrapKey(db, logger); err != nil {
		logger.Error("failed to bootstrap admin key", "error", err)
		os.Exit(1)
	}

	slideRepo := sqlite.NewSlideRepository(db)
	queueRepo := sqlite.NewQueueRepository(db)
	quotaRepo := sqlite.NewQuotaRepository(db)
	activityRepo := sqlite.NewActivityRepository(db)

	quotaSvc := quota.NewService(quotaRepo, cfg.Quota.SlideLimit, logger)
	activitySvc := activity.NewService(activityRepo, logger)
	queueSvc := queue.NewService(queueRepo, slideRepo, quotaSvc, activityRepo, logger)
	slideSvc := slide.NewService(
		slideRepo,
		queueRepo,
		queueSvc,
		quotaSvc,
		activityRepo,
		time.Duration(cfg.Lock.TTLSeconds)*time.Second,
		slide.SchedulePolicy(cfg.Schedule.Policy),
		logger,
	)

	hub := transport.NewWatchHub()
	resolver := &apiKeyResolver{db: db}
	router := transport.NewServer(slideSvc, queueSvc, activitySvc, hub, transport.AuthMiddleware(resolver))

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("starting server", "addr", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
}

// ensureBootstrapKey seeds an admin user and API key from
// MARQUEE_BOOTSTRAP_KEY so a fresh install is reachable.
func ensureBootstrapKey(db *sqlite.DB, logger *slog.Logger) error {
	token := os.Getenv("MARQUEE_BOOTSTRAP_KEY")
	if token == "" {
		return nil
	}

	if _, err := db.Exec(
		`INSERT INTO users (name, groups) VALUES ('admin', 'admin,editor')
		 ON CONFLICT(name) DO NOTHING`,
	); err != nil {
		return err
	}
	_, err := db.Exec(
		`INSERT INTO api_keys (key_hash, user_name, session_id, created_at)
		 VALUES (?, 'admin', ?, ?)
		 ON CONFLICT(key_hash) DO NOTHING`,
		hashToken(token), uuid.NewString(), time.Now(),
	)
	if err == nil {
		logger.Info("bootstrap admin key ensured")
	}
	return err
}

type apiKeyResolver struct {
	db *sqlite.DB
}

func (r *apiKeyResolver) ResolveCaller(ctx context.Context, token string) (auth.Caller, auth.Session, error) {
	var userName, groups, sessionID string
	err := r.db.QueryRowContext(ctx,
		`SELECT u.name, u.groups, k.session_id
		 FROM api_keys k JOIN users u ON u.name = k.user_name
		 WHERE k.key_hash = ?`,
		hashToken(token),
	).Scan(&userName, &groups, &sessionID)
	if err != nil {
		return auth.Caller{}, auth.Session{}, transport.ErrUnauthorized
	}

	caller := auth.Caller{Name: userName, Groups: splitGroups(groups)}
	return caller, auth.Session{ID: sessionID, User: userName}, nil
}

func splitGroups(groups string) []string {
	if groups == "" {
		return nil
	}
	return strings.Split(groups, ",")
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func ensureDBDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
