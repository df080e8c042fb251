package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/yukikurage/workforce-api/internal/database"
	"github.com/yukikurage/workforce-api/internal/server"
	"github.com/yukikurage/workforce-api/internal/services"
	"github.com/yukikurage/workforce-api/internal/storage"
)

const shutdownTimeout = 10 * time.Second

var skipMigrate bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server",
	Long: `Run the HTTP server. Migrations run first unless --skip-migrate is set.
When notifications.cleanup_interval is positive, expired and old read
notifications are removed periodically.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&skipMigrate, "skip-migrate", false, "do not run migrations on startup")
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := bootstrap()
	if err != nil {
		return err
	}
	defer a.close()

	gin.SetMode(a.cfg.Server.Mode)

	if !skipMigrate {
		if err := database.Migrate(a.db, a.log); err != nil {
			return err
		}
	}

	files, err := storage.NewLocalStorage(a.cfg.Storage.UploadDir)
	if err != nil {
		return err
	}
	store, err := server.NewSessionStore(a.cfg.Session)
	if err != nil {
		return err
	}

	svc := server.NewServices(a.cfg, a.db, files, a.log)
	engine, err := server.New(a.cfg, a.db, svc, store, a.log)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if interval := a.cfg.Notifications.CleanupInterval; interval > 0 {
		go runCleanupLoop(ctx, svc.Notifications, interval, a.log)
	}

	srv := &http.Server{
		Addr:              a.cfg.Server.Addr(),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.Info("server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	a.log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// runCleanupLoop removes stale notifications every interval until ctx ends.
func runCleanupLoop(ctx context.Context, notifications *services.NotificationService, interval time.Duration, log *zap.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if _, err := notifications.Cleanup(now.UTC()); err != nil {
				log.Error("notification cleanup failed", zap.Error(err))
			}
		}
	}
}
