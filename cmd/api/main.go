package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"assetsync-service/internal/bootstrap"
	infraconfig "assetsync-service/internal/infrastructure/config"
	"assetsync-service/internal/infrastructure/logx"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func init() { _ = godotenv.Load() }

func main() {
	logx.SetLevel(os.Getenv("LOG_LEVEL"))
	logger := logx.L()
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	app, cleanup, err := bootstrap.InitAPI(ctx)
	if err != nil {
		logger.Fatal("bootstrap", zap.Error(err))
	}

	writerCtx, stopWriter := context.WithCancel(ctx)
	go app.Writer.Start(writerCtx)

	addr := ":" + app.Config.Port
	server := &http.Server{
		Addr:              addr,
		Handler:           app.Handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("server started", zap.String("addr", addr), zap.String("storage", app.Config.Storage), zap.String("provider", app.Config.Provider))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("listen", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, shCancel := context.WithTimeout(context.Background(), infraconfig.DefaultShutdownTimeout)
	defer shCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("server shutdown", zap.Error(err))
	}

	// Pending cache rows are flushed before the stores close.
	stopWriter()
	select {
	case <-app.Writer.Done():
	case <-shutdownCtx.Done():
		logger.Warn("cache writer did not drain in time")
	}
	cleanup()
	logger.Info("server stopped")
}
