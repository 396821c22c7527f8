// Package main implements the position analysis API server: static feature
// extraction, phase and theme classification, game import and drill listing.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/mattslight/blunderfixer-api/internal/http"
	"github.com/mattslight/blunderfixer-api/internal/storage"
)

const gracefulShutdownTimeout = time.Second * 5

func main() {
	var (
		host        = flag.String("host", "localhost", "API server host")
		port        = flag.Int("port", 8080, "API server port")
		dev         = flag.Bool("dev", false, "Development mode (relaxed rate limits, console logging)")
		storagePath = flag.String("storage-path", "blunderfixer.db", "Path to SQLite database file")
	)
	flag.Parse()

	logger, err := newLogger(*dev)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	store, err := storage.NewStore(*storagePath, logger)
	if err != nil {
		logger.Fatal("failed to initialize storage", zap.Error(err))
	}
	if err := store.InitDB(); err != nil {
		logger.Fatal("failed to initialize schema", zap.Error(err))
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Warn("failed to close storage cleanly", zap.Error(err))
		}
	}()

	app := http.NewFiberApp(store, logger, *dev)
	addr := fmt.Sprintf("%s:%d", *host, *port)

	go func() {
		logger.Info("API server starting",
			zap.String("addr", addr),
			zap.String("storage", *storagePath),
			zap.Bool("dev", *dev))

		if err := app.Listen(addr); err != nil {
			logger.Error("API server listen error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Warn("server forced to shutdown", zap.Error(err))
	}
	logger.Info("server exited")
}

func newLogger(dev bool) (*zap.Logger, error) {
	if dev {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
