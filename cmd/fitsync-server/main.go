// Command fitsync-server serves a record store over HTTP for fitsync
// clients configured with remote type "http".
//
// Environment (a .env file in the working directory is loaded first):
//
//	FITSYNC_SERVER_ADDR       listen address (default ":8080")
//	FITSYNC_SERVER_ROOT       filesystem record store root (default "./fitsync-data")
//	FITSYNC_SERVER_S3_BUCKET  use an S3 record store instead of the filesystem
//	FITSYNC_SERVER_S3_PREFIX  key prefix inside the bucket
//	FITSYNC_SERVER_S3_REGION  bucket region
//	FITSYNC_SERVER_TOKEN      bearer token clients must send (empty disables auth)
//	FITSYNC_SERVER_ORIGINS    comma-separated CORS origins (default "*")
//	FITSYNC_LOG_LEVEL         debug, info, warn or error
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"fitsync/internal/app"
	"fitsync/internal/config"
	"fitsync/internal/fit"
	"fitsync/internal/remote"

	"github.com/joho/godotenv"
	"github.com/rs/cors"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func storeConfig() config.RemoteConfig {
	if bucket := os.Getenv("FITSYNC_SERVER_S3_BUCKET"); bucket != "" {
		return config.RemoteConfig{
			Type:     "s3",
			S3Bucket: bucket,
			S3Prefix: os.Getenv("FITSYNC_SERVER_S3_PREFIX"),
			S3Region: os.Getenv("FITSYNC_SERVER_S3_REGION"),
		}
	}
	return config.RemoteConfig{
		Type:   "filesystem",
		FSRoot: getenv("FITSYNC_SERVER_ROOT", "fitsync-data"),
	}
}

func run() error {
	// A missing .env file is fine.
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := app.NewConsoleLogger(time.Now().UTC().Format("20060102T150405Z"), os.Getenv("FITSYNC_LOG_LEVEL"))

	cfg := storeConfig()
	store, err := remote.NewRecordStoreFromConfig(ctx, cfg)
	if err != nil {
		return fmt.Errorf("creating record store: %w", err)
	}

	token := os.Getenv("FITSYNC_SERVER_TOKEN")
	if token == "" {
		logger.Warn("FITSYNC_SERVER_TOKEN not set, serving without authentication")
	}

	c := cors.New(cors.Options{
		AllowedOrigins: strings.Split(getenv("FITSYNC_SERVER_ORIGINS", "*"), ","),
		AllowedMethods: []string{http.MethodGet, http.MethodPut, http.MethodDelete},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
	})
	handler := c.Handler(loggingMiddleware(logger, remote.NewHandler(store, token, logger, fit.RealClock{}, fit.UUIDGenerator{})))

	srv := &http.Server{
		Addr:              getenv("FITSYNC_SERVER_ADDR", ":8080"),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", "addr", srv.Addr, "store", cfg.Type)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func loggingMiddleware(logger fit.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapper := &responseWrapper{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapper, r)
		logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", wrapper.statusCode,
			"duration", time.Since(start).Truncate(time.Microsecond))
	})
}

type responseWrapper struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWrapper) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
