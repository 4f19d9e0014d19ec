// Command mock-backend runs a deterministic OpenAI-compatible Chat
// Completions server for local gpt-cli runs and end-to-end testing. See
// package mockserver for the supported scenarios.
//
// Configuration:
//
//	MOCK_PORT            - Listen port (default: 8086)
//	MOCK_API_KEY         - Required Bearer token (default: none)
//	MOCK_FRAMES_PER_WRITE - SSE frames batched per write (default: 1)
//
// Prometheus metrics are served on /metrics.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/anschmieg/gpt-cli/pkg/mockserver"
	"github.com/anschmieg/gpt-cli/pkg/observability"
)

func main() {
	_ = godotenv.Load()

	port := os.Getenv("MOCK_PORT")
	if port == "" {
		port = "8086"
	}

	opts := mockserver.Options{APIKey: os.Getenv("MOCK_API_KEY")}
	if v := os.Getenv("MOCK_FRAMES_PER_WRITE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			slog.Error("invalid MOCK_FRAMES_PER_WRITE", "value", v, "error", err)
			os.Exit(1)
		}
		opts.FramesPerWrite = n
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/", observability.MetricsMiddleware(mockserver.New(opts)))

	srv := &http.Server{Addr: ":" + port, Handler: mux}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		slog.Info("mock backend starting", "port", port, "auth", opts.APIKey != "")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("mock backend failed", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("mock backend shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	srv.Shutdown(shutdownCtx)
}
