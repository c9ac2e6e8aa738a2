package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pitch-slides/api/internal/app"
	"pitch-slides/api/internal/config"
	"pitch-slides/api/internal/handle"
	"pitch-slides/api/internal/httpserver"
	"pitch-slides/api/internal/logger"
	"pitch-slides/api/internal/slide"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	lg, closeLog, err := logger.New(cfg.LogLevel, cfg.LogFormat, cfg.LogFile)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = closeLog() }()
	slog.SetDefault(lg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps, err := app.Build(ctx, cfg, lg)
	if err != nil {
		lg.Error("startup failed", "err", err)
		os.Exit(1)
	}
	defer deps.Close()

	wf := slide.NewWorkflow(deps.Text, deps.Image, lg)

	var uploads handle.UploadLister
	if deps.Uploads != nil {
		uploads = deps.Uploads
	}
	h := handle.New(wf, deps.Relay, uploads, lg)
	h.Timeout = cfg.RequestTimeout
	h.MaxBody = cfg.MaxBodyBytes
	h.Secrets = cfg.Secrets()

	mux := http.NewServeMux()
	h.Register(mux)

	handler := httpserver.Chain(mux,
		httpserver.RequestID(),
		httpserver.AccessLog(lg),
		httpserver.Recover(lg),
		httpserver.RateLimit(deps.Limiter, deps.ClientIP, lg),
	)

	srv := httpserver.New(cfg.Addr(), handler, cfg.RequestTimeout+30*time.Second, lg)
	srv.ShutdownTimeout = cfg.ShutdownTimeout

	lg.Info("slide-server starting",
		"addr", cfg.Addr(),
		"text_engine", deps.Text.Name(),
		"text_model", deps.Text.GetModel(),
		"image_model", cfg.ImageModel,
		"ledger", deps.Uploads != nil,
	)
	if err := srv.Run(ctx); err != nil {
		lg.Error("http server failed", "err", err)
		os.Exit(1)
	}
	lg.Info("slide-server stopped")
}
