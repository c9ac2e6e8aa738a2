package main

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"log"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"regexp"
	"strconv"
	"strings"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"pitch-slides/api/internal/app"
	"pitch-slides/api/internal/config"
	"pitch-slides/api/internal/httpserver"
	"pitch-slides/api/internal/logger"
	"pitch-slides/api/internal/telegram"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	if strings.TrimSpace(cfg.TelegramBotToken) == "" {
		log.Fatal("missing env TELEGRAM_BOT_TOKEN")
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

	// --- Telegram bot ---
	bot, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		lg.Error("telegram auth failed", "err", err)
		os.Exit(1)
	}
	bot.Debug = false

	r := telegram.NewRouter(bot, deps.Engines, deps.Image, deps.Relay, lg.With("component", "telegram"))
	r.Timeout = cfg.RequestTimeout

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	// --- Choose mode: Webhook vs Polling ---
	if webhookURL := strings.TrimSpace(cfg.WebhookURL); webhookURL != "" {
		err = startWebhookMode(ctx, cfg, bot, r, mux, webhookURL, lg)
	} else {
		err = startPollingMode(ctx, cfg, bot, r, mux, lg)
	}
	if err != nil {
		lg.Error("bot stopped with error", "err", err)
		os.Exit(1)
	}
}

// ---------------- Modes -----------------

func startWebhookMode(ctx context.Context, cfg *config.Config, bot *tgbotapi.BotAPI, r *telegram.Router, mux *http.ServeMux, baseURL string, lg *slog.Logger) error {
	// секретный путь вебхука
	path := "/webhook/" + shortHash(bot.Token)
	public := strings.TrimRight(baseURL, "/") + path

	wh, err := tgbotapi.NewWebhook(public)
	if err != nil {
		return err
	}
	wh.DropPendingUpdates = true
	if _, err := bot.Request(wh); err != nil {
		return err
	}

	// апдейты обрабатываем по одному, как и в polling
	updates := make(chan tgbotapi.Update, bot.Buffer)
	mux.HandleFunc("POST "+path, webhookHandler(ctx, bot.HandleUpdate, updates))
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case upd := <-updates:
				r.HandleUpdate(upd)
			}
		}
	}()

	srv := httpserver.New(cfg.Addr(), httpserver.Chain(mux, httpserver.Recover(lg)), 30*time.Second, lg)
	srv.ShutdownTimeout = cfg.ShutdownTimeout
	lg.Info("webhook mode", "path", path, "addr", cfg.Addr())
	return srv.Run(ctx)
}

// webhookHandler кладёт апдейт в очередь; после отмены ctx не блокируется.
func webhookHandler(ctx context.Context, decode func(*http.Request) (*tgbotapi.Update, error), updates chan<- tgbotapi.Update) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		upd, err := decode(req)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		select {
		case updates <- *upd:
		case <-ctx.Done():
			http.Error(w, "shutting down", http.StatusServiceUnavailable)
		case <-req.Context().Done():
		}
	}
}

func startPollingMode(ctx context.Context, cfg *config.Config, bot *tgbotapi.BotAPI, r *telegram.Router, mux *http.ServeMux, lg *slog.Logger) error {
	// webhook мог остаться от прошлого запуска: в polling он мешает getUpdates
	if _, err := bot.Request(tgbotapi.DeleteWebhookConfig{}); err != nil {
		lg.Warn("delete webhook failed", "err", err)
	}

	// healthz-сервер, хотя для polling он не обязателен
	srv := httpserver.New(cfg.Addr(), mux, 30*time.Second, lg)
	srv.ShutdownTimeout = cfg.ShutdownTimeout
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Run(ctx) }()

	lg.Info("polling mode", "bot", bot.Self.UserName)
	runPolling(ctx, bot, r.HandleUpdate, lg)
	return <-errCh
}

// ---------------- Polling loop -----------------

var reRetryAfter = regexp.MustCompile(`(?i)retry after\s+(\d+)`)

func retryDelayFromError(err error) time.Duration {
	if err == nil {
		return 0
	}
	s := strings.ToLower(err.Error())
	if strings.Contains(s, "too many requests") { // HTTP 429 от Telegram
		if m := reRetryAfter.FindStringSubmatch(s); len(m) == 2 {
			if n, _ := strconv.Atoi(m[1]); n > 0 {
				return time.Duration(n) * time.Second
			}
		}
		return 3 * time.Second
	}
	var ne net.Error
	if errors.As(err, &ne) {
		if ne.Timeout() {
			return 2 * time.Second
		}
	}
	return 1 * time.Second
}

// Updater: часть *tgbotapi.BotAPI для long polling.
type Updater interface {
	GetUpdates(config tgbotapi.UpdateConfig) ([]tgbotapi.Update, error)
}

func runPolling(ctx context.Context, bot Updater, handle func(tgbotapi.Update), lg *slog.Logger) {
	offset := 0
	baseDelay := 1 * time.Second
	maxDelay := 15 * time.Second

	for {
		select {
		case <-ctx.Done():
			lg.Info("polling: context cancelled")
			return
		default:
		}

		u := tgbotapi.NewUpdate(offset)
		u.Timeout = 30 // long polling timeout (sec)

		updates, err := bot.GetUpdates(u)
		if err != nil {
			d := retryDelayFromError(err)
			if d < baseDelay {
				d = baseDelay
			}
			if d > maxDelay {
				d = maxDelay
			}
			lg.Warn("polling error", "err", err, "retry_in", d)
			sleep(ctx, d)
			continue
		}

		for _, upd := range updates {
			if upd.UpdateID >= offset {
				offset = upd.UpdateID + 1
			}
			handle(upd)
		}

		if len(updates) == 0 {
			sleep(ctx, 200*time.Millisecond)
		}
	}
}

func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

// ---------------- Helpers -----------------

func shortHash(s string) string {
	h := sha256.Sum256([]byte(s))
	return hex.EncodeToString(h[:])[:16]
}
