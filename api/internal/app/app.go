// Package app собирает зависимости из конфига: движки, хранилище, журнал загрузок, лимитер.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver
	"github.com/redis/go-redis/v9"

	"pitch-slides/api/internal/config"
	"pitch-slides/api/internal/httpserver"
	"pitch-slides/api/internal/llm"
	"pitch-slides/api/internal/llm/gemini"
	"pitch-slides/api/internal/llm/imagen"
	"pitch-slides/api/internal/llm/openai"
	"pitch-slides/api/internal/relay"
	"pitch-slides/api/internal/storage"
	"pitch-slides/api/internal/store"
)

type Deps struct {
	Engines  *llm.Engines
	Text     llm.TextEngine
	Image    llm.ImageEngine
	Relay    *relay.Relay
	Uploads  *store.UploadRepo // nil без DATABASE_URL
	Limiter  httpserver.Limiter
	ClientIP httpserver.ClientIPFunc

	closers []func() error
}

func (d *Deps) Close() {
	for i := len(d.closers) - 1; i >= 0; i-- {
		_ = d.closers[i]()
	}
}

func Build(ctx context.Context, cfg *config.Config, log *slog.Logger) (*Deps, error) {
	d := &Deps{}

	d.Engines = &llm.Engines{Gemini: gemini.New(cfg.GeminiAPIKey, cfg.GeminiModel, cfg.GeminiBaseURL)}
	if cfg.OpenAIAPIKey != "" {
		d.Engines.OpenAI = openai.New(cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.OpenAIBaseURL)
	}
	text, err := d.Engines.GetEngine(cfg.TextProvider)
	if err != nil {
		return nil, err
	}
	d.Text = text

	img, err := imagen.New(ctx, cfg.GeminiAPIKey, cfg.ImageModel, cfg.AspectRatio, cfg.GeminiBaseURL)
	if err != nil {
		return nil, fmt.Errorf("image engine: %w", err)
	}
	d.Image = img

	var rec relay.Recorder
	if dsn := strings.TrimSpace(cfg.DatabaseURL); dsn != "" {
		db, err := OpenDB(ctx, dsn)
		if err != nil {
			d.Close()
			return nil, err
		}
		d.closers = append(d.closers, db.Close)
		log.Info("db connected", "dsn", SafeDSNSummary(dsn))

		repo := store.NewUploadRepo(db)
		if err := repo.EnsureSchema(ctx); err != nil {
			d.Close()
			return nil, fmt.Errorf("ensure schema: %w", err)
		}
		d.Uploads, rec = repo, repo
	}

	st := storage.New(cfg.StorageBaseURL, cfg.StorageToken, cfg.StorageBucket, cfg.StorageTimeout)
	d.Relay = relay.New(st, rec, log)

	trusted, err := httpserver.ParseTrustedProxies(cfg.TrustedProxies)
	if err != nil {
		d.Close()
		return nil, err
	}
	d.ClientIP = httpserver.ClientIP(trusted)

	if cfg.RateLimitRPS > 0 {
		if cfg.RedisURL != "" {
			opt, err := redis.ParseURL(cfg.RedisURL)
			if err != nil {
				d.Close()
				return nil, fmt.Errorf("redis url: %w", err)
			}
			client := redis.NewClient(opt)
			d.closers = append(d.closers, client.Close)
			if err := client.Ping(ctx).Err(); err != nil {
				log.Warn("redis ping failed, limiter will fail open", "err", err)
			}
			d.Limiter = httpserver.NewRedisLimiter(client, float64(cfg.RateLimitBurst), cfg.RateLimitRPS, time.Minute)
		} else {
			d.Limiter = httpserver.NewIPLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
		}
	}
	return d, nil
}

// OpenDB: postgres через pgx stdlib, с проверкой соединения.
func OpenDB(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql.Open: %w", err)
	}
	// connection pool tune (нагрузка небольшая: загрузки по кнопке)
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(1 * time.Hour)

	pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db.Ping: %w", err)
	}
	return db, nil
}

// SafeDSNSummary: host/port/db/user без пароля, для логов.
func SafeDSNSummary(dsn string) string {
	u, err := url.Parse(dsn)
	if err != nil {
		return "dsn: parse error"
	}
	user := u.User.Username()
	host := u.Host
	port := ""
	if h, p, err := net.SplitHostPort(u.Host); err == nil {
		host, port = h, p
	}
	db := strings.TrimPrefix(u.Path, "/")
	if port == "" {
		return fmt.Sprintf("host=%s db=%s user=%s", host, db, user)
	}
	return fmt.Sprintf("host=%s port=%s db=%s user=%s", host, port, db, user)
}
