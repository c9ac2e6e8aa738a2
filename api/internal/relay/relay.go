package relay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"pitch-slides/api/internal/apperr"
	"pitch-slides/api/internal/logger"
	"pitch-slides/api/internal/storage"
	"pitch-slides/api/internal/store"
	"pitch-slides/api/internal/util"
)

type ObjectStore interface {
	Put(ctx context.Context, key, contentType string, data []byte) (storage.Object, error)
}

// Recorder: журнал загрузок (postgres). Необязателен.
type Recorder interface {
	Save(ctx context.Context, rec store.UploadRecord) error
}

type Result struct {
	Key        string
	FileName   string
	FileURL    string
	Bucket     string
	UploadedAt time.Time
}

type Relay struct {
	Store    ObjectStore
	Recorder Recorder
	Log      *slog.Logger
	Now      func() time.Time
}

func New(st ObjectStore, rec Recorder, log *slog.Logger) *Relay {
	if log == nil {
		log = slog.Default()
	}
	return &Relay{Store: st, Recorder: rec, Log: log, Now: time.Now}
}

// ObjectKey: slides/<slug>/<epoch-ms>.png
func ObjectKey(idea string, at time.Time) (key, fileName string) {
	fileName = strconv.FormatInt(at.UnixMilli(), 10) + ".png"
	return "slides/" + Slugify(idea) + "/" + fileName, fileName
}

// Upload снимает data:-префикс, декодирует base64 и кладёт картинку в хранилище.
func (r *Relay) Upload(ctx context.Context, imageData, idea string) (Result, error) {
	if strings.TrimSpace(util.StripDataURL(imageData)) == "" {
		return Result{}, apperr.Validation("imageBase64 is required")
	}
	img, _, err := util.DecodeBase64MaybeDataURL(imageData)
	if err != nil {
		if errors.Is(err, util.ErrEmptyImage) {
			return Result{}, apperr.Validation("imageBase64 is required")
		}
		return Result{}, apperr.Validation("imageBase64 is not valid base64")
	}
	if len(img) == 0 {
		return Result{}, apperr.Validation("imageBase64 is required")
	}

	now := r.Now().UTC()
	key, fileName := ObjectKey(idea, now)
	log := logger.FromContext(ctx, r.Log).With("stage", "upload", "key", key)

	obj, err := r.Store.Put(ctx, key, "image/png", img)
	if err != nil {
		log.Error("storage put failed", "err", err)
		return Result{}, fmt.Errorf("upload %s: %w", key, err)
	}

	res := Result{
		Key:        obj.Key,
		FileName:   fileName,
		FileURL:    obj.URL,
		Bucket:     obj.Bucket,
		UploadedAt: now,
	}
	log.Info("uploaded", "bytes", len(img), "url", res.FileURL)

	if r.Recorder != nil {
		// объект уже в хранилище: ошибку журнала только логируем
		recKey := res.Key
		if recKey == "" {
			recKey = key
		}
		rec := store.UploadRecord{
			ObjectKey:  recKey,
			Bucket:     res.Bucket,
			FileURL:    res.FileURL,
			Idea:       idea,
			SizeBytes:  len(img),
			UploadedAt: now,
		}
		if err := r.Recorder.Save(ctx, rec); err != nil {
			log.Warn("upload ledger save failed", "err", err)
		}
	}
	return res, nil
}
