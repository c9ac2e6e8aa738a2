package handle

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"pitch-slides/api/internal/apperr"
	"pitch-slides/api/internal/logger"
	"pitch-slides/api/internal/relay"
	"pitch-slides/api/internal/slide"
	"pitch-slides/api/internal/store"
)

// Workflow: четыре стадии генерации (slide.Workflow).
type Workflow interface {
	GenerateOptions(ctx context.Context, idea string) ([]slide.Option, error)
	GenerateFinal(ctx context.Context, idea string, styleIndex int) (slide.Slide, error)
	GetRefineOptions(ctx context.Context, idea string, styleIndex int) ([]string, error)
	RefineSlide(ctx context.Context, idea string, styleIndex int, instruction string, isCustom bool) (slide.Slide, error)
}

type Uploader interface {
	Upload(ctx context.Context, imageData, idea string) (relay.Result, error)
}

// UploadLister: журнал загрузок; nil, если БД не настроена.
type UploadLister interface {
	Recent(ctx context.Context, limit int) ([]store.UploadRecord, error)
}

type Handle struct {
	wf      Workflow
	up      Uploader
	uploads UploadLister

	Timeout time.Duration
	MaxBody int64
	Secrets []string
	Log     *slog.Logger
}

func New(wf Workflow, up Uploader, uploads UploadLister, log *slog.Logger) *Handle {
	if log == nil {
		log = slog.Default()
	}
	return &Handle{
		wf:      wf,
		up:      up,
		uploads: uploads,
		Timeout: 180 * time.Second,
		MaxBody: 20 << 20,
		Log:     log,
	}
}

func (h *Handle) withTimeout(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), h.Timeout)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// fail отвечает ошибкой: 5xx → msg + details апстрима, 4xx → текст самой ошибки.
func (h *Handle) fail(w http.ResponseWriter, r *http.Request, msg string, err error) {
	code := apperr.HTTPStatus(err)
	log := logger.FromContext(r.Context(), h.Log).With("path", r.URL.Path, "status", code)

	var ae *apperr.Error
	isApp := errors.As(err, &ae)
	if code >= http.StatusInternalServerError && code != http.StatusServiceUnavailable {
		if isApp && ae.Service != "" {
			log = log.With("upstream", ae.Service, "upstream_status", ae.Status)
		}
		log.Error(msg, "err", err)
		writeJSON(w, code, errorBody{Error: msg, Details: apperr.Details(err, h.Secrets...)})
		return
	}

	log.Warn("request rejected", "err", err)
	text := msg
	if isApp && (ae.Code == apperr.CodeValidation || text == "") {
		text = ae.Message
	}
	writeJSON(w, code, errorBody{Error: text})
}
