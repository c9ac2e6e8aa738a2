package handle

import (
	"net/http"
	"strconv"
	"time"

	"pitch-slides/api/internal/apperr"
)

type uploadResponse struct {
	Key        string `json:"key"`
	FileName   string `json:"fileName"`
	FileURL    string `json:"fileUrl"`
	Bucket     string `json:"bucket"`
	UploadedAt string `json:"uploadedAt"`
}

func (h *Handle) Upload(w http.ResponseWriter, r *http.Request) {
	var req uploadRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}
	ctx, cancel := h.withTimeout(r)
	defer cancel()

	res, err := h.up.Upload(ctx, req.ImageBase64, req.Prompt)
	if err != nil {
		h.fail(w, r, msgUpload, err)
		return
	}
	writeJSON(w, http.StatusOK, uploadResponse{
		Key:        res.Key,
		FileName:   res.FileName,
		FileURL:    res.FileURL,
		Bucket:     res.Bucket,
		UploadedAt: res.UploadedAt.UTC().Format(time.RFC3339Nano),
	})
}

// ListUploads: GET /api/uploads?limit=N, последние записи журнала.
func (h *Handle) ListUploads(w http.ResponseWriter, r *http.Request) {
	if h.uploads == nil {
		h.fail(w, r, "upload ledger is not configured", apperr.ErrNotConfigured)
		return
	}
	limit := 20
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			h.fail(w, r, "", apperr.Validation("limit must be a positive integer"))
			return
		}
		limit = n
	}
	ctx, cancel := h.withTimeout(r)
	defer cancel()

	recs, err := h.uploads.Recent(ctx, limit)
	if err != nil {
		h.fail(w, r, "Failed to list uploads", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"uploads": recs})
}
