package handle

import "net/http"

func (h *Handle) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/generate-options", h.GenerateOptions)
	mux.HandleFunc("POST /api/generate-final", h.GenerateFinal)
	mux.HandleFunc("POST /api/get-refine-options", h.GetRefineOptions)
	mux.HandleFunc("POST /api/refine-slide", h.RefineSlide)
	mux.HandleFunc("POST /api/upload", h.Upload)
	mux.HandleFunc("GET /api/uploads", h.ListUploads)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
}
