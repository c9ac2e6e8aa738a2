package handle

import (
	"net/http"
)

const (
	msgOptions = "Failed to generate slide options"
	msgFinal   = "Failed to generate final slide"
	msgSuggest = "Failed to generate refinement suggestions"
	msgRefine  = "Failed to refine slide"
	msgUpload  = "Failed to upload image"
)

type optionDTO struct {
	ID      int    `json:"id"`
	Concept string `json:"concept"`
	Image   string `json:"image"`
}

type slideResponse struct {
	Image        string `json:"image"`
	ImageBase64  string `json:"imageBase64"`
	Description  string `json:"description"`
	IsRefinement bool   `json:"isRefinement,omitempty"`
}

func (h *Handle) GenerateOptions(w http.ResponseWriter, r *http.Request) {
	var req promptRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}
	ctx, cancel := h.withTimeout(r)
	defer cancel()

	opts, err := h.wf.GenerateOptions(ctx, req.Prompt)
	if err != nil {
		h.fail(w, r, msgOptions, err)
		return
	}
	out := make([]optionDTO, len(opts))
	for i, o := range opts {
		out[i] = optionDTO{ID: o.ID, Concept: o.Concept.String(), Image: o.DataURL()}
	}
	writeJSON(w, http.StatusOK, map[string]any{"options": out})
}

func (h *Handle) GenerateFinal(w http.ResponseWriter, r *http.Request) {
	var req styleRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}
	ctx, cancel := h.withTimeout(r)
	defer cancel()

	s, err := h.wf.GenerateFinal(ctx, req.Prompt, *req.SelectedOption)
	if err != nil {
		h.fail(w, r, msgFinal, err)
		return
	}
	writeJSON(w, http.StatusOK, slideResponse{
		Image:       s.DataURL(),
		ImageBase64: s.Base64(),
		Description: s.Description,
	})
}

func (h *Handle) GetRefineOptions(w http.ResponseWriter, r *http.Request) {
	var req styleRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}
	ctx, cancel := h.withTimeout(r)
	defer cancel()

	list, err := h.wf.GetRefineOptions(ctx, req.Prompt, *req.SelectedOption)
	if err != nil {
		h.fail(w, r, msgSuggest, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"suggestions": list})
}

func (h *Handle) RefineSlide(w http.ResponseWriter, r *http.Request) {
	var req refineRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}
	ctx, cancel := h.withTimeout(r)
	defer cancel()

	s, err := h.wf.RefineSlide(ctx, req.Prompt, *req.SelectedOption, req.RefinementInstruction, req.IsCustom)
	if err != nil {
		h.fail(w, r, msgRefine, err)
		return
	}
	writeJSON(w, http.StatusOK, slideResponse{
		Image:        s.DataURL(),
		ImageBase64:  s.Base64(),
		Description:  s.Description,
		IsRefinement: true,
	})
}
