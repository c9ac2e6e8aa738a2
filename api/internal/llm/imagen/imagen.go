package imagen

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"pitch-slides/api/internal/apperr"
	"pitch-slides/api/internal/llm"
	"pitch-slides/api/internal/util"
)

// imageModels: то, что нужно от genai.Models; в тестах подменяется.
type imageModels interface {
	GenerateImages(ctx context.Context, model string, prompt string, config *genai.GenerateImagesConfig) (*genai.GenerateImagesResponse, error)
}

type Engine struct {
	Model       string
	AspectRatio string
	models      imageModels
}

// New создаёт клиента Gemini API (predict: instances[].prompt, parameters.sampleCount/aspectRatio).
func New(ctx context.Context, apiKey, model, aspectRatio, baseURL string) (*Engine, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("GEMINI_API_KEY is empty")
	}
	cc := &genai.ClientConfig{
		APIKey:  strings.TrimSpace(apiKey),
		Backend: genai.BackendGeminiAPI,
	}
	if b := strings.TrimSpace(baseURL); b != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: b}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("imagen: new client: %w", err)
	}
	return newWithModels(client.Models, model, aspectRatio), nil
}

func newWithModels(m imageModels, model, aspectRatio string) *Engine {
	return &Engine{
		Model:       strings.TrimSpace(model),
		AspectRatio: strings.TrimSpace(aspectRatio),
		models:      m,
	}
}

func (e *Engine) Name() string { return "imagen" }

func (e *Engine) GenerateImage(ctx context.Context, prompt string) (llm.Image, error) {
	resp, err := e.models.GenerateImages(ctx, e.Model, prompt, &genai.GenerateImagesConfig{
		NumberOfImages:   1,
		AspectRatio:      e.AspectRatio,
		IncludeRAIReason: true,
	})
	if err != nil {
		return llm.Image{}, upstreamErr(err)
	}
	if resp == nil || len(resp.GeneratedImages) == 0 {
		return llm.Image{}, apperr.Upstream("image", 0, "", errors.New("imagen: no images returned"))
	}
	gi := resp.GeneratedImages[0]
	if gi.Image == nil || len(gi.Image.ImageBytes) == 0 {
		reason := "empty image"
		if gi.RAIFilteredReason != "" {
			reason = "filtered: " + gi.RAIFilteredReason
		}
		return llm.Image{}, apperr.Upstream("image", 0, reason, errors.New("imagen: "+reason))
	}
	return llm.Image{
		Data:     gi.Image.ImageBytes,
		MIMEType: util.PickMIME(gi.Image.MIMEType, "", gi.Image.ImageBytes),
	}, nil
}

func upstreamErr(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		body := apiErr.Message
		if apiErr.Status != "" {
			body = apiErr.Status + ": " + body
		}
		return apperr.Upstream("image", apiErr.Code, body, err)
	}
	return apperr.Upstream("image", 0, "", err)
}
