package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"pitch-slides/api/internal/apperr"
)

type Engine struct {
	APIKey  string
	Model   string
	BaseURL string // пусто: публичный endpoint Google
}

func New(apiKey, model, baseURL string) *Engine {
	return &Engine{
		APIKey:  strings.TrimSpace(apiKey),
		Model:   strings.TrimSpace(model),
		BaseURL: strings.TrimSpace(baseURL),
	}
}

func (e *Engine) Name() string     { return "gemini" }
func (e *Engine) GetModel() string { return e.Model }

func (e *Engine) SetModel(m string) {
	if m = strings.TrimSpace(m); m != "" {
		e.Model = m
	}
}

func (e *Engine) clientOptions() []option.ClientOption {
	opts := []option.ClientOption{option.WithAPIKey(e.APIKey)}
	if e.BaseURL != "" {
		opts = append(opts, option.WithEndpoint(e.BaseURL))
	}
	return opts
}

// GenerateText: один вызов generateContent с текстовым промптом (role=user, одна part).
func (e *Engine) GenerateText(ctx context.Context, prompt string) (string, error) {
	if e.APIKey == "" {
		return "", errors.New("GEMINI_API_KEY is empty")
	}
	cl, err := genai.NewClient(ctx, e.clientOptions()...)
	if err != nil {
		return "", fmt.Errorf("gemini: new client: %w", err)
	}
	defer cl.Close()

	m := cl.GenerativeModel(e.Model)
	if m == nil {
		return "", fmt.Errorf("gemini: model is nil")
	}

	resp, err := m.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", upstreamErr(err)
	}
	txt := firstText(resp)
	if strings.TrimSpace(txt) == "" {
		return "", apperr.Upstream("text", 0, "", errors.New("gemini: empty response"))
	}
	return txt, nil
}

func upstreamErr(err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		body := gerr.Body
		if body == "" {
			body = gerr.Message
		}
		return apperr.Upstream("text", gerr.Code, body, err)
	}
	return apperr.Upstream("text", 0, "", err)
}

func firstText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	for _, c := range resp.Candidates {
		if c.Content == nil {
			continue
		}
		var b strings.Builder
		for _, p := range c.Content.Parts {
			if t, ok := p.(genai.Text); ok {
				b.WriteString(string(t))
			}
		}
		if b.Len() > 0 {
			return b.String()
		}
	}
	return ""
}
