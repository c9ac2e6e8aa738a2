package openai

import (
	"context"
	"errors"
	"strings"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"pitch-slides/api/internal/apperr"
)

type Engine struct {
	Model string
	Opts  []option.RequestOption
}

func New(apiKey, model, baseURL string) *Engine {
	opts := []option.RequestOption{
		option.WithAPIKey(strings.TrimSpace(apiKey)),
		// ретраев нет: ошибка апстрима сразу уходит клиенту
		option.WithMaxRetries(0),
	}
	if b := strings.TrimSpace(baseURL); b != "" {
		opts = append(opts, option.WithBaseURL(b))
	}
	return &Engine{Model: strings.TrimSpace(model), Opts: opts}
}

func (e *Engine) Name() string     { return "gpt" }
func (e *Engine) GetModel() string { return e.Model }

func (e *Engine) SetModel(m string) {
	if m = strings.TrimSpace(m); m != "" {
		e.Model = m
	}
}

func (e *Engine) GenerateText(ctx context.Context, prompt string) (string, error) {
	client := openai.NewClient(e.Opts...)

	resp, err := client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(e.Model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
	})
	if err != nil {
		return "", upstreamErr(err)
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", apperr.Upstream("text", 0, "", errors.New("openai: empty choices"))
	}
	return resp.Choices[0].Message.Content, nil
}

func upstreamErr(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		body := apiErr.RawJSON()
		if body == "" {
			body = apiErr.Message
		}
		return apperr.Upstream("text", apiErr.StatusCode, body, err)
	}
	return apperr.Upstream("text", 0, "", err)
}
