package llm

import (
	"context"
	"fmt"
)

// TextEngine: генерация текста по промпту (gemini, openai).
type TextEngine interface {
	Name() string
	GetModel() string
	GenerateText(ctx context.Context, prompt string) (string, error)
}

// Image: сгенерированная картинка.
type Image struct {
	Data     []byte
	MIMEType string
}

type ImageEngine interface {
	Name() string
	GenerateImage(ctx context.Context, prompt string) (Image, error)
}

type Engines struct {
	Gemini TextEngine
	OpenAI TextEngine
}

func (e *Engines) GetEngine(name string) (TextEngine, error) {
	var eng TextEngine
	switch name {
	case "gemini", "":
		eng = e.Gemini
	case "gpt", "openai":
		eng = e.OpenAI
	default:
		return nil, fmt.Errorf("unknown text provider %q; use 'gemini' or 'openai'", name)
	}
	if eng == nil {
		return nil, fmt.Errorf("text provider %q is not configured", name)
	}
	return eng, nil
}
