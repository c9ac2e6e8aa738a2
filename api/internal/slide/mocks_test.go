package slide

import (
	"context"
	"strings"
	"sync"
	"time"

	"pitch-slides/api/internal/llm"
)

// --- Mocks ---

type fakeText struct {
	mu      sync.Mutex
	out     string
	err     error
	prompts []string
}

func (f *fakeText) Name() string     { return "fake" }
func (f *fakeText) GetModel() string { return "fake-model" }

func (f *fakeText) GenerateText(ctx context.Context, prompt string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, prompt)
	return f.out, f.err
}

func (f *fakeText) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.prompts)
}

// fakeImage отвечает картинкой, байты которой = имя стиля из промпта (если нашли).
type fakeImage struct {
	mu      sync.Mutex
	delays  map[Style]time.Duration
	failOn  Style
	err     error
	prompts []string
}

func (f *fakeImage) Name() string { return "fake-image" }

func (f *fakeImage) GenerateImage(ctx context.Context, prompt string) (llm.Image, error) {
	f.mu.Lock()
	f.prompts = append(f.prompts, prompt)
	f.mu.Unlock()

	var style Style
	for _, s := range Styles {
		if strings.Contains(prompt, string(s)) {
			style = s
			break
		}
	}
	if d := f.delays[style]; d > 0 {
		select {
		case <-time.After(d):
		case <-ctx.Done():
			return llm.Image{}, ctx.Err()
		}
	}
	if f.err != nil && (f.failOn == "" || f.failOn == style) {
		return llm.Image{}, f.err
	}
	return llm.Image{Data: []byte("img:" + string(style)), MIMEType: "image/png"}, nil
}

func (f *fakeImage) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.prompts)
}
