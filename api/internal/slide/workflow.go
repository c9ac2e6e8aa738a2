package slide

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"pitch-slides/api/internal/apperr"
	"pitch-slides/api/internal/llm"
	"pitch-slides/api/internal/logger"
	"pitch-slides/api/internal/util"
)

// Option: черновой эскиз одного из трёх стилей.
type Option struct {
	ID      int
	Concept Style
	Image   llm.Image
}

// Slide: картинка + текстовая сводка.
type Slide struct {
	Image        llm.Image
	Description  string
	IsRefinement bool
}

func (s Slide) Base64() string { return base64.StdEncoding.EncodeToString(s.Image.Data) }

func (s Slide) DataURL() string { return util.MakeDataURL(s.Image.MIMEType, s.Base64()) }

func (o Option) DataURL() string {
	return util.MakeDataURL(o.Image.MIMEType, base64.StdEncoding.EncodeToString(o.Image.Data))
}

// Workflow проводит четыре стадии: эскизы, финальный слайд, подсказки, доработка.
// Состояния между вызовами нет: идея и стиль приходят каждый раз.
type Workflow struct {
	Text     llm.TextEngine
	Image    llm.ImageEngine
	Parser   StructuredTextParser
	Fallback StructuredTextParser
	Log      *slog.Logger
}

func NewWorkflow(text llm.TextEngine, image llm.ImageEngine, log *slog.Logger) *Workflow {
	if log == nil {
		log = slog.Default()
	}
	return &Workflow{
		Text:     text,
		Image:    image,
		Parser:   MarkerParser{},
		Fallback: FallbackSynthesizer{},
		Log:      log,
	}
}

func validateIdea(idea string) (string, error) {
	idea = strings.TrimSpace(idea)
	if idea == "" {
		return "", apperr.Validation("prompt is required")
	}
	return idea, nil
}

// GenerateOptions: три параллельных вызова картинок, по одному на стиль.
// Порядок результата = порядок Styles; первая ошибка отменяет остальные.
func (w *Workflow) GenerateOptions(ctx context.Context, idea string) ([]Option, error) {
	idea, err := validateIdea(idea)
	if err != nil {
		return nil, err
	}
	log := logger.FromContext(ctx, w.Log).With("stage", "generate_options")
	start := time.Now()

	out := make([]Option, len(Styles))
	eg, egCtx := errgroup.WithContext(ctx)
	for i, st := range Styles {
		eg.Go(func() error {
			img, err := w.Image.GenerateImage(egCtx, roughSketchPrompt(idea, st))
			if err != nil {
				return fmt.Errorf("option %d (%s): %w", i, st, err)
			}
			out[i] = Option{ID: i, Concept: st, Image: img}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		log.Error("stage failed", "err", err, "duration", time.Since(start).Round(time.Millisecond))
		return nil, err
	}
	log.Info("stage done", "duration", time.Since(start).Round(time.Millisecond))
	return out, nil
}

// GenerateFinal: текст (концепт + раскладка), затем картинка по этому тексту.
func (w *Workflow) GenerateFinal(ctx context.Context, idea string, styleIndex int) (Slide, error) {
	idea, err := validateIdea(idea)
	if err != nil {
		return Slide{}, err
	}
	style, err := StyleAt(styleIndex)
	if err != nil {
		return Slide{}, err
	}
	return w.render(ctx, "generate_final", finalTextPrompt(idea, style), SummaryInput{Idea: idea, Style: style})
}

// RefineSlide: как GenerateFinal, но с инструкцией; результат помечен как доработка.
func (w *Workflow) RefineSlide(ctx context.Context, idea string, styleIndex int, instruction string, isCustom bool) (Slide, error) {
	idea, err := validateIdea(idea)
	if err != nil {
		return Slide{}, err
	}
	style, err := StyleAt(styleIndex)
	if err != nil {
		return Slide{}, err
	}
	instruction = strings.TrimSpace(instruction)
	if instruction == "" {
		return Slide{}, apperr.Validation("refinementInstruction is required")
	}
	in := SummaryInput{Idea: idea, Style: style, Instruction: instruction, Refinement: true}
	s, err := w.render(ctx, "refine_slide", refineTextPrompt(idea, style, instruction, isCustom), in)
	if err != nil {
		return Slide{}, err
	}
	s.IsRefinement = true
	return s, nil
}

// GetRefineOptions возвращает ровно три подсказки. Кривой JSON от модели не ошибка, берём запасные.
func (w *Workflow) GetRefineOptions(ctx context.Context, idea string, styleIndex int) ([]string, error) {
	idea, err := validateIdea(idea)
	if err != nil {
		return nil, err
	}
	style, err := StyleAt(styleIndex)
	if err != nil {
		return nil, err
	}
	log := logger.FromContext(ctx, w.Log).With("stage", "get_refine_options")
	start := time.Now()

	text, err := w.Text.GenerateText(ctx, suggestionsPrompt(idea, style))
	if err != nil {
		log.Error("stage failed", "err", err)
		return nil, err
	}
	list, ok := w.Parser.Suggestions(text)
	if !ok {
		log.Debug("suggestions parse fallback", "raw", util.TruncateForLog(text, 200))
		list, _ = w.Fallback.Suggestions(text)
	}
	log.Info("stage done", "duration", time.Since(start).Round(time.Millisecond))
	return NormalizeSuggestions(list), nil
}

func (w *Workflow) render(ctx context.Context, stage, textPrompt string, in SummaryInput) (Slide, error) {
	log := logger.FromContext(ctx, w.Log).With("stage", stage, "style", in.Style)
	start := time.Now()

	text, err := w.Text.GenerateText(ctx, textPrompt)
	if err != nil {
		log.Error("text step failed", "err", err)
		return Slide{}, err
	}
	img, err := w.Image.GenerateImage(ctx, imagePrompt(text))
	if err != nil {
		log.Error("image step failed", "err", err)
		return Slide{}, err
	}

	summary, ok := w.Parser.ConceptSummary(text, in)
	if !ok {
		log.Debug("concept summary fallback", "raw", util.TruncateForLog(text, 200))
		summary, _ = w.Fallback.ConceptSummary(text, in)
	}
	log.Info("stage done", "duration", time.Since(start).Round(time.Millisecond))
	return Slide{Image: img, Description: summary}, nil
}
