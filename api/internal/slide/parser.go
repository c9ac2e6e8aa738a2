package slide

import (
	"strings"

	"pitch-slides/api/internal/util"
)

const (
	SuggestionCount = 3

	finalIdeaLimit   = 50
	refineIdeaLimit  = 40
	instructionLimit = 30
)

// SummaryInput: то, что нужно парсеру, чтобы собрать или дополнить сводку.
type SummaryInput struct {
	Idea        string
	Style       Style
	Instruction string
	Refinement  bool
}

// StructuredTextParser вытаскивает структуру из свободного текста модели.
// ok=false: парсер не справился, вызывающий берёт следующий.
type StructuredTextParser interface {
	ConceptSummary(text string, in SummaryInput) (summary string, ok bool)
	Suggestions(text string) (list []string, ok bool)
}

var fallbackSuggestions = []string{
	"Make the headline more impactful",
	"Add a data visualization or chart",
	"Simplify the layout and reduce text",
}

// fillers для добивки до трёх, по номеру пустого слота
var fillerSuggestions = []string{
	"Enhance the overall visual polish",
	"Improve color contrast for readability",
	"Tighten spacing between elements",
}

// ---------------- strict ----------------

// MarkerParser строгий. Блок от "SLIDE CONCEPT:" до первой пустой строки, JSON-массив для подсказок.
type MarkerParser struct{}

func (MarkerParser) ConceptSummary(text string, in SummaryInput) (string, bool) {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	idx := strings.Index(text, conceptMarker)
	if idx < 0 {
		return "", false
	}
	after := idx + len(conceptMarker)
	// пропускаем пустые строки сразу после маркера (и хвост "**" от жирного маркера)
	contentStart := after
	for contentStart < len(text) && strings.ContainsRune(" \t\n*", rune(text[contentStart])) {
		contentStart++
	}
	if contentStart >= len(text) {
		return "", false
	}
	end := len(text)
	if i := strings.Index(text[contentStart:], "\n\n"); i >= 0 {
		end = contentStart + i
	}
	block := strings.TrimSpace(strings.ReplaceAll(text[idx:end], "**", ""))
	if block == conceptMarker {
		return "", false
	}
	if in.Refinement {
		block = ensureRefinementLine(block, in.Instruction)
	}
	return block, true
}

func (MarkerParser) Suggestions(text string) ([]string, bool) {
	var list []string
	if err := util.ExtractJSONArray(text, &list); err != nil {
		return nil, false
	}
	return list, true
}

// ---------------- fallback ----------------

// FallbackSynthesizer всегда возвращает детерминированный результат.
type FallbackSynthesizer struct{}

func (FallbackSynthesizer) ConceptSummary(_ string, in SummaryInput) (string, bool) {
	limit := finalIdeaLimit
	if in.Refinement {
		limit = refineIdeaLimit
	}
	var b strings.Builder
	b.WriteString(conceptMarker)
	b.WriteString("\nHeadline: ")
	b.WriteString(strings.TrimSpace(util.TruncateRunes(strings.TrimSpace(in.Idea), limit)))
	b.WriteString("\nStyle: ")
	b.WriteString(string(in.Style))
	if in.Refinement {
		b.WriteString("\n")
		b.WriteString(refinementLine(in.Instruction))
	}
	b.WriteString("\n• Clear value proposition")
	b.WriteString("\n• Investor-focused visual hierarchy")
	b.WriteString("\n• Clean, professional layout")
	return b.String(), true
}

func (FallbackSynthesizer) Suggestions(string) ([]string, bool) {
	out := make([]string, len(fallbackSuggestions))
	copy(out, fallbackSuggestions)
	return out, true
}

// ---------------- helpers ----------------

// NormalizeSuggestions: trim, без пустых, ровно три (добивка филлерами или обрезка).
func NormalizeSuggestions(list []string) []string {
	out := make([]string, 0, SuggestionCount)
	for _, s := range list {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
		if len(out) == SuggestionCount {
			return out
		}
	}
	for i := len(out); i < SuggestionCount; i++ {
		out = append(out, fillerSuggestions[i])
	}
	return out
}

func refinementLine(instruction string) string {
	return "Refinement: " + strings.TrimSpace(util.TruncateRunes(strings.TrimSpace(instruction), instructionLimit))
}

// ensureRefinementLine вставляет строку Refinement перед первым пунктом списка, если модель её не дала.
func ensureRefinementLine(block, instruction string) string {
	lines := strings.Split(block, "\n")
	for _, l := range lines {
		if strings.HasPrefix(strings.TrimSpace(l), "Refinement:") {
			return block
		}
	}
	line := refinementLine(instruction)
	for i, l := range lines {
		if i > 0 && isBullet(l) {
			out := make([]string, 0, len(lines)+1)
			out = append(out, lines[:i]...)
			out = append(out, line)
			out = append(out, lines[i:]...)
			return strings.Join(out, "\n")
		}
	}
	return block + "\n" + line
}

func isBullet(l string) bool {
	l = strings.TrimSpace(l)
	return strings.HasPrefix(l, "•") || strings.HasPrefix(l, "- ") || strings.HasPrefix(l, "* ")
}
