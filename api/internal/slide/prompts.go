package slide

import "fmt"

const (
	conceptMarker = "SLIDE CONCEPT:"
	layoutMarker  = "VISUAL LAYOUT:"
)

const roughSketchTmpl = `Rough concept sketch of a single pitch deck slide for this business idea: "%s".
Visual concept: %s.
Loose wireframe look: simple shapes, placeholder headline and text blocks, muted colors, plain white background, widescreen 16:9 layout. No photorealism.`

const finalTextTmpl = `You are an expert pitch deck designer. Design one investor pitch slide for this business idea: "%s".
Visual style: %s.

Respond in exactly this format:

SLIDE CONCEPT:
Headline: <short, punchy headline>
Style: %s
• <key point 1>
• <key point 2>
• <key point 3>

VISUAL LAYOUT:
<detailed description of the layout, typography, color palette, imagery and where each element sits on the slide>`

const refineTextTmpl = `You are an expert pitch deck designer. You previously designed an investor pitch slide for this business idea: "%s".
Visual style: %s.

%s

Redesign the slide with this change applied. Respond in exactly this format:

SLIDE CONCEPT:
Headline: <short, punchy headline>
Style: %s
Refinement: <the change that was applied>
• <key point 1>
• <key point 2>
• <key point 3>

VISUAL LAYOUT:
<detailed description of the updated layout, typography, color palette, imagery and where each element sits on the slide>`

const suggestionsTmpl = `You are reviewing an investor pitch slide for this business idea: "%s".
The slide uses the "%s" visual style.

Suggest exactly 3 specific, actionable improvements to the slide design.
Respond ONLY with a JSON array of 3 short strings, for example:
["Make the headline larger", "Add a market size chart", "Use a darker background"]`

// investor-ready модификаторы для финальной картинки
const finalImageSuffix = `

Render this as a polished, investor-ready pitch deck slide. Professional presentation design, crisp legible typography, balanced composition, consistent modern color palette, high resolution, widescreen 16:9.`

func roughSketchPrompt(idea string, style Style) string {
	return fmt.Sprintf(roughSketchTmpl, idea, style)
}

func finalTextPrompt(idea string, style Style) string {
	return fmt.Sprintf(finalTextTmpl, idea, style, style)
}

func refineTextPrompt(idea string, style Style, instruction string, isCustom bool) string {
	change := fmt.Sprintf("Apply this suggested improvement: %q", instruction)
	if isCustom {
		change = fmt.Sprintf("The founder asked for this specific change, follow it closely: %q", instruction)
	}
	return fmt.Sprintf(refineTextTmpl, idea, style, change, style)
}

func suggestionsPrompt(idea string, style Style) string {
	return fmt.Sprintf(suggestionsTmpl, idea, style)
}

// imagePrompt: полный текст описания + модификаторы качества.
func imagePrompt(description string) string {
	return description + finalImageSuffix
}
