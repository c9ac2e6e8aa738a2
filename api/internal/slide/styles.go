package slide

import (
	"fmt"

	"pitch-slides/api/internal/apperr"
)

type Style string

const (
	StyleMinimalist Style = "minimalist/bold-typography"
	StyleDataViz    Style = "data-visualization-focus"
	StyleIconHeavy  Style = "icon-heavy"
)

// Styles: порядок фиксирован, индекс = selectedOption.
var Styles = [...]Style{StyleMinimalist, StyleDataViz, StyleIconHeavy}

func StyleAt(i int) (Style, error) {
	if i < 0 || i >= len(Styles) {
		return "", apperr.Validation(fmt.Sprintf("selectedOption must be between 0 and %d", len(Styles)-1))
	}
	return Styles[i], nil
}

func (s Style) String() string { return string(s) }
