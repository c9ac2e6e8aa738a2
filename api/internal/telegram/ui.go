package telegram

import (
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"pitch-slides/api/internal/slide"
	"pitch-slides/api/internal/util"
)

const (
	cbStyle  = "style:"
	cbSugg   = "sugg:"
	cbRefine = "refine"
	cbCustom = "custom"
	cbUpload = "upload"

	captionMax = 1000
)

// Выбор одного из трёх эскизов
func makeStyleKeyboard() tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(slide.Styles))
	for i, st := range slide.Styles {
		btn := tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("%d. %s", i+1, st), cbStyle+strconv.Itoa(i))
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(btn))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// Под готовым слайдом: доработать или сохранить
func makeSlideKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("✏️ Доработать", cbRefine),
		tgbotapi.NewInlineKeyboardButtonData("☁️ Сохранить", cbUpload),
	))
}

func makeSuggestionKeyboard(suggestions []string) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(suggestions)+1)
	for i, s := range suggestions {
		label := util.TruncateRunes(s, 60)
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label, cbSugg+strconv.Itoa(i))))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("Свой вариант…", cbCustom)))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// parseIndex: "style:2" → 2 (только для известного префикса)
func parseIndex(data, prefix string) (int, bool) {
	if !strings.HasPrefix(data, prefix) {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimPrefix(data, prefix))
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

func caption(s string) string { return util.TruncateRunes(s, captionMax) }
