package telegram

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func (r *Router) handleCallback(cb tgbotapi.CallbackQuery) {
	if cb.Message == nil {
		return
	}
	cid := cb.Message.Chat.ID
	data := cb.Data
	_, _ = r.Bot.Request(tgbotapi.NewCallback(cb.ID, "")) // ack

	if n, ok := parseIndex(data, cbStyle); ok {
		r.runFinal(cid, n)
		return
	}
	if n, ok := parseIndex(data, cbSugg); ok {
		st := r.sessions.get(cid)
		if n >= len(st.Suggestions) {
			r.send(cid, "Подсказка устарела, нажмите «Доработать» ещё раз.")
			return
		}
		r.runRefine(cid, st.Suggestions[n], false)
		return
	}

	switch data {
	case cbRefine:
		r.runSuggestions(cid)
	case cbCustom:
		st := r.sessions.get(cid)
		if st.Last == nil {
			r.send(cid, "Сначала получите финальный слайд.")
			return
		}
		st.AwaitCustom = true
		r.sessions.put(cid, st)
		r.send(cid, "Напишите, что изменить на слайде.")
	case cbUpload:
		r.runUpload(cid)
	}
}
