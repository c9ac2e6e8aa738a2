package telegram

import (
	"fmt"

	"pitch-slides/api/internal/apperr"
)

func (r *Router) runOptions(chatID int64, idea string) {
	wf, err := r.workflow(chatID)
	if err != nil {
		r.fail(chatID, "Текстовый движок не настроен", err)
		return
	}
	st := r.sessions.get(chatID)
	st.Idea, st.Style, st.Suggestions, st.Last, st.AwaitCustom = idea, -1, nil, nil, false
	r.sessions.put(chatID, st)

	r.send(chatID, "Рисую три эскиза, это займёт около минуты…")
	ctx, cancel := r.ctx()
	defer cancel()

	opts, err := wf.GenerateOptions(ctx, idea)
	if err != nil {
		r.fail(chatID, "Не удалось нарисовать эскизы", err)
		return
	}
	for _, o := range opts {
		r.sendPhoto(chatID, fmt.Sprintf("option-%d.png", o.ID), o.Image.Data,
			fmt.Sprintf("%d. %s", o.ID+1, o.Concept), nil)
	}
	r.sendWithKeyboard(chatID, "Какой стиль взять за основу?", makeStyleKeyboard())
}

func (r *Router) runFinal(chatID int64, styleIndex int) {
	st := r.sessions.get(chatID)
	if st.Idea == "" {
		r.send(chatID, "Сначала пришлите идею.")
		return
	}
	wf, err := r.workflow(chatID)
	if err != nil {
		r.fail(chatID, "Текстовый движок не настроен", err)
		return
	}

	r.send(chatID, "Готовлю финальный слайд…")
	ctx, cancel := r.ctx()
	defer cancel()

	s, err := wf.GenerateFinal(ctx, st.Idea, styleIndex)
	if err != nil {
		r.fail(chatID, "Не удалось сделать финальный слайд", err)
		return
	}
	st = r.sessions.get(chatID)
	st.Style, st.Last, st.Suggestions = styleIndex, &s, nil
	r.sessions.put(chatID, st)

	kb := makeSlideKeyboard()
	r.sendPhoto(chatID, "slide.png", s.Image.Data, s.Description, &kb)
}

func (r *Router) runSuggestions(chatID int64) {
	st := r.sessions.get(chatID)
	if st.Last == nil || st.Style < 0 {
		r.send(chatID, "Сначала выберите стиль и получите финальный слайд.")
		return
	}
	wf, err := r.workflow(chatID)
	if err != nil {
		r.fail(chatID, "Текстовый движок не настроен", err)
		return
	}
	ctx, cancel := r.ctx()
	defer cancel()

	list, err := wf.GetRefineOptions(ctx, st.Idea, st.Style)
	if err != nil {
		r.fail(chatID, "Не удалось придумать улучшения", err)
		return
	}
	st.Suggestions = list
	r.sessions.put(chatID, st)
	r.sendWithKeyboard(chatID, "Что улучшить?", makeSuggestionKeyboard(list))
}

func (r *Router) runRefine(chatID int64, instruction string, isCustom bool) {
	st := r.sessions.get(chatID)
	if st.Last == nil || st.Style < 0 {
		r.send(chatID, "Нечего дорабатывать: сначала получите финальный слайд.")
		return
	}
	wf, err := r.workflow(chatID)
	if err != nil {
		r.fail(chatID, "Текстовый движок не настроен", err)
		return
	}

	r.send(chatID, "Дорабатываю: "+instruction)
	ctx, cancel := r.ctx()
	defer cancel()

	s, err := wf.RefineSlide(ctx, st.Idea, st.Style, instruction, isCustom)
	if err != nil {
		if apperr.IsValidation(err) {
			r.send(chatID, "⚠️ "+err.Error())
			return
		}
		r.fail(chatID, "Не удалось доработать слайд", err)
		return
	}
	st = r.sessions.get(chatID)
	st.Last, st.Suggestions = &s, nil
	r.sessions.put(chatID, st)

	kb := makeSlideKeyboard()
	r.sendPhoto(chatID, "slide.png", s.Image.Data, s.Description, &kb)
}

func (r *Router) runUpload(chatID int64) {
	st := r.sessions.get(chatID)
	if st.Last == nil {
		r.send(chatID, "Нет слайда для сохранения.")
		return
	}
	if r.Relay == nil {
		r.send(chatID, "Хранилище не настроено.")
		return
	}
	ctx, cancel := r.ctx()
	defer cancel()

	res, err := r.Relay.Upload(ctx, st.Last.DataURL(), st.Idea)
	if err != nil {
		r.fail(chatID, "Не удалось сохранить слайд", err)
		return
	}
	r.send(chatID, "☁️ Сохранено: "+res.FileURL)
}
