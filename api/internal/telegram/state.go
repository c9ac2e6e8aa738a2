package telegram

import (
	"strconv"
	"time"

	"github.com/patrickmn/go-cache"

	"pitch-slides/api/internal/slide"
)

const sessionTTL = 2 * time.Hour

// session хранит всё, что HTTP-клиент присылал бы сам: идея, стиль, подсказки, последний слайд.
type session struct {
	Idea        string
	Style       int
	Suggestions []string
	Last        *slide.Slide
	AwaitCustom bool
	Engine      string // gemini | gpt; пусто: по умолчанию
}

func newSession() session { return session{Style: -1} }

type sessions struct{ c *cache.Cache }

func newSessions() *sessions {
	return &sessions{c: cache.New(sessionTTL, 10*time.Minute)}
}

func key(chatID int64) string { return strconv.FormatInt(chatID, 10) }

func (s *sessions) get(chatID int64) session {
	if v, ok := s.c.Get(key(chatID)); ok {
		return v.(session)
	}
	return newSession()
}

func (s *sessions) put(chatID int64, st session) { s.c.SetDefault(key(chatID), st) }

func (s *sessions) reset(chatID int64) {
	// выбор движка переживает /reset
	eng := s.get(chatID).Engine
	st := newSession()
	st.Engine = eng
	s.put(chatID, st)
}
