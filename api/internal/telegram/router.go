package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"pitch-slides/api/internal/llm"
	"pitch-slides/api/internal/relay"
	"pitch-slides/api/internal/slide"
)

// Sender: то, что нужно от *tgbotapi.BotAPI.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

type Uploader interface {
	Upload(ctx context.Context, imageData, idea string) (relay.Result, error)
}

type Router struct {
	Bot     Sender
	Engines *llm.Engines
	Image   llm.ImageEngine
	Relay   Uploader // nil: кнопка "Сохранить" отвечает, что хранилище не настроено
	Log     *slog.Logger
	Timeout time.Duration

	sessions *sessions
}

func NewRouter(bot Sender, engines *llm.Engines, image llm.ImageEngine, rel Uploader, log *slog.Logger) *Router {
	if log == nil {
		log = slog.Default()
	}
	return &Router{
		Bot:      bot,
		Engines:  engines,
		Image:    image,
		Relay:    rel,
		Log:      log,
		Timeout:  180 * time.Second,
		sessions: newSessions(),
	}
}

// workflow собирает Workflow с текстовым движком, выбранным в чате.
func (r *Router) workflow(chatID int64) (*slide.Workflow, error) {
	text, err := r.Engines.GetEngine(r.sessions.get(chatID).Engine)
	if err != nil {
		return nil, err
	}
	return slide.NewWorkflow(text, r.Image, r.Log.With("chat_id", chatID)), nil
}

func (r *Router) ctx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), r.Timeout)
}

func (r *Router) HandleUpdate(upd tgbotapi.Update) {
	// callback-кнопки
	if upd.CallbackQuery != nil {
		r.handleCallback(*upd.CallbackQuery)
		return
	}
	if upd.Message == nil {
		return
	}
	if upd.Message.IsCommand() {
		r.HandleCommand(upd)
		return
	}

	cid := upd.Message.Chat.ID
	text := strings.TrimSpace(upd.Message.Text)
	if text == "" {
		r.send(cid, "Опишите идею бизнеса текстом — я нарисую три варианта слайда.")
		return
	}

	// ждём свою формулировку правки после кнопки "Свой вариант"
	if st := r.sessions.get(cid); st.AwaitCustom && st.Last != nil {
		st.AwaitCustom = false
		r.sessions.put(cid, st)
		r.runRefine(cid, text, true)
		return
	}
	r.runOptions(cid, text)
}

func (r *Router) HandleCommand(upd tgbotapi.Update) {
	cid := upd.Message.Chat.ID
	switch upd.Message.Command() {
	case "start", "help":
		r.send(cid, "Пришлите идею бизнеса одним сообщением — верну три эскиза слайда.\n"+
			"Дальше: выбор стиля → финальный слайд → доработка → сохранение.\n"+
			"Команды: /engine, /reset, /health")
	case "health":
		r.send(cid, "✅ OK")
	case "reset":
		r.sessions.reset(cid)
		r.send(cid, "Сессия сброшена. Пришлите новую идею.")
	case "engine":
		r.handleEngineCommand(cid, upd.Message.CommandArguments())
	default:
		r.send(cid, "Неизвестная команда")
	}
}

// handleEngineCommand переключает текстовый движок для чата.
// Форматы:
//
//	/engine gemini [model]
//	/engine gpt [model]
func (r *Router) handleEngineCommand(chatID int64, args string) {
	fields := strings.Fields(args)
	st := r.sessions.get(chatID)
	if len(fields) == 0 {
		cur := st.Engine
		if cur == "" {
			cur = "gemini"
		}
		r.send(chatID, "Текущий движок: "+cur+"\nИспользование: /engine {gemini|gpt} [model]")
		return
	}
	name := strings.ToLower(fields[0])
	eng, err := r.Engines.GetEngine(name)
	if err != nil {
		r.send(chatID, "❌ "+err.Error())
		return
	}

	// Вспомогательный интерфейс: некоторые движки умеют переключать модель.
	type modelSetter interface{ SetModel(string) }
	if len(fields) > 1 {
		if ms, ok := eng.(modelSetter); ok {
			ms.SetModel(fields[1])
		}
	}
	st.Engine = name
	r.sessions.put(chatID, st)
	r.send(chatID, fmt.Sprintf("✅ Движок: %s (%s).", eng.Name(), eng.GetModel()))
}

func (r *Router) send(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := r.Bot.Send(msg); err != nil {
		r.Log.Warn("telegram send failed", "chat_id", chatID, "err", err)
	}
}

func (r *Router) sendWithKeyboard(chatID int64, text string, kb tgbotapi.InlineKeyboardMarkup) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = kb
	if _, err := r.Bot.Send(msg); err != nil {
		r.Log.Warn("telegram send failed", "chat_id", chatID, "err", err)
	}
}

func (r *Router) sendPhoto(chatID int64, name string, data []byte, text string, kb *tgbotapi.InlineKeyboardMarkup) {
	p := tgbotapi.NewPhoto(chatID, tgbotapi.FileBytes{Name: name, Bytes: data})
	p.Caption = caption(text)
	if kb != nil {
		p.ReplyMarkup = *kb
	}
	if _, err := r.Bot.Send(p); err != nil {
		r.Log.Warn("telegram send photo failed", "chat_id", chatID, "err", err)
	}
}

// fail: короткое сообщение пользователю, подробности только в лог.
func (r *Router) fail(chatID int64, msg string, err error) {
	r.Log.Error(msg, "chat_id", chatID, "err", err)
	r.send(chatID, "⚠️ "+msg)
}
