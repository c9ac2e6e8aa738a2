package main

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"

	"pitch-slides/api/internal/logger"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestRetryDelayFromError(t *testing.T) {
	assert.Zero(t, retryDelayFromError(nil))
	assert.Equal(t, 7*time.Second, retryDelayFromError(errors.New("Too Many Requests: retry after 7")))
	assert.Equal(t, 3*time.Second, retryDelayFromError(errors.New("too many requests")))
	assert.Equal(t, 2*time.Second, retryDelayFromError(timeoutErr{}))
	assert.Equal(t, time.Second, retryDelayFromError(errors.New("boom")))
}

func TestShortHash(t *testing.T) {
	h := shortHash("123:abc")
	assert.Len(t, h, 16)
	assert.Equal(t, h, shortHash("123:abc"))
	assert.NotEqual(t, h, shortHash("123:abd"))
}

type scriptedUpdater struct {
	batches [][]tgbotapi.Update
	offsets []int
	cancel  context.CancelFunc
}

func (s *scriptedUpdater) GetUpdates(cfg tgbotapi.UpdateConfig) ([]tgbotapi.Update, error) {
	s.offsets = append(s.offsets, cfg.Offset)
	if len(s.batches) == 0 {
		s.cancel()
		return nil, nil
	}
	b := s.batches[0]
	s.batches = s.batches[1:]
	return b, nil
}

func TestRunPolling_AdvancesOffset(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	up := &scriptedUpdater{
		batches: [][]tgbotapi.Update{{{UpdateID: 10}, {UpdateID: 11}}, {{UpdateID: 12}}},
		cancel:  cancel,
	}
	var seen []int
	runPolling(ctx, up, func(u tgbotapi.Update) { seen = append(seen, u.UpdateID) }, logger.Discard())

	assert.Equal(t, []int{10, 11, 12}, seen)
	assert.Equal(t, []int{0, 12, 13}, up.offsets)
}

func decodeStub(id int) func(*http.Request) (*tgbotapi.Update, error) {
	return func(*http.Request) (*tgbotapi.Update, error) {
		return &tgbotapi.Update{UpdateID: id}, nil
	}
}

func TestWebhookHandler_Enqueues(t *testing.T) {
	updates := make(chan tgbotapi.Update, 1)
	h := webhookHandler(context.Background(), decodeStub(7), updates)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/webhook/x", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 7, (<-updates).UpdateID)
}

func TestWebhookHandler_BadUpdate(t *testing.T) {
	updates := make(chan tgbotapi.Update, 1)
	h := webhookHandler(context.Background(), func(*http.Request) (*tgbotapi.Update, error) {
		return nil, errors.New("bad json")
	}, updates)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/webhook/x", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, updates)
}

func TestWebhookHandler_FullQueueAfterShutdown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	updates := make(chan tgbotapi.Update, 1)
	updates <- tgbotapi.Update{UpdateID: 1}
	cancel()

	h := webhookHandler(ctx, decodeStub(2), updates)
	done := make(chan int, 1)
	go func() {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/webhook/x", nil))
		done <- rec.Code
	}()

	select {
	case code := <-done:
		assert.Equal(t, http.StatusServiceUnavailable, code)
	case <-time.After(2 * time.Second):
		t.Fatal("handler blocked on a full queue after shutdown")
	}
}
