package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pitch-slides/api/internal/apperr"
)

func TestGenerateText_OK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/chat/completions"))
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var body struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "gpt-4o-mini", body.Model)
		require.Len(t, body.Messages, 1)
		assert.Equal(t, "user", body.Messages[0].Role)
		assert.Equal(t, "describe the slide", body.Messages[0].Content)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"c1","object":"chat.completion","created":1,"model":"gpt-4o-mini",
"choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"SLIDE CONCEPT:\nHello"}}]}`))
	}))
	defer srv.Close()

	e := New("sk-test", "gpt-4o-mini", srv.URL+"/")
	out, err := e.GenerateText(context.Background(), "describe the slide")
	require.NoError(t, err)
	assert.Equal(t, "SLIDE CONCEPT:\nHello", out)
}

func TestGenerateText_UpstreamErrorNoRetry(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"error":{"message":"overloaded","type":"server_error","code":"overloaded","param":null}}`))
	}))
	defer srv.Close()

	e := New("sk-test", "gpt-4o-mini", srv.URL+"/")
	_, err := e.GenerateText(context.Background(), "p")
	require.Error(t, err)

	var ae *apperr.Error
	require.True(t, errors.As(err, &ae))
	assert.Equal(t, http.StatusServiceUnavailable, ae.Status)
	assert.Contains(t, ae.Body, "overloaded")
	assert.Equal(t, int32(1), calls.Load())
}

func TestGenerateText_EmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"c1","object":"chat.completion","created":1,"model":"m","choices":[]}`))
	}))
	defer srv.Close()

	_, err := New("k", "m", srv.URL+"/").GenerateText(context.Background(), "p")
	assert.Equal(t, apperr.CodeUpstream, apperr.CodeOf(err))
}
