package storage

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pitch-slides/api/internal/apperr"
)

func TestPut_OK(t *testing.T) {
	payload := []byte{0x89, 'P', 'N', 'G'}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/object/pitch-slides/slides/a-flying-car/1700000000000.png", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))

		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Len(t, r.MultipartForm.File, 1)
		f, hdr, err := r.FormFile("file")
		require.NoError(t, err)
		defer f.Close()
		assert.Equal(t, "1700000000000.png", hdr.Filename)
		assert.Equal(t, "image/png", hdr.Header.Get("Content-Type"))
		got, _ := io.ReadAll(f)
		assert.Equal(t, payload, got)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"key":"pitch-slides/slides/a-flying-car/1700000000000.png","url":"https://cdn.example.com/x.png","bucket":"pitch-slides"}`))
	}))
	defer srv.Close()

	c := New(srv.URL+"/api/v1/object/", "tok", "pitch-slides", time.Second)
	obj, err := c.Put(context.Background(), "slides/a-flying-car/1700000000000.png", "image/png", payload)
	require.NoError(t, err)
	assert.Equal(t, Object{
		Key:    "pitch-slides/slides/a-flying-car/1700000000000.png",
		URL:    "https://cdn.example.com/x.png",
		Bucket: "pitch-slides",
	}, obj)
}

func TestPut_NonSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"message":"bucket not writable"}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "tok", "b", time.Second)
	_, err := c.Put(context.Background(), "slides/x/1.png", "image/png", []byte("x"))
	require.Error(t, err)

	var ae *apperr.Error
	require.True(t, errors.As(err, &ae))
	assert.Equal(t, "storage", ae.Service)
	assert.Equal(t, http.StatusForbidden, ae.Status)
	assert.Equal(t, `{"message":"bucket not writable"}`, ae.Body)
}

func TestPut_BadJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>ok</html>`))
	}))
	defer srv.Close()

	_, err := New(srv.URL, "tok", "b", time.Second).Put(context.Background(), "k.png", "image/png", []byte("x"))
	assert.Equal(t, apperr.CodeUpstream, apperr.CodeOf(err))
}

func TestPut_Empty(t *testing.T) {
	_, err := New("http://localhost", "tok", "b", time.Second).Put(context.Background(), "k.png", "image/png", nil)
	assert.Error(t, err)
}
