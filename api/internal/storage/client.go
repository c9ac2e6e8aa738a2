package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"path"
	"strings"
	"time"

	"pitch-slides/api/internal/apperr"
)

// Object: то, что вернуло хранилище.
type Object struct {
	Key    string `json:"key"`
	URL    string `json:"url"`
	Bucket string `json:"bucket"`
}

// Client грузит в bucket/key хранилище. POST {base}/{bucket}/{key}, multipart с одним полем "file".
type Client struct {
	BaseURL string
	Token   string
	Bucket  string
	httpc   *http.Client
}

func New(baseURL, token, bucket string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		BaseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		Token:   strings.TrimSpace(token),
		Bucket:  strings.TrimSpace(bucket),
		httpc:   &http.Client{Timeout: timeout},
	}
}

func (c *Client) objectURL(key string) (string, error) {
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return "", fmt.Errorf("storage: bad base url: %w", err)
	}
	u.Path = path.Join(u.Path, c.Bucket, key)
	return u.String(), nil
}

func (c *Client) Put(ctx context.Context, key, contentType string, data []byte) (Object, error) {
	if len(data) == 0 {
		return Object{}, errors.New("storage: empty payload")
	}
	target, err := c.objectURL(key)
	if err != nil {
		return Object{}, err
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, path.Base(key)))
	h.Set("Content-Type", contentType)
	part, err := writer.CreatePart(h)
	if err != nil {
		return Object{}, err
	}
	if _, err := part.Write(data); err != nil {
		return Object{}, err
	}
	if err := writer.Close(); err != nil {
		return Object{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, &body)
	if err != nil {
		return Object{}, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+c.Token)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return Object{}, apperr.Upstream("storage", 0, "", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Object{}, apperr.Upstream("storage", resp.StatusCode, string(raw),
			fmt.Errorf("storage %d", resp.StatusCode))
	}

	var obj Object
	if err := json.Unmarshal(raw, &obj); err != nil {
		return Object{}, apperr.Upstream("storage", resp.StatusCode, string(raw),
			fmt.Errorf("storage: bad response json: %w", err))
	}
	return obj, nil
}
