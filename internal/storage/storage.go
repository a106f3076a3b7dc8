// Package storage is the client for the target media bucket. The bucket
// speaks plain HTTP: HEAD to check an object, PUT to write one. Keys are the
// game-scoped media paths produced by the media package.
package storage

import (
	"context"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path"
	"strings"

	"jigport/internal/services"
)

// Doer abstracts the HTTP client so tests can substitute transports.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client talks to the target bucket.
type Client struct {
	baseURL string
	token   string
	client  Doer
}

// New builds a bucket client. A nil doer falls back to http.DefaultClient.
func New(baseURL, token string, client Doer) *Client {
	if client == nil {
		client = http.DefaultClient
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		client:  client,
	}
}

// URL returns the object URL for a key.
func (c *Client) URL(key string) string {
	return c.baseURL + "/" + key
}

// Exists reports whether the object exists and, when it does, its size.
func (c *Client) Exists(ctx context.Context, key string) (bool, int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.URL(key), nil)
	if err != nil {
		return false, 0, services.Wrap(services.ErrTransport, "storage", "head", key, err)
	}
	c.authorize(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return false, 0, services.Wrap(services.ErrTransport, "storage", "head", key, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		return true, resp.ContentLength, nil
	case resp.StatusCode == http.StatusNotFound:
		return false, 0, nil
	default:
		return false, 0, services.Wrap(services.ErrHTTPStatus, "storage", "head",
			fmt.Sprintf("%s returned %d", key, resp.StatusCode), nil)
	}
}

// Put uploads the file at srcPath under key, with a content type derived from
// the key's extension.
func (c *Client) Put(ctx context.Context, key, srcPath string) error {
	file, err := os.Open(srcPath)
	if err != nil {
		return services.Wrap(services.ErrUpload, "storage", "put", key, err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return services.Wrap(services.ErrUpload, "storage", "put", key, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.URL(key), file)
	if err != nil {
		return services.Wrap(services.ErrUpload, "storage", "put", key, err)
	}
	req.ContentLength = info.Size()
	req.Header.Set("Content-Type", ContentType(key))
	c.authorize(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return services.Wrap(services.ErrTransport, "storage", "put", key, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return services.Wrap(services.ErrUpload, "storage", "put",
			fmt.Sprintf("%s returned %d", key, resp.StatusCode), nil)
	}
	return nil
}

func (c *Client) authorize(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}

// ContentType maps an object key to its MIME type, defaulting to an opaque
// stream for extensions the platform does not register.
func ContentType(key string) string {
	ext := strings.ToLower(path.Ext(key))
	switch ext {
	case ".mp3":
		return "audio/mpeg"
	case ".mp4":
		return "video/mp4"
	}
	if typ := mime.TypeByExtension(ext); typ != "" {
		return typ
	}
	return "application/octet-stream"
}
