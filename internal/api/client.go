package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"jigport/internal/logging"
	"jigport/internal/services"
)

// Doer abstracts the HTTP client so tests can substitute transports.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client talks to the platform API.
type Client struct {
	baseURL string
	token   string
	dryRun  bool
	client  Doer
	logger  *slog.Logger
}

// New builds a platform client. A nil doer falls back to http.DefaultClient.
func New(baseURL, token string, dryRun bool, client Doer, logger *slog.Logger) *Client {
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		dryRun:  dryRun,
		client:  client,
		logger:  logger.With(logging.FieldComponent, "api"),
	}
}

// DryRun reports whether the client rehearses calls instead of sending them.
func (c *Client) DryRun() bool {
	return c.dryRun
}

// Meta fetches the platform metadata. Dry-run returns an empty set.
func (c *Client) Meta(ctx context.Context) (*Meta, error) {
	var meta Meta
	if c.dryRun {
		c.rehearse(http.MethodGet, "/v1/meta", nil)
		return &meta, nil
	}
	if err := c.do(ctx, http.MethodGet, "/v1/meta", nil, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// CreateJig creates a jig with its draft and live copies and returns its id.
func (c *Client) CreateJig(ctx context.Context, req CreateJigRequest) (uuid.UUID, error) {
	if c.dryRun {
		c.rehearse(http.MethodPost, "/v1/jig", req)
		return uuid.Nil, nil
	}
	var resp createResponse
	if err := c.do(ctx, http.MethodPost, "/v1/jig", req, &resp); err != nil {
		return uuid.Nil, err
	}
	return resp.ID, nil
}

// UpdateDraft patches the jig's draft data.
func (c *Client) UpdateDraft(ctx context.Context, jigID uuid.UUID, req UpdateDraftRequest) error {
	path := "/v1/jig/" + jigID.String()
	if c.dryRun {
		c.rehearse(http.MethodPatch, path, req)
		return nil
	}
	return c.do(ctx, http.MethodPatch, path, req, nil)
}

// CreateModule appends a module to the jig's draft and returns the module id.
func (c *Client) CreateModule(ctx context.Context, jigID uuid.UUID, req CreateModuleRequest) (uuid.UUID, error) {
	path := "/v1/jig/" + jigID.String() + "/module"
	if c.dryRun {
		c.rehearse(http.MethodPost, path, req)
		return uuid.Nil, nil
	}
	var resp createResponse
	if err := c.do(ctx, http.MethodPost, path, req, &resp); err != nil {
		return uuid.Nil, err
	}
	return resp.ID, nil
}

// Publish copies the jig's draft data to live.
func (c *Client) Publish(ctx context.Context, jigID uuid.UUID) error {
	path := "/v1/jig/" + jigID.String() + "/draft/publish"
	if c.dryRun {
		c.rehearse(http.MethodPut, path, nil)
		return nil
	}
	return c.do(ctx, http.MethodPut, path, nil, nil)
}

// GetLive fetches the jig's live data. Dry-run returns an empty jig.
func (c *Client) GetLive(ctx context.Context, jigID uuid.UUID) (*LiveJig, error) {
	path := "/v1/jig/" + jigID.String() + "/live"
	var jig LiveJig
	if c.dryRun {
		c.rehearse(http.MethodGet, path, nil)
		return &jig, nil
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &jig); err != nil {
		return nil, err
	}
	return &jig, nil
}

// DeleteModule removes a module from the jig's draft.
func (c *Client) DeleteModule(ctx context.Context, jigID, moduleID uuid.UUID) error {
	path := "/v1/jig/" + jigID.String() + "/module/" + moduleID.String()
	if c.dryRun {
		c.rehearse(http.MethodDelete, path, nil)
		return nil
	}
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

// do sends one JSON request and decodes the JSON response into out when out
// is non-nil. Transport failures are retried; HTTP rejections are not.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var encoded []byte
	if body != nil {
		var err error
		encoded, err = json.Marshal(body)
		if err != nil {
			return services.Wrap(services.ErrParse, "api", method, path, err)
		}
	}

	return services.Retry(ctx, func() error {
		var reader io.Reader
		if encoded != nil {
			reader = bytes.NewReader(encoded)
		}
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
		if err != nil {
			return services.Wrap(services.ErrTransport, "api", method, path, err)
		}
		req.Header.Set("Authorization", "Bearer "+c.token)
		if encoded != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.client.Do(req)
		if err != nil {
			return services.Wrap(services.ErrTransport, "api", method, path, err)
		}
		defer resp.Body.Close()

		payload, err := io.ReadAll(resp.Body)
		if err != nil {
			return services.Wrap(services.ErrTransport, "api", method, path, err)
		}

		switch {
		case resp.StatusCode == http.StatusNotFound:
			return services.Wrap(services.ErrNotFound, "api", method, path, nil)
		case resp.StatusCode < 200 || resp.StatusCode >= 300:
			detail := fmt.Sprintf("%s returned %d: %s", path, resp.StatusCode,
				strings.TrimSpace(string(payload)))
			return services.Wrap(services.ErrHTTPStatus, "api", method, detail, nil)
		}

		if out != nil && len(payload) > 0 {
			if err := json.Unmarshal(payload, out); err != nil {
				return services.Wrap(services.ErrParse, "api", method, path, err)
			}
		}
		return nil
	})
}

func (c *Client) rehearse(method, path string, body any) {
	args := []any{"method", method, "url", c.baseURL + path}
	if body != nil {
		if encoded, err := json.Marshal(body); err == nil {
			args = append(args, "body", string(encoded))
		}
	}
	c.logger.Info("dry-run api call", args...)
}
