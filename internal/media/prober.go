package media

import (
	"context"
	"fmt"
	"net/http"

	"jigport/internal/services"
)

// Doer abstracts the HTTP client so tests can substitute transports.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// HTTPProber answers existence checks against the legacy CDN with HEAD
// requests. Transport failures are retried before giving up.
type HTTPProber struct {
	client Doer
}

// NewHTTPProber builds a prober. A nil doer falls back to http.DefaultClient.
func NewHTTPProber(client Doer) *HTTPProber {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPProber{client: client}
}

// Exists reports whether url resolves to an asset.
func (p *HTTPProber) Exists(ctx context.Context, url string) (bool, error) {
	var found bool
	err := services.Retry(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
		if err != nil {
			return services.Wrap(services.ErrTransport, "media", "probe", url, err)
		}
		resp, err := p.client.Do(req)
		if err != nil {
			return services.Wrap(services.ErrTransport, "media", "probe", url, err)
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusOK:
			found = true
			return nil
		case resp.StatusCode == http.StatusNotFound:
			found = false
			return nil
		default:
			return services.Wrap(services.ErrHTTPStatus, "media", "probe",
				fmt.Sprintf("%s returned %d", url, resp.StatusCode), nil)
		}
	})
	if err != nil {
		return false, err
	}
	return found, nil
}
