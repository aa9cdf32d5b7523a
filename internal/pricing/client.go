// Package pricing implements the boundary to the resource catalog for
// hourly price lookups.  Keeping the HTTP call behind the PriceSource
// interface lets the booking service be tested with a fake and leaves
// room to add bounded retry or circuit breaking without touching the
// engine.
package pricing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/iliyamo/resource-booking/internal/model"
)

// ErrResourceNotFound is returned when the catalog reports that the
// resource does not exist.  This outcome is terminal: retrying the
// lookup cannot succeed.
var ErrResourceNotFound = errors.New("resource not found")

// ErrUnavailable is returned for any other lookup failure: transport
// errors, timeouts, non-2xx statuses or malformed bodies.  Unlike
// ErrResourceNotFound, the whole operation is safe to retry.
var ErrUnavailable = errors.New("resource service unavailable")

// PriceSource resolves a resource's hourly price.  The caller's bearer
// credential is forwarded so the catalog applies the caller's own
// permissions.
type PriceSource interface {
	PricePerHour(ctx context.Context, resourceID uint64, token string) (model.Cents, error)
}

// Client fetches prices over HTTP from the resource catalog's item
// endpoint.  Its HTTP client carries a hard timeout so a catalog stall
// cannot block a booking request indefinitely.
type Client struct {
	baseURL string
	httpc   *http.Client
}

// NewClient returns a Client for the given catalog base URL.  A
// non-positive timeout falls back to five seconds.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		httpc:   &http.Client{Timeout: timeout},
	}
}

// PricePerHour issues GET {base}/resources/{id} with the caller's
// bearer token and extracts the pricePerHour field, which the catalog
// serves either as a number or as a numeric string.
func (c *Client) PricePerHour(ctx context.Context, resourceID uint64, token string) (model.Cents, error) {
	url := fmt.Sprintf("%s/resources/%d", c.baseURL, resourceID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := c.httpc.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return 0, ErrResourceNotFound
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return 0, fmt.Errorf("%w: unexpected status %d", ErrUnavailable, resp.StatusCode)
	}

	var body struct {
		PricePerHour *model.Cents `json:"pricePerHour"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return 0, fmt.Errorf("%w: decode response: %v", ErrUnavailable, err)
	}
	if body.PricePerHour == nil {
		return 0, fmt.Errorf("%w: response missing pricePerHour", ErrUnavailable)
	}
	return *body.PricePerHour, nil
}
