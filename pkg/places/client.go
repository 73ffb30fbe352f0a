// Package places is a stateless client for the local-listings provider API.
// It owns request construction and response parsing only; credential lookup
// and status transitions belong to the callers.
package places

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

// Default base URL for the listings API.
const defaultBaseURL = "https://api.places.example.com/v1"

// Client defines the three provider operations used by the sync core.
type Client interface {
	// TestAccess issues a minimal authenticated call to validate credentials.
	TestAccess(ctx context.Context, creds Credentials) (*AccessResult, error)

	// Publish sends the canonical listing fields, creating or updating the
	// remote listing. Not assumed idempotent by the provider; callers guard
	// against duplicate submissions.
	Publish(ctx context.Context, creds Credentials, payload ListingPayload) (*PublishResult, error)

	// FetchStatus polls the current remote state of a listing. Used by
	// reconciliation sweeps, not by the synchronous publish path.
	FetchStatus(ctx context.Context, creds Credentials, providerListingID string) (ListingState, error)
}

// Option configures the httpClient.
type Option func(*httpClient)

// WithBaseURL overrides the default base URL.
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = url
	}
}

// WithHTTPClient sets a custom *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *httpClient) {
		c.http.Timeout = d
	}
}

// WithRateLimit sets the requests-per-second limit for provider calls.
func WithRateLimit(rps float64) Option {
	return func(c *httpClient) {
		c.limiter = rate.NewLimiter(rate.Limit(rps), int(rps))
	}
}

// httpClient implements Client using net/http.
type httpClient struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

// NewClient creates a new listings API client.
func NewClient(opts ...Option) Client {
	c := &httpClient{
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 20,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		limiter: rate.NewLimiter(10, 10),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *httpClient) TestAccess(ctx context.Context, creds Credentials) (*AccessResult, error) {
	var resp accountResponse
	if err := c.get(ctx, creds, "/account", &resp); err != nil {
		return nil, eris.Wrap(err, "places: test access")
	}
	return &AccessResult{
		Reachable:       true,
		Authorized:      resp.Authorized,
		ProviderMessage: resp.Message,
	}, nil
}

func (c *httpClient) Publish(ctx context.Context, creds Credentials, payload ListingPayload) (*PublishResult, error) {
	// Validate presence before any network I/O so a malformed payload never
	// consumes a network attempt.
	if missing := payload.missingFields(); len(missing) > 0 {
		return nil, &ValidationError{Missing: missing}
	}

	var resp listingResponse
	status, err := c.post(ctx, creds, "/listings", payload, &resp)
	if err != nil {
		return nil, eris.Wrap(err, "places: publish listing")
	}
	return &PublishResult{
		ProviderListingID: resp.ID,
		State:             ListingState(resp.State),
		RawStatusCode:     status,
	}, nil
}

func (c *httpClient) FetchStatus(ctx context.Context, creds Credentials, providerListingID string) (ListingState, error) {
	var resp listingResponse
	if err := c.get(ctx, creds, fmt.Sprintf("/listings/%s", providerListingID), &resp); err != nil {
		return "", eris.Wrapf(err, "places: fetch status %s", providerListingID)
	}
	return ListingState(resp.State), nil
}

func (c *httpClient) post(ctx context.Context, creds Credentials, path string, body, out any) (int, error) {
	buf, err := json.Marshal(body)
	if err != nil {
		return 0, eris.Wrap(err, "marshal request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(buf))
	if err != nil {
		return 0, eris.Wrap(err, "create request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+creds.Token)

	return c.do(ctx, req, out)
}

func (c *httpClient) get(ctx context.Context, creds Credentials, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return eris.Wrap(err, "create request")
	}
	req.Header.Set("Authorization", "Bearer "+creds.Token)

	_, err = c.do(ctx, req, out)
	return err
}

func (c *httpClient) do(ctx context.Context, req *http.Request, out any) (int, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return 0, &TransportError{Err: err}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, &TransportError{Err: err}
	}
	defer resp.Body.Close() //nolint:errcheck

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, &TransportError{Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var envelope errorResponse
		_ = json.Unmarshal(data, &envelope)
		msg := envelope.Error.Message
		if msg == "" {
			msg = string(data)
		}

		if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
			return resp.StatusCode, &AuthError{StatusCode: resp.StatusCode, Message: msg}
		}
		return resp.StatusCode, &ProviderError{
			StatusCode: resp.StatusCode,
			Code:       envelope.Error.Code,
			Message:    msg,
		}
	}

	if err := json.Unmarshal(data, out); err != nil {
		return resp.StatusCode, eris.Wrap(err, "decode response")
	}

	return resp.StatusCode, nil
}
