// internal/adapters/gmaps/client.go
package gmaps

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"places_ranker/internal/adapters/observability"
	"places_ranker/internal/domain"
)

const DefaultBaseURL = "https://maps.googleapis.com/maps/api"

type Client struct {
	base string
	hc   *http.Client
	key  string
	rl   *rate.Limiter
}

func New(base, key string, rps int) (*Client, error) {
	if key == "" {
		return nil, fmt.Errorf("API key is required")
	}
	if base == "" {
		base = DefaultBaseURL
	}
	if rps <= 0 {
		rps = 5
	}
	return &Client{
		base: strings.TrimRight(base, "/"),
		hc:   &http.Client{Timeout: 20 * time.Second},
		key:  key,
		rl:   rate.NewLimiter(rate.Limit(rps), rps),
	}, nil
}

var (
	ErrUnauthorized = errors.New("gmaps: unauthorized")
	ErrForbidden    = errors.New("gmaps: forbidden")
	ErrRejected     = errors.New("gmaps: request rejected")
)

// apiStatus is the top-level "status" every Maps web service response carries.
type apiStatus struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message,omitempty"`
}

// checkStatus maps a top-level API status to an error. ZERO_RESULTS is not a failure.
func checkStatus(endpoint string, s apiStatus) error {
	switch s.Status {
	case "OK", "ZERO_RESULTS":
		return nil
	case "REQUEST_DENIED":
		return fatal(fmt.Errorf("%w: %s %s: %s", ErrUnauthorized, endpoint, s.Status, s.ErrorMessage))
	default:
		return fatal(fmt.Errorf("%w: %s %s: %s", ErrRejected, endpoint, s.Status, s.ErrorMessage))
	}
}

// fatal tags err so callers can match domain.ErrGatewayFatal.
func fatal(err error) error {
	return fmt.Errorf("%w: %w", domain.ErrGatewayFatal, err)
}

// get performs one rate-limited GET of base/path?params&key=... and decodes
// the JSON body into out. There is no retry: every failure is final.
func (c *Client) get(ctx context.Context, endpoint, path string, params url.Values, out any) error {
	if err := c.rl.Wait(ctx); err != nil {
		return fatal(err)
	}

	q := url.Values{}
	for k, vs := range params {
		q[k] = vs
	}
	q.Set("key", c.key)
	u := c.base + path + "?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fatal(err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "places-ranker/1.0")

	start := time.Now()
	resp, err := c.hc.Do(req)
	if err != nil {
		observability.ObserveExternal("gmaps", endpoint, 0, time.Since(start))
		if ctx.Err() != nil {
			return fatal(ctx.Err())
		}
		// the URL embeds the API key; report the endpoint only
		var uerr *url.Error
		if errors.As(err, &uerr) {
			err = uerr.Err
		}
		return fatal(fmt.Errorf("%s: %w", endpoint, err))
	}
	defer resp.Body.Close()
	observability.ObserveExternal("gmaps", endpoint, resp.StatusCode, time.Since(start))

	switch resp.StatusCode {
	case http.StatusOK:
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fatal(fmt.Errorf("%s: decode: %w", endpoint, err))
		}
		return nil

	case http.StatusUnauthorized:
		return fatal(ErrUnauthorized)

	case http.StatusForbidden:
		return fatal(ErrForbidden)

	default:
		// read a small error body for diagnostics
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fatal(fmt.Errorf("%s: bad status %d: %s", endpoint, resp.StatusCode, strings.TrimSpace(string(b))))
	}
}
