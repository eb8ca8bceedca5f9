// Package feed talks to the hub's activity API on behalf of the client.
package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/fieldsync/skiff/internal/model"

	"github.com/cenkalti/backoff/v4"
)

const defaultTimeout = 10 * time.Second

// Client fetches activities from the hub HTTP API. Transient failures are
// retried with exponential backoff; client errors (4xx) are not.
type Client struct {
	baseURL    string
	httpClient *http.Client
	maxRetries uint64
}

// NewClient creates a client for the hub at baseURL
// (for example "http://localhost:3414").
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		maxRetries: 3,
	}
}

// Fetch returns the activity window described by opts, newest first.
func (c *Client) Fetch(ctx context.Context, opts model.QueryOpts) ([]model.Activity, error) {
	q := url.Values{}
	if opts.Site != "" {
		q.Set("site", opts.Site)
	}
	if !opts.Since.IsZero() {
		q.Set("since", opts.Since.UTC().Format(time.RFC3339))
	}
	if opts.Limit > 0 {
		q.Set("limit", strconv.Itoa(opts.Limit))
	}

	var body struct {
		Activities []model.Activity `json:"activities"`
	}
	if err := c.getJSON(ctx, "/api/activities", q, &body); err != nil {
		return nil, err
	}
	return body.Activities, nil
}

// DailyStats returns per-day activity counts for the last days days.
func (c *Client) DailyStats(ctx context.Context, days int, opts model.QueryOpts) ([]model.DailyCount, error) {
	q := url.Values{}
	if days > 0 {
		q.Set("days", strconv.Itoa(days))
	}
	if opts.Site != "" {
		q.Set("site", opts.Site)
	}

	var body struct {
		Daily []model.DailyCount `json:"daily"`
	}
	if err := c.getJSON(ctx, "/api/stats/daily", q, &body); err != nil {
		return nil, err
	}
	return body.Daily, nil
}

// getJSON performs a GET with retry and decodes the JSON response into out.
func (c *Client) getJSON(ctx context.Context, path string, q url.Values, out interface{}) error {
	u := c.baseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}

	op := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return backoff.Permanent(err)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("feed: request %s: %w", path, err)
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			// The request itself is wrong; retrying cannot help.
			return backoff.Permanent(fmt.Errorf("feed: %s returned %s", path, resp.Status))
		}
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("feed: %s returned %s", path, resp.Status)
		}

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("feed: read %s response: %w", path, err)
		}
		if err := json.Unmarshal(data, out); err != nil {
			return backoff.Permanent(fmt.Errorf("feed: decode %s response: %w", path, err))
		}
		return nil
	}

	bo := backoff.WithContext(backoff.WithMaxRetries(newBackOff(), c.maxRetries), ctx)
	return backoff.Retry(op, bo)
}

func newBackOff() *backoff.ExponentialBackOff {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 200 * time.Millisecond
	bo.MaxInterval = 2 * time.Second
	bo.MaxElapsedTime = 15 * time.Second
	return bo
}
