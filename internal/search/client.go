// Package search wraps the Google Custom Search JSON API.
package search

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
)

const defaultBaseURL = "https://www.googleapis.com/customsearch/v1"

// Client performs web search operations.
type Client interface {
	Search(ctx context.Context, query string) ([]Item, error)
}

// Item is one search hit as returned by the API.
type Item struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	Snippet string `json:"snippet"`
}

type searchResponse struct {
	Items []Item `json:"items"`
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(u string) Option {
	return func(c *httpClient) {
		c.baseURL = u
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithDateRestrict sets the freshness window request parameter ("d7" keeps
// only results from the last seven days).
func WithDateRestrict(dr string) Option {
	return func(c *httpClient) {
		c.dateRestrict = dr
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *httpClient) {
		c.http.Timeout = d
	}
}

type httpClient struct {
	apiKey       string
	cseID        string
	dateRestrict string
	baseURL      string
	http         *http.Client
}

// NewClient creates a Custom Search client.
func NewClient(apiKey, cseID string, opts ...Option) Client {
	c := &httpClient{
		apiKey:       apiKey,
		cseID:        cseID,
		dateRestrict: "d7",
		baseURL:      defaultBaseURL,
		http: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) Search(ctx context.Context, query string) ([]Item, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("cx", c.cseID)
	params.Set("key", c.apiKey)
	if c.dateRestrict != "" {
		params.Set("dateRestrict", c.dateRestrict)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "search: create request")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "search: send request")
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "search: read response")
	}

	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("search: unexpected status %d: %s", resp.StatusCode, string(body))
	}

	var result searchResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, eris.Wrap(err, "search: unmarshal response")
	}

	return result.Items, nil
}
