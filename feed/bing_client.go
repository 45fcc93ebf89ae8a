// Package feed talks to the daily image feed and parses its markdown history dumps.
package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"
)

// Image is one element of the feed API's images array
type Image struct {
	StartDate     string `json:"startdate"`
	FullStartDate string `json:"fullstartdate"`
	EndDate       string `json:"enddate"`
	URL           string `json:"url"`
	URLBase       string `json:"urlbase"`
	Copyright     string `json:"copyright"`
	CopyrightLink string `json:"copyrightlink"`
	Title         string `json:"title"`
	Quiz          string `json:"quiz"`
	Hsh           string `json:"hsh"`
}

type archiveResponse struct {
	Images []Image `json:"images"`
}

// Client fetches feed windows. requests are spaced by the configured delay
type Client struct {
	BaseURL    string
	Market     string
	HTTPClient *http.Client

	limiter *rate.Limiter
}

func NewClient(baseURL, market string, timeout, delay time.Duration) *Client {
	limit := rate.Inf
	if delay > 0 {
		limit = rate.Every(delay)
	}
	return &Client{
		BaseURL:    baseURL,
		Market:     market,
		HTTPClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(limit, 1),
	}
}

// Fetch returns n images starting idx days back (0 is today)
func (c *Client) Fetch(ctx context.Context, idx, n int) ([]Image, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("feed: bad base url '%s': %w", c.BaseURL, err)
	}
	q := u.Query()
	q.Set("format", "js")
	q.Set("idx", strconv.Itoa(idx))
	q.Set("n", strconv.Itoa(n))
	q.Set("mkt", c.Market)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("feed: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed: API returned %d", resp.StatusCode)
	}

	var payload archiveResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("feed: decode response: %w", err)
	}
	return payload.Images, nil
}
