// Package feed fetches candidate todos from the external demo API
// (a JSONPlaceholder-style endpoint returning a JSON array).
package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	domain "todoapi/internal/domain/model"
)

// Item is one record of the external feed.
type Item struct {
	ID        int64  `json:"id"`
	UserID    int64  `json:"userId"`
	Title     string `json:"title"`
	Completed bool   `json:"completed"`
}

type Client struct {
	url    string
	client *http.Client
}

func NewClient(url string) *Client {
	return &Client{
		url:    url,
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

// Fetch performs a single GET against the feed. Any transport failure,
// non-2xx status, or malformed body is reported as ErrFeedUnavailable;
// an empty array is a valid (empty) result, not a failure.
func (c *Client) Fetch(ctx context.Context) ([]Item, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("build feed request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrFeedUnavailable, err)
	}

	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: status %d", domain.ErrFeedUnavailable, resp.StatusCode)
	}

	var items []Item
	if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
		return nil, fmt.Errorf("%w: decode body: %v", domain.ErrFeedUnavailable, err)
	}

	return items, nil
}
