// Package resolver talks to the remote video-resolution API that turns a
// social-media page URL into a direct download URL.
package resolver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

const userAgent = "Mozilla/5.0"

// Client queries one resolver endpoint.
type Client struct {
	baseURL string
	http    *http.Client
}

type resolveResponse struct {
	Success bool `json:"success"`
	Data    struct {
		URL string `json:"url"`
	} `json:"data"`
}

func New(baseURL string, timeout time.Duration) *Client {
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

// Resolve returns the direct download URL for videoURL.
func (c *Client) Resolve(ctx context.Context, videoURL string) (string, error) {
	if c.baseURL == "" {
		return "", errors.New("no resolver URL configured")
	}

	endpoint := fmt.Sprintf("%s/download?url=%s", c.baseURL, url.QueryEscape(videoURL))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("building resolver request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling resolver: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("resolver returned status %d", resp.StatusCode)
	}

	var parsed resolveResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decoding resolver response: %w", err)
	}
	if !parsed.Success || parsed.Data.URL == "" {
		return "", errors.New("resolver could not fetch the video")
	}

	return parsed.Data.URL, nil
}
