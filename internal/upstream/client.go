// Package upstream fetches guild snapshots from the public Deep Town stats
// API. The source is unreliable: timeouts, non-200 responses and malformed
// payloads are everyday events, so everything except a clean 404 surfaces
// as ErrUnavailable and callers treat it as transient.
package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/matesxs/deeptown-event-tracker/internal/model"
)

var (
	// ErrNotFound indicates the guild does not exist upstream.
	ErrNotFound = errors.New("guild not found upstream")

	// ErrUnavailable indicates a transient upstream failure (timeout,
	// non-200, malformed payload). Callers requeue and retry.
	ErrUnavailable = errors.New("upstream unavailable")
)

// Config holds upstream client settings
type Config struct {
	BaseURL      string
	FetchTimeout time.Duration
}

// Client talks to the guild-stats API
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a new upstream client
func NewClient(cfg Config) *Client {
	timeout := cfg.FetchTimeout
	if timeout == 0 {
		timeout = 20 * time.Second
	}
	return &Client{
		baseURL: cfg.BaseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

// FetchGuildSnapshot retrieves the current roster payload for one guild.
func (c *Client) FetchGuildSnapshot(ctx context.Context, guildID int64) (*model.GuildSnapshot, error) {
	url := fmt.Sprintf("%s/guild/%d", c.baseURL, guildID)

	var snapshot model.GuildSnapshot
	if err := c.getJSON(ctx, url, &snapshot); err != nil {
		return nil, err
	}

	// A payload without the guild id is truncated or from a broken cache;
	// applying it would reconcile the wrong guild.
	if snapshot.GuildID != guildID {
		return nil, fmt.Errorf("%w: payload guild id %d does not match requested %d",
			ErrUnavailable, snapshot.GuildID, guildID)
	}

	return &snapshot, nil
}

// ListAllGuildIDs retrieves the full upstream guild listing.
func (c *Client) ListAllGuildIDs(ctx context.Context) ([]int64, error) {
	url := fmt.Sprintf("%s/guild/ids", c.baseURL)

	var ids []int64
	if err := c.getJSON(ctx, url, &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

func (c *Client) getJSON(ctx context.Context, url string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("%w: unexpected status %d", ErrUnavailable, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: malformed payload: %v", ErrUnavailable, err)
	}
	return nil
}
