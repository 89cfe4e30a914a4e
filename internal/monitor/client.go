package monitor

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/felo/sportai-web-sub011/internal/httputil"
	"github.com/felo/sportai-web-sub011/internal/session"
)

// Client calls a running overlay daemon's monitor API. The zero BaseURL is
// not usable; construct with NewClient.
type Client struct {
	HTTPClient httputil.Doer
	BaseURL    string
}

// NewClient creates a monitor API client for the daemon at baseURL. A nil
// httpClient gets a 30 second timeout transport.
func NewClient(httpClient httputil.Doer, baseURL string) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{HTTPClient: httpClient, BaseURL: baseURL}
}

// VersionInfo mirrors the /api/version response.
type VersionInfo struct {
	Version   string `json:"version"`
	GitSHA    string `json:"git_sha"`
	BuildTime string `json:"build_time"`
}

// SessionDetail mirrors the /api/session response.
type SessionDetail struct {
	Session     *session.Session `json:"session"`
	SampleCount int64            `json:"sample_count"`
}

// Health checks the daemon's health endpoint.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("status %d: %s", resp.StatusCode, string(body))
	}
	return nil
}

// Version fetches the daemon's build identification.
func (c *Client) Version(ctx context.Context) (*VersionInfo, error) {
	var info VersionInfo
	if err := c.getJSON(ctx, "/api/version", nil, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// Sessions lists recorded sessions, newest first, optionally filtered by
// pose model name.
func (c *Client) Sessions(ctx context.Context, model string) ([]*session.Session, error) {
	q := url.Values{}
	if model != "" {
		q.Set("model", model)
	}
	var sessions []*session.Session
	if err := c.getJSON(ctx, "/api/sessions", q, &sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

// Session fetches one session and its sample count.
func (c *Client) Session(ctx context.Context, sessionID string) (*SessionDetail, error) {
	q := url.Values{"session_id": {sessionID}}
	var detail SessionDetail
	if err := c.getJSON(ctx, "/api/session", q, &detail); err != nil {
		return nil, err
	}
	return &detail, nil
}

// Samples fetches up to limit recorded samples for a session in frame
// order. limit <= 0 leaves the server default in place.
func (c *Client) Samples(ctx context.Context, sessionID string, limit int) ([]*session.Sample, error) {
	q := url.Values{"session_id": {sessionID}}
	if limit > 0 {
		q.Set("limit", fmt.Sprintf("%d", limit))
	}
	var samples []*session.Sample
	if err := c.getJSON(ctx, "/api/session/samples", q, &samples); err != nil {
		return nil, err
	}
	return samples, nil
}

// Snapshot fetches the latest rendered frame's overlay state.
func (c *Client) Snapshot(ctx context.Context) (*FrameSnapshot, error) {
	var snap FrameSnapshot
	if err := c.getJSON(ctx, "/api/snapshot", nil, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// SetLabel updates a session's label.
func (c *Client) SetLabel(ctx context.Context, sessionID, label string) error {
	q := url.Values{"session_id": {sessionID}, "label": {label}}
	return c.post(ctx, "/api/session/label", q)
}

// DeleteSession removes a session and all of its samples.
func (c *Client) DeleteSession(ctx context.Context, sessionID string) error {
	q := url.Values{"session_id": {sessionID}}
	return c.post(ctx, "/api/session/delete", q)
}

func (c *Client) getJSON(ctx context.Context, path string, q url.Values, out interface{}) error {
	u := c.BaseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("GET %s: status %d: %s", path, resp.StatusCode, string(body))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s response: %w", path, err)
	}
	return nil
}

func (c *Client) post(ctx context.Context, path string, q url.Values) error {
	u := c.BaseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("POST %s: status %d: %s", path, resp.StatusCode, string(body))
	}
	return nil
}
