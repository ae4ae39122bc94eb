package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/igolaizola/rapgen/pkg/generator"
	"github.com/igolaizola/rapgen/pkg/lyrics"
)

// Client generates lyrics through a remote rapgen server.
type Client struct {
	baseURL string
	client  *http.Client
}

var _ generator.Client = (*Client)(nil)

func NewClient(baseURL string, client *http.Client) *Client {
	if client == nil {
		client = &http.Client{Timeout: 2 * time.Minute}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
	}
}

// Generate implements generator.Client. The budget is derived by the server
// from the requested length.
func (c *Client) Generate(ctx context.Context, req lyrics.Request, budget int) (string, error) {
	body := &lyricsRequest{Theme: req.Theme, Mood: req.Mood, Length: string(req.Length)}
	var resp lyricsResponse
	if err := c.do(ctx, http.MethodPost, "/api/lyrics", body, &resp); err != nil {
		return "", err
	}
	text := strings.TrimSpace(resp.Lyrics)
	if text == "" {
		return "", fmt.Errorf("api: server returned no lyrics: %w", lyrics.ErrEmptyResponse)
	}
	return text, nil
}

// Health queries the health endpoint of the server.
func (c *Client) Health(ctx context.Context) (*Health, error) {
	var resp Health
	if err := c.do(ctx, http.MethodGet, "/api/health", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		js, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("api: couldn't marshal request: %w", err)
		}
		body = bytes.NewReader(js)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("api: couldn't create request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("api: couldn't reach server: %w: %v", lyrics.ErrUpstream, err)
	}
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("api: couldn't read response: %w: %v", lyrics.ErrUpstream, err)
	}

	if resp.StatusCode != http.StatusOK {
		var e errorResponse
		_ = json.Unmarshal(b, &e)
		msg := e.Error
		if msg == "" {
			msg = strings.TrimSpace(string(b))
		}
		if e.Details != "" {
			msg = fmt.Sprintf("%s: %s", msg, e.Details)
		}
		var sentinel error
		switch resp.StatusCode {
		case http.StatusBadRequest:
			sentinel = lyrics.ErrValidation
		case http.StatusInternalServerError:
			sentinel = lyrics.ErrConfiguration
		default:
			sentinel = lyrics.ErrUpstream
		}
		return fmt.Errorf("api: %w: %s (%d)", sentinel, msg, resp.StatusCode)
	}
	if err := json.Unmarshal(b, out); err != nil {
		return fmt.Errorf("api: couldn't decode response %q: %w: %v", string(b), lyrics.ErrUpstream, err)
	}
	return nil
}
