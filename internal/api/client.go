package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client talks to a running daemon's HTTP API.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient builds a client for the daemon listening at bind (host:port).
func NewClient(bind string) *Client {
	base := strings.TrimSpace(bind)
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "http://" + base
	}
	return &Client{
		baseURL: strings.TrimRight(base, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// Status fetches daemon runtime information.
func (c *Client) Status(ctx context.Context) (DaemonStatus, error) {
	var status DaemonStatus
	err := c.get(ctx, "/api/status", nil, &status)
	return status, err
}

// Jobs lists work items, optionally filtered by status.
func (c *Client) Jobs(ctx context.Context, statuses ...string) ([]JobView, error) {
	query := url.Values{}
	for _, status := range statuses {
		query.Add("status", status)
	}
	var response JobListResponse
	if err := c.get(ctx, "/api/jobs", query, &response); err != nil {
		return nil, err
	}
	return response.Items, nil
}

// Job looks up one fingerprint.
func (c *Client) Job(ctx context.Context, fingerprint string) (JobStatusResponse, error) {
	var response JobStatusResponse
	err := c.get(ctx, "/api/jobs/"+url.PathEscape(fingerprint), nil, &response)
	return response, err
}

// Children lists the edits derived from a source asset.
func (c *Client) Children(ctx context.Context, sourceLocation string) (ChildrenResponse, error) {
	query := url.Values{"source": []string{sourceLocation}}
	var response ChildrenResponse
	err := c.get(ctx, "/api/children", query, &response)
	return response, err
}

// Synthesize submits a clip-synthesis request.
func (c *Client) Synthesize(ctx context.Context, request SynthesizeRequest) (JobStatusResponse, error) {
	var response JobStatusResponse
	err := c.post(ctx, "/api/clips", request, &response)
	return response, err
}

// Edit submits a video-edit request.
func (c *Client) Edit(ctx context.Context, request EditRequest) (JobStatusResponse, error) {
	var response JobStatusResponse
	err := c.post(ctx, "/api/edits", request, &response)
	return response, err
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	return c.do(request, out)
}

func (c *Client) post(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	request, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	request.Header.Set("Content-Type", "application/json")
	return c.do(request, out)
}

func (c *Client) do(request *http.Request, out any) error {
	response, err := c.http.Do(request)
	if err != nil {
		return fmt.Errorf("daemon unreachable at %s: %w", c.baseURL, err)
	}
	defer response.Body.Close()

	if response.StatusCode >= http.StatusBadRequest {
		var apiErr ErrorResponse
		if decodeErr := json.NewDecoder(response.Body).Decode(&apiErr); decodeErr == nil && apiErr.Error != "" {
			return fmt.Errorf("daemon: %s", apiErr.Error)
		}
		return fmt.Errorf("daemon returned status %d", response.StatusCode)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(response.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
