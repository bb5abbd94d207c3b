package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"signcast/internal/status"
)

// Client talks to a running daemon's HTTP API.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient builds a client for the given bind address. The address may be a
// bare host:port or a full URL.
func NewClient(bind, token string) *Client {
	base := strings.TrimSpace(bind)
	if base != "" && !strings.Contains(base, "://") {
		base = "http://" + base
	}
	return &Client{
		baseURL:    strings.TrimRight(base, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Submit posts a new generation request.
func (c *Client) Submit(ctx context.Context, req SubmitRequest) (SubmitResponse, error) {
	var resp SubmitResponse
	err := c.do(ctx, http.MethodPost, "/api/generations", req, &resp)
	return resp, err
}

// Job fetches one job's display view.
func (c *Client) Job(ctx context.Context, jobID string) (*status.JobView, error) {
	var resp JobResponse
	if err := c.do(ctx, http.MethodGet, "/api/generations/"+url.PathEscape(jobID), nil, &resp); err != nil {
		return nil, err
	}
	return resp.Job, nil
}

// Jobs lists jobs, optionally filtered by status values.
func (c *Client) Jobs(ctx context.Context, states ...string) ([]*status.JobView, error) {
	path := "/api/generations"
	if len(states) > 0 {
		query := url.Values{}
		for _, state := range states {
			query.Add("status", state)
		}
		path += "?" + query.Encode()
	}
	var resp JobListResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Jobs, nil
}

// Cancel terminates a live job.
func (c *Client) Cancel(ctx context.Context, jobID string) error {
	return c.do(ctx, http.MethodDelete, "/api/generations/"+url.PathEscape(jobID), nil, nil)
}

// Models lists the supported avatar models.
func (c *Client) Models(ctx context.Context) ([]string, error) {
	var resp ModelsResponse
	if err := c.do(ctx, http.MethodGet, "/api/models", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Models, nil
}

// Promote makes a temporary artifact permanent for the given owner.
func (c *Client) Promote(ctx context.Context, artifactID, ownerID string) (ArtifactResponse, error) {
	var resp ArtifactResponse
	err := c.do(ctx, http.MethodPost, "/api/artifacts/"+url.PathEscape(artifactID)+"/promote", PromoteRequest{OwnerID: ownerID}, &resp)
	return resp, err
}

// DeleteArtifact removes a temporary artifact.
func (c *Client) DeleteArtifact(ctx context.Context, artifactID string) error {
	return c.do(ctx, http.MethodDelete, "/api/artifacts/"+url.PathEscape(artifactID), nil, nil)
}

// Sweep triggers an immediate expiry sweep.
func (c *Client) Sweep(ctx context.Context) (SweepResponse, error) {
	var resp SweepResponse
	err := c.do(ctx, http.MethodPost, "/api/artifacts/sweep", nil, &resp)
	return resp, err
}

// Health fetches component health.
func (c *Client) Health(ctx context.Context) (HealthResponse, error) {
	var resp HealthResponse
	err := c.do(ctx, http.MethodGet, "/api/health", nil, &resp)
	return resp, err
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	if c.baseURL == "" {
		return fmt.Errorf("daemon API address not configured")
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("daemon unreachable at %s: %w", c.baseURL, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= 400 {
		var apiErr ErrorResponse
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("%s", apiErr.Error)
		}
		return fmt.Errorf("daemon returned status %d", resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
