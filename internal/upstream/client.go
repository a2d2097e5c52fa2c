// Package upstream talks to the optional remote complaints backend. Every
// call is bounded by a timeout and callers fall back to the local store on
// any error.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"servicepulse/backend/internal/config"
	"servicepulse/backend/internal/logger"
	"servicepulse/backend/internal/models"
)

// ErrDisabled is returned by every call when no base URL is configured.
var ErrDisabled = errors.New("upstream: disabled")

// Backend is the subset of the remote API the services use.
type Backend interface {
	Enabled() bool
	CreateComplaint(ctx context.Context, c models.Complaint) (models.Complaint, error)
	UpdateComplaint(ctx context.Context, id models.FlexID, patch map[string]any) (models.Complaint, error)
	ListComplaints(ctx context.Context) ([]models.Complaint, error)
	CreateVendor(ctx context.Context, v models.Vendor) (models.Vendor, error)
}

type Client struct {
	baseURL    string
	timeout    time.Duration
	httpClient *http.Client
	log        *slog.Logger
}

func NewClient(cfg config.UpstreamConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = config.UpstreamTimeout
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		timeout:    timeout,
		httpClient: &http.Client{Timeout: timeout},
		log:        logger.WithComponent("upstream"),
	}
}

func (c *Client) Enabled() bool {
	return c != nil && c.baseURL != ""
}

func (c *Client) CreateComplaint(ctx context.Context, in models.Complaint) (models.Complaint, error) {
	var out models.Complaint
	err := c.do(ctx, http.MethodPost, "/api/complaints", in, &out)
	return out, err
}

// UpdateComplaint sends a partial update and returns the server's record.
func (c *Client) UpdateComplaint(ctx context.Context, id models.FlexID, patch map[string]any) (models.Complaint, error) {
	var out models.Complaint
	err := c.do(ctx, http.MethodPatch, "/api/complaints/"+url.PathEscape(id.String()), patch, &out)
	return out, err
}

func (c *Client) ListComplaints(ctx context.Context) ([]models.Complaint, error) {
	var out []models.Complaint
	err := c.do(ctx, http.MethodGet, "/api/complaints", nil, &out)
	return out, err
}

func (c *Client) CreateVendor(ctx context.Context, in models.Vendor) (models.Vendor, error) {
	var out models.Vendor
	err := c.do(ctx, http.MethodPost, "/api/vendors", in, &out)
	return out, err
}

// envelope matches servers that wrap payloads as {"data": ...}.
type envelope struct {
	Data json.RawMessage `json:"data"`
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	if !c.Enabled() {
		return ErrDisabled
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%s %s: unexpected status code: %d", method, path, resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if err := decode(raw, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	c.log.Debug("upstream call succeeded", "method", method, "path", path)
	return nil
}

func decode(raw []byte, out any) error {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var env envelope
		if err := json.Unmarshal(trimmed, &env); err == nil && len(env.Data) > 0 && string(env.Data) != "null" {
			return json.Unmarshal(env.Data, out)
		}
	}
	return json.Unmarshal(trimmed, out)
}
