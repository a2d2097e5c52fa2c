// Package prediction asks the classifier service for a complaint's category
// and urgency.
package prediction

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"servicepulse/backend/internal/config"
	"servicepulse/backend/internal/logger"
	"servicepulse/backend/internal/models"
)

// Predictor is what the complaint service needs from the classifier.
type Predictor interface {
	Predict(ctx context.Context, title, description string) *models.Prediction
}

type Client struct {
	baseURL    string
	timeout    time.Duration
	httpClient *http.Client
	log        *slog.Logger
}

type predictRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type predictResponse struct {
	Category   string  `json:"category"`
	Urgency    string  `json:"urgency"`
	Confidence float64 `json:"confidence"`
	Candidates []struct {
		Label string  `json:"label"`
		Prob  float64 `json:"prob"`
	} `json:"candidates"`
}

// NewClient returns a client for the service at cfg.BaseURL. An empty base
// URL gives a client whose Predict always returns nil.
func NewClient(cfg config.PredictionConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = config.PredictionTimeout
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		timeout:    timeout,
		httpClient: &http.Client{Timeout: timeout},
		log:        logger.WithComponent("prediction"),
	}
}

func (c *Client) Enabled() bool {
	return c != nil && c.baseURL != ""
}

// Predict returns the classifier's suggestion or nil on any failure.
func (c *Client) Predict(ctx context.Context, title, description string) *models.Prediction {
	if !c.Enabled() {
		return nil
	}

	p, err := c.predict(ctx, title, description)
	if err != nil {
		c.log.Warn("prediction unavailable", "error", err)
		return nil
	}
	return p
}

func (c *Client) predict(ctx context.Context, title, description string) (*models.Prediction, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	body, err := json.Marshal(predictRequest{Title: title, Description: description})
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/predict", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call classifier: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var out predictResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	p := &models.Prediction{
		Category:   NormalizeCategory(out.Category),
		Urgency:    NormalizeUrgency(out.Urgency),
		Confidence: out.Confidence,
	}
	for _, cand := range out.Candidates {
		if cand.Label != "" {
			p.Candidates = append(p.Candidates, NormalizeCategory(cand.Label))
		}
	}
	return p, nil
}

// NormalizeCategory maps a free-form label ("plumbing", "ELECTRICAL") onto
// config.Categories. Anything unknown becomes the default category.
func NormalizeCategory(label string) string {
	label = titleCase(label)
	for _, c := range config.Categories {
		if c == label {
			return c
		}
	}
	return config.DefaultCategory
}

// NormalizeUrgency maps a label onto config.Urgencies, defaulting to Medium.
func NormalizeUrgency(label string) string {
	label = titleCase(label)
	for _, u := range config.Urgencies {
		if u == label {
			return u
		}
	}
	return config.DefaultUrgency
}

// Casers are stateful, so each call gets its own.
func titleCase(s string) string {
	return cases.Title(language.English).String(strings.TrimSpace(s))
}
