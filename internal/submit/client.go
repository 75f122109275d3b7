// Package submit pushes approved findings to a remote findings service.
package submit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pmilanese/kinseek/internal/model"
	"github.com/pmilanese/kinseek/internal/staging"
)

// Client submits findings over HTTP as JSON.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
}

// Receipt is the service's acknowledgement of a batch.
type Receipt struct {
	Accepted int      `json:"accepted"`
	Rejected []string `json:"rejected,omitempty"`
}

type batchRequest struct {
	Findings []staging.Finding `json:"findings"`
}

// NewClient builds a client from configuration.
func NewClient(cfg model.SubmitConfig) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("submit base_url is required")
	}
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		token:      cfg.Token,
	}, nil
}

// Submit posts a batch of findings and returns the service receipt.
func (c *Client) Submit(ctx context.Context, findings []staging.Finding) (*Receipt, error) {
	if len(findings) == 0 {
		return &Receipt{}, nil
	}

	body, err := json.Marshal(batchRequest{Findings: findings})
	if err != nil {
		return nil, fmt.Errorf("encode findings: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/findings", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("submit findings: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("submit findings: %s: %s", resp.Status, strings.TrimSpace(string(detail)))
	}

	var receipt Receipt
	if err := json.NewDecoder(resp.Body).Decode(&receipt); err != nil {
		return nil, fmt.Errorf("decode receipt: %w", err)
	}
	return &receipt, nil
}

// Approved submits every approved finding in the store and marks the ones
// the service accepted as submitted. Findings named in the receipt's
// rejected list stay approved.
func Approved(ctx context.Context, c *Client, store staging.Store) (*Receipt, error) {
	findings, err := store.ByStatus(ctx, staging.StatusApproved)
	if err != nil {
		return nil, err
	}
	if len(findings) == 0 {
		return &Receipt{}, nil
	}

	receipt, err := c.Submit(ctx, findings)
	if err != nil {
		return nil, err
	}

	rejected := make(map[string]bool, len(receipt.Rejected))
	for _, id := range receipt.Rejected {
		rejected[id] = true
	}
	for _, f := range findings {
		if rejected[f.ID] {
			continue
		}
		if err := store.SetStatus(ctx, f.ID, staging.StatusSubmitted, f.Notes); err != nil {
			return receipt, fmt.Errorf("mark %s submitted: %w", f.ID, err)
		}
	}
	return receipt, nil
}
