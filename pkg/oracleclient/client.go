/**
 * @description
 * This package provides a client for the oracle feed API that serves property
 * price quotes and proof-of-reserve attestations. It is a pure read adapter:
 * the gateway never mutates engine state, and staleness of an answer is
 * judged by each consuming component against its own tolerance window.
 *
 * @dependencies
 * - context, encoding/json, fmt, net/http, time: Standard Go libraries.
 */
package oracleclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client is a client for the oracle feed API.
type Client struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
}

// NewClient creates a new oracle feed client.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		BaseURL: baseURL,
		APIKey:  apiKey,
		HTTPClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// PriceQuote is the latest price answer for an asset. Value carries 8 fixed
// decimals in the smallest currency unit.
type PriceQuote struct {
	AssetID   int64     `json:"asset_id"`
	Value     int64     `json:"value"`
	Timestamp time.Time `json:"timestamp"`
}

// ReserveStatus is the latest proof-of-reserve attestation for an asset.
type ReserveStatus struct {
	AssetID           int64     `json:"asset_id"`
	AttestedValue     int64     `json:"attested_value"`
	ConfidencePercent int       `json:"confidence_percent"`
	Timestamp         time.Time `json:"timestamp"`
}

// Age returns how old the quote is relative to now.
func (q *PriceQuote) Age(now time.Time) time.Duration {
	return now.Sub(q.Timestamp)
}

// Age returns how old the attestation is relative to now.
func (s *ReserveStatus) Age(now time.Time) time.Duration {
	return now.Sub(s.Timestamp)
}

// LatestPrice fetches the most recent price quote for an asset.
func (c *Client) LatestPrice(ctx context.Context, assetID int64) (*PriceQuote, error) {
	var quote PriceQuote
	if err := c.get(ctx, fmt.Sprintf("/v1/feeds/price/%d", assetID), &quote); err != nil {
		return nil, fmt.Errorf("latest price for asset %d: %w", assetID, err)
	}
	return &quote, nil
}

// LatestReserveStatus fetches the most recent reserve attestation for an
// asset.
func (c *Client) LatestReserveStatus(ctx context.Context, assetID int64) (*ReserveStatus, error) {
	var status ReserveStatus
	if err := c.get(ctx, fmt.Sprintf("/v1/feeds/reserves/%d", assetID), &status); err != nil {
		return nil, fmt.Errorf("latest reserve status for asset %d: %w", assetID, err)
	}
	return &status, nil
}

func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.APIKey != "" {
		req.Header.Set("x-api-key", c.APIKey)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("oracle API returned status %d: %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
