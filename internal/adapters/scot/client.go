// Package scot reads pending Hive-Engine SCOT token rewards and claims them
// with a scot_claim_token custom_json operation.
package scot

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultTimeout bounds one API request.
const DefaultTimeout = 10 * time.Second

// TokenReward is the pending reward of one token, already scaled by its
// precision.
type TokenReward struct {
	Symbol    string
	Pending   decimal.Decimal
	Precision int32
}

type tokenInfo struct {
	PendingToken decimal.Decimal `json:"pending_token"`
	Precision    int32           `json:"precision"`
}

// Client queries the SCOT API.
type Client struct {
	baseURL string
	client  *http.Client
	timeout time.Duration
}

// ClientOption configures Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom http.Client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		if client != nil {
			c.client = client
		}
	}
}

// WithTimeout sets the request timeout. A client given through
// WithHTTPClient is copied, never modified.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// NewClient creates a client for the API at baseURL.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.timeout > 0 {
		hc := *c.client
		hc.Timeout = c.timeout
		c.client = &hc
	}
	return c
}

// PendingRewards returns the tokens with a positive pending reward for
// account, sorted by symbol.
func (c *Client) PendingRewards(ctx context.Context, account string) ([]TokenReward, error) {
	endpoint := fmt.Sprintf("%s/@%s?hive=1", c.baseURL, url.PathEscape(account))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}

	var tokens map[string]tokenInfo
	if err := json.Unmarshal(body, &tokens); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}

	rewards := make([]TokenReward, 0, len(tokens))
	for symbol, info := range tokens {
		if !info.PendingToken.IsPositive() {
			continue
		}
		rewards = append(rewards, TokenReward{
			Symbol:    symbol,
			Pending:   info.PendingToken.Shift(-info.Precision),
			Precision: info.Precision,
		})
	}
	sort.Slice(rewards, func(i, j int) bool { return rewards[i].Symbol < rewards[j].Symbol })
	return rewards, nil
}
