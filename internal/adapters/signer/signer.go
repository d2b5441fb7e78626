// Package signer delegates transaction signing to an operator-run signing
// service reachable over HTTP.
package signer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/okian/hiveclaim/internal/adapters/hive"
	"github.com/okian/hiveclaim/internal/domain/model"
)

// DefaultTimeout bounds one signing request.
const DefaultTimeout = 10 * time.Second

// ErrNoURL is returned when the signer is created without an endpoint.
var ErrNoURL = errors.New("signer url is empty")

// HTTPSigner posts unsigned transactions to a signing service and attaches
// the signatures it returns.
type HTTPSigner struct {
	url     string
	chainID string
	client  *http.Client
	timeout time.Duration
}

var _ hive.Signer = (*HTTPSigner)(nil)

// Option configures HTTPSigner.
type Option func(*HTTPSigner)

// WithChainID overrides the chain id sent with each request.
func WithChainID(id string) Option {
	return func(s *HTTPSigner) {
		if id != "" {
			s.chainID = id
		}
	}
}

// WithHTTPClient sets a custom http.Client.
func WithHTTPClient(client *http.Client) Option {
	return func(s *HTTPSigner) {
		if client != nil {
			s.client = client
		}
	}
}

// WithTimeout sets the request timeout. A client given through
// WithHTTPClient is copied, never modified.
func WithTimeout(d time.Duration) Option {
	return func(s *HTTPSigner) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// New creates a signer for the service at url.
func New(url string, opts ...Option) (*HTTPSigner, error) {
	if url == "" {
		return nil, ErrNoURL
	}
	s := &HTTPSigner{
		url:     url,
		chainID: hive.ChainID,
		client:  &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.timeout > 0 {
		hc := *s.client
		hc.Timeout = s.timeout
		s.client = &hc
	}
	return s, nil
}

type signRequest struct {
	ChainID     string           `json:"chain_id"`
	Transaction hive.Transaction `json:"transaction"`
	Key         string           `json:"key"`
}

type signResponse struct {
	Signatures []string `json:"signatures"`
	Error      string   `json:"error,omitempty"`
}

// Sign returns tx with the service's signatures appended.
func (s *HTTPSigner) Sign(ctx context.Context, tx hive.Transaction, key model.Credential) (hive.Transaction, error) {
	if key.IsEmpty() {
		return hive.Transaction{}, errors.New("no signing key")
	}
	body, err := json.Marshal(signRequest{ChainID: s.chainID, Transaction: tx, Key: key.Reveal()})
	if err != nil {
		return hive.Transaction{}, fmt.Errorf("marshal sign request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return hive.Transaction{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return hive.Transaction{}, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return hive.Transaction{}, fmt.Errorf("read response: %w", err)
	}

	var out signResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		if resp.StatusCode != http.StatusOK {
			return hive.Transaction{}, fmt.Errorf("unexpected status %d", resp.StatusCode)
		}
		return hive.Transaction{}, fmt.Errorf("unmarshal response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		if out.Error != "" {
			return hive.Transaction{}, fmt.Errorf("signer status %d: %s", resp.StatusCode, out.Error)
		}
		return hive.Transaction{}, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	signed := tx
	signed.Signatures = append(append([]string{}, tx.Signatures...), out.Signatures...)
	return signed, nil
}
