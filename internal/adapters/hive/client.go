// Package hive talks to Hive API nodes over condenser_api JSON-RPC and
// implements the reward claim gateway on top of it.
package hive

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/okian/hiveclaim/pkg/logger"
)

// Default configuration values.
const (
	DefaultTimeout     = 10 * time.Second
	DefaultMaxRetries  = 3
	DefaultRetryDelay  = 500 * time.Millisecond
	DefaultMaxDelay    = 5 * time.Second
	DefaultBackoffMult = 2.0
)

// Client is a JSON-RPC 2.0 client over an ordered list of API nodes. A
// failing node is rotated out in favour of the next one.
type Client struct {
	nodes       []string
	active      atomic.Uint32
	client      *http.Client
	timeout     time.Duration
	maxRetries  int
	retryDelay  time.Duration
	maxDelay    time.Duration
	backoffMult float64
	requestID   atomic.Uint64
	logger      logger.Logger
}

// ClientOption configures Client.
type ClientOption func(*Client)

// WithTimeout sets the per-request HTTP timeout. A client given through
// WithHTTPClient is copied, never modified.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithMaxRetries sets the maximum retry attempts.
func WithMaxRetries(n int) ClientOption {
	return func(c *Client) {
		if n >= 0 {
			c.maxRetries = n
		}
	}
}

// WithRetryDelay sets the initial retry delay.
func WithRetryDelay(d time.Duration) ClientOption {
	return func(c *Client) {
		c.retryDelay = d
	}
}

// WithMaxDelay caps the retry delay.
func WithMaxDelay(d time.Duration) ClientOption {
	return func(c *Client) {
		c.maxDelay = d
	}
}

// WithHTTPClient sets a custom http.Client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		if client != nil {
			c.client = client
		}
	}
}

// WithLogger sets the client logger.
func WithLogger(l logger.Logger) ClientOption {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewClient creates a client for nodes, tried in order.
func NewClient(nodes []string, opts ...ClientOption) (*Client, error) {
	if len(nodes) == 0 {
		return nil, ErrNoNodes
	}
	c := &Client{
		nodes:       append([]string(nil), nodes...),
		client:      &http.Client{Timeout: DefaultTimeout},
		maxRetries:  DefaultMaxRetries,
		retryDelay:  DefaultRetryDelay,
		maxDelay:    DefaultMaxDelay,
		backoffMult: DefaultBackoffMult,
		logger:      logger.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.timeout > 0 {
		hc := *c.client
		hc.Timeout = c.timeout
		c.client = &hc
	}
	return c, nil
}

// Node returns the node currently in use.
func (c *Client) Node() string {
	return c.nodes[int(c.active.Load())%len(c.nodes)]
}

func (c *Client) rotate(from string) {
	idx := c.active.Load()
	if c.nodes[int(idx)%len(c.nodes)] != from {
		return
	}
	c.active.CompareAndSwap(idx, (idx+1)%uint32(len(c.nodes)))
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      uint64 `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      uint64          `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
}

// RPCError is an error reported by the node itself. It is not retried.
type RPCError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("RPC error %d: %s", e.Code, e.Message)
}

// call performs a read-only JSON-RPC call with retries.
func (c *Client) call(ctx context.Context, method string, params []any, result any) error {
	return c.do(ctx, method, params, result, c.maxRetries)
}

// callOnce sends a state-changing call to a single node. A failed attempt
// may still have reached the chain, so it is never re-sent.
func (c *Client) callOnce(ctx context.Context, method string, params []any, result any) error {
	return c.do(ctx, method, params, result, 0)
}

// do performs a JSON-RPC call with up to retries retries and exponential
// backoff, moving to the next node after every failed attempt.
func (c *Client) do(ctx context.Context, method string, params []any, result any, retries int) error {
	if params == nil {
		params = []any{}
	}
	body, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		ID:      c.requestID.Add(1),
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	delay := c.retryDelay
	var lastErr error

	for attempt := 0; attempt <= retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			delay = time.Duration(float64(delay) * c.backoffMult)
			if delay > c.maxDelay {
				delay = c.maxDelay
			}
		}

		node := c.Node()
		rpcErr, err := c.post(ctx, node, body, result)
		if rpcErr != nil {
			return rpcErr
		}
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		lastErr = err
		c.logger.Debug(ctx, "rpc attempt failed",
			logger.String("method", method),
			logger.String("node", node),
			logger.Int("attempt", attempt+1),
			logger.Error(err),
		)
		c.rotate(node)
	}

	if retries == 0 {
		return lastErr
	}
	return fmt.Errorf("max retries exceeded: %w", lastErr)
}

// post sends one request. Node-reported errors come back as *RPCError;
// everything else is a retryable transport failure.
func (c *Client) post(ctx context.Context, node string, body []byte, result any) (*RPCError, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, node, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	respBody, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, fmt.Errorf("rate limited (429)")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(respBody))
	}

	var rpcResp rpcResponse
	if err := json.Unmarshal(respBody, &rpcResp); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	if rpcResp.Error != nil {
		return rpcResp.Error, nil
	}
	if result != nil && rpcResp.Result != nil {
		if err := json.Unmarshal(rpcResp.Result, result); err != nil {
			return nil, fmt.Errorf("unmarshal result: %w", err)
		}
	}
	return nil, nil
}

// GetAccounts returns the accounts found among names. Unknown names are
// omitted by the node.
func (c *Client) GetAccounts(ctx context.Context, names ...string) ([]Account, error) {
	var accounts []Account
	if err := c.call(ctx, "condenser_api.get_accounts", []any{names}, &accounts); err != nil {
		return nil, err
	}
	return accounts, nil
}

// GetDynamicGlobalProperties returns the current head block state.
func (c *Client) GetDynamicGlobalProperties(ctx context.Context) (*DynamicGlobalProperties, error) {
	var props DynamicGlobalProperties
	if err := c.call(ctx, "condenser_api.get_dynamic_global_properties", nil, &props); err != nil {
		return nil, err
	}
	return &props, nil
}

// BroadcastTransactionSynchronous broadcasts a signed transaction and waits
// for it to be included in a block. It is sent exactly once; on a transport
// failure the node is rotated for later calls and ErrBroadcastUnknown is
// returned, since the transaction may have been accepted anyway.
func (c *Client) BroadcastTransactionSynchronous(ctx context.Context, tx Transaction) (*BroadcastResult, error) {
	var res BroadcastResult
	err := c.callOnce(ctx, "condenser_api.broadcast_transaction_synchronous", []any{tx}, &res)
	if err == nil {
		return &res, nil
	}
	var rpcErr *RPCError
	if errors.As(err, &rpcErr) {
		return nil, err
	}
	return nil, fmt.Errorf("%w: %w", ErrBroadcastUnknown, err)
}

