package chain

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/rpc"
)

// ErrMalformedBlock marks block payloads that cannot be decoded. Retrying does not help.
var ErrMalformedBlock = errors.New("malformed block")

const (
	MainnetNeardataURL = "https://mainnet.neardata.xyz"
	TestnetNeardataURL = "https://testnet.neardata.xyz"
)

// Client fetches blocks from a neardata server and, when configured, queries a NEAR
// JSON-RPC node for network status.
type Client struct {
	baseURL    string
	httpClient *http.Client
	rpcClient  *rpc.Client
}

// NewClient creates a client for the neardata base URL. rpcURL is optional.
func NewClient(ctx context.Context, baseURL, rpcURL string) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("neardata url is required")
	}

	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	if rpcURL != "" {
		rpcClient, err := rpc.DialContext(ctx, rpcURL)
		if err != nil {
			return nil, fmt.Errorf("dial rpc: %w", err)
		}
		c.rpcClient = rpcClient
	}
	return c, nil
}

// Close closes the underlying RPC client.
func (c *Client) Close() {
	if c.rpcClient != nil {
		c.rpcClient.Close()
	}
}

// Block returns the block at height. A nil message with a nil error means the height
// was skipped by the chain.
func (c *Client) Block(ctx context.Context, height uint64) (*StreamerMessage, error) {
	return c.getBlock(ctx, fmt.Sprintf("/v0/block/%d", height))
}

// FinalBlockHeight returns the chain tip to follow. With an RPC node configured it is
// the node's latest block height, otherwise the latest final block known to neardata.
func (c *Client) FinalBlockHeight(ctx context.Context) (uint64, error) {
	if c.rpcClient != nil {
		status, err := c.status(ctx)
		if err != nil {
			return 0, err
		}
		if status.SyncInfo.LatestBlockHeight == 0 {
			return 0, fmt.Errorf("rpc status: no latest block height")
		}
		return status.SyncInfo.LatestBlockHeight, nil
	}

	msg, err := c.getBlock(ctx, "/v0/last_block/final")
	if err != nil {
		return 0, err
	}
	if msg == nil {
		return 0, fmt.Errorf("last final block is empty")
	}
	return msg.Height(), nil
}

type nodeStatus struct {
	ChainID  string `json:"chain_id"`
	SyncInfo struct {
		LatestBlockHeight uint64 `json:"latest_block_height"`
	} `json:"sync_info"`
}

// ChainID asks the RPC node which network it serves ("mainnet", "testnet").
func (c *Client) ChainID(ctx context.Context) (string, error) {
	if c.rpcClient == nil {
		return "", fmt.Errorf("rpc url is not configured")
	}
	status, err := c.status(ctx)
	if err != nil {
		return "", err
	}
	return status.ChainID, nil
}

func (c *Client) status(ctx context.Context) (nodeStatus, error) {
	var status nodeStatus
	if err := c.rpcClient.CallContext(ctx, &status, "status"); err != nil {
		return nodeStatus{}, fmt.Errorf("rpc status: %w", err)
	}
	return status, nil
}

func (c *Client) getBlock(ctx context.Context, path string) (*StreamerMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("get %s: status %d", path, resp.StatusCode)
	}

	body = bytes.TrimSpace(body)
	if bytes.Equal(body, []byte("null")) {
		return nil, nil
	}

	var msg StreamerMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %w", ErrMalformedBlock, path, err)
	}
	return &msg, nil
}
