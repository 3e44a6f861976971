// Package node implements the Node collaborator (spec.md §6): the sole
// network dependency the core expresses, narrowed to box-fetch and
// raw-transaction-submit. Grounded on the original SDK's ErgoNode REST
// client (core/node.py) and, for its HTTP plumbing idiom (explicit
// timeouts, connectivity check on construction),
// on the teacher's bitcoin.Client.
package node

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/rawblock/privacypool/internal/poolerr"
	"github.com/rawblock/privacypool/pkg/models"
)

// validIDHex reports whether s is a well-formed 32-byte hex identifier
// (a box id or transaction id): exactly 64 hex characters. The length is
// checked here because chainhash.NewHashFromStr zero-pads shorter input;
// its hex decoding then doubles as the format validator even though box/tx
// ids on this chain carry no Bitcoin-specific meaning.
func validIDHex(s string) bool {
	if len(s) != chainhash.MaxHashStringSize {
		return false
	}
	_, err := chainhash.NewHashFromStr(s)
	return err == nil
}

// Config configures the HTTP client against the chain's box-explorer/node
// REST API.
type Config struct {
	BaseURL string
	APIKey  string // optional; sent as api_key header when set
	Timeout time.Duration
}

// Client is the Node collaborator. All five methods spec.md §6 requires are
// implemented here and nowhere else in the codebase.
type Client struct {
	http    *http.Client
	baseURL string
	apiKey  string
}

// NewClient builds a Client and verifies connectivity by calling
// GetHeight once, the same "connect, then prove it works" pattern the
// teacher's bitcoin.NewClient follows against its RPC endpoint.
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	c := &Client{
		http:    &http.Client{Timeout: timeout},
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
	}

	log.Printf("node: connecting to %s...", cfg.BaseURL)
	height, err := c.GetHeight(ctx)
	if err != nil {
		return nil, poolerr.Wrap(poolerr.NodeIO, "connect", "failed to reach node during startup check", err)
	}
	log.Printf("node: connected, current height %d", height)
	return c, nil
}

// GetHeight returns the chain's current height.
func (c *Client) GetHeight(ctx context.Context) (uint32, error) {
	var out struct {
		Height uint32 `json:"height"`
	}
	if err := c.get(ctx, "/info", &out); err != nil {
		return 0, err
	}
	return out.Height, nil
}

// GetBoxByID fetches a single box, returning (nil, nil) if the node reports
// it doesn't exist (distinguished from a transport failure, which returns
// a NodeIO error).
func (c *Client) GetBoxByID(ctx context.Context, boxID string) (*models.Box, error) {
	if !validIDHex(boxID) {
		return nil, poolerr.New(poolerr.Validation, "bad_box_id", "box id is not a well-formed 32-byte hex identifier")
	}
	var out boxDTO
	err := c.get(ctx, "/boxes/"+boxID, &out)
	if isNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	box := out.toModel()
	return &box, nil
}

// GetUnspentBoxes returns up to limit unspent boxes at address, most recent
// first, matching the original SDK's get_unspent_boxes.
func (c *Client) GetUnspentBoxes(ctx context.Context, address string, limit int) ([]models.Box, error) {
	var out []boxDTO
	path := fmt.Sprintf("/boxes/unspent/byAddress/%s?limit=%d", address, limit)
	if err := c.get(ctx, path, &out); err != nil {
		return nil, err
	}
	return toModels(out), nil
}

// GetBoxesByScript returns up to limit unspent boxes whose ErgoTree hashes
// to scriptHash -- the pool client's primary pool-discovery call.
func (c *Client) GetBoxesByScript(ctx context.Context, scriptHash string, limit int) ([]models.Box, error) {
	var out []boxDTO
	path := fmt.Sprintf("/boxes/unspent/byErgoTreeHash/%s?limit=%d", scriptHash, limit)
	if err := c.get(ctx, path, &out); err != nil {
		return nil, err
	}
	return toModels(out), nil
}

// Submit posts a signed transaction and returns its id.
func (c *Client) Submit(ctx context.Context, signedTx json.RawMessage) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/transactions", bytes.NewReader(signedTx))
	if err != nil {
		return "", poolerr.Wrap(poolerr.NodeIO, "submit", "failed to build submit request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.setAuthHeaders(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", poolerr.Wrap(poolerr.NodeIO, "submit", "transaction submission failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", poolerr.Wrap(poolerr.NodeIO, "submit", "failed to read submit response", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", poolerr.New(poolerr.NodeIO, "submit_rejected", fmt.Sprintf("node rejected submission (%d): %s", resp.StatusCode, string(body)))
	}

	var txID string
	if err := json.Unmarshal(body, &txID); err != nil {
		// Some nodes return a bare string, others a {"id": "..."} object.
		var wrapped struct {
			ID string `json:"id"`
		}
		if jsonErr := json.Unmarshal(body, &wrapped); jsonErr != nil {
			return "", poolerr.Wrap(poolerr.NodeIO, "submit", "could not parse submit response", err)
		}
		txID = wrapped.ID
	}
	if !validIDHex(txID) {
		return "", poolerr.New(poolerr.NodeIO, "bad_tx_id", "node returned a malformed transaction id")
	}
	return txID, nil
}

func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return poolerr.Wrap(poolerr.NodeIO, "request", "failed to build request for "+path, err)
	}
	c.setAuthHeaders(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return poolerr.Wrap(poolerr.NodeIO, "transport", "request failed for "+path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return poolerr.New(poolerr.NodeIO, "not_found", path+" not found")
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return poolerr.New(poolerr.NodeIO, "bad_status", fmt.Sprintf("%s returned %d: %s", path, resp.StatusCode, string(body)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return poolerr.Wrap(poolerr.NodeIO, "decode", "failed to decode response for "+path, err)
	}
	return nil
}

func (c *Client) setAuthHeaders(req *http.Request) {
	if c.apiKey != "" {
		req.Header.Set("api_key", c.apiKey)
	}
}

func isNotFound(err error) bool {
	reason, ok := poolerr.ReasonOf(err)
	return ok && reason == "not_found"
}
