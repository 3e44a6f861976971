// Package signer defines the Signer collaborator (spec.md §6): an external
// service that holds key material and turns an unsigned transaction draft
// plus dlog/DH-tuple hints into a signed transaction. The core never
// touches private keys directly -- wallet key storage is explicitly out of
// scope (spec.md §1).
package signer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rawblock/privacypool/internal/poolerr"
	"github.com/rawblock/privacypool/pkg/models"
)

// Signer is the interface the relayer's Sweeper consumes. A test
// double can implement this directly without standing up an HTTP server.
type Signer interface {
	Sign(ctx context.Context, unsignedTx models.UnsignedTx, inputsRaw []string, hints models.SigningHints) (json.RawMessage, error)
}

// HTTPSigner posts to an external signing service, mirroring how the
// original SDK's TransactionBuilder attached signing_secrets for the
// node's own Sigma prover to consume.
type HTTPSigner struct {
	http    *http.Client
	baseURL string
}

// NewHTTPSigner builds an HTTPSigner against baseURL.
func NewHTTPSigner(baseURL string, timeout time.Duration) *HTTPSigner {
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &HTTPSigner{http: &http.Client{Timeout: timeout}, baseURL: baseURL}
}

type signRequest struct {
	UnsignedTx models.UnsignedTx   `json:"unsignedTx"`
	InputsRaw  []string            `json:"inputsRaw"`
	Hints      models.SigningHints `json:"hints"`
}

// Sign implements Signer.
func (s *HTTPSigner) Sign(ctx context.Context, unsignedTx models.UnsignedTx, inputsRaw []string, hints models.SigningHints) (json.RawMessage, error) {
	payload, err := json.Marshal(signRequest{UnsignedTx: unsignedTx, InputsRaw: inputsRaw, Hints: hints})
	if err != nil {
		return nil, poolerr.Wrap(poolerr.NodeIO, "sign_encode", "failed to encode sign request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/sign", bytes.NewReader(payload))
	if err != nil {
		return nil, poolerr.Wrap(poolerr.NodeIO, "sign_request", "failed to build sign request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.http.Do(req)
	if err != nil {
		return nil, poolerr.Wrap(poolerr.NodeIO, "sign_request", "signer request failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, poolerr.Wrap(poolerr.NodeIO, "sign_response", "failed to read signer response", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, poolerr.New(poolerr.NodeIO, "sign_rejected", fmt.Sprintf("signer rejected request (%d): %s", resp.StatusCode, string(body)))
	}
	return json.RawMessage(body), nil
}
