/*
Package nem implements the collaborators the faucet core consumes:
the HTTP client for a single network node, the transfer transaction
builder with fee estimation, the ed25519 signer, and file-based
signing-key retrieval.

The wire protocol is the NIS REST surface: GET /heartbeat for liveness
and POST /transaction/announce for submission. Classification of the
announce response into a faucet.Outcome happens here and only here.
*/
package nem

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/qora/testnet-faucet/faucet"
)

// Remote failure messages that are a property of the transaction
// itself. Any other failure is attributed to the node contacted.
const (
	msgInsufficientFee     = "FAILURE_INSUFFICIENT_FEE"
	msgInsufficientBalance = "FAILURE_INSUFFICIENT_BALANCE"
)

const defaultTimeout = 10 * time.Second

// Client talks to one network node. It satisfies faucet.NodeClient.
type Client struct {
	base string
	http *http.Client
}

// NewClient creates a node client for an endpoint such as
// "http://95.216.73.243:7890". The per-call timeout bounds each
// heartbeat and announce individually.
func NewClient(endpoint string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if !strings.Contains(endpoint, "://") {
		endpoint = "http://" + endpoint
	}
	return &Client{
		base: strings.TrimRight(endpoint, "/"),
		http: &http.Client{Timeout: timeout},
	}
}

// Dial adapts NewClient to the faucet.NodeDialer shape.
func Dial(timeout time.Duration) faucet.NodeDialer {
	return func(endpoint string) faucet.NodeClient {
		return NewClient(endpoint, timeout)
	}
}

// requestResult is the NIS envelope for status-style responses.
type requestResult struct {
	Type            int    `json:"type"`
	Code            int    `json:"code"`
	Message         string `json:"message"`
	TransactionHash *struct {
		Data string `json:"data"`
	} `json:"transactionHash,omitempty"`
}

// Heartbeat probes node liveness. Code 1 denotes a healthy node.
func (c *Client) Heartbeat(ctx context.Context) (faucet.HeartbeatStatus, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/heartbeat", nil)
	if err != nil {
		return faucet.HeartbeatStatus{}, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return faucet.HeartbeatStatus{}, fmt.Errorf("heartbeat %s: %w", c.base, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return faucet.HeartbeatStatus{}, fmt.Errorf("heartbeat %s: unexpected status %d", c.base, resp.StatusCode)
	}
	var rr requestResult
	if err := json.NewDecoder(resp.Body).Decode(&rr); err != nil {
		return faucet.HeartbeatStatus{}, fmt.Errorf("heartbeat %s: decode: %w", c.base, err)
	}
	return faucet.HeartbeatStatus{Code: rr.Code, Message: rr.Message}, nil
}

// announceRequest is the hex-encoded announce payload.
type announceRequest struct {
	Data      string `json:"data"`
	Signature string `json:"signature"`
}

// Announce submits a signed transaction and classifies the response.
// Transport and decode failures return an error (node-local by
// definition); a decoded response always yields a classified result.
func (c *Client) Announce(ctx context.Context, signed faucet.SignedTransaction) (faucet.AnnounceResult, error) {
	body, err := json.Marshal(announceRequest{
		Data:      hex.EncodeToString(signed.Data),
		Signature: hex.EncodeToString(signed.Signature),
	})
	if err != nil {
		return faucet.AnnounceResult{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/transaction/announce", bytes.NewReader(body))
	if err != nil {
		return faucet.AnnounceResult{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return faucet.AnnounceResult{}, fmt.Errorf("announce %s: %w", c.base, err)
	}
	defer resp.Body.Close()

	var rr requestResult
	if err := json.NewDecoder(resp.Body).Decode(&rr); err != nil {
		return faucet.AnnounceResult{}, fmt.Errorf("announce %s: decode: %w", c.base, err)
	}

	result := faucet.AnnounceResult{
		Outcome: classify(rr.Code, rr.Message),
		Code:    rr.Code,
		Message: rr.Message,
	}
	if rr.TransactionHash != nil {
		result.TransactionHash = rr.TransactionHash.Data
	}
	return result, nil
}

// classify maps the remote result to the closed outcome type. The two
// terminal messages identify transaction-invalidity; everything else
// that is not a success is a node-local failure.
func classify(code int, message string) faucet.Outcome {
	if code == 1 {
		return faucet.OutcomeAccepted
	}
	switch message {
	case msgInsufficientFee:
		return faucet.OutcomeInsufficientFee
	case msgInsufficientBalance:
		return faucet.OutcomeInsufficientBalance
	}
	return faucet.OutcomeNodeError
}
