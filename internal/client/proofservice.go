package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/AlexZinkM/cb-transfer/internal/model"
)

const transferCBPath = "/transfer-cb"

// maxErrorBody bounds how much of a failed response is quoted in errors.
const maxErrorBody = 512

// ProofServiceClient talks to the remote proof/transfer service.
type ProofServiceClient struct {
	baseURL string
	client  *http.Client
}

// NewProofServiceClient creates a new proof service client
func NewProofServiceClient(baseURL string, timeout time.Duration) *ProofServiceClient {
	return &ProofServiceClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// GetProofSpaces asks for the byte sizes of the three proof accounts.
// Sizes are returned as decoded; the transfer pipeline validates them.
func (c *ProofServiceClient) GetProofSpaces(ctx context.Context) (model.ProofSpaces, error) {
	var spaces model.ProofSpaces
	if err := c.do(ctx, http.MethodGet, transferCBPath, nil, &spaces); err != nil {
		return model.ProofSpaces{}, fmt.Errorf("failed to get proof spaces: %w", err)
	}
	return spaces, nil
}

// RequestTransfer posts the transfer request and returns the transaction bundle
func (c *ProofServiceClient) RequestTransfer(ctx context.Context, req model.TransferRequest) (*model.TransferResponse, error) {
	var resp model.TransferResponse
	if err := c.do(ctx, http.MethodPost, transferCBPath, req, &resp); err != nil {
		return nil, fmt.Errorf("failed to request transfer: %w", err)
	}
	return &resp, nil
}

func (c *ProofServiceClient) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return statusError(resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// statusError prefers the service's {"error": "..."} message over the raw body
func statusError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	var errBody model.ErrorResponse
	if json.Unmarshal(raw, &errBody) == nil && errBody.Error != "" {
		return fmt.Errorf("status %d: %s", resp.StatusCode, errBody.Error)
	}
	if msg := strings.TrimSpace(string(raw)); msg != "" {
		return fmt.Errorf("status %d: %s", resp.StatusCode, msg)
	}
	return fmt.Errorf("status %d", resp.StatusCode)
}
