package tangle

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// NodeClient implements Client against the node gateway's single-endpoint
// command protocol: every call is a POST of {"command": ..., ...} returning a
// JSON body with the command's result fields.
type NodeClient struct {
	BaseURL string
	HTTP    *http.Client
}

func NewNodeClient(baseURL string, httpClient *http.Client) *NodeClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &NodeClient{BaseURL: baseURL, HTTP: httpClient}
}

func (c *NodeClient) Submit(ctx context.Context, fragments []string, address string) (string, error) {
	var out struct {
		TailHash string `json:"tailHash"`
	}
	err := c.command(ctx, map[string]any{
		"command":   "submitBundle",
		"fragments": fragments,
		"address":   address,
	}, &out)
	if err != nil {
		return "", err
	}
	if out.TailHash == "" {
		return "", fmt.Errorf("%w: submitBundle returned no tail hash", ErrNode)
	}
	return out.TailHash, nil
}

func (c *NodeClient) FetchFragments(ctx context.Context, tailHash string) ([]string, error) {
	var out struct {
		Fragments []string `json:"fragments"`
	}
	err := c.command(ctx, map[string]any{
		"command":  "getBundle",
		"tailHash": tailHash,
	}, &out)
	if err != nil {
		return nil, err
	}
	return out.Fragments, nil
}

func (c *NodeClient) IsIncluded(ctx context.Context, tailHashes []string) (map[string]bool, error) {
	var out struct {
		States []bool `json:"states"`
	}
	err := c.command(ctx, map[string]any{
		"command":    "getInclusionStates",
		"tailHashes": tailHashes,
	}, &out)
	if err != nil {
		return nil, err
	}
	if len(out.States) != len(tailHashes) {
		return nil, fmt.Errorf("%w: getInclusionStates returned %d states for %d hashes", ErrNode, len(out.States), len(tailHashes))
	}
	states := make(map[string]bool, len(tailHashes))
	for i, h := range tailHashes {
		states[h] = out.States[i]
	}
	return states, nil
}

func (c *NodeClient) IsPromotable(ctx context.Context, tailHash string) (bool, error) {
	var out struct {
		State bool `json:"state"`
	}
	err := c.command(ctx, map[string]any{
		"command":  "checkConsistency",
		"tailHash": tailHash,
	}, &out)
	if err != nil {
		return false, err
	}
	return out.State, nil
}

func (c *NodeClient) Promote(ctx context.Context, tailHash string) error {
	return c.command(ctx, map[string]any{
		"command":  "promoteTransaction",
		"tailHash": tailHash,
	}, &struct{}{})
}

func (c *NodeClient) Reattach(ctx context.Context, tailHash string) (string, error) {
	var out struct {
		TailHash string `json:"tailHash"`
	}
	err := c.command(ctx, map[string]any{
		"command":  "replayBundle",
		"tailHash": tailHash,
	}, &out)
	if err != nil {
		return "", err
	}
	if out.TailHash == "" {
		return "", fmt.Errorf("%w: replayBundle returned no tail hash", ErrNode)
	}
	return out.TailHash, nil
}

func (c *NodeClient) command(ctx context.Context, req map[string]any, dst any) error {
	b, err := json.Marshal(req)
	if err != nil {
		return err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL, bytes.NewReader(b))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNode, err)
	}
	httpReq.Header.Set("content-type", "application/json")

	resp, err := c.HTTP.Do(httpReq)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNode, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		var nodeErr struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&nodeErr)
		if nodeErr.Error != "" {
			return fmt.Errorf("%w: %s (%s)", ErrNode, nodeErr.Error, req["command"])
		}
		return fmt.Errorf("%w: %s returned status %d", ErrNode, req["command"], resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("%w: malformed %s response: %v", ErrNode, req["command"], err)
	}
	return nil
}
