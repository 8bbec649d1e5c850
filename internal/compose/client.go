// Package compose calls the remote generative text service that proposes new
// track-definition strings. The engine treats whatever comes back exactly
// like user-typed input; validation happens in the parser, not here.
package compose

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
)

const defaultTimeout = 30 * time.Second

type request struct {
	Definition  string `json:"definition"`
	Instruction string `json:"instruction"`
}

type response struct {
	Definition string `json:"definition"`
}

type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: defaultTimeout},
	}
}

// Suggest sends the current definition plus a free-text instruction and
// returns the proposed replacement string. Any failure leaves the caller's
// current definition untouched; the error is meant to be shown to the user.
func (c *Client) Suggest(ctx context.Context, current, instruction string) (string, error) {
	body, err := json.Marshal(request{Definition: current, Instruction: instruction})
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/suggest", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("call suggestion service: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("suggestion service returned %s", resp.Status)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	var out response
	if err := json.Unmarshal(data, &out); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if strings.TrimSpace(out.Definition) == "" {
		return "", errors.New("suggestion service returned an empty definition")
	}
	return out.Definition, nil
}
