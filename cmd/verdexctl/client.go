package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// apiClient is a thin wrapper over the verdex HTTP API built from the
// global flags.
type apiClient struct {
	addr   string
	apiKey string
	user   string
	groups []string
	http   *http.Client
}

func newAPIClient() *apiClient {
	return &apiClient{
		addr:   strings.TrimRight(globalAddr, "/"),
		apiKey: globalAPIKey,
		user:   globalUser,
		groups: globalGroups,
		http:   &http.Client{Timeout: 30 * time.Second},
	}
}

// do sends body (marshaled as JSON when non-nil) and decodes the response
// into out when the status is 2xx. Non-2xx responses become errors carrying
// the server's message.
func (c *apiClient) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.addr+path, reader)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	if c.user != "" {
		req.Header.Set("X-User-Id", c.user)
	}
	if len(c.groups) > 0 {
		req.Header.Set("X-User-Groups", strings.Join(c.groups, ","))
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("calling %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr struct {
			Code    string              `json:"code"`
			Message string              `json:"message"`
			Fields  map[string][]string `json:"fields"`
		}
		data, _ := io.ReadAll(resp.Body)
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Message != "" {
			if len(apiErr.Fields) > 0 {
				return fmt.Errorf("%s: %s (%v)", apiErr.Code, apiErr.Message, apiErr.Fields)
			}
			return fmt.Errorf("%s: %s", apiErr.Code, apiErr.Message)
		}
		return fmt.Errorf("%s %s: unexpected status %d", method, path, resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
