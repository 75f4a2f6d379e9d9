package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/kailas-cloud/verdex/internal/domain"
)

// Config holds connection parameters for the document store.
type Config struct {
	BaseURL     string
	Username    string
	Password    string
	IndexPrefix string
	Timeout     time.Duration
}

// Client talks to the store over HTTP.
type Client struct {
	base     *url.URL
	http     *http.Client
	username string
	password string
	prefix   string
}

// New creates a store client.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("store base_url is required")
	}
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse store base_url: %w", err)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		base:     base,
		http:     &http.Client{Timeout: timeout},
		username: cfg.Username,
		password: cfg.Password,
		prefix:   cfg.IndexPrefix,
	}, nil
}

// IndexFor maps a doc type to its index name.
func (c *Client) IndexFor(docType string) string {
	return c.prefix + docType
}

// Get fetches one document's source by id. Missing documents report
// domain.ErrNotFound.
func (c *Client) Get(ctx context.Context, index, id string) (map[string]any, error) {
	body, status, err := c.do(ctx, http.MethodGet, path(index, "_doc", id), nil, "")
	if status == http.StatusNotFound {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, opErr(OpGet, status, err)
	}
	var resp struct {
		Found  bool           `json:"found"`
		Source map[string]any `json:"_source"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, opErr(OpGet, status, fmt.Errorf("decode response: %w", err))
	}
	if !resp.Found {
		return nil, domain.ErrNotFound
	}
	return resp.Source, nil
}

// Search runs one query against one index.
func (c *Client) Search(ctx context.Context, index string, query map[string]any) (*SearchResult, error) {
	payload, err := json.Marshal(query)
	if err != nil {
		return nil, opErr(OpSearch, 0, fmt.Errorf("encode query: %w", err))
	}
	body, status, err := c.do(ctx, http.MethodPost, path(index, "_search"), bytes.NewReader(payload), "application/json")
	if err != nil {
		return nil, opErr(OpSearch, status, err)
	}
	var raw rawSearchResponse
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, opErr(OpSearch, status, fmt.Errorf("decode response: %w", err))
	}
	return raw.result(), nil
}

// MultiSearch issues every sub-query in one round trip and returns results in
// request order.
func (c *Client) MultiSearch(ctx context.Context, specs []SearchSpec) ([]SearchResult, error) {
	if len(specs) == 0 {
		return nil, nil
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, s := range specs {
		if err := enc.Encode(map[string]any{"index": s.Index}); err != nil {
			return nil, opErr(OpMultiSearch, 0, fmt.Errorf("encode header: %w", err))
		}
		if err := enc.Encode(s.Body); err != nil {
			return nil, opErr(OpMultiSearch, 0, fmt.Errorf("encode body: %w", err))
		}
	}

	body, status, err := c.do(ctx, http.MethodPost, "_msearch", &buf, "application/x-ndjson")
	if err != nil {
		return nil, opErr(OpMultiSearch, status, err)
	}
	var raw struct {
		Responses []rawSearchResponse `json:"responses"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, opErr(OpMultiSearch, status, fmt.Errorf("decode response: %w", err))
	}
	if len(raw.Responses) != len(specs) {
		return nil, opErr(OpMultiSearch, status,
			fmt.Errorf("got %d responses for %d sub-queries", len(raw.Responses), len(specs)))
	}
	out := make([]SearchResult, len(raw.Responses))
	for i, r := range raw.Responses {
		if r.Error != nil {
			return nil, opErr(OpMultiSearch, status, fmt.Errorf("sub-query %d: %s", i, r.Error.Reason))
		}
		out[i] = *r.result()
	}
	return out, nil
}

// Bulk applies create/update/delete ops in one request.
func (c *Client) Bulk(ctx context.Context, ops []BulkOp) error {
	if len(ops) == 0 {
		return nil
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, op := range ops {
		action := op.Action
		if action == "" {
			action = ActionIndex
		}
		header := map[string]any{action: map[string]any{"_index": op.Index, "_id": op.ID}}
		if err := enc.Encode(header); err != nil {
			return opErr(OpBulk, 0, fmt.Errorf("encode header: %w", err))
		}
		if action != ActionDelete {
			if err := enc.Encode(op.Doc); err != nil {
				return opErr(OpBulk, 0, fmt.Errorf("encode doc: %w", err))
			}
		}
	}

	body, status, err := c.do(ctx, http.MethodPost, "_bulk", &buf, "application/x-ndjson")
	if err != nil {
		return opErr(OpBulk, status, err)
	}
	var resp struct {
		Errors bool             `json:"errors"`
		Items  []map[string]any `json:"items"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return opErr(OpBulk, status, fmt.Errorf("decode response: %w", err))
	}
	if resp.Errors {
		return opErr(OpBulk, status, fmt.Errorf("%d ops, at least one failed", len(ops)))
	}
	return nil
}

// EnsureIndex creates the index with the given mapping, or pushes the mapping
// onto an existing index. Mapping pushes are additive; the store rejects
// incompatible changes and the error surfaces unchanged.
func (c *Client) EnsureIndex(ctx context.Context, index string, mapping map[string]any) error {
	_, status, err := c.do(ctx, http.MethodHead, path(index), nil, "")
	exists := err == nil && status == http.StatusOK

	var payload any
	p := path(index, "_mapping")
	if !exists {
		payload = map[string]any{"mappings": mapping}
		p = path(index)
	} else {
		payload = mapping
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return opErr(OpEnsureIndex, 0, fmt.Errorf("encode mapping: %w", err))
	}
	if _, status, err := c.do(ctx, http.MethodPut, p, bytes.NewReader(body), "application/json"); err != nil {
		return opErr(OpEnsureIndex, status, err)
	}
	return nil
}

// Refresh makes prior writes visible to searches on the index. Callers that
// need read-after-write consistency must invoke this between write and read.
func (c *Client) Refresh(ctx context.Context, index string) error {
	if _, status, err := c.do(ctx, http.MethodPost, path(index, "_refresh"), nil, ""); err != nil {
		return opErr(OpRefresh, status, err)
	}
	return nil
}

// Ping checks connectivity.
func (c *Client) Ping(ctx context.Context) error {
	if _, status, err := c.do(ctx, http.MethodGet, "", nil, ""); err != nil {
		return opErr(OpPing, status, err)
	}
	return nil
}

// WaitForReady polls Ping until the store responds or the timeout expires.
func (c *Client) WaitForReady(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("timeout waiting for store: %w", ctx.Err())
		case <-ticker.C:
			if err := c.Ping(ctx); err == nil {
				return nil
			}
		}
	}
}

func (c *Client) do(ctx context.Context, method, p string, body io.Reader, contentType string) ([]byte, int, error) {
	u := *c.base
	u.Path = strings.TrimSuffix(u.Path, "/") + "/" + p

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, 0, fmt.Errorf("build request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.username != "" {
		req.SetBasicAuth(c.username, c.password)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return data, resp.StatusCode, errors.New(http.StatusText(resp.StatusCode))
	}
	return data, resp.StatusCode, nil
}

func path(parts ...string) string {
	return strings.Join(parts, "/")
}

type rawSearchResponse struct {
	Error *struct {
		Reason string `json:"reason"`
	} `json:"error"`
	Hits struct {
		Total json.RawMessage `json:"total"`
		Hits  []struct {
			ID     string         `json:"_id"`
			Source map[string]any `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

func (r *rawSearchResponse) result() *SearchResult {
	out := &SearchResult{Total: parseTotal(r.Hits.Total)}
	for _, h := range r.Hits.Hits {
		out.Hits = append(out.Hits, Hit{ID: h.ID, Source: h.Source})
	}
	return out
}

// parseTotal accepts both the bare-number and the {"value": n} total forms.
func parseTotal(raw json.RawMessage) int {
	if len(raw) == 0 {
		return 0
	}
	var n int
	if err := json.Unmarshal(raw, &n); err == nil {
		return n
	}
	var obj struct {
		Value int `json:"value"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		return obj.Value
	}
	return 0
}
