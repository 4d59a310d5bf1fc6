// Package osv resolves pinned Python dependencies against the OSV advisory
// database with one batched query per manifest.
package osv

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/example/secure-scanner/internal/manifest"
)

const (
	DefaultQueryBatchURL   = "https://api.osv.dev/v1/querybatch"
	DefaultAdvisoryURLBase = "https://osv.dev/vulnerability/"
	DefaultTimeout         = 10 * time.Second

	// EcosystemPyPI is the OSV ecosystem for Python packages.
	EcosystemPyPI = "PyPI"
)

// Client queries the OSV batch endpoint.
type Client struct {
	HTTPClient      *http.Client
	APIURL          string
	AdvisoryURLBase string
	MaxBodyBytes    int64
	Logger          *slog.Logger

	// OnFailure, when set, is called after each failed lookup.
	OnFailure func(error)
}

// NewClient returns a client for apiURL with a bounded request timeout.
// Empty or zero arguments fall back to the public OSV defaults.
func NewClient(apiURL string, timeout time.Duration) *Client {
	if apiURL == "" {
		apiURL = DefaultQueryBatchURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		HTTPClient:      &http.Client{Timeout: timeout},
		APIURL:          apiURL,
		AdvisoryURLBase: DefaultAdvisoryURLBase,
		MaxBodyBytes:    32 * 1024 * 1024,
	}
}

type query struct {
	Version string       `json:"version"`
	Package queryPackage `json:"package"`
}

type queryPackage struct {
	Name      string `json:"name"`
	Ecosystem string `json:"ecosystem"`
}

type batchRequest struct {
	Queries []query `json:"queries"`
}

type batchResponse struct {
	Results []Result `json:"results"`
}

// Result holds the advisories for the query at the same index.
type Result struct {
	Vulns []Vuln `json:"vulns,omitempty"`
}

// Vuln is the subset of an OSV record returned by querybatch.
type Vuln struct {
	ID       string `json:"id"`
	Modified string `json:"modified,omitempty"`
}

// QueryBatch sends one request covering every dependency. Results are aligned
// with deps by index; a response whose length differs from the query list is
// rejected rather than risk attributing advisories to the wrong package.
func (c *Client) QueryBatch(ctx context.Context, deps []manifest.Dependency) ([]Result, error) {
	if len(deps) == 0 {
		return nil, nil
	}

	req := batchRequest{Queries: make([]query, 0, len(deps))}
	for _, d := range deps {
		req.Queries = append(req.Queries, query{
			Version: d.Version,
			Package: queryPackage{Name: d.Name, Ecosystem: EcosystemPyPI},
		})
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal querybatch request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.APIURL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient().Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("OSV API request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("OSV API returned status: %s", resp.Status)
	}

	var batch batchResponse
	reader := io.LimitReader(resp.Body, c.maxBodyBytes())
	if err := json.NewDecoder(reader).Decode(&batch); err != nil {
		return nil, fmt.Errorf("decode OSV response: %w", err)
	}

	if len(batch.Results) != len(deps) {
		return nil, fmt.Errorf("OSV response has %d results for %d queries", len(batch.Results), len(deps))
	}

	return batch.Results, nil
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient == nil {
		return &http.Client{Timeout: DefaultTimeout}
	}
	return c.HTTPClient
}

func (c *Client) maxBodyBytes() int64 {
	if c.MaxBodyBytes <= 0 {
		return 32 * 1024 * 1024
	}
	return c.MaxBodyBytes
}

func (c *Client) logger() *slog.Logger {
	if c.Logger == nil {
		return slog.Default()
	}
	return c.Logger
}

// Ping checks that the endpoint answers an empty batch. Any non-5xx status
// counts as reachable.
func (c *Client) Ping(ctx context.Context) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.APIURL, bytes.NewReader([]byte(`{"queries":[]}`)))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient().Do(httpReq)
	if err != nil {
		return fmt.Errorf("OSV API unreachable: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64*1024))

	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("OSV API returned status: %s", resp.Status)
	}
	return nil
}
