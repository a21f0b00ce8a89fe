// Package api is the client side of the Heimdall server's REST API.
// CLI commands use it to inspect and feed a running server; evaluations
// live only in server memory, so listing or uploading always means
// talking to the process that holds them.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/nulltoken/heimdall2/convert"
	"github.com/nulltoken/heimdall2/errors"
	"github.com/nulltoken/heimdall2/intake"
	"github.com/nulltoken/heimdall2/internal/httpclient"
	"github.com/nulltoken/heimdall2/store"
)

// DefaultTimeout bounds every API call. The server answers from memory,
// so anything slower than this means it is wedged or unreachable.
const DefaultTimeout = 10 * time.Second

// Client talks to one Heimdall server.
type Client struct {
	baseURL string
	http    *httpclient.Client
}

// NewClient creates a client for the server at addr (host:port). The
// underlying HTTP client permits loopback addresses; the typical server
// binds to 127.0.0.1.
func NewClient(addr string) *Client {
	return &Client{
		baseURL: "http://" + strings.TrimPrefix(addr, "http://"),
		http:    httpclient.NewLoopback(DefaultTimeout),
	}
}

// Health mirrors the /health response.
type Health struct {
	Status        string `json:"status"`
	State         string `json:"state"`
	Version       string `json:"version"`
	Commit        string `json:"commit"`
	BuildTime     string `json:"build_time"`
	UptimeSeconds int64  `json:"uptime_seconds"`
	Clients       int    `json:"clients"`
	Evaluations   int    `json:"evaluations"`
	Selected      int    `json:"selected"`
	Converters    int    `json:"converters"`
	Verbosity     int    `json:"verbosity"`
}

// EvaluationEntry is one row of the evaluation listing.
type EvaluationEntry struct {
	store.Summary
	Selected bool `json:"selected"`
}

// EvaluationList mirrors the /api/evaluations response.
type EvaluationList struct {
	Evaluations []EvaluationEntry `json:"evaluations"`
	Count       int               `json:"count"`
}

// ConverterList mirrors the /api/converters response.
type ConverterList struct {
	Converters []convert.Metadata `json:"converters"`
	Count      int                `json:"count"`
}

// Health fetches server health and runtime counters.
func (c *Client) Health(ctx context.Context) (*Health, error) {
	var health Health
	if err := c.getJSON(ctx, "/health", &health); err != nil {
		return nil, err
	}
	return &health, nil
}

// Evaluations fetches the evaluation listing with selection marks.
func (c *Client) Evaluations(ctx context.Context) (*EvaluationList, error) {
	var list EvaluationList
	if err := c.getJSON(ctx, "/api/evaluations", &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// Converters fetches the registered converter listing.
func (c *Client) Converters(ctx context.Context) (*ConverterList, error) {
	var list ConverterList
	if err := c.getJSON(ctx, "/api/converters", &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// Upload sends report content through the server's ingestion pipeline
// and returns the per-file result.
func (c *Client) Upload(ctx context.Context, filename string, data []byte) (*intake.FileResult, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return nil, errors.Wrap(err, "building multipart form")
	}
	if _, err := part.Write(data); err != nil {
		return nil, errors.Wrap(err, "writing multipart form")
	}
	if err := writer.Close(); err != nil {
		return nil, errors.Wrap(err, "closing multipart form")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/upload", &body)
	if err != nil {
		return nil, errors.Wrap(err, "building upload request")
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, connectionError(err, c.baseURL)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, responseError(resp)
	}

	var result intake.FileResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, errors.Wrap(err, "decoding upload result")
	}
	return &result, nil
}

// getJSON performs a GET and decodes the JSON response into out.
func (c *Client) getJSON(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return errors.Wrapf(err, "building request for %s", path)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return connectionError(err, c.baseURL)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return responseError(resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrapf(err, "decoding response from %s", path)
	}
	return nil
}

// connectionError wraps a transport failure with the hint users need
// most often: the server probably is not running.
func connectionError(err error, baseURL string) error {
	return errors.WithHint(
		errors.Wrapf(err, "connecting to %s", baseURL),
		"start the server with 'heimdall server'",
	)
}

// responseError turns a non-200 response into an error carrying the
// server's own message when one was sent.
func responseError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	var apiErr struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(body, &apiErr) == nil && apiErr.Error != "" {
		return errors.Newf("server returned %s: %s", resp.Status, apiErr.Error)
	}
	return fmt.Errorf("server returned %s", resp.Status)
}
