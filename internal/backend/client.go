package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"ragops/internal/common"
)

// Gateway is the backend surface the console orchestrates. Implementations
// normalize every outcome into a result or an error; non-2xx responses become
// a *StatusError.
type Gateway interface {
	Health(ctx context.Context) Status
	IngestPath(ctx context.Context) (IngestReport, error)
	IngestFiles(ctx context.Context, files []Upload) (IngestReport, error)
	IngestOne(ctx context.Context, params IngestOneParams) (IngestReport, error)
	Chat(ctx context.Context, question string) (ChatResult, error)
}

// Status is the reduced liveness of the backend.
type Status int

const (
	StatusUnknown Status = iota
	StatusOk
	StatusOffline
)

func (s Status) String() string {
	switch s {
	case StatusOk:
		return "ok"
	case StatusOffline:
		return "offline"
	default:
		return "unknown"
	}
}

// IngestReport mirrors the backend's ingest response. File entries may carry
// backend-side annotations such as "name (ERROR: ...)"; they are surfaced
// verbatim.
type IngestReport struct {
	Inserted int      `json:"inserted"`
	Files    []string `json:"files"`
}

// ChatResult mirrors the backend's chat response. Absent fields decode to
// their zero values; the client side cannot distinguish "zero" from "unknown".
type ChatResult struct {
	Answer   string `json:"answer"`
	UsedDocs int    `json:"used_docs"`
}

// Upload is one file payload destined for the multipart ingest endpoint.
type Upload struct {
	Name string
	Data []byte
}

// IngestOneParams identifies a single server-side document to ingest. Nil
// limits are omitted from the request so the backend applies its own defaults.
type IngestOneParams struct {
	Filename  string
	MaxPages  *int
	MaxChunks *int
}

// StatusError is a non-2xx backend response.
type StatusError struct {
	Code   int
	Status string
	Body   string
}

func (e *StatusError) Error() string {
	if strings.TrimSpace(e.Body) == "" {
		return fmt.Sprintf("backend returned %s", e.Status)
	}
	return fmt.Sprintf("backend returned %s: %s", e.Status, e.Body)
}

// Client talks HTTP/JSON to the RAG backend. The base address is re-read at
// the start of every request so a settings edit applies to the next call
// without affecting one already in flight.
type Client struct {
	httpClient *http.Client
	transport  *http.Transport
	base       func() string
}

// Options tunes the client's HTTP transport.
type Options struct {
	Timeout         time.Duration
	MaxIdleConns    int
	MaxIdlePerHost  int
	MaxConnsPerHost int
}

// New constructs a client. base supplies the current backend address and must
// not be nil.
func New(base func() string, opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Minute
	}
	transport := &http.Transport{
		MaxIdleConns:        opts.MaxIdleConns,
		MaxIdleConnsPerHost: opts.MaxIdlePerHost,
		MaxConnsPerHost:     opts.MaxConnsPerHost,
	}
	return &Client{
		httpClient: &http.Client{Timeout: opts.Timeout, Transport: transport},
		transport:  transport,
		base:       base,
	}
}

// Health probes the liveness endpoint and reduces the answer to a Status.
// It never fails: transport errors, non-2xx responses and unparsable bodies
// all collapse into StatusOffline.
func (c *Client) Health(ctx context.Context) Status {
	logger := common.Logger()
	var resp struct {
		Status string `json:"status"`
	}
	if err := c.doJSON(ctx, http.MethodGet, c.endpoint("/health"), nil, &resp); err != nil {
		logger.Warn("backend: health probe failed", "error", err)
		return StatusOffline
	}
	if strings.TrimSpace(resp.Status) == "" {
		logger.Warn("backend: health response missing status field")
		return StatusOffline
	}
	logger.Debug("backend: health probe ok", "status", resp.Status)
	return StatusOk
}

// IngestPath triggers a bulk ingest of the backend's server-local corpus
// directory.
func (c *Client) IngestPath(ctx context.Context) (IngestReport, error) {
	var report IngestReport
	if err := c.doJSON(ctx, http.MethodPost, c.endpoint("/ingest_path"), nil, &report); err != nil {
		return IngestReport{}, err
	}
	return report, nil
}

// IngestFiles uploads the given files in a single multipart request.
func (c *Client) IngestFiles(ctx context.Context, files []Upload) (IngestReport, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for _, file := range files {
		part, err := writer.CreateFormFile("files", file.Name)
		if err != nil {
			return IngestReport{}, fmt.Errorf("build upload form: %w", err)
		}
		if _, err := part.Write(file.Data); err != nil {
			return IngestReport{}, fmt.Errorf("build upload form: %w", err)
		}
	}
	if err := writer.Close(); err != nil {
		return IngestReport{}, fmt.Errorf("build upload form: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("/ingest_files"), &buf)
	if err != nil {
		return IngestReport{}, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	var report IngestReport
	if err := c.do(req, &report); err != nil {
		return IngestReport{}, err
	}
	return report, nil
}

// IngestOne asks the backend to ingest one named file from its corpus
// directory, optionally bounded by page and chunk limits.
func (c *Client) IngestOne(ctx context.Context, params IngestOneParams) (IngestReport, error) {
	query := url.Values{}
	query.Set("filename", params.Filename)
	if params.MaxPages != nil {
		query.Set("max_pages", strconv.Itoa(*params.MaxPages))
	}
	if params.MaxChunks != nil {
		query.Set("max_chunks", strconv.Itoa(*params.MaxChunks))
	}
	endpoint := c.endpoint("/ingest_one") + "?" + query.Encode()
	var report IngestReport
	if err := c.doJSON(ctx, http.MethodPost, endpoint, nil, &report); err != nil {
		return IngestReport{}, err
	}
	return report, nil
}

// Chat submits a question against the ingested corpus.
func (c *Client) Chat(ctx context.Context, question string) (ChatResult, error) {
	body := map[string]string{"question": question}
	var result ChatResult
	if err := c.doJSON(ctx, http.MethodPost, c.endpoint("/chat"), body, &result); err != nil {
		return ChatResult{}, err
	}
	return result, nil
}

func (c *Client) endpoint(path string) string {
	return strings.TrimRight(c.base(), "/") + path
}

func (c *Client) doJSON(ctx context.Context, method, endpoint string, body interface{}, out interface{}) error {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		bodyReader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, bodyReader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out interface{}) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		return &StatusError{
			Code:   resp.StatusCode,
			Status: resp.Status,
			Body:   strings.TrimSpace(string(data)),
		}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", req.URL.Path, err)
	}
	return nil
}

// Close releases pooled transport resources.
func (c *Client) Close() error {
	if c.transport != nil {
		c.transport.CloseIdleConnections()
	}
	return nil
}

var _ Gateway = (*Client)(nil)
