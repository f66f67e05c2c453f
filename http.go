package kcdoc

import (
	"context"
	"fmt"
	"io"
	"net/http"
)

// maxHTTPDocumentBytes bounds how much of a response body is read.
const maxHTTPDocumentBytes = 8 << 20

// HTTPRenderRequest configures HTTPRender.
type HTTPRenderRequest struct {
	URL     string
	Client  *http.Client
	Writer  io.Writer
	Options []Option
}

// HTTPRender fetches a document over HTTP(S) and writes its HTML fragment.
func HTTPRender(ctx context.Context, req HTTPRenderRequest) (*Frontmatter, error) {
	if req.URL == "" {
		return nil, fmt.Errorf("render http: URL is required")
	}
	if req.Writer == nil {
		return nil, fmt.Errorf("render http: Writer is nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	client := req.Client
	if client == nil {
		client = http.DefaultClient
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, req.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("render http: build request: %w", err)
	}
	if httpReq.URL.Scheme != "http" && httpReq.URL.Scheme != "https" {
		return nil, fmt.Errorf("render http: unsupported scheme %q", httpReq.URL.Scheme)
	}
	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("render http: request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("render http: status %s", resp.Status)
	}
	return Render(RenderRequest{
		Reader:  io.LimitReader(resp.Body, maxHTTPDocumentBytes),
		Writer:  req.Writer,
		Options: req.Options,
	})
}
