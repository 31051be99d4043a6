package reports

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ErrRendererNotConfigured is returned when no PDF renderer URL is set.
var ErrRendererNotConfigured = errors.New("pdf renderer not configured")

const maxPDFBytes = 20 << 20

// PDFRenderer converts an HTML page into a PDF document.
type PDFRenderer interface {
	RenderPDF(ctx context.Context, html []byte) ([]byte, error)
}

// HTTPRenderer POSTs the raw HTML page as a text/html body to a conversion
// endpoint and expects the PDF bytes as the 200 response body.
type HTTPRenderer struct {
	URL     string
	Timeout time.Duration
	Client  *http.Client
}

func (r *HTTPRenderer) RenderPDF(ctx context.Context, html []byte) ([]byte, error) {
	if r == nil || r.URL == "" {
		return nil, ErrRendererNotConfigured
	}
	timeout := r.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.URL, bytes.NewReader(html))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "text/html; charset=utf-8")
	req.Header.Set("Accept", "application/pdf")

	client := r.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("pdf renderer: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("pdf renderer status %d: %s", resp.StatusCode, bytes.TrimSpace(snippet))
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPDFBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read pdf: %w", err)
	}
	if len(body) > maxPDFBytes {
		return nil, errors.New("pdf renderer response too large")
	}
	if !bytes.HasPrefix(body, []byte("%PDF")) {
		return nil, errors.New("pdf renderer returned a non-pdf body")
	}
	return body, nil
}
