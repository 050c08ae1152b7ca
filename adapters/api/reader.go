// Package api reads performance logs from a running ConfusionFlow server
package api

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"confusionflow/adapters/foldlog"
	"confusionflow/internal/errors"
)

// Reader is a foldlog.Source over the server's REST API
type Reader struct {
	baseURL    string
	httpClient *http.Client
}

var _ foldlog.Source = (*Reader)(nil)

// NewReader creates a reader for the API rooted at baseURL, e.g.
// http://localhost:8080/api
func NewReader(baseURL string, timeout time.Duration) *Reader {
	return &Reader{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// NewProvider returns a dataset provider over the API. Fold log data is
// fetched once and cached.
func NewProvider(baseURL string, timeout time.Duration) *foldlog.Provider {
	return foldlog.NewProvider(NewReader(baseURL, timeout), true)
}

func (r *Reader) Runs(ctx context.Context) ([]byte, error) {
	return r.get(ctx, "/runs")
}

func (r *Reader) Datasets(ctx context.Context) ([]byte, error) {
	return r.get(ctx, "/datasets")
}

func (r *Reader) FoldLogData(ctx context.Context, foldLogID string) ([]byte, error) {
	return r.get(ctx, "/foldlog/"+url.PathEscape(foldLogID)+"/data")
}

func (r *Reader) get(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, errors.ExternalServiceError("confusionflow api", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.ExternalServiceError("confusionflow api", fmt.Errorf("failed to read response: %w", err))
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, errors.NotFound(path)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, errors.ExternalServiceError("confusionflow api", fmt.Errorf("GET %s returned status %d: %s", path, resp.StatusCode, string(body)))
	}
	// the server answers unknown ids with a plain text message and status 200
	if !strings.Contains(resp.Header.Get("Content-Type"), "json") && !looksLikeJSON(body) {
		return nil, errors.NotFound(fmt.Sprintf("%s: %s", path, strings.TrimSpace(string(body))))
	}

	log.Printf("[API] GET %s took %v", path, time.Since(start))
	return body, nil
}

func looksLikeJSON(body []byte) bool {
	s := strings.TrimSpace(string(body))
	return strings.HasPrefix(s, "{") || strings.HasPrefix(s, "[")
}
