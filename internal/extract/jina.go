package extract

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DefaultJinaBase is the public reader endpoint. Prepending a page URL to
// it returns the page as clean plain text.
const DefaultJinaBase = "https://r.jina.ai/"

// JinaStrategy reads pages through the r.jina.ai reader service, which
// handles JS-rendered pages the local strategies cannot.
type JinaStrategy struct {
	base   string
	client *http.Client
}

// NewJinaStrategy builds the reader strategy. An empty base selects
// DefaultJinaBase.
func NewJinaStrategy(base string, timeout time.Duration) *JinaStrategy {
	if base == "" {
		base = DefaultJinaBase
	}
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return &JinaStrategy{base: base, client: &http.Client{Timeout: timeout}}
}

func (s *JinaStrategy) Name() string { return "jina_reader" }

func (s *JinaStrategy) Extract(ctx context.Context, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.base+pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("build reader request: %w", err)
	}
	req.Header.Set("Accept", "text/plain")
	req.Header.Set("X-Return-Format", "text")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("reader fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("reader status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", fmt.Errorf("read reader body: %w", err)
	}
	return string(body), nil
}
