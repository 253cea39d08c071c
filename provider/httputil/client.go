package httputil

import (
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultUserAgent = "kurlar/0.0.0"

var ErrStatusCode = errors.New("http status != 200")

// DefaultSourceHTTPClient return preconfigured HTTP client
func DefaultSourceHTTPClient() SourceHTTPClient {
	return SourceHTTPClient{
		client: &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:          100,
				MaxIdleConnsPerHost:   10,
				DisableCompression:    true,
				IdleConnTimeout:       5 * time.Minute,
				TLSHandshakeTimeout:   10 * time.Second,
				ExpectContinueTimeout: 1 * time.Second,
				ResponseHeaderTimeout: 10 * time.Second,
			},
		},
	}
}

// NewHTTPClient return prepared SourceHTTPClient
func NewHTTPClient(client *http.Client) SourceHTTPClient {
	if client == nil {
		return DefaultSourceHTTPClient()
	}

	return SourceHTTPClient{client: client}
}

type SourceHTTPClient struct {
	client *http.Client
}

func (f SourceHTTPClient) UserAgent() string {
	return defaultUserAgent
}

// Open implements HTTP method GET and returns the body as a stream, gzip bodies are decompressed.
// The caller must close the returned reader
func (f SourceHTTPClient) Open(ctx context.Context, u url.URL) (io.ReadCloser, error) {
	req, err := f.prepareRequest(ctx, u)
	if err != nil {
		return nil, fmt.Errorf("build HTTP request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("make HTTP request: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("http status: %d, %s: %w", resp.StatusCode, resp.Status, ErrStatusCode)
	}

	contentType := resp.Header.Get("Content-Type")
	contentEncoding := resp.Header.Get("Content-Encoding")
	switch {
	case strings.Contains(contentType, "application/x-gzip"), strings.Contains(contentEncoding, "gzip"):
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			_ = resp.Body.Close()
			return nil, fmt.Errorf("unable create gzip.NewReader: %w", err)
		}

		return &gzipBody{Reader: gz, body: resp.Body}, nil
	default:
		return resp.Body, nil
	}
}

func (f SourceHTTPClient) prepareRequest(ctx context.Context, u url.URL) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("http.NewRequestWithContext: %w", err)
	}

	req.Header.Set("User-Agent", defaultUserAgent)
	req.Header.Set("Accept-Encoding", "gzip")

	return req, nil
}

// gzipBody closes both the decompressor and the underlying response body
type gzipBody struct {
	*gzip.Reader
	body io.Closer
}

func (g *gzipBody) Close() error {
	gzErr := g.Reader.Close()
	if err := g.body.Close(); err != nil {
		return fmt.Errorf("close body: %w", err)
	}

	return gzErr
}
