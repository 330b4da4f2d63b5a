package gateway

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"shareit/internal/api"
	"shareit/internal/metrics"

	"github.com/rs/zerolog"
)

// forwardedHeaders are copied from the incoming request to the server.
var forwardedHeaders = []string{"Content-Type", "Accept", api.UserIDHeader}

// Response is a server reply passed back to the gateway caller unchanged.
type Response struct {
	StatusCode  int
	ContentType string
	Header      http.Header
	Body        []byte
}

// ServerClient forwards requests to the shareit server.
type ServerClient struct {
	baseURL    string
	httpClient *http.Client
	retry      RetryPolicy
	logger     *zerolog.Logger
}

func NewServerClient(baseURL string, timeout time.Duration, retry RetryPolicy, logger *zerolog.Logger) *ServerClient {
	return &ServerClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		retry:      retry,
		logger:     logger,
	}
}

// Forward sends method and requestURI (path plus query) to the server.
// GETs are retried on transport errors and 502/503/504.
func (c *ServerClient) Forward(ctx context.Context, method, requestURI string, body []byte, header http.Header) (*Response, error) {
	retries := 0
	if method == http.MethodGet {
		retries = c.retry.MaxRetries
	}

	var lastErr error
	for attempt := 0; ; attempt++ {
		resp, err := c.do(ctx, method, requestURI, body, header)
		if err == nil && !retryableStatus(resp.StatusCode) {
			return resp, nil
		}
		if err != nil {
			lastErr = err
		} else {
			lastErr = fmt.Errorf("server returned %d", resp.StatusCode)
		}

		if attempt >= retries {
			if err != nil {
				return nil, lastErr
			}
			return resp, nil
		}

		delay := c.retry.NextDelay(attempt + 1)
		c.logger.Warn().
			Err(lastErr).
			Str("method", method).
			Str("uri", requestURI).
			Int("attempt", attempt+1).
			Dur("delay", delay).
			Msg("retrying server request")
		metrics.IncUpstreamRetry()

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}
}

func (c *ServerClient) do(ctx context.Context, method, requestURI string, body []byte, header http.Header) (*Response, error) {
	var reader io.Reader
	if len(body) > 0 {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+requestURI, reader)
	if err != nil {
		return nil, err
	}
	for _, h := range forwardedHeaders {
		if v := header.Get(h); v != "" {
			req.Header.Set(h, v)
		}
	}
	if id := api.RequestIDFromContext(ctx); id != "" {
		req.Header.Set(api.RequestIDHeader, id)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read server response: %w", err)
	}
	return &Response{
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Header:      resp.Header,
		Body:        data,
	}, nil
}

func retryableStatus(code int) bool {
	switch code {
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return false
}
