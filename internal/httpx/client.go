// internal/httpx/client.go
package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"

	walleterr "github.com/rovshanmuradov/solana-wallet/internal/errors"
)

const maxErrorBody = 512

// StatusError is a non-2xx response from an HTTP collaborator.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("unexpected status %d", e.Code)
	}
	return fmt.Sprintf("unexpected status %d: %s", e.Code, e.Body)
}

// Client is a small JSON-over-HTTP client with bounded retries for
// rate limits, 5xx responses and transport failures.
type Client struct {
	httpClient *http.Client
	retries    int
	retryDelay time.Duration
	userAgent  string
	logger     *zap.Logger
}

func New(timeout time.Duration, retries int, logger *zap.Logger) *Client {
	if retries < 0 {
		retries = 0
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		retries:    retries,
		retryDelay: 150 * time.Millisecond,
		userAgent:  "solana-wallet/1.0",
		logger:     logger.Named("httpx"),
	}
}

// WithRetryDelay sets the initial delay between attempts.
func (c *Client) WithRetryDelay(d time.Duration) *Client {
	c.retryDelay = d
	return c
}

// DoJSON executes req and decodes a JSON body into out. Errors are classified:
// transport, 429 and 5xx are transient; everything else is terminal.
func (c *Client) DoJSON(ctx context.Context, req *http.Request, out any) error {
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "application/json")
	}
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	op := req.Method + " " + req.URL.Path

	attempt := 0
	operation := func() ([]byte, error) {
		attempt++
		cloneReq := req.Clone(ctx)
		if req.Body != nil && req.GetBody != nil {
			body, err := req.GetBody()
			if err != nil {
				return nil, backoff.Permanent(walleterr.Wrap(walleterr.KindInternal, op, "clone request body", err))
			}
			cloneReq.Body = body
		}

		resp, err := c.httpClient.Do(cloneReq)
		if err != nil {
			if ctx.Err() != nil {
				return nil, backoff.Permanent(walleterr.Wrap(walleterr.KindInternal, op, "request cancelled", ctx.Err()))
			}
			c.logger.Debug("Request failed", zap.String("op", op), zap.Int("attempt", attempt), zap.Error(err))
			return nil, walleterr.Wrap(walleterr.KindTransientNetwork, op, "request failed", err)
		}
		buf, readErr := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if readErr != nil {
			return nil, walleterr.Wrap(walleterr.KindTransientNetwork, op, "read response", readErr)
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			statusErr := &StatusError{Code: resp.StatusCode, Body: truncate(string(bytes.TrimSpace(buf)))}
			if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError {
				c.logger.Debug("Retryable status", zap.String("op", op), zap.Int("status", resp.StatusCode), zap.Int("attempt", attempt))
				return nil, walleterr.Wrap(walleterr.KindTransientNetwork, op, "provider unavailable", statusErr)
			}
			return nil, backoff.Permanent(walleterr.Wrap(walleterr.KindInternal, op, "provider rejected request", statusErr))
		}
		return buf, nil
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.retryDelay
	b.MaxInterval = 2 * time.Second

	buf, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(b),
		backoff.WithMaxTries(uint(c.retries+1)),
	)
	if err != nil {
		if _, ok := walleterr.As(err); !ok {
			err = walleterr.Wrap(walleterr.KindTransientNetwork, op, "request failed", err)
		}
		return err
	}

	if out == nil {
		return nil
	}
	if len(bytes.TrimSpace(buf)) == 0 {
		return walleterr.New(walleterr.KindTransientNetwork, op, "empty response")
	}
	if err := json.Unmarshal(buf, out); err != nil {
		return walleterr.Wrap(walleterr.KindInternal, op, "decode JSON", err)
	}
	return nil
}

// Get issues a GET request with optional headers.
func (c *Client) Get(ctx context.Context, url string, headers map[string]string, out any) error {
	return c.DoBodyJSON(ctx, http.MethodGet, url, nil, headers, out)
}

// DoBodyJSON marshals body (if non-nil) and executes the request.
func (c *Client) DoBodyJSON(ctx context.Context, method, url string, body any, headers map[string]string, out any) error {
	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return walleterr.Wrap(walleterr.KindInternal, method+" "+url, "encode request", err)
		}
	}

	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return walleterr.Wrap(walleterr.KindInternal, method+" "+url, "build request", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
		req.GetBody = func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(payload)), nil
		}
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return c.DoJSON(ctx, req, out)
}

func truncate(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > maxErrorBody {
		return s[:maxErrorBody] + "..."
	}
	return s
}
