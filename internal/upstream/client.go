package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"gocard/gateway/internal/config"
)

type credentialKey struct{}

// WithCredential attaches the caller's bearer credential to the context; the
// client forwards it on every upstream request.
func WithCredential(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, credentialKey{}, token)
}

func CredentialFrom(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(credentialKey{}).(string)
	return token, ok && token != ""
}

// Client is the base HTTP client for the Go-card backend. Requests run with a
// per-call timeout and capped exponential-backoff retries: transport failures
// are retried for every method (no response byte arrived, so the request may
// be resent), 5xx responses only for GET.
type Client struct {
	baseURL   string
	http      *http.Client
	retryMax  int
	retryBase time.Duration
	retryCap  time.Duration
	log       zerolog.Logger
}

func NewClient(cfg config.UpstreamConfig, log zerolog.Logger) *Client {
	retryMax := cfg.RetryMax
	if retryMax < 1 {
		retryMax = 1
	}
	return &Client{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		http:      &http.Client{Timeout: cfg.RequestTimeout},
		retryMax:  retryMax,
		retryBase: cfg.RetryBaseDelay,
		retryCap:  cfg.RetryMaxDelay,
		log:       log,
	}
}

// Do issues one upstream call. body (when non-nil) is JSON-encoded; out (when
// non-nil) receives the decoded 2xx response body.
func (c *Client) Do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	var payload []byte
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		payload = encoded
	}

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var lastErr error
	for attempt := 0; attempt < c.retryMax; attempt++ {
		if attempt > 0 {
			if err := c.sleep(ctx, attempt); err != nil {
				return err
			}
		}

		req, err := http.NewRequestWithContext(ctx, method, target, bytes.NewReader(payload))
		if err != nil {
			return fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("Accept", "application/json")
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if token, ok := CredentialFrom(ctx); ok {
			req.Header.Set("Authorization", "Bearer "+token)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			lastErr = &Error{Kind: KindTransport, Message: err.Error()}
			c.log.Warn().Err(err).Str("method", method).Str("path", path).Int("attempt", attempt+1).
				Msg("upstream request failed")
			continue
		}

		respBody, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			lastErr = &Error{Kind: KindTransport, Message: readErr.Error()}
			continue
		}

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			if out == nil || len(respBody) == 0 {
				return nil
			}
			if err := json.Unmarshal(respBody, out); err != nil {
				return &Error{Kind: KindMalformed, Status: resp.StatusCode,
					Message: fmt.Sprintf("decode response: %v", err)}
			}
			return nil
		}

		ue := decodeError(resp.StatusCode, respBody)
		if resp.StatusCode >= 500 && method == http.MethodGet {
			lastErr = ue
			continue
		}
		return ue
	}
	return lastErr
}

func (c *Client) Get(ctx context.Context, path string, query url.Values, out any) error {
	return c.Do(ctx, http.MethodGet, path, query, nil, out)
}

func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, http.MethodPost, path, nil, body, out)
}

func (c *Client) Put(ctx context.Context, path string, query url.Values, body, out any) error {
	return c.Do(ctx, http.MethodPut, path, query, body, out)
}

func (c *Client) Delete(ctx context.Context, path string) error {
	return c.Do(ctx, http.MethodDelete, path, nil, nil, nil)
}

// SignIn posts credentials to the upstream sign-in endpoint and returns the
// issued bearer token. The backend replies with the raw token, either as
// plain text or as a JSON-encoded string.
func (c *Client) SignIn(ctx context.Context, path, username, password string) (string, error) {
	body := map[string]string{"username": username, "password": password}
	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("encode credentials: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", &Error{Kind: KindTransport, Message: err.Error()}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &Error{Kind: KindTransport, Message: err.Error()}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", decodeError(resp.StatusCode, respBody)
	}

	token := strings.TrimSpace(string(respBody))
	var quoted string
	if json.Unmarshal(respBody, &quoted) == nil && quoted != "" {
		token = quoted
	}
	if token == "" {
		return "", &Error{Kind: KindMalformed, Status: resp.StatusCode, Message: "empty token in sign-in response"}
	}
	return token, nil
}

func (c *Client) sleep(ctx context.Context, attempt int) error {
	delay := c.retryBase << (attempt - 1)
	if c.retryCap > 0 && delay > c.retryCap {
		delay = c.retryCap
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
