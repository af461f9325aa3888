package irisfast

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/valyala/fasthttp"
)

const (
	defaultTimeout  = 10 * time.Second
	defaultAttempts = 3
	retryBaseDelay  = 100 * time.Millisecond
	errorBodyLimit  = 512
)

// HeaderProvider allows injecting per-request headers
type HeaderProvider func() map[string]string

// AuthHeaders builds the X-User-* header provider Iris expects; empty values are skipped.
func AuthHeaders(userID, userEmail, sessionID string) HeaderProvider {
	return func() map[string]string {
		h := map[string]string{}
		if userID != "" {
			h["X-User-Id"] = userID
		}
		if userEmail != "" {
			h["X-User-Email"] = userEmail
		}
		if sessionID != "" {
			h["X-Session-Id"] = sessionID
		}
		return h
	}
}

// StatusError is a non-2xx answer from Iris.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("iris api error: status=%d body=%s", e.Code, e.Body)
}

func (e *StatusError) temporary() bool {
	return e.Code == fasthttp.StatusBadGateway || e.Code == fasthttp.StatusServiceUnavailable ||
		e.Code == fasthttp.StatusGatewayTimeout || e.Code == fasthttp.StatusInternalServerError
}

// Client talks to the Iris HTTP API: /reply for outbound messages, /config for probes.
type Client struct {
	baseURL  string
	http     *fasthttp.Client
	headers  HeaderProvider
	timeout  time.Duration
	attempts int
}

type Option func(*Client)

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

func WithHeaderProvider(h HeaderProvider) Option {
	return func(c *Client) { c.headers = h }
}

// WithRetry sets how many times GET requests are tried on 5xx or transport errors.
func WithRetry(attempts int) Option {
	return func(c *Client) { c.attempts = attempts }
}

func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		http:     &fasthttp.Client{ReadTimeout: defaultTimeout, WriteTimeout: defaultTimeout, MaxConnsPerHost: 64},
		timeout:  defaultTimeout,
		attempts: defaultAttempts,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.attempts < 1 {
		c.attempts = 1
	}
	return c
}

// GetConfig reads the bot settings; it is retried since it has no side effects.
func (c *Client) GetConfig(ctx context.Context) (*Config, error) {
	var body []byte
	err := c.withRetry(ctx, func() error {
		var err error
		body, err = c.do(ctx, fasthttp.MethodGet, "/config", nil)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("iris config: %w", err)
	}
	var cfg Config
	if err := json.Unmarshal(body, &cfg); err != nil {
		return nil, fmt.Errorf("decode iris config: %w", err)
	}
	return &cfg, nil
}

// SendText posts a text reply. Replies are sent once so a slow Iris never doubles a message.
func (c *Client) SendText(ctx context.Context, room, message string) error {
	return c.reply(ctx, ReplyRequest{Type: "text", Room: room, Data: message})
}

func (c *Client) SendImage(ctx context.Context, room, imageBase64 string) error {
	return c.reply(ctx, ReplyRequest{Type: "image", Room: room, Data: imageBase64})
}

func (c *Client) reply(ctx context.Context, r ReplyRequest) error {
	payload, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshal reply: %w", err)
	}
	if _, err := c.do(ctx, fasthttp.MethodPost, "/reply", payload); err != nil {
		return fmt.Errorf("iris reply %s: %w", r.Type, err)
	}
	return nil
}

// do runs one request and returns a copy of the body on 2xx.
func (c *Client) do(ctx context.Context, method, path string, payload []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.Header.SetMethod(method)
	req.SetRequestURI(c.baseURL + path)
	req.Header.SetContentType("application/json")
	if c.headers != nil {
		for k, v := range c.headers() {
			if strings.TrimSpace(k) != "" && strings.TrimSpace(v) != "" {
				req.Header.Set(k, v)
			}
		}
	}
	if payload != nil {
		req.SetBody(payload)
	}

	deadline := time.Now().Add(c.timeout)
	if dl, ok := ctx.Deadline(); ok && dl.Before(deadline) {
		deadline = dl
	}
	if err := c.http.DoDeadline(req, resp, deadline); err != nil {
		return nil, err
	}
	body := append([]byte(nil), resp.Body()...)
	if code := resp.StatusCode(); code < 200 || code >= 300 {
		if len(body) > errorBodyLimit {
			body = body[:errorBodyLimit]
		}
		return nil, &StatusError{Code: code, Body: string(body)}
	}
	return body, nil
}

// withRetry retries fn with doubling delay; non-temporary status errors stop immediately.
func (c *Client) withRetry(ctx context.Context, fn func() error) error {
	delay := retryBaseDelay
	var err error
	for attempt := 1; ; attempt++ {
		err = fn()
		if err == nil || attempt >= c.attempts {
			return err
		}
		if se, ok := err.(*StatusError); ok && !se.temporary() {
			return err
		}
		t := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			t.Stop()
			return err
		case <-t.C:
		}
		delay *= 2
	}
}
