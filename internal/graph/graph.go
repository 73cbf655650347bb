// Package graph is a small client for the two Graph API calls the relay
// makes: sending a direct message and exchanging an access token.
package graph

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ziadkadry99/dmrelay/internal/config"
	"github.com/ziadkadry99/dmrelay/internal/fault"
)

// maxResponseBody caps how much of an upstream response is kept.
const maxResponseBody = 64 << 10

// PlatformError reports a non-success or unparsable Graph API response.
type PlatformError struct {
	StatusCode int
	Body       string
}

func (e *PlatformError) Error() string {
	return fmt.Sprintf("graph api returned status %d: %s", e.StatusCode, e.Body)
}

// TokenExchangeResult is a long-lived access token and its lifetime.
type TokenExchangeResult struct {
	LongLivedToken string `json:"long_lived_token"`
	ExpiresIn      int64  `json:"expires_in"`
}

// Client calls the Graph API with the credentials in GraphConfig.
type Client struct {
	cfg    config.GraphConfig
	client *http.Client
}

// NewClient creates a Client. Every call is bounded by cfg.TimeoutSeconds.
func NewClient(cfg config.GraphConfig) *Client {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
	}
}

func (c *Client) endpoint(path string) string {
	base := strings.TrimSuffix(c.cfg.BaseURL, "/")
	if c.cfg.APIVersion == "" {
		return base + "/" + path
	}
	return base + "/" + c.cfg.APIVersion + "/" + path
}

type sendRequest struct {
	Recipient recipient   `json:"recipient"`
	Message   messageBody `json:"message"`
}

type recipient struct {
	ID string `json:"id"`
}

type messageBody struct {
	Text string `json:"text"`
}

// SendMessage delivers text to recipientID. It does not retry.
func (c *Client) SendMessage(ctx context.Context, recipientID, text string) error {
	const stage = "send"

	if c.cfg.UserID == "" {
		return fault.ConfigMissing(stage, "USER_ID")
	}
	if c.cfg.AccessToken == "" {
		return fault.ConfigMissing(stage, "INSTAGRAM_TOKEN")
	}

	payload, err := json.Marshal(sendRequest{
		Recipient: recipient{ID: recipientID},
		Message:   messageBody{Text: text},
	})
	if err != nil {
		return fault.Platform(stage, fmt.Errorf("marshalling message: %w", err))
	}

	target := c.endpoint(url.PathEscape(c.cfg.UserID)+"/messages") + "?" + url.Values{
		"access_token": {c.cfg.AccessToken},
	}.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(payload))
	if err != nil {
		return fault.Platform(stage, fmt.Errorf("creating request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")

	status, body, err := c.do(req)
	if err != nil {
		return fault.Platform(stage, err)
	}
	if status < 200 || status >= 300 {
		return fault.Platform(stage, &PlatformError{StatusCode: status, Body: body})
	}

	var ack map[string]any
	if err := json.Unmarshal([]byte(body), &ack); err != nil {
		return fault.Platform(stage, &PlatformError{StatusCode: status, Body: body})
	}
	return nil
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// ExchangeToken trades a short-lived user token for a long-lived one.
func (c *Client) ExchangeToken(ctx context.Context, shortToken string) (TokenExchangeResult, error) {
	const stage = "exchange"

	if shortToken == "" {
		return TokenExchangeResult{}, fault.ConfigMissing(stage, "short_token")
	}
	if c.cfg.AppID == "" {
		return TokenExchangeResult{}, fault.ConfigMissing(stage, "APP_ID")
	}
	if c.cfg.AppSecret == "" {
		return TokenExchangeResult{}, fault.ConfigMissing(stage, "APP_SECRET")
	}

	target := c.endpoint("oauth/access_token") + "?" + url.Values{
		"grant_type":        {"fb_exchange_token"},
		"client_id":         {c.cfg.AppID},
		"client_secret":     {c.cfg.AppSecret},
		"fb_exchange_token": {shortToken},
	}.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return TokenExchangeResult{}, fault.Platform(stage, fmt.Errorf("creating request: %w", err))
	}

	status, body, err := c.do(req)
	if err != nil {
		return TokenExchangeResult{}, fault.Platform(stage, err)
	}
	if status != http.StatusOK {
		return TokenExchangeResult{}, fault.Platform(stage, &PlatformError{StatusCode: status, Body: body})
	}

	var tok tokenResponse
	if err := json.Unmarshal([]byte(body), &tok); err != nil || tok.AccessToken == "" {
		return TokenExchangeResult{}, fault.Platform(stage, &PlatformError{StatusCode: status, Body: body})
	}

	return TokenExchangeResult{LongLivedToken: tok.AccessToken, ExpiresIn: tok.ExpiresIn}, nil
}

func (c *Client) do(req *http.Request) (int, string, error) {
	resp, err := c.client.Do(req)
	if err != nil {
		return 0, "", fmt.Errorf("graph request failed: %w", redact(err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return resp.StatusCode, "", fmt.Errorf("reading graph response: %w", err)
	}
	return resp.StatusCode, string(body), nil
}

// redact drops the request URL from transport errors so query-string
// credentials do not reach the logs.
func redact(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return fmt.Errorf("%s: %w", urlErr.Op, urlErr.Err)
	}
	return err
}

// AsPlatformError extracts a *PlatformError from err's chain.
func AsPlatformError(err error) (*PlatformError, bool) {
	var pe *PlatformError
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}
