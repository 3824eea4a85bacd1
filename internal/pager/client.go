// Package pager holds the wire types and HTTP client for the helpdesk
// platform's webhook API.
package pager

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// HeaderChannelKey is the shared-secret header authenticating webhook
// calls in both directions.
const HeaderChannelKey = "x-channel-key"

// maxErrorBodyLen bounds how much of an error response body gets logged.
const maxErrorBodyLen = 800

// Client POSTs canonical payloads to the pager platform's inbound webhook.
type Client struct {
	inboundURL string
	channelKey string
	httpClient *http.Client
	logger     *slog.Logger
}

type ClientConfig struct {
	InboundURL string
	ChannelKey string
	Timeout    time.Duration
	Logger     *slog.Logger
}

func NewClient(cfg ClientConfig) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 20 * time.Second
	}
	return &Client{
		inboundURL: cfg.InboundURL,
		channelKey: cfg.ChannelKey,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     cfg.Logger,
	}
}

// Dispatch delivers one payload to the pager inbound webhook. A non-2xx
// response is an error; the response body is truncated into the error
// message for logging.
func (c *Client) Dispatch(ctx context.Context, payload Payload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.inboundURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(HeaderChannelKey, c.channelKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("pager dispatch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyLen))
		return fmt.Errorf("pager dispatch: status %d: %s", resp.StatusCode, snippet)
	}

	c.logger.Debug("payload dispatched",
		"client", payload.Client.ExternalID,
		"message", payload.Message.ExternalID,
		"status", resp.StatusCode,
	)
	return nil
}
