package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/modelgate/modelgate/gateway"
)

const (
	defaultBaseURL = "https://api.anthropic.com"
	messagesPath   = "/v1/messages"

	// apiVersion pins the Messages API schema version. The gateway tracks
	// provider schema versions explicitly rather than negotiating.
	apiVersion = "2023-06-01"
)

// client performs a single POST to the Messages endpoint and maps the HTTP
// outcome into the gateway error taxonomy. Retry and breaker behavior live
// one layer up in the retry executor.
type client struct {
	httpClient *http.Client
	baseURL    string
	logger     zerolog.Logger
}

func newClient(httpClient *http.Client, baseURL string, logger zerolog.Logger) *client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &client{
		httpClient: httpClient,
		baseURL:    baseURL,
		logger:     logger,
	}
}

// send POSTs one Messages request. Transport failures are returned raw; the
// retry executor normalizes them into the timeout variant.
func (c *client) send(ctx context.Context, apiKey string, req *messagesRequest) (*messagesResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, gateway.NewClientError(fmt.Sprintf("failed to encode request: %v", err), 0, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+messagesPath, bytes.NewReader(body))
	if err != nil {
		return nil, gateway.NewClientError(fmt.Sprintf("failed to build request: %v", err), 0, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", apiKey)
	httpReq.Header.Set("anthropic-version", apiVersion)

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		return nil, c.statusError(httpResp)
	}

	var resp messagesResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		return nil, gateway.NewServerError(fmt.Sprintf("failed to decode response: %v", err), httpResp.StatusCode, err)
	}
	return &resp, nil
}

// statusError maps a non-2xx response into a typed gateway error. 429 and
// 500/503/529 are retryable; every other status is a client error surfaced
// on first occurrence.
func (c *client) statusError(resp *http.Response) *gateway.Error {
	msg := readErrorMessage(resp.Body)

	switch resp.StatusCode {
	case http.StatusTooManyRequests:
		return gateway.NewRateLimitError(msg, parseRetryAfter(resp.Header.Get("Retry-After")), nil)
	case http.StatusInternalServerError, http.StatusServiceUnavailable, 529:
		return gateway.NewServerError(msg, resp.StatusCode, nil)
	default:
		return gateway.NewClientError(msg, resp.StatusCode, nil)
	}
}

// readErrorMessage extracts the error message from the provider's error
// envelope, falling back to the raw body when it does not parse.
func readErrorMessage(body io.Reader) string {
	data, err := io.ReadAll(body)
	if err != nil {
		return "failed to read error response"
	}

	var envelope errorEnvelope
	if err := json.Unmarshal(data, &envelope); err == nil && envelope.Error.Message != "" {
		if envelope.Error.Type != "" {
			return fmt.Sprintf("%s (type: %s)", envelope.Error.Message, envelope.Error.Type)
		}
		return envelope.Error.Message
	}

	return string(data)
}

// parseRetryAfter parses a Retry-After header as delta-seconds or an HTTP
// date. A missing or unparseable header yields nil, which selects the
// exponential schedule instead.
func parseRetryAfter(header string) *time.Duration {
	if header == "" {
		return nil
	}

	if seconds, err := strconv.Atoi(header); err == nil && seconds >= 0 {
		d := time.Duration(seconds) * time.Second
		return &d
	}

	if retryTime, err := time.Parse(time.RFC1123, header); err == nil {
		now := time.Now()
		if retryTime.After(now) {
			d := retryTime.Sub(now)
			return &d
		}
	}

	return nil
}
