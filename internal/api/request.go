package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
)

// infoRequest is the JSON body posted to the info endpoint for requests
// selected only by type (and optionally a venue tag).
type infoRequest struct {
	Type string `json:"type"`
	Dex  string `json:"dex,omitempty"`
}

// historyRequest is the fundingHistory body. startTime is always sent, zero
// meaning "from the beginning".
type historyRequest struct {
	Type      string `json:"type"`
	Coin      string `json:"coin"`
	StartTime int64  `json:"startTime"`
}

// post sends one info request through the transport chain and decodes the
// response into result.
//
// Transports are tried in order; the first success short-circuits the chain.
// A 429 from any transport returns *RateLimitError immediately (every
// transport fronts the same upstream, so trying the rest is pointless).
// When all transports fail the last cause is returned as *TransportError.
func (c *Client) post(ctx context.Context, reqType string, req any, result any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	var lastErr error
	for _, tr := range c.transports {
		data, err := c.tryTransport(ctx, tr, body)
		if err == nil {
			if err := json.Unmarshal(data, result); err != nil {
				return fmt.Errorf("unmarshal %s response: %w", reqType, err)
			}
			return nil
		}

		if rl, ok := err.(*RateLimitError); ok {
			return rl
		}

		c.logger.Debug("transport failed",
			"transport", tr.Name,
			"type", reqType,
			"err", err,
		)
		lastErr = err

		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
	}

	return &TransportError{Attempts: len(c.transports), Err: lastErr}
}

// tryTransport performs one POST against a single transport.
func (c *Client) tryTransport(ctx context.Context, tr Transport, body []byte) ([]byte, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, tr.URL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", tr.Name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, &RateLimitError{RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After"))}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s: read response: %w", tr.Name, err)
	}

	if resp.StatusCode >= 400 {
		return nil, &statusError{transport: tr.Name, code: resp.StatusCode}
	}

	return data, nil
}

// parseRetryAfter handles both forms of the Retry-After header:
// delay-seconds and HTTP-date. Anything unparseable, negative, or in the
// past yields 0, leaving the caller's cooldown floor in charge.
func parseRetryAfter(v string) time.Duration {
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil {
		if secs < 0 {
			return 0
		}
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(v); err == nil {
		if d := time.Until(at); d > 0 {
			return d
		}
	}
	return 0
}
