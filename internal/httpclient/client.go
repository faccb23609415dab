// internal/httpclient/client.go
package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/montoit/payment-platform/internal/money"
)

// Client is a JSON HTTP client for provider and gateway APIs. Every
// transport or protocol failure comes back as a canonical
// *money.PaymentError; raw response bodies end up in the error details
// for the audit log, never in user-facing messages.
type Client struct {
	name       string
	baseURL    string
	httpClient *http.Client
}

// New creates a client for one upstream API. The name tags every error
// with its origin.
func New(name, baseURL string, timeout time.Duration) *Client {
	return &Client{
		name:    name,
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Name returns the upstream API name
func (c *Client) Name() string { return c.name }

// Post issues a JSON POST
func (c *Client) Post(ctx context.Context, endpoint string, headers map[string]string, payload, response interface{}, expectStatus ...int) error {
	return c.Do(ctx, http.MethodPost, endpoint, headers, payload, response, expectStatus...)
}

// Get issues a GET and decodes the JSON response
func (c *Client) Get(ctx context.Context, endpoint string, headers map[string]string, response interface{}) error {
	return c.Do(ctx, http.MethodGet, endpoint, headers, nil, response)
}

// Do issues one JSON request against baseURL+endpoint and decodes the
// response into response (nil discards the body). expectStatus lists
// the acceptable statuses; empty means any 2xx.
func (c *Client) Do(ctx context.Context, method, endpoint string, headers map[string]string, payload, response interface{}, expectStatus ...int) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return money.NewPaymentErrorf(money.ErrUnknown, "%s: marshal request: %v", c.name, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, body)
	if err != nil {
		return money.NewPaymentErrorf(money.ErrUnknown, "%s: build request: %v", c.name, err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return c.transportError(err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return money.NewPaymentErrorf(money.ErrNetworkError, "%s: read response: %v", c.name, err)
	}

	if !statusOK(resp.StatusCode, expectStatus) {
		return c.statusError(resp.StatusCode, respBody)
	}

	if response != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, response); err != nil {
			return money.NewPaymentErrorf(money.ErrProviderError, "%s: malformed response body: %v", c.name, err)
		}
	}
	return nil
}

func statusOK(code int, expected []int) bool {
	if len(expected) == 0 {
		return code >= 200 && code < 300
	}
	for _, want := range expected {
		if code == want {
			return true
		}
	}
	return false
}

// transportError classifies a client-side failure. Timeouts map to the
// TIMEOUT code rather than propagating raw.
func (c *Client) transportError(err error) *money.PaymentError {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return money.NewPaymentErrorf(money.ErrTimeout, "%s: %v", c.name, err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return money.NewPaymentErrorf(money.ErrTimeout, "%s: %v", c.name, err)
	}
	return money.NewPaymentErrorf(money.ErrNetworkError, "%s: %v", c.name, err)
}

// statusError classifies a non-success HTTP status
func (c *Client) statusError(code int, body []byte) *money.PaymentError {
	switch code {
	case http.StatusRequestTimeout, http.StatusGatewayTimeout:
		return money.NewPaymentErrorf(money.ErrTimeout, "%s: HTTP %d: %s", c.name, code, body)
	case http.StatusPaymentRequired:
		return money.NewPaymentErrorf(money.ErrInsufficientBalance, "%s: HTTP %d: %s", c.name, code, body)
	case http.StatusConflict:
		return money.NewPaymentErrorf(money.ErrDuplicateTransaction, "%s: HTTP %d: %s", c.name, code, body)
	default:
		return money.NewPaymentErrorf(money.ErrProviderError, "%s: HTTP %d: %s", c.name, code, body)
	}
}
