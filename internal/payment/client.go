package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// ErrGatewayUnavailable wraps every failure to obtain a usable answer from the gateway.
var ErrGatewayUnavailable = errors.New("payment gateway unavailable")

// Gateway payment statuses that confirm the buyer was charged.
const (
	StatusCaptured   = "captured"
	StatusAuthorized = "authorized"
)

// GatewayPayment is the gateway's view of a payment.
type GatewayPayment struct {
	ID       string `json:"id"`
	OrderID  string `json:"order_id"`
	Status   string `json:"status"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

// Confirmed reports whether the payment status confirms the charge.
func (p *GatewayPayment) Confirmed() bool {
	switch strings.ToLower(p.Status) {
	case StatusCaptured, StatusAuthorized:
		return true
	}
	return false
}

// GatewayClient fetches payments server-to-server.
type GatewayClient interface {
	FetchPayment(ctx context.Context, paymentID string) (*GatewayPayment, error)
}

type restClient struct {
	baseURL    string
	keyID      string
	secret     string
	httpClient *http.Client
	logger     zerolog.Logger
}

// NewRESTClient creates a gateway client authenticating with basic auth.
func NewRESTClient(baseURL, keyID, secret string, timeout time.Duration, logger zerolog.Logger) GatewayClient {
	return &restClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		keyID:      keyID,
		secret:     secret,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger.With().Str("component", "payment-gateway").Logger(),
	}
}

// FetchPayment calls GET {base}/payments/{paymentID}.
func (c *restClient) FetchPayment(ctx context.Context, paymentID string) (*GatewayPayment, error) {
	endpoint := c.baseURL + "/payments/" + url.PathEscape(paymentID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to build request: %v", ErrGatewayUnavailable, err)
	}
	req.SetBasicAuth(c.keyID, c.secret)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error().Err(err).Str("payment_id", paymentID).Msg("payment gateway request failed")
		return nil, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %v", ErrGatewayUnavailable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Warn().
			Int("status", resp.StatusCode).
			Str("payment_id", paymentID).
			Msg("payment gateway returned non-success status")
		return nil, fmt.Errorf("%w: gateway responded %d", ErrGatewayUnavailable, resp.StatusCode)
	}

	var payment GatewayPayment
	if err := json.Unmarshal(body, &payment); err != nil {
		return nil, fmt.Errorf("%w: failed to decode response: %v", ErrGatewayUnavailable, err)
	}

	return &payment, nil
}
