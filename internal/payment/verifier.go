package payment

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

// Verification reasons.
const (
	ReasonSignature      = "signature_verified"
	ReasonGatewayStatus  = "gateway_confirmed"
	ReasonNotConfirmed   = "payment_not_confirmed"
	ReasonOrderMismatch  = "gateway_order_mismatch"
	ReasonAmountMismatch = "amount_mismatch"
)

// Result is the outcome of a callback verification.
type Result struct {
	Accepted bool
	Reason   string
	Status   string
}

// Verifier checks gateway callbacks, falling back to a server-to-server
// lookup when the signature does not match.
type Verifier struct {
	secret string
	client GatewayClient
	logger zerolog.Logger
}

// NewVerifier creates a Verifier. client may be nil, which disables the fallback.
func NewVerifier(secret string, client GatewayClient, logger zerolog.Logger) *Verifier {
	return &Verifier{
		secret: secret,
		client: client,
		logger: logger.With().Str("component", "payment-verifier").Logger(),
	}
}

// Verify validates a callback for an order worth amount minor currency units.
// The amount is only checked on the fallback path, where the gateway reports
// what was charged. The returned error wraps ErrGatewayUnavailable when the
// fallback lookup could not be completed.
func (v *Verifier) Verify(ctx context.Context, gatewayOrderID, paymentID, signature string, amount int64) (Result, error) {
	if ValidSignature(v.secret, gatewayOrderID, paymentID, signature) {
		return Result{Accepted: true, Reason: ReasonSignature}, nil
	}

	v.logger.Info().
		Str("gateway_order_id", gatewayOrderID).
		Str("payment_id", paymentID).
		Msg("signature mismatch, confirming payment with gateway")

	if v.client == nil {
		return Result{}, fmt.Errorf("%w: no gateway client configured", ErrGatewayUnavailable)
	}

	payment, err := v.client.FetchPayment(ctx, paymentID)
	if err != nil {
		return Result{}, err
	}

	if payment.OrderID != "" && payment.OrderID != gatewayOrderID {
		v.logger.Warn().
			Str("gateway_order_id", gatewayOrderID).
			Str("payment_order_id", payment.OrderID).
			Str("payment_id", paymentID).
			Msg("payment belongs to a different gateway order")
		return Result{Reason: ReasonOrderMismatch, Status: payment.Status}, nil
	}

	if !payment.Confirmed() {
		return Result{Reason: ReasonNotConfirmed, Status: payment.Status}, nil
	}

	if payment.Amount != amount {
		v.logger.Warn().
			Str("gateway_order_id", gatewayOrderID).
			Str("payment_id", paymentID).
			Int64("charged", payment.Amount).
			Int64("expected", amount).
			Msg("payment amount does not match order total")
		return Result{Reason: ReasonAmountMismatch, Status: payment.Status}, nil
	}

	return Result{Accepted: true, Reason: ReasonGatewayStatus, Status: payment.Status}, nil
}
