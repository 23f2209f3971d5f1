// Package payments integrates the external payment gateway. Only the
// interface boundary lives here: gateway order creation and payment
// signature verification. Settlement against the trade ledger is out of
// scope - a verified payment is reported to the caller, nothing more.
package payments

import (
	"fmt"

	razorpay "github.com/razorpay/razorpay-go"
	"github.com/razorpay/razorpay-go/utils"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/fundfolio/fundfolio/internal/domain"
)

// Service creates gateway orders and verifies payment signatures
type Service struct {
	client    *razorpay.Client
	keySecret string
	log       zerolog.Logger
}

// NewService creates a payments service.
// Pass empty credentials to run with the gateway disabled; operations then
// fail with domain.ErrGatewayDisabled.
func NewService(keyID, keySecret string, log zerolog.Logger) *Service {
	s := &Service{
		keySecret: keySecret,
		log:       log.With().Str("service", "payments").Logger(),
	}
	if keyID != "" && keySecret != "" {
		s.client = razorpay.NewClient(keyID, keySecret)
	} else {
		s.log.Warn().Msg("Payment gateway credentials not configured, gateway disabled")
	}
	return s
}

// Enabled reports whether the gateway is configured
func (s *Service) Enabled() bool {
	return s.client != nil
}

// CreateOrder creates a gateway order for amount (in currency units).
// The gateway expects the smallest currency unit, so the amount is
// converted to paise.
func (s *Service) CreateOrder(amount decimal.Decimal, receipt string) (map[string]interface{}, error) {
	if s.client == nil {
		return nil, domain.ErrGatewayDisabled
	}
	if !amount.IsPositive() {
		return nil, domain.NewValidationError("amount", "must be positive")
	}

	data := map[string]interface{}{
		"amount":   amount.Mul(decimal.NewFromInt(100)).IntPart(),
		"currency": "INR",
		"receipt":  receipt,
	}

	order, err := s.client.Order.Create(data, nil)
	if err != nil {
		return nil, fmt.Errorf("gateway order creation failed: %w", err)
	}

	s.log.Info().
		Str("receipt", receipt).
		Str("amount", amount.String()).
		Msg("Gateway order created")

	return order, nil
}

// VerifyPayment checks the gateway's payment signature.
// Returns nil only when the signature matches the (order, payment) pair.
func (s *Service) VerifyPayment(gatewayOrderID, paymentID, signature string) error {
	if s.client == nil {
		return domain.ErrGatewayDisabled
	}
	if gatewayOrderID == "" || paymentID == "" || signature == "" {
		return domain.NewValidationError("payment", "orderId, paymentId and signature are required")
	}

	params := map[string]interface{}{
		"razorpay_order_id":   gatewayOrderID,
		"razorpay_payment_id": paymentID,
	}

	if !utils.VerifyPaymentSignature(params, signature, s.keySecret) {
		return fmt.Errorf("payment signature verification failed for order %s", gatewayOrderID)
	}

	s.log.Info().
		Str("gateway_order_id", gatewayOrderID).
		Str("payment_id", paymentID).
		Msg("Payment verified")

	return nil
}
