// Package checkoutsvc coordinates order creation with the payment provider.
//
// No order row exists before payment: the full order request rides along in
// the payment intent's metadata, and whichever capture path reaches a paid
// intent first (client redirect or provider webhook) creates the order exactly
// once, marking the intent afterwards so the other path finds it.
package checkoutsvc

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/snackline/backend/internal/service/models/order"
	"github.com/snackline/backend/internal/service/models/payment"
	"github.com/snackline/backend/internal/service/services/ordersvc"
)

const intentCurrency = "eur"

// minAmountCents is the provider's minimum chargeable amount.
const minAmountCents = 50

// orders is the slice of the order service the capture protocol needs.
type orders interface {
	Quote(ctx context.Context, req *order.CreateRequest) (itemsSum, fee, grandTotal decimal.Decimal, err error)
	CreateOrder(ctx context.Context, req *order.CreateRequest) (*order.Order, error)
	GetOrder(ctx context.Context, id int64) (*order.Order, error)
	MarkPreparing(ctx context.Context, id int64) (*order.Order, error)
}

// provider is the payment provider surface: intents plus webhook verification.
type provider interface {
	CreateIntent(ctx context.Context, amountCents int64, currency string, metadata map[string]string) (*payment.Intent, error)
	Intent(ctx context.Context, id string) (*payment.Intent, error)
	UpdateMetadata(ctx context.Context, id string, metadata map[string]string) error
	ParseEvent(payload []byte, sigHeader string) (*payment.Event, error)
}

// IntentResponse is returned by the quote step for the client to complete the
// payment.
type IntentResponse struct {
	ClientSecret    string `json:"client_secret"`
	PaymentIntentID string `json:"payment_intent_id"`
	AmountCents     int64  `json:"amount_cents"`
}

// CheckoutService implements the card payment flow.
type CheckoutService struct {
	orders   orders
	provider provider
}

// option is a function that configures the CheckoutService.
type option func(*CheckoutService)

// MustNewCheckoutService creates a new CheckoutService.
func MustNewCheckoutService(opts ...option) *CheckoutService {
	s := &CheckoutService{}
	for _, opt := range opts {
		opt(s)
	}
	if s.orders == nil {
		panic("checkoutsvc: no order service configured")
	}
	if s.provider == nil {
		panic("checkoutsvc: no payment provider configured")
	}

	return s
}

// WithOrderService sets the order service.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithOrderService(o orders) option {
	return func(s *CheckoutService) {
		s.orders = o
	}
}

// WithPaymentProvider sets the payment provider.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithPaymentProvider(p provider) option {
	return func(s *CheckoutService) {
		s.provider = p
	}
}

// CreateIntent is the quote step: price the request server-side, bake the
// computed fee into the encoded payload and create the provider intent
// carrying it. No order is created here.
func (s *CheckoutService) CreateIntent(ctx context.Context, req *order.CreateRequest) (*IntentResponse, error) {
	// Card flow is delivery-only, card-only, whatever the client sent.
	req.DeliveryMode = order.DeliveryModeDelivery
	req.PaymentMode = order.PaymentModeCard

	_, fee, grandTotal, err := s.orders.Quote(ctx, req)
	if err != nil {
		return nil, err
	}

	// The capture paths must recompute the same total, so the fee the client
	// was charged for travels inside the payload.
	req.Fee = &fee

	amountCents := grandTotal.Mul(decimal.NewFromInt(100)).IntPart()
	if amountCents < minAmountCents {
		amountCents = minAmountCents
	}

	md, err := encodeOrderMetadata(req)
	if err != nil {
		return nil, err
	}

	intent, err := s.provider.CreateIntent(ctx, amountCents, intentCurrency, md)
	if err != nil {
		return nil, &ProviderError{Err: err}
	}

	return &IntentResponse{
		ClientSecret:    intent.ClientSecret,
		PaymentIntentID: intent.ID,
		AmountCents:     amountCents,
	}, nil
}

// Capture is the client-facing capture path, called after the payment
// redirect. It creates the order from intent metadata if no capture path got
// there first, and promotes pending card orders once payment has succeeded.
// Safe to retry.
func (s *CheckoutService) Capture(ctx context.Context, paymentIntentID string) (*order.Order, error) {
	paymentIntentID = strings.TrimSpace(paymentIntentID)
	if paymentIntentID == "" {
		return nil, ErrMissingPaymentIntentID
	}

	intent, err := s.provider.Intent(ctx, paymentIntentID)
	if err != nil {
		return nil, &ProviderError{Err: err}
	}

	if !intent.Status.Finalized() {
		return nil, &PaymentNotFinalizedError{Status: intent.Status}
	}

	o, ok, err := s.existingOrder(ctx, intent)
	if err != nil {
		return nil, err
	}
	if ok {
		return o, nil
	}

	req, err := decodeOrderMetadata(intent.Metadata)
	if err != nil {
		return nil, err
	}

	return s.createFromIntent(ctx, intent, req)
}

// HandleWebhook is the asynchronous capture path. Signature failures are
// returned to the caller; anything that goes wrong after verification is
// logged and swallowed so the provider does not retry forever; the client
// capture endpoint is the fallback.
func (s *CheckoutService) HandleWebhook(ctx context.Context, payload []byte, sigHeader string) error {
	event, err := s.provider.ParseEvent(payload, sigHeader)
	if err != nil {
		return err
	}

	if event.Type != payment.EventIntentSucceeded && event.Type != payment.EventIntentProcessing {
		slog.Info("Ignoring webhook event", "type", event.Type)

		return nil
	}

	intent := event.Intent

	o, ok, err := s.existingOrder(ctx, intent)
	if err != nil {
		slog.Error("Webhook could not look up marked order", "payment_intent_id", intent.ID, "error", err)

		return nil
	}
	if ok {
		slog.Info("Webhook found existing order", "order_id", o.ID, "status", o.Status)

		return nil
	}

	req, err := decodeOrderMetadata(intent.Metadata)
	if err != nil {
		slog.Error("Webhook could not decode order metadata", "payment_intent_id", intent.ID, "error", err)

		return nil
	}

	if _, err := s.createFromIntent(ctx, intent, req); err != nil {
		slog.Error("Webhook could not create order", "payment_intent_id", intent.ID, "error", err)
	}

	return nil
}

// existingOrder checks the idempotence marker. When the marker points at a
// live order it returns it, promoting pending card orders if payment has since
// succeeded. Only a confirmed not-found falls through to re-creation; a failed
// read is reported so a flaky lookup cannot cause a duplicate order.
func (s *CheckoutService) existingOrder(ctx context.Context, intent *payment.Intent) (*order.Order, bool, error) {
	if intent.Metadata[metaOrderCreated] != "1" {
		return nil, false, nil
	}
	orderID, err := strconv.ParseInt(intent.Metadata[metaOrderID], 10, 64)
	if err != nil || orderID <= 0 {
		return nil, false, nil
	}

	existing, err := s.orders.GetOrder(ctx, orderID)
	if errors.Is(err, ordersvc.ErrOrderNotFound) {
		// A marker pointing at a missing order falls through to re-creation.
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	if intent.Status == payment.IntentStatusSucceeded &&
		existing.PaymentMode == order.PaymentModeCard &&
		existing.Status == order.StatusPending {
		promoted, err := s.orders.MarkPreparing(ctx, existing.ID)
		if err != nil {
			slog.Error("Failed to promote order to preparing", "order_id", existing.ID, "error", err)

			return existing, true, nil
		}
		return promoted, true, nil
	}

	return existing, true, nil
}

// createFromIntent runs the assembler and writes the idempotence marker back
// into the intent metadata. The write-back is best-effort: the order already
// exists and a retry will find it via the marker or re-read the metadata. Two
// capture calls racing before the marker lands can still both create an order;
// that window is provider-side and accepted.
func (s *CheckoutService) createFromIntent(ctx context.Context, intent *payment.Intent, req *order.CreateRequest) (*order.Order, error) {
	o, err := s.orders.CreateOrder(ctx, req)
	if err != nil {
		return nil, err
	}

	if intent.Status == payment.IntentStatusSucceeded &&
		o.PaymentMode == order.PaymentModeCard &&
		o.Status == order.StatusPending {
		promoted, err := s.orders.MarkPreparing(ctx, o.ID)
		if err != nil {
			slog.Error("Failed to promote fresh order to preparing", "order_id", o.ID, "error", err)
		} else {
			o = promoted
		}
	}

	md := make(map[string]string, len(intent.Metadata)+2)
	for k, v := range intent.Metadata {
		md[k] = v
	}
	md[metaOrderCreated] = "1"
	md[metaOrderID] = strconv.FormatInt(o.ID, 10)
	if err := s.provider.UpdateMetadata(ctx, intent.ID, md); err != nil {
		slog.Error("Failed to mark intent as captured", "payment_intent_id", intent.ID, "order_id", o.ID, "error", err)
	}

	return o, nil
}

// IsNotFinalized reports whether err is a payment-not-finalized rejection.
func IsNotFinalized(err error) bool {
	var target *PaymentNotFinalizedError
	return errors.As(err, &target)
}
