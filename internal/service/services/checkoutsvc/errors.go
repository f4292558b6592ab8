package checkoutsvc

import (
	"errors"
	"fmt"

	"github.com/snackline/backend/internal/service/models/payment"
)

// ErrMetadataDecode reports intent metadata from which no order request can be
// reconstructed.
var ErrMetadataDecode = errors.New("invalid order data in intent metadata")

// ErrMissingPaymentIntentID reports a capture call without an intent id.
var ErrMissingPaymentIntentID = errors.New("payment_intent_id is required")

// PaymentNotFinalizedError reports a capture attempt on an intent that is not
// yet in a paid-or-paying state. The caller should retry later.
type PaymentNotFinalizedError struct {
	Status payment.IntentStatus
}

func (e *PaymentNotFinalizedError) Error() string {
	return fmt.Sprintf("payment not finalized: %s", e.Status)
}

// ProviderError wraps a payment provider failure.
type ProviderError struct {
	Err error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("payment provider error: %v", e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}
