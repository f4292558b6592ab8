package capture

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/snackline/backend/internal/service/models/order"
	"github.com/snackline/backend/internal/service/services/checkoutsvc"
)

// service is an interface for the service layer.
type service interface {
	Capture(ctx context.Context, paymentIntentID string) (*order.Order, error)
}

type captureRequest struct {
	PaymentIntentID string `json:"payment_intent_id"`
}

// Capture handles the client-side capture call after the payment redirect.
// Retrying with the same intent id returns the same order.
func Capture(w http.ResponseWriter, r *http.Request, service service) {
	req := captureRequest{}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		slog.Error("Error decoding request body for capture", "error", err)

		return
	}

	o, err := service.Capture(r.Context(), req.PaymentIntentID)
	if err != nil {
		status := http.StatusInternalServerError

		var providerErr *checkoutsvc.ProviderError
		switch {
		case errors.Is(err, checkoutsvc.ErrMissingPaymentIntentID):
			status = http.StatusBadRequest
		case checkoutsvc.IsNotFinalized(err):
			status = http.StatusPaymentRequired
		case errors.Is(err, checkoutsvc.ErrMetadataDecode):
			status = http.StatusUnprocessableEntity
		case errors.As(err, &providerErr):
			status = http.StatusBadGateway
		}

		http.Error(w, err.Error(), status)
		slog.Error("Error capturing payment", "payment_intent_id", req.PaymentIntentID, "error", err)

		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(o); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		slog.Error("Error sending response for capture", "error", err)
	}
}
