package createintent

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/snackline/backend/internal/service/delivery"
	"github.com/snackline/backend/internal/service/models/order"
	"github.com/snackline/backend/internal/service/services/checkoutsvc"
	"github.com/snackline/backend/internal/service/services/ordersvc"
)

// service is an interface for the service layer.
type service interface {
	CreateIntent(ctx context.Context, req *order.CreateRequest) (*checkoutsvc.IntentResponse, error)
}

type choiceInIntentRequest struct {
	OptionID       int64 `json:"option_id"        validate:"gt=0"`
	ChoiceOptionID int64 `json:"choice_option_id" validate:"gt=0"`
}

type itemInIntentRequest struct {
	ProductID int64                   `json:"product_id" validate:"gt=0"`
	Quantity  int                     `json:"quantity"   validate:"gte=0"`
	Choices   []choiceInIntentRequest `json:"choices"    validate:"dive"`
}

// createIntentRequest carries the full order submission. Payment and delivery
// modes are forced by the card flow, so the client does not send them.
type createIntentRequest struct {
	Name      string                `json:"name"    validate:"required"`
	Address   string                `json:"address" validate:"required"`
	Phone     string                `json:"phone"   validate:"required"`
	Latitude  *float64              `json:"latitude"`
	Longitude *float64              `json:"longitude"`
	Items     []itemInIntentRequest `json:"items"   validate:"required,min=1,dive"`
}

func (r *createIntentRequest) Validate() error {
	return validator.New().Struct(r)
}

func (r *createIntentRequest) toModel() *order.CreateRequest {
	items := make([]order.ItemRequest, len(r.Items))
	for i, item := range r.Items {
		choices := make([]order.ChoiceRequest, len(item.Choices))
		for j, ch := range item.Choices {
			choices[j] = order.ChoiceRequest{
				OptionID:       ch.OptionID,
				ChoiceOptionID: ch.ChoiceOptionID,
			}
		}
		items[i] = order.ItemRequest{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Choices:   choices,
		}
	}

	return &order.CreateRequest{
		Name:      r.Name,
		Address:   r.Address,
		Phone:     r.Phone,
		Latitude:  r.Latitude,
		Longitude: r.Longitude,
		Items:     items,
	}
}

// CreateIntent handles the card flow quote step: price the order server-side
// and open a payment intent carrying the encoded request.
func CreateIntent(w http.ResponseWriter, r *http.Request, service service) {
	intentReq := createIntentRequest{}
	if err := json.NewDecoder(r.Body).Decode(&intentReq); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		slog.Error("Error decoding request body for create intent", "error", err)

		return
	}

	if err := intentReq.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		slog.Error("Error validating request body for create intent", "error", err)

		return
	}

	resp, err := service.CreateIntent(r.Context(), intentReq.toModel())
	if err != nil {
		status := http.StatusInternalServerError

		var productNotFound *ordersvc.ProductNotFoundError
		var outOfZone *delivery.OutOfZoneError
		var providerErr *checkoutsvc.ProviderError
		switch {
		case errors.As(err, &productNotFound), errors.Is(err, delivery.ErrInvalidAddress):
			status = http.StatusBadRequest
		case errors.As(err, &outOfZone):
			status = http.StatusUnprocessableEntity
		case errors.As(err, &providerErr):
			status = http.StatusBadGateway
		}

		http.Error(w, err.Error(), status)
		slog.Error("Error creating payment intent", "error", err)

		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		slog.Error("Error sending response for create intent", "error", err)
	}
}
