package createorder

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/snackline/backend/internal/service/delivery"
	"github.com/snackline/backend/internal/service/models/order"
	"github.com/snackline/backend/internal/service/services/ordersvc"
)

// service is an interface for the service layer.
type service interface {
	CreateOrder(ctx context.Context, req *order.CreateRequest) (*order.Order, error)
}

// choiceInCreateOrderRequest represents one selected choice on an item.
type choiceInCreateOrderRequest struct {
	OptionID       int64 `json:"option_id"        validate:"gt=0"`
	ChoiceOptionID int64 `json:"choice_option_id" validate:"gt=0"`
}

// itemInCreateOrderRequest represents an item in a create order request.
type itemInCreateOrderRequest struct {
	ProductID int64                        `json:"product_id" validate:"gt=0"`
	Quantity  int                          `json:"quantity"   validate:"gte=0"`
	Choices   []choiceInCreateOrderRequest `json:"choices"    validate:"dive"`
}

// createOrderRequest represents a create order request.
type createOrderRequest struct {
	Name        string                     `json:"name"         validate:"required"`
	Address     string                     `json:"address"      validate:"required"`
	Phone       string                     `json:"phone"        validate:"required"`
	PaymentMode string                     `json:"payment_mode" validate:"required,oneof=cb especes"`
	Latitude    *float64                   `json:"latitude"`
	Longitude   *float64                   `json:"longitude"`
	Fee         *decimal.Decimal           `json:"fee"`
	Items       []itemInCreateOrderRequest `json:"items"        validate:"required,min=1,dive"`
}

// Validate validates the create order request.
func (r *createOrderRequest) Validate() error {
	return validator.New().Struct(r)
}

// toModel converts createOrderRequest to order.CreateRequest.
func (r *createOrderRequest) toModel() *order.CreateRequest {
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
		Name:         r.Name,
		Address:      r.Address,
		Phone:        r.Phone,
		DeliveryMode: order.DeliveryModeDelivery,
		PaymentMode:  order.PaymentMode(r.PaymentMode),
		Latitude:     r.Latitude,
		Longitude:    r.Longitude,
		Fee:          r.Fee,
		Items:        items,
	}
}

// CreateOrder handles direct order creation, used by the cash flow. Card
// orders go through the payment intent endpoints instead.
func CreateOrder(w http.ResponseWriter, r *http.Request, service service) {
	orderReq := createOrderRequest{}
	if err := json.NewDecoder(r.Body).Decode(&orderReq); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		slog.Error("Error decoding request body for create order", "error", err)

		return
	}

	if err := orderReq.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		slog.Error("Error validating request body for create order", "error", err)

		return
	}

	created, err := service.CreateOrder(r.Context(), orderReq.toModel())
	if err != nil {
		status := http.StatusInternalServerError

		var productNotFound *ordersvc.ProductNotFoundError
		var outOfZone *delivery.OutOfZoneError
		switch {
		case errors.As(err, &productNotFound), errors.Is(err, delivery.ErrInvalidAddress):
			status = http.StatusBadRequest
		case errors.As(err, &outOfZone):
			status = http.StatusUnprocessableEntity
		}

		http.Error(w, err.Error(), status)
		slog.Error("Error creating order", "error", err)

		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(created); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		slog.Error("Error sending response for create order", "error", err)
	}
}
