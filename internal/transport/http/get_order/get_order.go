package getorder

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/snackline/backend/internal/service/models/order"
	"github.com/snackline/backend/internal/service/services/ordersvc"
)

type service interface {
	GetOrder(ctx context.Context, id int64) (*order.Order, error)
}

// GetOrder handles a single order lookup by id.
func GetOrder(w http.ResponseWriter, r *http.Request, service service) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		http.Error(w, "invalid order id", http.StatusBadRequest)

		return
	}

	o, err := service.GetOrder(r.Context(), id)
	if err != nil {
		if errors.Is(err, ordersvc.ErrOrderNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)

			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		slog.Error("Error getting order", "order_id", id, "error", err)

		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(o); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		slog.Error("Error sending response for get order", "error", err)
	}
}
