package listorders

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gorilla/schema"

	"github.com/snackline/backend/internal/service/models/order"
)

type service interface {
	ListOrders(ctx context.Context, filter *order.QueryOrdersModel) ([]order.Order, error)
}

type queryOrdersRequest struct {
	Ids    []int64 `schema:"ids,omitempty"`
	Status string  `schema:"status,omitempty"`
	Limit  int     `schema:"limit,omitempty"`
	Offset int     `schema:"offset,omitempty"`
}

func (q *queryOrdersRequest) ToModel() (*order.QueryOrdersModel, error) {
	model := &order.QueryOrdersModel{
		Ids:    q.Ids,
		Limit:  q.Limit,
		Offset: q.Offset,
	}
	if q.Status != "" {
		status, err := order.ParseStatus(q.Status)
		if err != nil {
			return nil, err
		}
		model.Status = status
	}

	return model, nil
}

// ListOrders handles the admin order listing.
func ListOrders(w http.ResponseWriter, r *http.Request, service service) {
	decoder := schema.NewDecoder()
	query := &queryOrdersRequest{}
	if err := decoder.Decode(query, r.URL.Query()); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		slog.Error("Error decoding request", "error", err)

		return
	}

	filter, err := query.ToModel()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)

		return
	}

	orders, err := service.ListOrders(r.Context(), filter)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		slog.Error("Error getting orders", "error", err)

		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(orders); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		slog.Error("Error sending response", "error", err)
	}
}
