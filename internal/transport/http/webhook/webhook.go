package webhook

import (
	"context"
	"io"
	"log/slog"
	"net/http"
)

// maxBodyBytes caps the webhook payload size per provider guidance.
const maxBodyBytes = 65536

// service is an interface for the service layer.
type service interface {
	HandleWebhook(ctx context.Context, payload []byte, sigHeader string) error
}

// HandleWebhook handles provider webhook notifications. Only signature
// failures are rejected; once the event is verified the endpoint always
// acknowledges so the provider stops retrying.
func HandleWebhook(w http.ResponseWriter, r *http.Request, service service) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		slog.Error("Error reading webhook payload", "error", err)

		return
	}

	if err := service.HandleWebhook(r.Context(), payload, r.Header.Get("Stripe-Signature")); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		slog.Error("Webhook signature verification failed", "error", err)

		return
	}

	w.WriteHeader(http.StatusOK)
}
