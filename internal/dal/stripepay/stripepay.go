package stripepay

import (
	"context"
	"encoding/json"
	"fmt"

	stripe "github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"
	"github.com/stripe/stripe-go/v82/webhook"

	"github.com/snackline/backend/internal/service/models/payment"
)

// Config carries the provider credentials, built once at startup.
type Config struct {
	SecretKey     string
	WebhookSecret string
}

// Client adapts the Stripe API to the payment provider surface the capture
// protocol consumes: create intent, retrieve intent, rewrite metadata, verify
// webhook events.
type Client struct {
	api           *client.API
	webhookSecret string
}

func NewClient(cfg Config) *Client {
	api := &client.API{}
	api.Init(cfg.SecretKey, nil)

	return &Client{
		api:           api,
		webhookSecret: cfg.WebhookSecret,
	}
}

func toIntent(pi *stripe.PaymentIntent) *payment.Intent {
	md := make(map[string]string, len(pi.Metadata))
	for k, v := range pi.Metadata {
		md[k] = v
	}
	return &payment.Intent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Status:       payment.IntentStatus(pi.Status),
		Amount:       pi.Amount,
		Metadata:     md,
	}
}

// CreateIntent creates a payment intent for the given amount in minor units.
func (c *Client) CreateIntent(
	ctx context.Context,
	amountCents int64,
	currency string,
	metadata map[string]string,
) (*payment.Intent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amountCents),
		Currency: stripe.String(currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx
	for k, v := range metadata {
		params.AddMetadata(k, v)
	}

	pi, err := c.api.PaymentIntents.New(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create payment intent: %w", err)
	}

	return toIntent(pi), nil
}

// Intent retrieves a payment intent by id.
func (c *Client) Intent(ctx context.Context, id string) (*payment.Intent, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx

	pi, err := c.api.PaymentIntents.Get(id, params)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve payment intent %s: %w", id, err)
	}

	return toIntent(pi), nil
}

// UpdateMetadata rewrites the intent's metadata map.
func (c *Client) UpdateMetadata(ctx context.Context, id string, metadata map[string]string) error {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx
	for k, v := range metadata {
		params.AddMetadata(k, v)
	}

	if _, err := c.api.PaymentIntents.Update(id, params); err != nil {
		return fmt.Errorf("failed to update payment intent %s metadata: %w", id, err)
	}

	return nil
}

// ParseEvent verifies a webhook payload signature and extracts the payment
// intent it carries.
func (c *Client) ParseEvent(payload []byte, sigHeader string) (*payment.Event, error) {
	event, err := webhook.ConstructEvent(payload, sigHeader, c.webhookSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to verify webhook signature: %w", err)
	}

	var pi stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
		return nil, fmt.Errorf("failed to decode webhook payment intent: %w", err)
	}

	return &payment.Event{Type: string(event.Type), Intent: toIntent(&pi)}, nil
}
