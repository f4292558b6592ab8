package payment

// IntentStatus mirrors the provider-side payment intent status.
type IntentStatus string

const (
	IntentStatusSucceeded       IntentStatus = "succeeded"
	IntentStatusProcessing      IntentStatus = "processing"
	IntentStatusRequiresCapture IntentStatus = "requires_capture"
)

// Finalized reports whether the intent is in a paid-or-paying state, i.e. far
// enough along that an order may be created for it.
func (s IntentStatus) Finalized() bool {
	switch s {
	case IntentStatusSucceeded, IntentStatusProcessing, IntentStatusRequiresCapture:
		return true
	default:
		return false
	}
}

// Intent is the provider-side record of one attempted charge. Metadata is the
// durable carrier for the encoded order request and the idempotence marker.
type Intent struct {
	ID           string
	ClientSecret string
	Status       IntentStatus
	Amount       int64
	Metadata     map[string]string
}

// Webhook event types the capture protocol reacts to.
const (
	EventIntentSucceeded  = "payment_intent.succeeded"
	EventIntentProcessing = "payment_intent.processing"
)

// Event is a verified provider webhook notification.
type Event struct {
	Type   string
	Intent *Intent
}
