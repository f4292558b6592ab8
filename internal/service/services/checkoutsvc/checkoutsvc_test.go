package checkoutsvc

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/snackline/backend/internal/service/models/order"
	"github.com/snackline/backend/internal/service/models/payment"
	"github.com/snackline/backend/internal/service/services/ordersvc"
)

type fakeOrders struct {
	quoteFee   decimal.Decimal
	quoteTotal decimal.Decimal
	quoteErr   error

	createErr   error
	createCalls int
	getErr      error
	nextID      int64
	byID        map[int64]*order.Order
}

func newFakeOrders() *fakeOrders {
	return &fakeOrders{
		quoteFee:   decimal.NewFromFloat(4.50),
		quoteTotal: decimal.NewFromFloat(16.10),
		nextID:     1,
		byID:       map[int64]*order.Order{},
	}
}

func (f *fakeOrders) Quote(_ context.Context, _ *order.CreateRequest) (decimal.Decimal, decimal.Decimal, decimal.Decimal, error) {
	if f.quoteErr != nil {
		return decimal.Zero, decimal.Zero, decimal.Zero, f.quoteErr
	}
	return f.quoteTotal.Sub(f.quoteFee), f.quoteFee, f.quoteTotal, nil
}

func (f *fakeOrders) CreateOrder(_ context.Context, req *order.CreateRequest) (*order.Order, error) {
	f.createCalls++
	if f.createErr != nil {
		return nil, f.createErr
	}
	status := order.StatusPending
	if req.PaymentMode == order.PaymentModeCash {
		status = order.StatusPreparing
	}
	o := &order.Order{
		ID:          f.nextID,
		Name:        req.Name,
		PaymentMode: req.PaymentMode,
		Status:      status,
	}
	f.nextID++
	f.byID[o.ID] = o
	return o, nil
}

func (f *fakeOrders) GetOrder(_ context.Context, id int64) (*order.Order, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	o, ok := f.byID[id]
	if !ok {
		return nil, ordersvc.ErrOrderNotFound
	}
	return o, nil
}

func (f *fakeOrders) MarkPreparing(_ context.Context, id int64) (*order.Order, error) {
	o, ok := f.byID[id]
	if !ok {
		return nil, ordersvc.ErrOrderNotFound
	}
	o.Status = order.StatusPreparing
	return o, nil
}

type fakeProvider struct {
	intents map[string]*payment.Intent

	createErr error
	updateErr error

	event    *payment.Event
	parseErr error
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{intents: map[string]*payment.Intent{}}
}

func (f *fakeProvider) CreateIntent(_ context.Context, amountCents int64, _ string, md map[string]string) (*payment.Intent, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	in := &payment.Intent{
		ID:           "pi_test_1",
		ClientSecret: "pi_test_1_secret",
		Status:       "requires_payment_method",
		Amount:       amountCents,
		Metadata:     md,
	}
	f.intents[in.ID] = in
	return in, nil
}

func (f *fakeProvider) Intent(_ context.Context, id string) (*payment.Intent, error) {
	in, ok := f.intents[id]
	if !ok {
		return nil, errors.New("no such payment_intent")
	}
	return in, nil
}

func (f *fakeProvider) UpdateMetadata(_ context.Context, id string, md map[string]string) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	in, ok := f.intents[id]
	if !ok {
		return errors.New("no such payment_intent")
	}
	in.Metadata = md
	return nil
}

func (f *fakeProvider) ParseEvent(_ []byte, _ string) (*payment.Event, error) {
	if f.parseErr != nil {
		return nil, f.parseErr
	}
	return f.event, nil
}

func validRequest() *order.CreateRequest {
	return &order.CreateRequest{
		Name:        "Jean",
		Address:     "12 Rue de la Paix, Paris",
		Phone:       "+33612345678",
		PaymentMode: order.PaymentModeCash,
		Items:       []order.ItemRequest{{ProductID: 1, Quantity: 1}},
	}
}

func newService(orders *fakeOrders, provider *fakeProvider) *CheckoutService {
	return MustNewCheckoutService(
		WithOrderService(orders),
		WithPaymentProvider(provider),
	)
}

func TestCreateIntent(t *testing.T) {
	ord := newFakeOrders()
	prov := newFakeProvider()
	svc := newService(ord, prov)

	req := validRequest()
	resp, err := svc.CreateIntent(context.Background(), req)
	if err != nil {
		t.Fatalf("CreateIntent: %v", err)
	}

	if resp.AmountCents != 1610 {
		t.Errorf("amount = %d cents, want 1610", resp.AmountCents)
	}
	if resp.ClientSecret == "" || resp.PaymentIntentID == "" {
		t.Errorf("incomplete response: %+v", resp)
	}
	if ord.createCalls != 0 {
		t.Errorf("quote step created %d orders, want 0", ord.createCalls)
	}

	// The forced modes and computed fee must survive the metadata round trip.
	in := prov.intents[resp.PaymentIntentID]
	decoded, err := decodeOrderMetadata(in.Metadata)
	if err != nil {
		t.Fatalf("decodeOrderMetadata: %v", err)
	}
	if decoded.PaymentMode != order.PaymentModeCard {
		t.Errorf("payment mode = %q, want %q", decoded.PaymentMode, order.PaymentModeCard)
	}
	if decoded.DeliveryMode != order.DeliveryModeDelivery {
		t.Errorf("delivery mode = %q, want %q", decoded.DeliveryMode, order.DeliveryModeDelivery)
	}
	if decoded.Fee == nil || !decoded.Fee.Equal(decimal.NewFromFloat(4.50)) {
		t.Errorf("fee = %v, want 4.50", decoded.Fee)
	}
	if in.Metadata[metaOrderCreated] != "0" {
		t.Errorf("order_created = %q, want %q", in.Metadata[metaOrderCreated], "0")
	}
}

func TestCreateIntentMinimumAmount(t *testing.T) {
	ord := newFakeOrders()
	ord.quoteFee = decimal.Zero
	ord.quoteTotal = decimal.NewFromFloat(0.30)
	svc := newService(ord, newFakeProvider())

	resp, err := svc.CreateIntent(context.Background(), validRequest())
	if err != nil {
		t.Fatalf("CreateIntent: %v", err)
	}
	if resp.AmountCents != minAmountCents {
		t.Errorf("amount = %d cents, want floor %d", resp.AmountCents, minAmountCents)
	}
}

func TestCreateIntentQuoteFailure(t *testing.T) {
	ord := newFakeOrders()
	ord.quoteErr = errors.New("address out of zone")
	prov := newFakeProvider()
	svc := newService(ord, prov)

	if _, err := svc.CreateIntent(context.Background(), validRequest()); err == nil {
		t.Fatal("expected error")
	}
	if len(prov.intents) != 0 {
		t.Errorf("intent created despite quote failure")
	}
}

// seedIntent plants a finalized intent carrying an encoded order request.
func seedIntent(t *testing.T, prov *fakeProvider, status payment.IntentStatus) *payment.Intent {
	t.Helper()
	req := validRequest()
	req.DeliveryMode = order.DeliveryModeDelivery
	req.PaymentMode = order.PaymentModeCard
	md, err := encodeOrderMetadata(req)
	if err != nil {
		t.Fatal(err)
	}
	in := &payment.Intent{ID: "pi_seed", Status: status, Amount: 1610, Metadata: md}
	prov.intents[in.ID] = in
	return in
}

func TestCaptureCreatesOrderOnce(t *testing.T) {
	ord := newFakeOrders()
	prov := newFakeProvider()
	svc := newService(ord, prov)
	in := seedIntent(t, prov, payment.IntentStatusSucceeded)

	first, err := svc.Capture(context.Background(), in.ID)
	if err != nil {
		t.Fatalf("first Capture: %v", err)
	}
	if first.Status != order.StatusPreparing {
		t.Errorf("status after succeeded capture = %q, want preparing", first.Status)
	}
	if in.Metadata[metaOrderCreated] != "1" || in.Metadata[metaOrderID] == "" {
		t.Errorf("idempotence marker not written: %v", in.Metadata[metaOrderCreated])
	}

	second, err := svc.Capture(context.Background(), in.ID)
	if err != nil {
		t.Fatalf("second Capture: %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("retry returned order %d, want %d", second.ID, first.ID)
	}
	if ord.createCalls != 1 {
		t.Errorf("CreateOrder called %d times, want 1", ord.createCalls)
	}
}

func TestCaptureProcessingStaysPending(t *testing.T) {
	ord := newFakeOrders()
	prov := newFakeProvider()
	svc := newService(ord, prov)
	in := seedIntent(t, prov, payment.IntentStatusProcessing)

	o, err := svc.Capture(context.Background(), in.ID)
	if err != nil {
		t.Fatalf("Capture: %v", err)
	}
	if o.Status != order.StatusPending {
		t.Errorf("status = %q, want pending while payment is processing", o.Status)
	}

	// Payment settles; the retry promotes via the marker path.
	in.Status = payment.IntentStatusSucceeded
	o, err = svc.Capture(context.Background(), in.ID)
	if err != nil {
		t.Fatalf("Capture after settle: %v", err)
	}
	if o.Status != order.StatusPreparing {
		t.Errorf("status = %q, want preparing after payment succeeded", o.Status)
	}
	if ord.createCalls != 1 {
		t.Errorf("CreateOrder called %d times, want 1", ord.createCalls)
	}
}

func TestCaptureNotFinalized(t *testing.T) {
	prov := newFakeProvider()
	svc := newService(newFakeOrders(), prov)
	in := seedIntent(t, prov, "requires_payment_method")

	_, err := svc.Capture(context.Background(), in.ID)
	var notFinalized *PaymentNotFinalizedError
	if !errors.As(err, &notFinalized) {
		t.Fatalf("err = %v, want PaymentNotFinalizedError", err)
	}
	if !IsNotFinalized(err) {
		t.Error("IsNotFinalized = false, want true")
	}
}

func TestCaptureMissingID(t *testing.T) {
	svc := newService(newFakeOrders(), newFakeProvider())
	if _, err := svc.Capture(context.Background(), "  "); !errors.Is(err, ErrMissingPaymentIntentID) {
		t.Errorf("err = %v, want ErrMissingPaymentIntentID", err)
	}
}

func TestCaptureUndecodableMetadata(t *testing.T) {
	prov := newFakeProvider()
	svc := newService(newFakeOrders(), prov)
	prov.intents["pi_bad"] = &payment.Intent{
		ID:       "pi_bad",
		Status:   payment.IntentStatusSucceeded,
		Metadata: map[string]string{"unrelated": "x"},
	}

	if _, err := svc.Capture(context.Background(), "pi_bad"); !errors.Is(err, ErrMetadataDecode) {
		t.Errorf("err = %v, want ErrMetadataDecode", err)
	}
}

func TestCaptureRecreatesWhenMarkedOrderMissing(t *testing.T) {
	ord := newFakeOrders()
	prov := newFakeProvider()
	svc := newService(ord, prov)
	in := seedIntent(t, prov, payment.IntentStatusSucceeded)
	in.Metadata[metaOrderCreated] = "1"
	in.Metadata[metaOrderID] = "42"

	o, err := svc.Capture(context.Background(), in.ID)
	if err != nil {
		t.Fatalf("Capture: %v", err)
	}
	if o == nil || ord.createCalls != 1 {
		t.Errorf("CreateOrder called %d times, want 1", ord.createCalls)
	}
}

func TestCaptureSurfacesOrderLookupFailure(t *testing.T) {
	ord := newFakeOrders()
	prov := newFakeProvider()
	svc := newService(ord, prov)
	in := seedIntent(t, prov, payment.IntentStatusSucceeded)
	in.Metadata[metaOrderCreated] = "1"
	in.Metadata[metaOrderID] = "42"
	ord.getErr = errors.New("connection reset")

	if _, err := svc.Capture(context.Background(), in.ID); err == nil {
		t.Fatal("expected lookup error")
	}
	// A failed read must not widen the duplicate window.
	if ord.createCalls != 0 {
		t.Errorf("CreateOrder called %d times, want 0", ord.createCalls)
	}
}

func TestCaptureSurvivesMetadataWriteBackFailure(t *testing.T) {
	ord := newFakeOrders()
	prov := newFakeProvider()
	prov.updateErr = errors.New("provider is down")
	svc := newService(ord, prov)
	in := seedIntent(t, prov, payment.IntentStatusSucceeded)

	o, err := svc.Capture(context.Background(), in.ID)
	if err != nil {
		t.Fatalf("Capture: %v", err)
	}
	if o.ID == 0 {
		t.Error("order not created")
	}
}

func TestWebhookCreatesOrder(t *testing.T) {
	ord := newFakeOrders()
	prov := newFakeProvider()
	svc := newService(ord, prov)
	in := seedIntent(t, prov, payment.IntentStatusSucceeded)
	prov.event = &payment.Event{Type: payment.EventIntentSucceeded, Intent: in}

	if err := svc.HandleWebhook(context.Background(), []byte("{}"), "sig"); err != nil {
		t.Fatalf("HandleWebhook: %v", err)
	}
	if ord.createCalls != 1 {
		t.Errorf("CreateOrder called %d times, want 1", ord.createCalls)
	}
	if got := ord.byID[1].Status; got != order.StatusPreparing {
		t.Errorf("status = %q, want preparing", got)
	}
}

func TestWebhookIgnoresOtherEvents(t *testing.T) {
	ord := newFakeOrders()
	prov := newFakeProvider()
	svc := newService(ord, prov)
	prov.event = &payment.Event{Type: "payment_intent.payment_failed", Intent: &payment.Intent{ID: "pi_x"}}

	if err := svc.HandleWebhook(context.Background(), []byte("{}"), "sig"); err != nil {
		t.Fatalf("HandleWebhook: %v", err)
	}
	if ord.createCalls != 0 {
		t.Errorf("CreateOrder called %d times, want 0", ord.createCalls)
	}
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	prov := newFakeProvider()
	prov.parseErr = errors.New("signature verification failed")
	svc := newService(newFakeOrders(), prov)

	if err := svc.HandleWebhook(context.Background(), []byte("{}"), "bad"); err == nil {
		t.Fatal("expected signature error")
	}
}

func TestWebhookSwallowsCreateFailure(t *testing.T) {
	ord := newFakeOrders()
	ord.createErr = errors.New("db unavailable")
	prov := newFakeProvider()
	svc := newService(ord, prov)
	in := seedIntent(t, prov, payment.IntentStatusSucceeded)
	prov.event = &payment.Event{Type: payment.EventIntentSucceeded, Intent: in}

	// Past signature verification the webhook always acknowledges.
	if err := svc.HandleWebhook(context.Background(), []byte("{}"), "sig"); err != nil {
		t.Errorf("HandleWebhook = %v, want nil", err)
	}
}

func TestWebhookFindsExistingOrder(t *testing.T) {
	ord := newFakeOrders()
	prov := newFakeProvider()
	svc := newService(ord, prov)
	in := seedIntent(t, prov, payment.IntentStatusSucceeded)

	if _, err := svc.Capture(context.Background(), in.ID); err != nil {
		t.Fatal(err)
	}

	prov.event = &payment.Event{Type: payment.EventIntentSucceeded, Intent: in}
	if err := svc.HandleWebhook(context.Background(), []byte("{}"), "sig"); err != nil {
		t.Fatalf("HandleWebhook: %v", err)
	}
	if ord.createCalls != 1 {
		t.Errorf("CreateOrder called %d times, want 1", ord.createCalls)
	}
}

func TestWebhookAcksButSkipsCreateOnLookupFailure(t *testing.T) {
	ord := newFakeOrders()
	prov := newFakeProvider()
	svc := newService(ord, prov)
	in := seedIntent(t, prov, payment.IntentStatusSucceeded)
	in.Metadata[metaOrderCreated] = "1"
	in.Metadata[metaOrderID] = "42"
	ord.getErr = errors.New("connection reset")
	prov.event = &payment.Event{Type: payment.EventIntentSucceeded, Intent: in}

	if err := svc.HandleWebhook(context.Background(), []byte("{}"), "sig"); err != nil {
		t.Errorf("HandleWebhook = %v, want nil", err)
	}
	if ord.createCalls != 0 {
		t.Errorf("CreateOrder called %d times, want 0", ord.createCalls)
	}
}
