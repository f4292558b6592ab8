package ordersvc

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/snackline/backend/internal/dal/interfaces/icatalogrepo"
	"github.com/snackline/backend/internal/dal/interfaces/iorderrepo"
	"github.com/snackline/backend/internal/dal/interfaces/ioutboxrepo"
	"github.com/snackline/backend/internal/dal/postgres"
	"github.com/snackline/backend/internal/dal/uow"
	"github.com/snackline/backend/internal/service/delivery"
	"github.com/snackline/backend/internal/service/models/catalog"
	"github.com/snackline/backend/internal/service/models/order"
	"github.com/snackline/backend/internal/service/models/orderitem"
	"github.com/snackline/backend/internal/service/models/outbox"
	"github.com/snackline/backend/internal/service/pricing"
)

const (
	eventsQueue      = "orders.events"
	outboxMaxRetries = 10
)

// OrderService assembles and manages orders. Creation is atomic: the header,
// line items and modifier snapshots are committed together or not at all.
type OrderService struct {
	pgClient *postgres.Client
	newUOW   func() unitOfWork
	feeCalc  *delivery.Calculator
}

type unitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	OrderRepository() iorderrepo.IOrderRepository
	CatalogRepository() icatalogrepo.ICatalogRepository
	OutboxRepository() ioutboxrepo.IOutboxRepository
}

// option is a function that configures the OrderService.
type option func(*OrderService)

// MustNewOrderService creates a new OrderService.
func MustNewOrderService(opts ...option) *OrderService {
	s := &OrderService{}
	for _, opt := range opts {
		opt(s)
	}
	if s.newUOW == nil {
		panic("ordersvc: no unit of work source configured")
	}
	if s.feeCalc == nil {
		panic("ordersvc: no delivery calculator configured")
	}

	return s
}

// WithPostgresClient sets the Postgres client for the OrderService.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithPostgresClient(pgClient *postgres.Client) option {
	return func(s *OrderService) {
		s.pgClient = pgClient
		s.newUOW = func() unitOfWork { return uow.NewUnitOfWork(pgClient) }
	}
}

// WithUnitOfWorkFactory overrides the unit of work source (tests).
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithUnitOfWorkFactory(factory func() unitOfWork) option {
	return func(s *OrderService) {
		s.newUOW = factory
	}
}

// WithDeliveryCalculator sets the delivery fee calculator.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithDeliveryCalculator(calc *delivery.Calculator) option {
	return func(s *OrderService) {
		s.feeCalc = calc
	}
}

// catalogSnapshot is all the catalog data one order assembly needs, fetched
// with one query per entity type.
type catalogSnapshot struct {
	products       map[int64]*catalog.Product
	options        map[int64]*catalog.Option
	choiceOptions  map[int64]*catalog.ChoiceOption
	productsByName map[string]*catalog.Product
}

func (s *OrderService) loadCatalog(ctx context.Context, repo icatalogrepo.ICatalogRepository, req *order.CreateRequest) (*catalogSnapshot, error) {
	var productIDs, optionIDs, choiceOptionIDs []int64
	for _, item := range req.Items {
		productIDs = append(productIDs, item.ProductID)
		for _, ch := range item.Choices {
			optionIDs = append(optionIDs, ch.OptionID)
			choiceOptionIDs = append(choiceOptionIDs, ch.ChoiceOptionID)
		}
	}

	products, err := repo.ProductsByIDs(ctx, productIDs)
	if err != nil {
		return nil, err
	}
	options, err := repo.OptionsByIDs(ctx, optionIDs)
	if err != nil {
		return nil, err
	}
	choiceOptions, err := repo.ChoiceOptionsByIDs(ctx, choiceOptionIDs)
	if err != nil {
		return nil, err
	}

	// Selected choice names may resolve to catalog products; the combo
	// classifier needs them with their category.
	nameSet := make(map[string]struct{})
	var names []string
	for _, item := range req.Items {
		for _, ch := range item.Choices {
			if co, ok := choiceOptions[ch.ChoiceOptionID]; ok && co.Name != "" {
				key := co.Name
				if _, dup := nameSet[key]; !dup {
					nameSet[key] = struct{}{}
					names = append(names, key)
				}
			}
		}
	}
	productsByName, err := repo.ProductsByNames(ctx, names)
	if err != nil {
		return nil, err
	}

	return &catalogSnapshot{
		products:       products,
		options:        options,
		choiceOptions:  choiceOptions,
		productsByName: productsByName,
	}, nil
}

// priceItems computes every line's unit price and total and builds the item
// snapshots. Returns the sum over all lines.
func (s *OrderService) priceItems(req *order.CreateRequest, cat *catalogSnapshot) ([]orderitem.OrderItem, decimal.Decimal, error) {
	items := make([]orderitem.OrderItem, 0, len(req.Items))
	itemsSum := decimal.Zero

	for _, itemReq := range req.Items {
		product, ok := cat.products[itemReq.ProductID]
		if !ok {
			return nil, decimal.Zero, &ProductNotFoundError{ProductID: itemReq.ProductID}
		}

		unitPrice := pricing.UnitPrice(product, itemReq.Choices, cat.options, cat.choiceOptions, cat.productsByName)
		qty := itemReq.Quantity
		if qty < 1 {
			qty = 1
		}
		itemTotal := unitPrice.Mul(decimal.NewFromInt(int64(qty)))
		itemsSum = itemsSum.Add(itemTotal)

		item := orderitem.OrderItem{
			ProductID:           product.ID,
			ProductNameSnapshot: product.Name,
			BasePriceSnapshot:   product.BasePrice,
			Quantity:            qty,
			ItemTotal:           itemTotal,
			ChoiceOptions:       []orderitem.ChoiceSnapshot{},
		}
		for _, ch := range itemReq.Choices {
			co, ok := cat.choiceOptions[ch.ChoiceOptionID]
			if !ok {
				continue
			}
			snap := orderitem.ChoiceSnapshot{
				ChoiceOptionID:              co.ID,
				ChoiceNameSnapshot:          co.Name,
				ChoicePriceModifierSnapshot: co.PriceModifier,
			}
			if opt, ok := cat.options[co.OptionID]; ok {
				snap.OptionID = opt.ID
				snap.OptionName = opt.Name
			}
			item.ChoiceOptions = append(item.ChoiceOptions, snap)
		}
		items = append(items, item)
	}

	return items, itemsSum, nil
}

// Quote prices a request without writing anything: items sum, delivery fee and
// grand total. The card flow charges exactly this amount.
func (s *OrderService) Quote(ctx context.Context, req *order.CreateRequest) (itemsSum, fee, grandTotal decimal.Decimal, err error) {
	if err := req.Validate(); err != nil {
		return decimal.Zero, decimal.Zero, decimal.Zero, err
	}

	work := s.newUOW()
	cat, err := s.loadCatalog(ctx, work.CatalogRepository(), req)
	if err != nil {
		return decimal.Zero, decimal.Zero, decimal.Zero, err
	}

	_, itemsSum, err = s.priceItems(req, cat)
	if err != nil {
		return decimal.Zero, decimal.Zero, decimal.Zero, err
	}

	quote, err := s.feeCalc.Calc(ctx, req.Address, req.Latitude, req.Longitude, req.Fee)
	if err != nil {
		return decimal.Zero, decimal.Zero, decimal.Zero, err
	}

	return itemsSum, quote.Fee, itemsSum.Add(quote.Fee).Round(2), nil
}

// CreateOrder assembles and persists an order. Card orders start pending and
// wait for payment confirmation; cash is collected at delivery, so those start
// preparing right away.
func (s *OrderService) CreateOrder(ctx context.Context, req *order.CreateRequest) (*order.Order, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	now := time.Now()
	work := s.newUOW()

	cat, err := s.loadCatalog(ctx, work.CatalogRepository(), req)
	if err != nil {
		return nil, err
	}

	items, itemsSum, err := s.priceItems(req, cat)
	if err != nil {
		return nil, err
	}

	quote, err := s.feeCalc.Calc(ctx, req.Address, req.Latitude, req.Longitude, req.Fee)
	if err != nil {
		return nil, err
	}

	status := order.StatusPending
	if req.PaymentMode == order.PaymentModeCash {
		status = order.StatusPreparing
	}

	o := &order.Order{
		Name:         req.Name,
		Address:      req.Address,
		Phone:        req.Phone,
		DeliveryMode: order.DeliveryModeDelivery,
		PaymentMode:  req.PaymentMode,
		Fee:          quote.Fee,
		Total:        itemsSum.Add(quote.Fee).Round(2),
		Status:       status,
		CreatedAt:    now,
		UpdatedAt:    now,
		OrderItems:   items,
	}

	if err = work.Begin(ctx); err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			if rbErr := work.Rollback(); rbErr != nil {
				slog.Error("Failed to rollback order creation", "error", rbErr)
			}
		}
	}()

	o, err = work.OrderRepository().Insert(ctx, o)
	if err != nil {
		return nil, err
	}

	if err = s.enqueueEvent(ctx, work.OutboxRepository(), order.EventCreated, o, now); err != nil {
		return nil, err
	}

	if err = work.Commit(); err != nil {
		return nil, err
	}

	return o, nil
}

// GetOrder retrieves one order with items and snapshots.
func (s *OrderService) GetOrder(ctx context.Context, id int64) (*order.Order, error) {
	work := s.newUOW()

	orders, err := work.OrderRepository().Query(ctx, &order.QueryOrdersModel{Ids: []int64{id}})
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return nil, ErrOrderNotFound
	}

	o := orders[0]
	items, err := work.OrderRepository().ItemsByOrderIDs(ctx, []int64{o.ID})
	if err != nil {
		return nil, err
	}
	o.OrderItems = items

	return &o, nil
}

// ListOrders retrieves orders with their items based on filter.
func (s *OrderService) ListOrders(ctx context.Context, filter *order.QueryOrdersModel) ([]order.Order, error) {
	work := s.newUOW()

	orders, err := work.OrderRepository().Query(ctx, filter)
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return []order.Order{}, nil
	}

	orderIDs := make([]int64, 0, len(orders))
	for _, o := range orders {
		orderIDs = append(orderIDs, o.ID)
	}
	items, err := work.OrderRepository().ItemsByOrderIDs(ctx, orderIDs)
	if err != nil {
		return nil, err
	}

	for i := range orders {
		for _, item := range items {
			if item.OrderID == orders[i].ID {
				orders[i].OrderItems = append(orders[i].OrderItems, item)
			}
		}
	}

	return orders, nil
}

// UpdateStatus is the admin status write. No transition ordering is enforced
// here; only payment confirmation uses the dedicated MarkPreparing path.
func (s *OrderService) UpdateStatus(ctx context.Context, id int64, status order.Status) (*order.Order, error) {
	work := s.newUOW()

	var err error
	if err = work.Begin(ctx); err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			if rbErr := work.Rollback(); rbErr != nil {
				slog.Error("Failed to rollback status update", "error", rbErr)
			}
		}
	}()

	var affected int64
	affected, err = work.OrderRepository().UpdateStatus(ctx, id, status)
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		err = ErrOrderNotFound
		return nil, err
	}

	var updated []order.Order
	updated, err = work.OrderRepository().Query(ctx, &order.QueryOrdersModel{Ids: []int64{id}})
	if err != nil {
		return nil, err
	}
	if len(updated) == 0 {
		err = ErrOrderNotFound
		return nil, err
	}

	if err = s.enqueueEvent(ctx, work.OutboxRepository(), order.EventStatusChanged, &updated[0], time.Now()); err != nil {
		return nil, err
	}

	if err = work.Commit(); err != nil {
		return nil, err
	}

	return s.GetOrder(ctx, id)
}

// MarkPreparing promotes a pending order to preparing after payment
// confirmation. Promoting an order that is already preparing is a no-op.
func (s *OrderService) MarkPreparing(ctx context.Context, id int64) (*order.Order, error) {
	current, err := s.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Status == order.StatusPreparing {
		return current, nil
	}

	return s.UpdateStatus(ctx, id, order.StatusPreparing)
}

func (s *OrderService) enqueueEvent(
	ctx context.Context,
	repo ioutboxrepo.IOutboxRepository,
	eventType string,
	o *order.Order,
	now time.Time,
) error {
	payload, err := json.Marshal(order.Event{
		Type:        eventType,
		OrderID:     o.ID,
		Status:      o.Status,
		PaymentMode: o.PaymentMode,
		Total:       o.Total,
		OccurredAt:  now,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal order event: %w", err)
	}

	return repo.Insert(ctx, outbox.Message{
		QueueName:   eventsQueue,
		RoutingKey:  eventsQueue,
		Payload:     payload,
		ContentType: "application/json",
		MaxRetries:  outboxMaxRetries,
		CreatedAt:   now,
		UpdatedAt:   now,
		NextRetryAt: now,
	})
}
