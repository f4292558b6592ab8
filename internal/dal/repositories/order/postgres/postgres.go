package orderrepo

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/shopspring/decimal"

	"github.com/snackline/backend/internal/dal/postgres"
	"github.com/snackline/backend/internal/service/models/order"
	"github.com/snackline/backend/internal/service/models/orderitem"
)

// OrderDal represents order data access layer model.
type OrderDal struct {
	Id           int64
	Name         string
	Address      string
	Phone        string
	DeliveryMode string
	PaymentMode  string
	Fee          decimal.Decimal
	Total        decimal.Decimal
	Status       string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ToModel converts OrderDal to the service layer Order model.
func (o *OrderDal) ToModel() (*order.Order, error) {
	status, err := order.ParseStatus(o.Status)
	if err != nil {
		return nil, err
	}
	return &order.Order{
		ID:           o.Id,
		Name:         o.Name,
		Address:      o.Address,
		Phone:        o.Phone,
		DeliveryMode: order.DeliveryMode(o.DeliveryMode),
		PaymentMode:  order.PaymentMode(o.PaymentMode),
		Fee:          o.Fee,
		Total:        o.Total,
		Status:       status,
		CreatedAt:    o.CreatedAt,
		UpdatedAt:    o.UpdatedAt,
		OrderItems:   []orderitem.OrderItem{},
	}, nil
}

type PostgresOrderRepository struct {
	conn postgres.Querier
}

func NewPostgresOrderRepository(conn postgres.Querier) *PostgresOrderRepository {
	return &PostgresOrderRepository{conn: conn}
}

// Insert persists the order header, its items and the per-item choice
// snapshots. Caller provides the transaction through the unit of work, so a
// failure anywhere leaves no partial order behind.
func (r *PostgresOrderRepository) Insert(ctx context.Context, o *order.Order) (*order.Order, error) {
	query, args, err := sq.Insert("orders").
		Columns(
			"name",
			"address",
			"phone",
			"delivery_mode",
			"payment_mode",
			"fee",
			"total",
			"status",
			"created_at",
			"updated_at",
		).
		Values(
			o.Name,
			o.Address,
			o.Phone,
			string(o.DeliveryMode),
			string(o.PaymentMode),
			o.Fee,
			o.Total,
			string(o.Status),
			o.CreatedAt,
			o.UpdatedAt,
		).
		Suffix("RETURNING id").
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build order insert: %w", err)
	}

	if err := r.conn.QueryRow(ctx, query, args...).Scan(&o.ID); err != nil {
		return nil, fmt.Errorf("failed to insert order: %w", err)
	}

	if len(o.OrderItems) == 0 {
		return o, nil
	}

	itemsBuilder := sq.Insert("order_items").
		Columns(
			"order_id",
			"product_id",
			"product_name_snapshot",
			"base_price_snapshot",
			"quantity",
			"item_total",
			"created_at",
			"updated_at",
		).
		Suffix("RETURNING id").
		PlaceholderFormat(sq.Dollar)
	for i := range o.OrderItems {
		item := &o.OrderItems[i]
		item.OrderID = o.ID
		itemsBuilder = itemsBuilder.Values(
			item.OrderID,
			item.ProductID,
			item.ProductNameSnapshot,
			item.BasePriceSnapshot,
			item.Quantity,
			item.ItemTotal,
			o.CreatedAt,
			o.UpdatedAt,
		)
	}

	query, args, err = itemsBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build order items insert: %w", err)
	}

	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to insert order items: %w", err)
	}
	defer rows.Close()

	i := 0
	for rows.Next() {
		if i >= len(o.OrderItems) {
			break
		}
		if err := rows.Scan(&o.OrderItems[i].ID); err != nil {
			return nil, fmt.Errorf("failed to scan order item id: %w", err)
		}
		o.OrderItems[i].CreatedAt = o.CreatedAt
		o.OrderItems[i].UpdatedAt = o.UpdatedAt
		i++
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}
	rows.Close()

	snapshotsBuilder := sq.Insert("order_item_choices").
		Columns(
			"order_item_id",
			"choice_option_id",
			"choice_name_snapshot",
			"choice_price_modifier_snapshot",
			"created_at",
		).
		PlaceholderFormat(sq.Dollar)
	hasSnapshots := false
	for _, item := range o.OrderItems {
		for _, snap := range item.ChoiceOptions {
			hasSnapshots = true
			snapshotsBuilder = snapshotsBuilder.Values(
				item.ID,
				snap.ChoiceOptionID,
				snap.ChoiceNameSnapshot,
				snap.ChoicePriceModifierSnapshot,
				o.CreatedAt,
			)
		}
	}
	if !hasSnapshots {
		return o, nil
	}

	query, args, err = snapshotsBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build choice snapshots insert: %w", err)
	}
	if _, err := r.conn.Exec(ctx, query, args...); err != nil {
		return nil, fmt.Errorf("failed to insert choice snapshots: %w", err)
	}

	return o, nil
}

// Query retrieves order headers based on filter criteria, newest first.
func (r *PostgresOrderRepository) Query(ctx context.Context, filter *order.QueryOrdersModel) ([]order.Order, error) {
	builder := sq.Select(
		"id",
		"name",
		"address",
		"phone",
		"delivery_mode",
		"payment_mode",
		"fee",
		"total",
		"status",
		"created_at",
		"updated_at",
	).
		From("orders").
		OrderBy("created_at DESC", "id DESC").
		PlaceholderFormat(sq.Dollar)

	if len(filter.Ids) > 0 {
		builder = builder.Where(sq.Eq{"id": filter.Ids})
	}
	if filter.Status != "" {
		builder = builder.Where(sq.Eq{"status": string(filter.Status)})
	}
	if filter.Limit > 0 {
		builder = builder.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		builder = builder.Offset(uint64(filter.Offset))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build orders query: %w", err)
	}

	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	var result []order.Order
	for rows.Next() {
		var dal OrderDal
		err := rows.Scan(
			&dal.Id,
			&dal.Name,
			&dal.Address,
			&dal.Phone,
			&dal.DeliveryMode,
			&dal.PaymentMode,
			&dal.Fee,
			&dal.Total,
			&dal.Status,
			&dal.CreatedAt,
			&dal.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		model, err := dal.ToModel()
		if err != nil {
			return nil, fmt.Errorf("failed to convert order dal to model: %w", err)
		}
		result = append(result, *model)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return result, nil
}

// ItemsByOrderIDs retrieves order items with their choice snapshots for a set
// of orders: one query for items, one for snapshots. Snapshot rows survive
// catalog deletions, hence the left joins for the option grouping columns.
func (r *PostgresOrderRepository) ItemsByOrderIDs(ctx context.Context, orderIDs []int64) ([]orderitem.OrderItem, error) {
	if len(orderIDs) == 0 {
		return []orderitem.OrderItem{}, nil
	}

	query, args, err := sq.Select(
		"id",
		"order_id",
		"product_id",
		"product_name_snapshot",
		"base_price_snapshot",
		"quantity",
		"item_total",
		"created_at",
		"updated_at",
	).
		From("order_items").
		Where(sq.Eq{"order_id": orderIDs}).
		OrderBy("id ASC").
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build order items query: %w", err)
	}

	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query order items: %w", err)
	}
	defer rows.Close()

	var items []orderitem.OrderItem
	var itemIDs []int64
	for rows.Next() {
		var it orderitem.OrderItem
		err := rows.Scan(
			&it.ID,
			&it.OrderID,
			&it.ProductID,
			&it.ProductNameSnapshot,
			&it.BasePriceSnapshot,
			&it.Quantity,
			&it.ItemTotal,
			&it.CreatedAt,
			&it.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		it.ChoiceOptions = []orderitem.ChoiceSnapshot{}
		items = append(items, it)
		itemIDs = append(itemIDs, it.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}
	rows.Close()

	if len(itemIDs) == 0 {
		return items, nil
	}

	snaps, err := r.choiceSnapshotsByItemIDs(ctx, itemIDs)
	if err != nil {
		return nil, err
	}
	for i := range items {
		if s, ok := snaps[items[i].ID]; ok {
			items[i].ChoiceOptions = s
		}
	}

	return items, nil
}

func (r *PostgresOrderRepository) choiceSnapshotsByItemIDs(ctx context.Context, itemIDs []int64) (map[int64][]orderitem.ChoiceSnapshot, error) {
	query, args, err := sq.Select(
		"oic.order_item_id",
		"oic.choice_option_id",
		"oic.choice_name_snapshot",
		"oic.choice_price_modifier_snapshot",
		"COALESCE(opt.id, 0)",
		"COALESCE(opt.name, '')",
	).
		From("order_item_choices oic").
		LeftJoin("choice_options co ON co.id = oic.choice_option_id").
		LeftJoin("options opt ON opt.id = co.option_id").
		Where(sq.Eq{"oic.order_item_id": itemIDs}).
		OrderBy("oic.order_item_id ASC", "oic.choice_option_id ASC").
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build choice snapshots query: %w", err)
	}

	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query choice snapshots: %w", err)
	}
	defer rows.Close()

	result := make(map[int64][]orderitem.ChoiceSnapshot)
	for rows.Next() {
		var itemID int64
		var snap orderitem.ChoiceSnapshot
		err := rows.Scan(
			&itemID,
			&snap.ChoiceOptionID,
			&snap.ChoiceNameSnapshot,
			&snap.ChoicePriceModifierSnapshot,
			&snap.OptionID,
			&snap.OptionName,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan choice snapshot: %w", err)
		}
		result[itemID] = append(result[itemID], snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return result, nil
}

// UpdateStatus sets the order status and bumps updated_at.
func (r *PostgresOrderRepository) UpdateStatus(ctx context.Context, id int64, status order.Status) (int64, error) {
	query, args, err := sq.Update("orders").
		Set("status", string(status)).
		Set("updated_at", time.Now()).
		Where(sq.Eq{"id": id}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build status update: %w", err)
	}

	tag, err := r.conn.Exec(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to update order status: %w", err)
	}

	return tag.RowsAffected(), nil
}
