package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/Georgemuchir/thrift-ease/internal/domain"
)

const (
	EventOrderCreated   = "order.created"
	EventOrderCancelled = "order.cancelled"
)

type OutboxEvent struct {
	ID          int64
	AggregateID string
	EventType   string
	Payload     []byte
}

// BuildOrder turns the locked cart lines into the order to persist.
// Returning an error aborts the transaction and leaves the cart intact.
type BuildOrder func(lines []domain.CartLine) (*domain.Order, error)

type OrderRepository interface {
	PlaceOrder(ctx context.Context, userID int64, build BuildOrder) (*domain.Order, error)
	GetByID(ctx context.Context, id uuid.UUID, userID *int64) (*domain.Order, error)
	ListByUser(ctx context.Context, userID int64, skip, limit int) ([]*domain.Order, error)
	ListAll(ctx context.Context, skip, limit int) ([]*domain.Order, error)
	TransitionStatus(ctx context.Context, id uuid.UUID, userID *int64, next domain.OrderStatus, eventType string) (*domain.Order, error)
	GetUnprocessedEvents(ctx context.Context, limit int) ([]*OutboxEvent, error)
	MarkEventAsProcessed(ctx context.Context, eventID int64) error
}

type OrderRepo struct {
	db *sql.DB
}

func NewOrderRepo(db *sql.DB) *OrderRepo {
	return &OrderRepo{db: db}
}

// cartLinesForUpdate locks the caller's cart rows so that concurrent
// checkouts for the same user serialize on the row locks. Only the
// cart side is locked; product rows stay readable to other sessions.
const cartLinesForUpdate = `SELECT
		ci.id, ci.user_id, ci.product_id, ci.quantity, ci.size, ci.created_at, ci.updated_at,
		p.id, p.name, p.price, p.category, p.image, p.size, p.is_available
	FROM cart_items ci
	LEFT JOIN products p ON p.id = ci.product_id
	WHERE ci.user_id = $1
	ORDER BY ci.id
	FOR UPDATE OF ci`

// PlaceOrder runs the whole checkout sequence as one transaction:
// read-and-lock cart, build the order via the callback, insert order,
// items and outbox event, clear the cart. Any failure rolls everything
// back, so a failed checkout never leaves a partial order or a
// half-emptied cart.
func (r *OrderRepo) PlaceOrder(ctx context.Context, userID int64, build BuildOrder) (order *domain.Order, err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin checkout transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	rows, err := tx.QueryContext(ctx, cartLinesForUpdate, userID)
	if err != nil {
		return nil, fmt.Errorf("lock cart lines: %w", err)
	}

	var lines []domain.CartLine
	for rows.Next() {
		line, scanErr := scanCartLine(rows)
		if scanErr != nil {
			rows.Close()
			err = fmt.Errorf("failed to scan cart line: %w", scanErr)
			return nil, err
		}
		lines = append(lines, line)
	}
	if err = rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	rows.Close()

	order, err = build(lines)
	if err != nil {
		return nil, err
	}

	if err = insertOrder(ctx, tx, order); err != nil {
		return nil, err
	}

	for i := range order.Items {
		item := &order.Items[i]
		item.OrderID = order.ID
		insertErr := tx.QueryRowContext(ctx,
			`INSERT INTO order_items (order_id, product_id, quantity, price, size)
			 VALUES ($1, $2, $3, $4, $5)
			 RETURNING id, created_at`,
			item.OrderID, item.ProductID, item.Quantity, item.Price, item.Size,
		).Scan(&item.ID, &item.CreatedAt)
		if insertErr != nil {
			err = fmt.Errorf("insert order item: %w", insertErr)
			return nil, err
		}
	}

	if err = insertOutboxEvent(ctx, tx, order, EventOrderCreated); err != nil {
		return nil, err
	}

	if _, err = tx.ExecContext(ctx,
		`DELETE FROM cart_items WHERE user_id = $1`, userID); err != nil {
		return nil, fmt.Errorf("clear cart: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit checkout transaction: %w", err)
	}

	return order, nil
}

func insertOrder(ctx context.Context, tx *sql.Tx, order *domain.Order) error {
	query := `INSERT INTO orders
		(id, order_number, user_id, status, subtotal, shipping, tax, total,
		 shipping_first_name, shipping_last_name, shipping_address, shipping_city,
		 shipping_state, shipping_zip_code, shipping_country, shipping_phone,
		 payment_method, payment_status, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
		RETURNING created_at, updated_at`

	err := tx.QueryRowContext(ctx, query,
		order.ID,
		order.OrderNumber,
		order.UserID,
		order.Status,
		order.Subtotal,
		order.Shipping,
		order.Tax,
		order.Total,
		order.ShippingTo.FirstName,
		order.ShippingTo.LastName,
		order.ShippingTo.Address,
		order.ShippingTo.City,
		order.ShippingTo.State,
		order.ShippingTo.ZipCode,
		order.ShippingTo.Country,
		order.ShippingTo.Phone,
		order.PaymentMethod,
		order.PaymentStatus,
		order.Notes,
	).Scan(&order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
			return ErrDuplicateOrderNumber
		}
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

func insertOutboxEvent(ctx context.Context, tx *sql.Tx, order *domain.Order, eventType string) error {
	payload, err := json.Marshal(order)
	if err != nil {
		return fmt.Errorf("marshal order payload: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO outbox_events (aggregate_id, event_type, payload) VALUES ($1, $2, $3)`,
		order.ID.String(), eventType, payload); err != nil {
		return fmt.Errorf("insert outbox event: %w", err)
	}
	return nil
}

const orderColumns = `id, order_number, user_id, status, subtotal, shipping, tax, total,
	shipping_first_name, shipping_last_name, shipping_address, shipping_city,
	shipping_state, shipping_zip_code, shipping_country, shipping_phone,
	payment_method, payment_status, notes, created_at, updated_at`

func scanOrder(row interface{ Scan(...any) error }) (*domain.Order, error) {
	order := &domain.Order{}
	var phone, notes sql.NullString
	err := row.Scan(
		&order.ID,
		&order.OrderNumber,
		&order.UserID,
		&order.Status,
		&order.Subtotal,
		&order.Shipping,
		&order.Tax,
		&order.Total,
		&order.ShippingTo.FirstName,
		&order.ShippingTo.LastName,
		&order.ShippingTo.Address,
		&order.ShippingTo.City,
		&order.ShippingTo.State,
		&order.ShippingTo.ZipCode,
		&order.ShippingTo.Country,
		&phone,
		&order.PaymentMethod,
		&order.PaymentStatus,
		&notes,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	order.ShippingTo.Phone = phone.String
	order.Notes = notes.String
	return order, nil
}

// GetByID loads an order with its items. When userID is non-nil the
// lookup is scoped to that owner, so another user's order reads as not
// found rather than leaking its existence.
func (r *OrderRepo) GetByID(ctx context.Context, id uuid.UUID, userID *int64) (*domain.Order, error) {
	query := "SELECT " + orderColumns + " FROM orders WHERE id = $1"
	args := []any{id}
	if userID != nil {
		query += " AND user_id = $2"
		args = append(args, *userID)
	}

	order, err := scanOrder(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query order by id: %w", err)
	}

	if order.Items, err = r.loadItems(ctx, order.ID); err != nil {
		return nil, err
	}
	return order, nil
}

func (r *OrderRepo) loadItems(ctx context.Context, orderID uuid.UUID) ([]domain.OrderItem, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, order_id, product_id, quantity, price, size, created_at
		 FROM order_items WHERE order_id = $1 ORDER BY id`, orderID)
	if err != nil {
		return nil, fmt.Errorf("query order items: %w", err)
	}
	defer rows.Close()

	var items []domain.OrderItem
	for rows.Next() {
		var item domain.OrderItem
		if err := rows.Scan(
			&item.ID,
			&item.OrderID,
			&item.ProductID,
			&item.Quantity,
			&item.Price,
			&item.Size,
			&item.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return items, nil
}

func (r *OrderRepo) ListByUser(ctx context.Context, userID int64, skip, limit int) ([]*domain.Order, error) {
	query := "SELECT " + orderColumns + ` FROM orders
		WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	return r.list(ctx, query, userID, limit, skip)
}

func (r *OrderRepo) ListAll(ctx context.Context, skip, limit int) ([]*domain.Order, error) {
	query := "SELECT " + orderColumns + ` FROM orders
		ORDER BY created_at DESC LIMIT $1 OFFSET $2`
	return r.list(ctx, query, limit, skip)
}

func (r *OrderRepo) list(ctx context.Context, query string, args ...any) ([]*domain.Order, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	var orders []*domain.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order row: %w", err)
		}
		orders = append(orders, order)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return orders, nil
}

// TransitionStatus moves an order through the lifecycle state machine
// under a row lock. An empty eventType skips the outbox write.
func (r *OrderRepo) TransitionStatus(ctx context.Context, id uuid.UUID, userID *int64, next domain.OrderStatus, eventType string) (order *domain.Order, err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transition transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	query := "SELECT " + orderColumns + " FROM orders WHERE id = $1"
	args := []any{id}
	if userID != nil {
		query += " AND user_id = $2"
		args = append(args, *userID)
	}
	query += " FOR UPDATE"

	order, err = scanOrder(tx.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query order for update: %w", err)
	}

	if !order.Status.CanTransitionTo(next) {
		err = fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, order.Status, next)
		return nil, err
	}

	if err = tx.QueryRowContext(ctx,
		`UPDATE orders SET status = $1, updated_at = NOW() WHERE id = $2 RETURNING updated_at`,
		next, order.ID,
	).Scan(&order.UpdatedAt); err != nil {
		return nil, fmt.Errorf("update order status: %w", err)
	}
	order.Status = next

	if eventType != "" {
		if err = insertOutboxEvent(ctx, tx, order, eventType); err != nil {
			return nil, err
		}
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transition transaction: %w", err)
	}

	return order, nil
}

func (r *OrderRepo) GetUnprocessedEvents(ctx context.Context, limit int) ([]*OutboxEvent, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, aggregate_id, event_type, payload
		 FROM outbox_events WHERE NOT processed ORDER BY id LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query outbox events: %w", err)
	}
	defer rows.Close()

	var events []*OutboxEvent
	for rows.Next() {
		ev := &OutboxEvent{}
		if err := rows.Scan(&ev.ID, &ev.AggregateID, &ev.EventType, &ev.Payload); err != nil {
			return nil, fmt.Errorf("scan outbox event: %w", err)
		}
		events = append(events, ev)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return events, nil
}

func (r *OrderRepo) MarkEventAsProcessed(ctx context.Context, eventID int64) error {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE outbox_events SET processed = TRUE WHERE id = $1`, eventID); err != nil {
		return fmt.Errorf("mark outbox event processed: %w", err)
	}
	return nil
}
