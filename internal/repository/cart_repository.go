package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Georgemuchir/thrift-ease/internal/domain"
)

// CartRepository defines the interface for cart data operations.
// Consumers define this interface, not the Postgres implementation.
type CartRepository interface {
	GetLines(ctx context.Context, userID int64) ([]domain.CartLine, error)
	AddItem(ctx context.Context, item *domain.CartItem) error
	UpdateItem(ctx context.Context, userID, itemID int64, quantity int, size *string) (*domain.CartItem, error)
	RemoveItem(ctx context.Context, userID, itemID int64) error
	Clear(ctx context.Context, userID int64) error
}

type CartRepo struct {
	db *sql.DB
}

func NewCartRepo(db *sql.DB) *CartRepo {
	return &CartRepo{db: db}
}

const cartLineQuery = `SELECT
		ci.id, ci.user_id, ci.product_id, ci.quantity, ci.size, ci.created_at, ci.updated_at,
		p.id, p.name, p.price, p.category, p.image, p.size, p.is_available
	FROM cart_items ci
	LEFT JOIN products p ON p.id = ci.product_id
	WHERE ci.user_id = $1
	ORDER BY ci.id`

func scanCartLine(rows *sql.Rows) (domain.CartLine, error) {
	var line domain.CartLine
	var (
		productID   sql.NullInt64
		name        sql.NullString
		price       sql.NullString
		category    sql.NullString
		image       sql.NullString
		size        sql.NullString
		isAvailable sql.NullBool
	)
	err := rows.Scan(
		&line.Item.ID,
		&line.Item.UserID,
		&line.Item.ProductID,
		&line.Item.Quantity,
		&line.Item.Size,
		&line.Item.CreatedAt,
		&line.Item.UpdatedAt,
		&productID,
		&name,
		&price,
		&category,
		&image,
		&size,
		&isAvailable,
	)
	if err != nil {
		return line, err
	}

	if productID.Valid {
		p := &domain.Product{
			ID:          productID.Int64,
			Name:        name.String,
			Category:    category.String,
			Image:       image.String,
			Size:        size.String,
			IsAvailable: isAvailable.Bool,
		}
		if err := p.Price.Scan(price.String); err != nil {
			return line, fmt.Errorf("scan product price: %w", err)
		}
		line.Product = p
	}
	return line, nil
}

func (r *CartRepo) GetLines(ctx context.Context, userID int64) ([]domain.CartLine, error) {
	rows, err := r.db.QueryContext(ctx, cartLineQuery, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query cart: %w", err)
	}
	defer rows.Close()

	var lines []domain.CartLine
	for rows.Next() {
		line, err := scanCartLine(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan cart line: %w", err)
		}
		lines = append(lines, line)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return lines, nil
}

// AddItem merges on (user, product, size): adding an item already in
// the cart bumps its quantity instead of creating a second row.
func (r *CartRepo) AddItem(ctx context.Context, item *domain.CartItem) error {
	query := `INSERT INTO cart_items (user_id, product_id, quantity, size)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, product_id, size)
		DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity, updated_at = NOW()
		RETURNING id, quantity, created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query,
		item.UserID, item.ProductID, item.Quantity, item.Size,
	).Scan(&item.ID, &item.Quantity, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert cart item: %w", err)
	}
	return nil
}

func (r *CartRepo) UpdateItem(ctx context.Context, userID, itemID int64, quantity int, size *string) (*domain.CartItem, error) {
	query := `UPDATE cart_items SET
		quantity = $1,
		size = COALESCE($2, size),
		updated_at = NOW()
		WHERE id = $3 AND user_id = $4
		RETURNING id, user_id, product_id, quantity, size, created_at, updated_at`

	item := &domain.CartItem{}
	err := r.db.QueryRowContext(ctx, query, quantity, size, itemID, userID).Scan(
		&item.ID,
		&item.UserID,
		&item.ProductID,
		&item.Quantity,
		&item.Size,
		&item.CreatedAt,
		&item.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCartItemNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update cart item: %w", err)
	}
	return item, nil
}

func (r *CartRepo) RemoveItem(ctx context.Context, userID, itemID int64) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM cart_items WHERE id = $1 AND user_id = $2`, itemID, userID)
	if err != nil {
		return fmt.Errorf("delete cart item: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return ErrCartItemNotFound
	}
	return nil
}

func (r *CartRepo) Clear(ctx context.Context, userID int64) error {
	if _, err := r.db.ExecContext(ctx,
		`DELETE FROM cart_items WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}
