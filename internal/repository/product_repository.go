package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Georgemuchir/thrift-ease/internal/domain"
)

// ProductFilter narrows List results. Zero values mean "no filter".
type ProductFilter struct {
	Category string
	Search   string
	Featured *bool
	MinPrice *decimal.Decimal
	MaxPrice *decimal.Decimal
	Skip     int
	Limit    int
}

type ProductRepository interface {
	List(ctx context.Context, filter ProductFilter) ([]*domain.Product, error)
	Categories(ctx context.Context) ([]string, error)
	GetByID(ctx context.Context, id int64) (*domain.Product, error)
	IncrementViews(ctx context.Context, id int64) error
	Create(ctx context.Context, p *domain.Product) error
	Update(ctx context.Context, p *domain.Product) error
	SetAvailability(ctx context.Context, id int64, available bool) error
}

type ProductRepo struct {
	db *sql.DB
}

func NewProductRepo(db *sql.DB) *ProductRepo {
	return &ProductRepo{db: db}
}

const productColumns = `id, name, description, price, category, brand, condition,
	image, size, color, material, is_available, featured, views_count, created_at, updated_at`

func scanProduct(row interface{ Scan(...any) error }) (*domain.Product, error) {
	p := &domain.Product{}
	var description, brand, image, size, color, material sql.NullString
	err := row.Scan(
		&p.ID,
		&p.Name,
		&description,
		&p.Price,
		&p.Category,
		&brand,
		&p.Condition,
		&image,
		&size,
		&color,
		&material,
		&p.IsAvailable,
		&p.Featured,
		&p.ViewsCount,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	p.Description = description.String
	p.Brand = brand.String
	p.Image = image.String
	p.Size = size.String
	p.Color = color.String
	p.Material = material.String
	return p, nil
}

func (r *ProductRepo) List(ctx context.Context, filter ProductFilter) ([]*domain.Product, error) {
	var sb strings.Builder
	sb.WriteString("SELECT " + productColumns + " FROM products WHERE is_available = TRUE")

	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.Category != "" {
		sb.WriteString(" AND category = " + arg(filter.Category))
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		ph := arg(pattern)
		sb.WriteString(" AND (name ILIKE " + ph + " OR description ILIKE " + ph + " OR brand ILIKE " + ph + ")")
	}
	if filter.Featured != nil {
		sb.WriteString(" AND featured = " + arg(*filter.Featured))
	}
	if filter.MinPrice != nil {
		sb.WriteString(" AND price >= " + arg(*filter.MinPrice))
	}
	if filter.MaxPrice != nil {
		sb.WriteString(" AND price <= " + arg(*filter.MaxPrice))
	}

	sb.WriteString(" ORDER BY id")
	limit := filter.Limit
	if limit <= 0 || limit > 100 {
		limit = 100
	}
	sb.WriteString(" LIMIT " + arg(limit))
	if filter.Skip > 0 {
		sb.WriteString(" OFFSET " + arg(filter.Skip))
	}

	rows, err := r.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	var products []*domain.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return products, nil
}

func (r *ProductRepo) Categories(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT DISTINCT category FROM products WHERE is_available = TRUE ORDER BY category`)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer rows.Close()

	var categories []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return categories, nil
}

func (r *ProductRepo) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+productColumns+" FROM products WHERE id = $1", id)

	p, err := scanProduct(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query product: %w", err)
	}

	return p, nil
}

func (r *ProductRepo) IncrementViews(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE products SET views_count = views_count + 1 WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to increment views: %w", err)
	}
	return nil
}

func (r *ProductRepo) Create(ctx context.Context, p *domain.Product) error {
	query := `INSERT INTO products
		(name, description, price, category, brand, condition, image, size, color, material, is_available, featured)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, views_count, created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query,
		p.Name, p.Description, p.Price, p.Category, p.Brand, p.Condition,
		p.Image, p.Size, p.Color, p.Material, p.IsAvailable, p.Featured,
	).Scan(&p.ID, &p.ViewsCount, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

func (r *ProductRepo) Update(ctx context.Context, p *domain.Product) error {
	query := `UPDATE products SET
		name = $1, description = $2, price = $3, category = $4, brand = $5,
		condition = $6, image = $7, size = $8, color = $9, material = $10,
		is_available = $11, featured = $12, updated_at = NOW()
		WHERE id = $13
		RETURNING updated_at`

	err := r.db.QueryRowContext(ctx, query,
		p.Name, p.Description, p.Price, p.Category, p.Brand, p.Condition,
		p.Image, p.Size, p.Color, p.Material, p.IsAvailable, p.Featured, p.ID,
	).Scan(&p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrProductNotFound
	}
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	return nil
}

// SetAvailability is the delete path: products referenced by historic
// order items are never removed, only hidden from the catalog.
func (r *ProductRepo) SetAvailability(ctx context.Context, id int64, available bool) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE products SET is_available = $1, updated_at = NOW() WHERE id = $2`, available, id)
	if err != nil {
		return fmt.Errorf("update product availability: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return ErrProductNotFound
	}
	return nil
}
