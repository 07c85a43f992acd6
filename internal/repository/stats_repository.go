package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"
)

type AdminStats struct {
	TotalUsers    int64           `json:"total_users"`
	TotalProducts int64           `json:"total_products"`
	TotalOrders   int64           `json:"total_orders"`
	PendingOrders int64           `json:"pending_orders"`
	TotalRevenue  decimal.Decimal `json:"total_revenue"`
}

type StatsRepository interface {
	AdminStats(ctx context.Context) (*AdminStats, error)
}

type StatsRepo struct {
	db *sql.DB
}

func NewStatsRepo(db *sql.DB) *StatsRepo {
	return &StatsRepo{db: db}
}

// AdminStats powers the admin dashboard. Revenue excludes cancelled
// and refunded orders.
func (r *StatsRepo) AdminStats(ctx context.Context) (*AdminStats, error) {
	query := `SELECT
		(SELECT COUNT(*) FROM users),
		(SELECT COUNT(*) FROM products),
		(SELECT COUNT(*) FROM orders),
		(SELECT COUNT(*) FROM orders WHERE status = 'PENDING'),
		(SELECT COALESCE(SUM(total), 0) FROM orders WHERE status NOT IN ('CANCELLED', 'REFUNDED'))`

	stats := &AdminStats{}
	err := r.db.QueryRowContext(ctx, query).Scan(
		&stats.TotalUsers,
		&stats.TotalProducts,
		&stats.TotalOrders,
		&stats.PendingOrders,
		&stats.TotalRevenue,
	)
	if err != nil {
		return nil, fmt.Errorf("query admin stats: %w", err)
	}
	return stats, nil
}
