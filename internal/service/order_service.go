package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/Georgemuchir/thrift-ease/internal/domain"
	"github.com/Georgemuchir/thrift-ease/internal/repository"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

type OrderService struct {
	orders repository.OrderRepository
}

func NewOrderService(orders repository.OrderRepository) *OrderService {
	return &OrderService{orders: orders}
}

// GetOrder loads an order with items. A non-nil userID scopes the read
// to that owner; non-owners see not-found.
func (s *OrderService) GetOrder(ctx context.Context, id uuid.UUID, userID *int64) (*domain.Order, error) {
	return s.orders.GetByID(ctx, id, userID)
}

func (s *OrderService) ListUserOrders(ctx context.Context, userID int64, skip, limit int) ([]*domain.Order, error) {
	skip, limit = clampPage(skip, limit)
	return s.orders.ListByUser(ctx, userID, skip, limit)
}

func (s *OrderService) ListAllOrders(ctx context.Context, skip, limit int) ([]*domain.Order, error) {
	skip, limit = clampPage(skip, limit)
	return s.orders.ListAll(ctx, skip, limit)
}

// UpdateStatus is the admin path. Transitions are validated by the
// order state machine: forward-only along the fulfillment path, with
// the explicit cancel/refund branches.
func (s *OrderService) UpdateStatus(ctx context.Context, id uuid.UUID, next domain.OrderStatus) (*domain.Order, error) {
	eventType := ""
	if next == domain.OrderStatusCancelled {
		eventType = repository.EventOrderCancelled
	}
	return s.orders.TransitionStatus(ctx, id, nil, next, eventType)
}

// CancelOrder is the user-facing cancellation. Orders already shipped
// or delivered reject it.
func (s *OrderService) CancelOrder(ctx context.Context, id uuid.UUID, userID *int64) (*domain.Order, error) {
	return s.orders.TransitionStatus(ctx, id, userID, domain.OrderStatusCancelled, repository.EventOrderCancelled)
}

func clampPage(skip, limit int) (int, int) {
	if skip < 0 {
		skip = 0
	}
	if limit <= 0 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	return skip, limit
}
