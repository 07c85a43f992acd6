package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Georgemuchir/thrift-ease/internal/cache"
	"github.com/Georgemuchir/thrift-ease/internal/domain"
	"github.com/Georgemuchir/thrift-ease/internal/pricing"
	"github.com/Georgemuchir/thrift-ease/internal/repository"
)

// maxOrderNumberAttempts bounds retries when a generated order number
// collides with an existing one. Uniqueness is enforced by the DB
// index, the retry just picks a fresh suffix.
const maxOrderNumberAttempts = 3

type CheckoutRequest struct {
	UserID        int64
	ShippingTo    domain.ShippingAddress
	PaymentMethod string
	Notes         string
}

type CheckoutService struct {
	orders repository.OrderRepository
	cache  cache.CartCache
	engine *pricing.Engine
}

func NewCheckoutService(orders repository.OrderRepository, cartCache cache.CartCache, engine *pricing.Engine) *CheckoutService {
	return &CheckoutService{
		orders: orders,
		cache:  cartCache,
		engine: engine,
	}
}

// PlaceOrder turns the user's cart into a persisted order. The cart
// read, pricing snapshot, order insert and cart clear all happen in a
// single repository transaction; on any failure the cart is left
// untouched and no order exists.
func (s *CheckoutService) PlaceOrder(ctx context.Context, req *CheckoutRequest) (*domain.Order, error) {
	if err := req.ShippingTo.Validate(); err != nil {
		return nil, err
	}
	if req.PaymentMethod == "" {
		return nil, fmt.Errorf("%w: payment_method is required", ErrInvalidInput)
	}

	var order *domain.Order
	var err error
	for attempt := 0; attempt < maxOrderNumberAttempts; attempt++ {
		order, err = s.orders.PlaceOrder(ctx, req.UserID, func(lines []domain.CartLine) (*domain.Order, error) {
			return s.buildOrder(req, lines)
		})
		if errors.Is(err, repository.ErrDuplicateOrderNumber) {
			log.Printf("order number collision for user %d, retrying (attempt %d)", req.UserID, attempt+1)
			continue
		}
		break
	}
	if err != nil {
		return nil, err
	}

	s.invalidateCartCache(req.UserID)
	return order, nil
}

// buildOrder runs inside the checkout transaction with the cart rows
// locked. Lines whose product vanished or went unavailable are
// excluded from the order rather than failing the checkout.
func (s *CheckoutService) buildOrder(req *CheckoutRequest, lines []domain.CartLine) (*domain.Order, error) {
	if len(lines) == 0 {
		return nil, ErrEmptyCart
	}

	var priceable []pricing.Line
	var items []domain.OrderItem
	for _, l := range lines {
		if !l.Priceable() {
			continue
		}
		priceable = append(priceable, pricing.Line{
			ProductID: l.Product.ID,
			UnitPrice: l.Product.Price,
			Quantity:  l.Item.Quantity,
		})
		items = append(items, domain.OrderItem{
			ProductID: l.Product.ID,
			Quantity:  l.Item.Quantity,
			Price:     l.Product.Price,
			Size:      l.Item.Size,
		})
	}
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}

	quote := s.engine.Quote(priceable)

	return &domain.Order{
		ID:            uuid.New(),
		OrderNumber:   newOrderNumber(),
		UserID:        req.UserID,
		Status:        domain.OrderStatusPending,
		Subtotal:      quote.Subtotal,
		Shipping:      quote.Shipping,
		Tax:           quote.Tax,
		Total:         quote.Total,
		ShippingTo:    req.ShippingTo,
		PaymentMethod: req.PaymentMethod,
		PaymentStatus: "pending",
		Notes:         req.Notes,
		Items:         items,
	}, nil
}

// newOrderNumber composes a human-readable order number: TE prefix,
// order date, 48 bits of random suffix. The unique index on
// orders.order_number catches the residual collision chance.
func newOrderNumber() string {
	raw := strings.ReplaceAll(uuid.New().String(), "-", "")
	return fmt.Sprintf("TE%s%s", time.Now().Format("20060102"), strings.ToUpper(raw[:12]))
}

func (s *CheckoutService) invalidateCartCache(userID int64) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.cache.Delete(ctx, userID); err != nil {
		log.Printf("cache invalidate error: %v", err)
	}
}
