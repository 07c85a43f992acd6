package service

import (
	"context"
	"regexp"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Georgemuchir/thrift-ease/internal/cache"
	"github.com/Georgemuchir/thrift-ease/internal/domain"
	"github.com/Georgemuchir/thrift-ease/internal/pricing"
	"github.com/Georgemuchir/thrift-ease/internal/repository"
)

// mockOrderRepo implements repository.OrderRepository for testing. It
// feeds preset cart lines to the build callback the way the real repo
// feeds locked rows, and records the committed order.
type mockOrderRepo struct {
	lines []domain.CartLine

	// placeErrs is consumed one per PlaceOrder call before the build
	// callback runs, to simulate insert failures like number collisions.
	placeErrs []error

	placeCalls  int
	placed      *domain.Order
	cartCleared bool

	transitionErr error
	transitions   []transitionCall
}

type transitionCall struct {
	orderID   uuid.UUID
	userID    *int64
	next      domain.OrderStatus
	eventType string
}

func (m *mockOrderRepo) PlaceOrder(ctx context.Context, userID int64, build repository.BuildOrder) (*domain.Order, error) {
	m.placeCalls++

	order, err := build(m.lines)
	if err != nil {
		return nil, err
	}

	if len(m.placeErrs) > 0 {
		err := m.placeErrs[0]
		m.placeErrs = m.placeErrs[1:]
		if err != nil {
			return nil, err
		}
	}

	m.placed = order
	m.cartCleared = true
	return order, nil
}

func (m *mockOrderRepo) GetByID(ctx context.Context, id uuid.UUID, userID *int64) (*domain.Order, error) {
	if m.placed != nil && m.placed.ID == id {
		return m.placed, nil
	}
	return nil, repository.ErrOrderNotFound
}

func (m *mockOrderRepo) ListByUser(ctx context.Context, userID int64, skip, limit int) ([]*domain.Order, error) {
	return nil, nil
}

func (m *mockOrderRepo) ListAll(ctx context.Context, skip, limit int) ([]*domain.Order, error) {
	return nil, nil
}

func (m *mockOrderRepo) TransitionStatus(ctx context.Context, id uuid.UUID, userID *int64, next domain.OrderStatus, eventType string) (*domain.Order, error) {
	m.transitions = append(m.transitions, transitionCall{
		orderID:   id,
		userID:    userID,
		next:      next,
		eventType: eventType,
	})
	if m.transitionErr != nil {
		return nil, m.transitionErr
	}
	return &domain.Order{ID: id, Status: next}, nil
}

func (m *mockOrderRepo) GetUnprocessedEvents(ctx context.Context, limit int) ([]*repository.OutboxEvent, error) {
	return nil, nil
}

func (m *mockOrderRepo) MarkEventAsProcessed(ctx context.Context, eventID int64) error {
	return nil
}

// mockCartCache implements cache.CartCache for testing. Set runs on a
// background goroutine in the cart service, hence the mutex.
type mockCartCache struct {
	mu      sync.Mutex
	cart    *domain.Cart
	getErr  error
	deleted []int64
}

func (m *mockCartCache) Get(ctx context.Context, userID int64) (*domain.Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	if m.cart == nil {
		return nil, cache.ErrCacheMiss
	}
	return m.cart, nil
}

func (m *mockCartCache) Set(ctx context.Context, userID int64, cart *domain.Cart) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cart = cart
	return nil
}

func (m *mockCartCache) Delete(ctx context.Context, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cart = nil
	m.deleted = append(m.deleted, userID)
	return nil
}

func (m *mockCartCache) deletions() []int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]int64(nil), m.deleted...)
}

func testProduct(id int64, price string, available bool) *domain.Product {
	return &domain.Product{
		ID:          id,
		Name:        "Vintage Denim Jacket",
		Price:       decimal.RequireFromString(price),
		Category:    "jackets",
		IsAvailable: available,
	}
}

func testLine(itemID int64, product *domain.Product, quantity int) domain.CartLine {
	line := domain.CartLine{
		Item: domain.CartItem{
			ID:       itemID,
			UserID:   42,
			Quantity: quantity,
		},
		Product: product,
	}
	if product != nil {
		line.Item.ProductID = product.ID
	}
	return line
}

func validCheckoutRequest() *CheckoutRequest {
	return &CheckoutRequest{
		UserID: 42,
		ShippingTo: domain.ShippingAddress{
			FirstName: "Ada",
			LastName:  "Lovelace",
			Address:   "12 Analytical Way",
			City:      "London",
			State:     "LDN",
			ZipCode:   "E1 6AN",
		},
		PaymentMethod: "card",
	}
}

func newTestCheckoutService(repo *mockOrderRepo, cartCache *mockCartCache) *CheckoutService {
	return NewCheckoutService(repo, cartCache, pricing.NewEngine(pricing.DefaultConfig()))
}

func TestPlaceOrder_Success(t *testing.T) {
	repo := &mockOrderRepo{lines: []domain.CartLine{
		testLine(1, testProduct(10, "20.00", true), 2),
		testLine(2, testProduct(11, "15.50", true), 1),
	}}
	cartCache := &mockCartCache{}
	svc := newTestCheckoutService(repo, cartCache)

	order, err := svc.PlaceOrder(context.Background(), validCheckoutRequest())
	require.NoError(t, err)
	require.NotNil(t, order)

	// subtotal 55.50, shipping 10.00, tax 4.44
	assert.True(t, decimal.RequireFromString("55.50").Equal(order.Subtotal), "subtotal = %s", order.Subtotal)
	assert.True(t, decimal.RequireFromString("10.00").Equal(order.Shipping), "shipping = %s", order.Shipping)
	assert.True(t, decimal.RequireFromString("4.44").Equal(order.Tax), "tax = %s", order.Tax)
	assert.True(t, decimal.RequireFromString("69.94").Equal(order.Total), "total = %s", order.Total)

	assert.Equal(t, domain.OrderStatusPending, order.Status)
	assert.Len(t, order.Items, 2)
	assert.True(t, repo.cartCleared)
	assert.Equal(t, []int64{42}, cartCache.deleted)
}

func TestPlaceOrder_OrderNumberFormat(t *testing.T) {
	repo := &mockOrderRepo{lines: []domain.CartLine{
		testLine(1, testProduct(10, "20.00", true), 1),
	}}
	svc := newTestCheckoutService(repo, &mockCartCache{})

	order, err := svc.PlaceOrder(context.Background(), validCheckoutRequest())
	require.NoError(t, err)

	assert.Regexp(t, regexp.MustCompile(`^TE\d{8}[0-9A-F]{12}$`), order.OrderNumber)
}

func TestPlaceOrder_EmptyCart(t *testing.T) {
	repo := &mockOrderRepo{}
	svc := newTestCheckoutService(repo, &mockCartCache{})

	_, err := svc.PlaceOrder(context.Background(), validCheckoutRequest())
	assert.ErrorIs(t, err, ErrEmptyCart)
	assert.False(t, repo.cartCleared)
}

func TestPlaceOrder_AllLinesUnavailable(t *testing.T) {
	repo := &mockOrderRepo{lines: []domain.CartLine{
		testLine(1, testProduct(10, "20.00", false), 1),
		testLine(2, nil, 1), // product deleted from catalog
	}}
	svc := newTestCheckoutService(repo, &mockCartCache{})

	_, err := svc.PlaceOrder(context.Background(), validCheckoutRequest())
	assert.ErrorIs(t, err, ErrEmptyCart)
	assert.False(t, repo.cartCleared)
}

func TestPlaceOrder_SkipsUnavailableLines(t *testing.T) {
	repo := &mockOrderRepo{lines: []domain.CartLine{
		testLine(1, testProduct(10, "20.00", true), 1),
		testLine(2, testProduct(11, "30.00", false), 1),
	}}
	svc := newTestCheckoutService(repo, &mockCartCache{})

	order, err := svc.PlaceOrder(context.Background(), validCheckoutRequest())
	require.NoError(t, err)

	// Only the available line is priced and snapshotted.
	require.Len(t, order.Items, 1)
	assert.Equal(t, int64(10), order.Items[0].ProductID)
	assert.True(t, decimal.RequireFromString("20.00").Equal(order.Subtotal), "subtotal = %s", order.Subtotal)
}

func TestPlaceOrder_SnapshotsUnitPrice(t *testing.T) {
	product := testProduct(10, "25.00", true)
	repo := &mockOrderRepo{lines: []domain.CartLine{testLine(1, product, 2)}}
	svc := newTestCheckoutService(repo, &mockCartCache{})

	order, err := svc.PlaceOrder(context.Background(), validCheckoutRequest())
	require.NoError(t, err)

	// A later catalog price change must not touch the stored item price.
	product.Price = decimal.RequireFromString("99.00")

	require.Len(t, order.Items, 1)
	assert.True(t, decimal.RequireFromString("25.00").Equal(order.Items[0].Price))
}

func TestPlaceOrder_RetriesOnDuplicateOrderNumber(t *testing.T) {
	repo := &mockOrderRepo{
		lines:     []domain.CartLine{testLine(1, testProduct(10, "20.00", true), 1)},
		placeErrs: []error{repository.ErrDuplicateOrderNumber},
	}
	svc := newTestCheckoutService(repo, &mockCartCache{})

	order, err := svc.PlaceOrder(context.Background(), validCheckoutRequest())
	require.NoError(t, err)
	require.NotNil(t, order)
	assert.Equal(t, 2, repo.placeCalls)
}

func TestPlaceOrder_GivesUpAfterRepeatedCollisions(t *testing.T) {
	repo := &mockOrderRepo{
		lines: []domain.CartLine{testLine(1, testProduct(10, "20.00", true), 1)},
		placeErrs: []error{
			repository.ErrDuplicateOrderNumber,
			repository.ErrDuplicateOrderNumber,
			repository.ErrDuplicateOrderNumber,
		},
	}
	cartCache := &mockCartCache{}
	svc := newTestCheckoutService(repo, cartCache)

	_, err := svc.PlaceOrder(context.Background(), validCheckoutRequest())
	assert.ErrorIs(t, err, repository.ErrDuplicateOrderNumber)
	assert.Equal(t, maxOrderNumberAttempts, repo.placeCalls)
	assert.Empty(t, cartCache.deleted)
}

func TestPlaceOrder_ValidatesShippingAddress(t *testing.T) {
	repo := &mockOrderRepo{lines: []domain.CartLine{
		testLine(1, testProduct(10, "20.00", true), 1),
	}}
	svc := newTestCheckoutService(repo, &mockCartCache{})

	req := validCheckoutRequest()
	req.ShippingTo.City = ""

	_, err := svc.PlaceOrder(context.Background(), req)
	assert.ErrorIs(t, err, domain.ErrInvalidShippingAddress)
	assert.Equal(t, 0, repo.placeCalls)
}

func TestPlaceOrder_RequiresPaymentMethod(t *testing.T) {
	repo := &mockOrderRepo{lines: []domain.CartLine{
		testLine(1, testProduct(10, "20.00", true), 1),
	}}
	svc := newTestCheckoutService(repo, &mockCartCache{})

	req := validCheckoutRequest()
	req.PaymentMethod = ""

	_, err := svc.PlaceOrder(context.Background(), req)
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Equal(t, 0, repo.placeCalls)
}
