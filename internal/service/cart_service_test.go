package service

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Georgemuchir/thrift-ease/internal/domain"
	"github.com/Georgemuchir/thrift-ease/internal/repository"
)

// mockCartRepo implements repository.CartRepository for testing.
type mockCartRepo struct {
	lines    []domain.CartLine
	linesErr error

	getLinesCalls int
	added         []*domain.CartItem
	removeErr     error
	cleared       bool
}

func (m *mockCartRepo) GetLines(ctx context.Context, userID int64) ([]domain.CartLine, error) {
	m.getLinesCalls++
	if m.linesErr != nil {
		return nil, m.linesErr
	}
	return m.lines, nil
}

func (m *mockCartRepo) AddItem(ctx context.Context, item *domain.CartItem) error {
	item.ID = int64(len(m.added) + 1)
	m.added = append(m.added, item)
	return nil
}

func (m *mockCartRepo) UpdateItem(ctx context.Context, userID, itemID int64, quantity int, size *string) (*domain.CartItem, error) {
	item := &domain.CartItem{ID: itemID, UserID: userID, Quantity: quantity}
	if size != nil {
		item.Size = *size
	}
	return item, nil
}

func (m *mockCartRepo) RemoveItem(ctx context.Context, userID, itemID int64) error {
	return m.removeErr
}

func (m *mockCartRepo) Clear(ctx context.Context, userID int64) error {
	m.cleared = true
	return nil
}

// mockProductRepo implements repository.ProductRepository for testing.
type mockProductRepo struct {
	products map[int64]*domain.Product

	lastFilter   repository.ProductFilter
	viewsErr     error
	views        []int64
	created      []*domain.Product
	updated      []*domain.Product
	availability map[int64]bool
}

func (m *mockProductRepo) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	p, ok := m.products[id]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	return p, nil
}

func (m *mockProductRepo) List(ctx context.Context, filter repository.ProductFilter) ([]*domain.Product, error) {
	m.lastFilter = filter
	return nil, nil
}

func (m *mockProductRepo) Categories(ctx context.Context) ([]string, error) {
	return []string{"jackets", "shoes"}, nil
}

func (m *mockProductRepo) IncrementViews(ctx context.Context, id int64) error {
	if m.viewsErr != nil {
		return m.viewsErr
	}
	m.views = append(m.views, id)
	return nil
}

func (m *mockProductRepo) Create(ctx context.Context, p *domain.Product) error {
	m.created = append(m.created, p)
	return nil
}

func (m *mockProductRepo) Update(ctx context.Context, p *domain.Product) error {
	m.updated = append(m.updated, p)
	return nil
}

func (m *mockProductRepo) SetAvailability(ctx context.Context, id int64, available bool) error {
	if m.availability == nil {
		m.availability = make(map[int64]bool)
	}
	m.availability[id] = available
	return nil
}

func TestGetCart_CacheHit(t *testing.T) {
	repo := &mockCartRepo{}
	cached := domain.BuildCart(42, nil)
	cartCache := &mockCartCache{cart: cached}
	svc := NewCartService(repo, &mockProductRepo{}, cartCache)

	cart, err := svc.GetCart(context.Background(), 42)
	require.NoError(t, err)

	assert.Same(t, cached, cart)
	assert.Equal(t, 0, repo.getLinesCalls, "repository should not be hit on a cache hit")
}

func TestGetCart_CacheMissBuildsFromRepo(t *testing.T) {
	repo := &mockCartRepo{lines: []domain.CartLine{
		testLine(1, testProduct(10, "20.00", true), 2),
		testLine(2, testProduct(11, "30.00", false), 1),
	}}
	cartCache := &mockCartCache{}
	svc := NewCartService(repo, &mockProductRepo{}, cartCache)

	cart, err := svc.GetCart(context.Background(), 42)
	require.NoError(t, err)

	// Unavailable lines count toward the item total but not the price.
	assert.Equal(t, 3, cart.TotalItems)
	assert.True(t, decimal.RequireFromString("40.00").Equal(cart.TotalPrice), "total = %s", cart.TotalPrice)
	assert.Equal(t, 1, repo.getLinesCalls)
}

func TestGetCart_RepoError(t *testing.T) {
	repo := &mockCartRepo{linesErr: repository.ErrCartItemNotFound}
	svc := NewCartService(repo, &mockProductRepo{}, &mockCartCache{})

	_, err := svc.GetCart(context.Background(), 42)
	assert.ErrorIs(t, err, repository.ErrCartItemNotFound)
}

func TestAddItem_Success(t *testing.T) {
	repo := &mockCartRepo{}
	cartCache := &mockCartCache{}
	products := &mockProductRepo{products: map[int64]*domain.Product{
		10: testProduct(10, "20.00", true),
	}}
	svc := NewCartService(repo, products, cartCache)

	item, err := svc.AddItem(context.Background(), 42, 10, 2, "M")
	require.NoError(t, err)

	assert.Equal(t, int64(10), item.ProductID)
	assert.Equal(t, 2, item.Quantity)
	assert.Len(t, repo.added, 1)
	assert.Equal(t, []int64{42}, cartCache.deletions())
}

func TestAddItem_ProductUnavailable(t *testing.T) {
	repo := &mockCartRepo{}
	products := &mockProductRepo{products: map[int64]*domain.Product{
		10: testProduct(10, "20.00", false),
	}}
	svc := NewCartService(repo, products, &mockCartCache{})

	_, err := svc.AddItem(context.Background(), 42, 10, 1, "")
	assert.ErrorIs(t, err, ErrProductUnavailable)
	assert.Empty(t, repo.added)
}

func TestAddItem_ProductNotFound(t *testing.T) {
	svc := NewCartService(&mockCartRepo{}, &mockProductRepo{}, &mockCartCache{})

	_, err := svc.AddItem(context.Background(), 42, 999, 1, "")
	assert.ErrorIs(t, err, repository.ErrProductNotFound)
}

func TestAddItem_RejectsZeroQuantity(t *testing.T) {
	svc := NewCartService(&mockCartRepo{}, &mockProductRepo{}, &mockCartCache{})

	_, err := svc.AddItem(context.Background(), 42, 10, 0, "")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestUpdateItem_InvalidatesCache(t *testing.T) {
	cartCache := &mockCartCache{}
	svc := NewCartService(&mockCartRepo{}, &mockProductRepo{}, cartCache)

	size := "L"
	item, err := svc.UpdateItem(context.Background(), 42, 7, 3, &size)
	require.NoError(t, err)

	assert.Equal(t, 3, item.Quantity)
	assert.Equal(t, "L", item.Size)
	assert.Equal(t, []int64{42}, cartCache.deletions())
}

func TestRemoveItem_ErrorSkipsInvalidation(t *testing.T) {
	repo := &mockCartRepo{removeErr: repository.ErrCartItemNotFound}
	cartCache := &mockCartCache{}
	svc := NewCartService(repo, &mockProductRepo{}, cartCache)

	err := svc.RemoveItem(context.Background(), 42, 7)
	assert.ErrorIs(t, err, repository.ErrCartItemNotFound)
	assert.Empty(t, cartCache.deletions())
}

func TestClearCart(t *testing.T) {
	repo := &mockCartRepo{}
	cartCache := &mockCartCache{}
	svc := NewCartService(repo, &mockProductRepo{}, cartCache)

	require.NoError(t, svc.ClearCart(context.Background(), 42))
	assert.True(t, repo.cleared)
	assert.Equal(t, []int64{42}, cartCache.deletions())
}
