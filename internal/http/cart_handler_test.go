package http

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Georgemuchir/thrift-ease/internal/domain"
	"github.com/Georgemuchir/thrift-ease/internal/repository"
)

// mockCartService implements CartService for handler tests.
type mockCartService struct {
	cart *domain.Cart
	err  error

	addedProductID int64
	addedQuantity  int
	addedSize      string
	removedItemID  int64
	cleared        bool
}

func (m *mockCartService) GetCart(ctx context.Context, userID int64) (*domain.Cart, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.cart, nil
}

func (m *mockCartService) AddItem(ctx context.Context, userID, productID int64, quantity int, size string) (*domain.CartItem, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.addedProductID = productID
	m.addedQuantity = quantity
	m.addedSize = size
	return &domain.CartItem{ID: 1, UserID: userID, ProductID: productID, Quantity: quantity, Size: size}, nil
}

func (m *mockCartService) UpdateItem(ctx context.Context, userID, itemID int64, quantity int, size *string) (*domain.CartItem, error) {
	if m.err != nil {
		return nil, m.err
	}
	item := &domain.CartItem{ID: itemID, UserID: userID, Quantity: quantity}
	if size != nil {
		item.Size = *size
	}
	return item, nil
}

func (m *mockCartService) RemoveItem(ctx context.Context, userID, itemID int64) error {
	if m.err != nil {
		return m.err
	}
	m.removedItemID = itemID
	return nil
}

func (m *mockCartService) ClearCart(ctx context.Context, userID int64) error {
	if m.err != nil {
		return m.err
	}
	m.cleared = true
	return nil
}

// authedRequest builds a request with the identity AuthMiddleware would
// have put on the context.
func authedRequest(method, target string, body io.Reader, userID int64, role domain.UserRole) *http.Request {
	req := httptest.NewRequest(method, target, body)
	ctx := context.WithValue(req.Context(), ctxKeyUserID, userID)
	ctx = context.WithValue(ctx, ctxKeyRole, role)
	return req.WithContext(ctx)
}

func cartRouter(h *CartHandler) chi.Router {
	r := chi.NewRouter()
	r.Get("/cart", h.GetCart)
	r.Post("/cart", h.AddItem)
	r.Put("/cart/{item_id}", h.UpdateItem)
	r.Delete("/cart/{item_id}", h.RemoveItem)
	r.Delete("/cart", h.Clear)
	return r
}

func TestGetCart(t *testing.T) {
	svc := &mockCartService{cart: domain.BuildCart(42, []domain.CartLine{
		{
			Item: domain.CartItem{ID: 1, UserID: 42, ProductID: 10, Quantity: 2},
			Product: &domain.Product{
				ID:          10,
				Name:        "Vintage Denim Jacket",
				Price:       decimal.RequireFromString("20.00"),
				Category:    "jackets",
				IsAvailable: true,
			},
		},
	})}
	router := cartRouter(NewCartHandler(svc, time.Second))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authedRequest(http.MethodGet, "/cart", nil, 42, domain.RoleUser))

	require.Equal(t, http.StatusOK, rec.Code)

	var dto CartDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &dto))
	assert.Equal(t, int64(42), dto.UserID)
	assert.Equal(t, 2, dto.TotalItems)
	assert.InDelta(t, 40.00, dto.TotalPrice, 0.001)
	require.Len(t, dto.Lines, 1)
	assert.True(t, dto.Lines[0].Available)
}

func TestAddItem(t *testing.T) {
	svc := &mockCartService{}
	router := cartRouter(NewCartHandler(svc, time.Second))

	body := strings.NewReader(`{"product_id": 10, "quantity": 2, "size": "M"}`)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authedRequest(http.MethodPost, "/cart", body, 42, domain.RoleUser))

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, int64(10), svc.addedProductID)
	assert.Equal(t, 2, svc.addedQuantity)
	assert.Equal(t, "M", svc.addedSize)
}

func TestAddItem_BadRequests(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"invalid json", `{`},
		{"missing product id", `{"quantity": 1}`},
		{"zero quantity", `{"product_id": 10, "quantity": 0}`},
		{"quantity too large", `{"product_id": 10, "quantity": 100}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := cartRouter(NewCartHandler(&mockCartService{}, time.Second))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, authedRequest(http.MethodPost, "/cart", strings.NewReader(tt.body), 42, domain.RoleUser))
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestUpdateItem(t *testing.T) {
	svc := &mockCartService{}
	router := cartRouter(NewCartHandler(svc, time.Second))

	body := strings.NewReader(`{"quantity": 3, "size": "L"}`)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authedRequest(http.MethodPut, "/cart/7", body, 42, domain.RoleUser))

	require.Equal(t, http.StatusOK, rec.Code)

	var dto CartItemResponseDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &dto))
	assert.Equal(t, int64(7), dto.ID)
	assert.Equal(t, 3, dto.Quantity)
	assert.Equal(t, "L", dto.Size)
}

func TestUpdateItem_InvalidItemID(t *testing.T) {
	router := cartRouter(NewCartHandler(&mockCartService{}, time.Second))

	body := strings.NewReader(`{"quantity": 3}`)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authedRequest(http.MethodPut, "/cart/abc", body, 42, domain.RoleUser))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRemoveItem_NotFound(t *testing.T) {
	svc := &mockCartService{err: repository.ErrCartItemNotFound}
	router := cartRouter(NewCartHandler(svc, time.Second))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authedRequest(http.MethodDelete, "/cart/7", nil, 42, domain.RoleUser))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestClearCart_Handler(t *testing.T) {
	svc := &mockCartService{}
	router := cartRouter(NewCartHandler(svc, time.Second))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authedRequest(http.MethodDelete, "/cart", nil, 42, domain.RoleUser))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, svc.cleared)
}
