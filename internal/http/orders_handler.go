package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/Georgemuchir/thrift-ease/internal/domain"
	"github.com/Georgemuchir/thrift-ease/internal/service"
)

type CheckoutService interface {
	PlaceOrder(ctx context.Context, req *service.CheckoutRequest) (*domain.Order, error)
}

type OrderService interface {
	GetOrder(ctx context.Context, id uuid.UUID, userID *int64) (*domain.Order, error)
	ListUserOrders(ctx context.Context, userID int64, skip, limit int) ([]*domain.Order, error)
	ListAllOrders(ctx context.Context, skip, limit int) ([]*domain.Order, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, next domain.OrderStatus) (*domain.Order, error)
	CancelOrder(ctx context.Context, id uuid.UUID, userID *int64) (*domain.Order, error)
}

type OrdersHandler struct {
	checkout CheckoutService
	orders   OrderService
	timeout  time.Duration
}

func NewOrdersHandler(checkout CheckoutService, orders OrderService, timeout time.Duration) *OrdersHandler {
	return &OrdersHandler{checkout: checkout, orders: orders, timeout: timeout}
}

type CheckoutRequestDTO struct {
	ShippingFirstName string `json:"shipping_first_name"`
	ShippingLastName  string `json:"shipping_last_name"`
	ShippingAddress   string `json:"shipping_address"`
	ShippingCity      string `json:"shipping_city"`
	ShippingState     string `json:"shipping_state"`
	ShippingZipCode   string `json:"shipping_zip_code"`
	ShippingCountry   string `json:"shipping_country,omitempty"`
	ShippingPhone     string `json:"shipping_phone,omitempty"`
	PaymentMethod     string `json:"payment_method"`
	Notes             string `json:"notes,omitempty"`
}

type UpdateStatusRequestDTO struct {
	Status string `json:"status"`
}

func (h *OrdersHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req CheckoutRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	order, err := h.checkout.PlaceOrder(ctx, &service.CheckoutRequest{
		UserID: userIDFromContext(r.Context()),
		ShippingTo: domain.ShippingAddress{
			FirstName: req.ShippingFirstName,
			LastName:  req.ShippingLastName,
			Address:   req.ShippingAddress,
			City:      req.ShippingCity,
			State:     req.ShippingState,
			ZipCode:   req.ShippingZipCode,
			Country:   req.ShippingCountry,
			Phone:     req.ShippingPhone,
		},
		PaymentMethod: req.PaymentMethod,
		Notes:         req.Notes,
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, toOrderDTO(order))
}

func (h *OrdersHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	skip, limit := parsePagination(r)
	orders, err := h.orders.ListUserOrders(ctx, userIDFromContext(r.Context()), skip, limit)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, toOrderDTOs(orders))
}

func (h *OrdersHandler) ListAllOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	skip, limit := parsePagination(r)
	orders, err := h.orders.ListAllOrders(ctx, skip, limit)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, toOrderDTOs(orders))
}

func (h *OrdersHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	orderID, err := uuid.Parse(chi.URLParam(r, "order_id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_order_id", "order id must be a UUID")
		return
	}

	order, err := h.orders.GetOrder(ctx, orderID, h.scopeForCaller(r))
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, toOrderDTO(order))
}

func (h *OrdersHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	orderID, err := uuid.Parse(chi.URLParam(r, "order_id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_order_id", "order id must be a UUID")
		return
	}

	var req UpdateStatusRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	next, err := domain.ParseOrderStatus(req.Status)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_status", err.Error())
		return
	}

	order, err := h.orders.UpdateStatus(ctx, orderID, next)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, toOrderDTO(order))
}

func (h *OrdersHandler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	orderID, err := uuid.Parse(chi.URLParam(r, "order_id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_order_id", "order id must be a UUID")
		return
	}

	order, err := h.orders.CancelOrder(ctx, orderID, h.scopeForCaller(r))
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, toOrderDTO(order))
}

// scopeForCaller returns nil for admins (unscoped access) and the
// caller's user id otherwise, so regular users only ever see their own
// orders.
func (h *OrdersHandler) scopeForCaller(r *http.Request) *int64 {
	if roleFromContext(r.Context()) == domain.RoleAdmin {
		return nil
	}
	userID := userIDFromContext(r.Context())
	return &userID
}
