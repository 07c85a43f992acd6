package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/Georgemuchir/thrift-ease/internal/domain"
	"github.com/Georgemuchir/thrift-ease/internal/repository"
)

type CatalogService interface {
	List(ctx context.Context, filter repository.ProductFilter) ([]*domain.Product, error)
	Featured(ctx context.Context, limit int) ([]*domain.Product, error)
	Categories(ctx context.Context) ([]string, error)
	Get(ctx context.Context, id int64) (*domain.Product, error)
	Create(ctx context.Context, p *domain.Product) error
	Update(ctx context.Context, p *domain.Product) error
	Delete(ctx context.Context, id int64) error
}

type ProductHandler struct {
	svc     CatalogService
	timeout time.Duration
}

func NewProductHandler(svc CatalogService, timeout time.Duration) *ProductHandler {
	return &ProductHandler{svc: svc, timeout: timeout}
}

type ProductRequestDTO struct {
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Price       float64 `json:"price"`
	Category    string  `json:"category"`
	Brand       string  `json:"brand,omitempty"`
	Condition   string  `json:"condition,omitempty"`
	Image       string  `json:"image,omitempty"`
	Size        string  `json:"size,omitempty"`
	Color       string  `json:"color,omitempty"`
	Material    string  `json:"material,omitempty"`
	IsAvailable *bool   `json:"is_available,omitempty"`
	Featured    bool    `json:"featured,omitempty"`
}

func (req *ProductRequestDTO) toDomain() *domain.Product {
	p := &domain.Product{
		Name:        req.Name,
		Description: req.Description,
		Price:       decimal.NewFromFloat(req.Price).Round(2),
		Category:    req.Category,
		Brand:       req.Brand,
		Condition:   domain.ProductCondition(req.Condition),
		Image:       req.Image,
		Size:        req.Size,
		Color:       req.Color,
		Material:    req.Material,
		IsAvailable: true,
		Featured:    req.Featured,
	}
	if req.IsAvailable != nil {
		p.IsAvailable = *req.IsAvailable
	}
	return p
}

func parseFilter(r *http.Request) (repository.ProductFilter, error) {
	q := r.URL.Query()
	filter := repository.ProductFilter{
		Category: q.Get("category"),
		Search:   q.Get("search"),
	}
	filter.Skip, filter.Limit = parsePagination(r)

	if v := q.Get("featured"); v != "" {
		featured, err := strconv.ParseBool(v)
		if err != nil {
			return filter, err
		}
		filter.Featured = &featured
	}
	if v := q.Get("min_price"); v != "" {
		min, err := decimal.NewFromString(v)
		if err != nil {
			return filter, err
		}
		filter.MinPrice = &min
	}
	if v := q.Get("max_price"); v != "" {
		max, err := decimal.NewFromString(v)
		if err != nil {
			return filter, err
		}
		filter.MaxPrice = &max
	}
	return filter, nil
}

func parsePagination(r *http.Request) (skip, limit int) {
	q := r.URL.Query()
	skip, _ = strconv.Atoi(q.Get("skip"))
	limit, _ = strconv.Atoi(q.Get("limit"))
	return skip, limit
}

func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	filter, err := parseFilter(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_filter", err.Error())
		return
	}

	products, err := h.svc.List(ctx, filter)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, toProductDTOs(products))
}

func (h *ProductHandler) Featured(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	_, limit := parsePagination(r)
	products, err := h.svc.Featured(ctx, limit)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, toProductDTOs(products))
}

func (h *ProductHandler) Categories(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	categories, err := h.svc.Categories(ctx)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if categories == nil {
		categories = []string{}
	}

	respondJSON(w, http.StatusOK, categories)
}

// Search is List constrained to the search query parameter; it exists
// as its own route for the storefront's search box.
func (h *ProductHandler) Search(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	query := r.URL.Query().Get("q")
	if query == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "q parameter is required")
		return
	}

	skip, limit := parsePagination(r)
	products, err := h.svc.List(ctx, repository.ProductFilter{Search: query, Skip: skip, Limit: limit})
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, toProductDTOs(products))
}

func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	id, err := strconv.ParseInt(chi.URLParam(r, "product_id"), 10, 64)
	if err != nil || id <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product id must be a positive integer")
		return
	}

	product, err := h.svc.Get(ctx, id)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, toProductDTO(product))
}

func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req ProductRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	product := req.toDomain()
	if err := h.svc.Create(ctx, product); err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, toProductDTO(product))
}

func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	id, err := strconv.ParseInt(chi.URLParam(r, "product_id"), 10, 64)
	if err != nil || id <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product id must be a positive integer")
		return
	}

	var req ProductRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	product := req.toDomain()
	product.ID = id
	if err := h.svc.Update(ctx, product); err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, toProductDTO(product))
}

func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	id, err := strconv.ParseInt(chi.URLParam(r, "product_id"), 10, 64)
	if err != nil || id <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product id must be a positive integer")
		return
	}

	if err := h.svc.Delete(ctx, id); err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
