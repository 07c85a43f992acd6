package service

import (
	"context"
	"log"

	"github.com/Georgemuchir/thrift-ease/internal/domain"
	"github.com/Georgemuchir/thrift-ease/internal/repository"
)

type CatalogService struct {
	repo repository.ProductRepository
}

func NewCatalogService(repo repository.ProductRepository) *CatalogService {
	return &CatalogService{repo: repo}
}

func (s *CatalogService) List(ctx context.Context, filter repository.ProductFilter) ([]*domain.Product, error) {
	filter.Skip, filter.Limit = clampPage(filter.Skip, filter.Limit)
	return s.repo.List(ctx, filter)
}

func (s *CatalogService) Featured(ctx context.Context, limit int) ([]*domain.Product, error) {
	featured := true
	return s.List(ctx, repository.ProductFilter{Featured: &featured, Limit: limit})
}

func (s *CatalogService) Categories(ctx context.Context) ([]string, error) {
	return s.repo.Categories(ctx)
}

// Get returns a product by id and bumps its view counter. A failed
// counter bump never fails the read.
func (s *CatalogService) Get(ctx context.Context, id int64) (*domain.Product, error) {
	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if errViews := s.repo.IncrementViews(ctx, id); errViews != nil {
		log.Printf("increment views error for product %d: %v", id, errViews)
	} else {
		product.ViewsCount++
	}
	return product, nil
}

func (s *CatalogService) Create(ctx context.Context, p *domain.Product) error {
	if err := p.Validate(); err != nil {
		return err
	}
	return s.repo.Create(ctx, p)
}

func (s *CatalogService) Update(ctx context.Context, p *domain.Product) error {
	if err := p.Validate(); err != nil {
		return err
	}
	return s.repo.Update(ctx, p)
}

// Delete hides a product from the catalog instead of removing the row,
// so order items that snapshotted it keep a valid reference.
func (s *CatalogService) Delete(ctx context.Context, id int64) error {
	return s.repo.SetAvailability(ctx, id, false)
}
