package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/Georgemuchir/thrift-ease/internal/cache"
	"github.com/Georgemuchir/thrift-ease/internal/domain"
	"github.com/Georgemuchir/thrift-ease/internal/repository"
)

type CartService struct {
	repo     repository.CartRepository
	products repository.ProductRepository
	cache    cache.CartCache
	sfg      singleflight.Group // Prevents cache stampede
}

func NewCartService(repo repository.CartRepository, products repository.ProductRepository, cartCache cache.CartCache) *CartService {
	return &CartService{
		repo:     repo,
		products: products,
		cache:    cartCache,
	}
}

func (s *CartService) GetCart(ctx context.Context, userID int64) (*domain.Cart, error) {
	// Use singleflight to prevent multiple concurrent cache misses for same key
	v, err, _ := s.sfg.Do(fmt.Sprintf("cart:%d", userID), func() (interface{}, error) {

		cart, err := s.cache.Get(ctx, userID)
		if err == nil {
			return cart, nil // cart is in cache
		}

		if !errors.Is(err, cache.ErrCacheMiss) {
			log.Printf("cache get error: %v", err) // log cache error but continue
		}

		lines, errGet := s.repo.GetLines(ctx, userID)
		if errGet != nil {
			return nil, errGet
		}
		cart = domain.BuildCart(userID, lines)

		// set cache
		go func() {
			errSet := s.cache.Set(context.Background(), userID, cart)
			if errSet != nil {
				log.Printf("cache set error: %v", errSet)
			}
		}()

		return cart, nil
	})

	if err != nil {
		return nil, err
	}

	return v.(*domain.Cart), nil
}

func (s *CartService) AddItem(ctx context.Context, userID, productID int64, quantity int, size string) (*domain.CartItem, error) {
	if quantity < 1 {
		return nil, fmt.Errorf("%w: quantity must be at least 1", ErrInvalidInput)
	}

	product, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if !product.IsAvailable {
		return nil, ErrProductUnavailable
	}

	item := &domain.CartItem{
		UserID:    userID,
		ProductID: productID,
		Quantity:  quantity,
		Size:      size,
	}
	if errAdd := s.repo.AddItem(ctx, item); errAdd != nil {
		log.Printf("repo add item error: %v", errAdd)
		return nil, errAdd
	}

	s.invalidateCache(userID)
	return item, nil
}

func (s *CartService) UpdateItem(ctx context.Context, userID, itemID int64, quantity int, size *string) (*domain.CartItem, error) {
	if quantity < 1 {
		return nil, fmt.Errorf("%w: quantity must be at least 1", ErrInvalidInput)
	}

	item, errUpdate := s.repo.UpdateItem(ctx, userID, itemID, quantity, size)
	if errUpdate != nil {
		return nil, errUpdate
	}

	s.invalidateCache(userID)
	return item, nil
}

func (s *CartService) RemoveItem(ctx context.Context, userID, itemID int64) error {
	if errRemove := s.repo.RemoveItem(ctx, userID, itemID); errRemove != nil {
		return errRemove
	}

	s.invalidateCache(userID)
	return nil
}

func (s *CartService) ClearCart(ctx context.Context, userID int64) error {
	if errClear := s.repo.Clear(ctx, userID); errClear != nil {
		log.Printf("repo clear cart error: %v", errClear)
		return errClear
	}

	s.invalidateCache(userID)
	return nil
}

func (s *CartService) invalidateCache(userID int64) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.cache.Delete(ctx, userID); err != nil {
		log.Printf("cache invalidate error: %v", err)
	}
}
