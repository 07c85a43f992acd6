package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type ProductCondition string

const (
	ConditionExcellent ProductCondition = "excellent"
	ConditionVeryGood  ProductCondition = "very_good"
	ConditionGood      ProductCondition = "good"
	ConditionFair      ProductCondition = "fair"
)

var ErrInvalidProduct = errors.New("invalid product")

type Product struct {
	ID          int64
	Name        string
	Description string
	Price       decimal.Decimal
	Category    string
	Brand       string
	Condition   ProductCondition
	Image       string
	Size        string
	Color       string
	Material    string
	IsAvailable bool
	Featured    bool
	ViewsCount  int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (p *Product) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidProduct)
	}
	if p.Category == "" {
		return fmt.Errorf("%w: category is required", ErrInvalidProduct)
	}
	if p.Price.IsNegative() {
		return fmt.Errorf("%w: price must be non-negative", ErrInvalidProduct)
	}
	switch p.Condition {
	case ConditionExcellent, ConditionVeryGood, ConditionGood, ConditionFair:
	case "":
		p.Condition = ConditionGood
	default:
		return fmt.Errorf("%w: unknown condition %q", ErrInvalidProduct, p.Condition)
	}
	return nil
}
