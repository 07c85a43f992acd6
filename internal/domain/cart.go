package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type CartItem struct {
	ID        int64
	UserID    int64
	ProductID int64
	Quantity  int
	Size      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CartLine is a cart item joined with its referenced product.
// Product is nil when the catalog row no longer exists.
type CartLine struct {
	Item    CartItem
	Product *Product
}

// Priceable reports whether the line can participate in checkout:
// the product must still exist and be available for sale.
func (l CartLine) Priceable() bool {
	return l.Product != nil && l.Product.IsAvailable
}

// Cart is the assembled view returned to clients and cached in Redis.
type Cart struct {
	UserID     int64           `json:"user_id"`
	Lines      []CartLine      `json:"lines"`
	TotalItems int             `json:"total_items"`
	TotalPrice decimal.Decimal `json:"total_price"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// BuildCart computes the totals for a set of lines. Unavailable lines
// count toward TotalItems but not TotalPrice, matching what the
// storefront shows before checkout filters them out.
func BuildCart(userID int64, lines []CartLine) *Cart {
	cart := &Cart{
		UserID:     userID,
		Lines:      lines,
		TotalPrice: decimal.Zero,
		UpdatedAt:  time.Now(),
	}
	for _, l := range lines {
		cart.TotalItems += l.Item.Quantity
		if l.Priceable() {
			qty := decimal.NewFromInt(int64(l.Item.Quantity))
			cart.TotalPrice = cart.TotalPrice.Add(l.Product.Price.Mul(qty))
		}
	}
	return cart
}
