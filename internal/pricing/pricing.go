// Package pricing computes checkout totals. All arithmetic is done on
// fixed-precision decimals so repeated quotes for the same cart never
// drift.
package pricing

import "github.com/shopspring/decimal"

type Config struct {
	ShippingFlat          decimal.Decimal
	FreeShippingThreshold decimal.Decimal
	TaxRate               decimal.Decimal
}

// DefaultConfig matches the storefront defaults: $10 flat shipping,
// free at $100, 8% tax.
func DefaultConfig() Config {
	return Config{
		ShippingFlat:          decimal.NewFromInt(10),
		FreeShippingThreshold: decimal.NewFromInt(100),
		TaxRate:               decimal.RequireFromString("0.08"),
	}
}

// Line is a priceable (product, quantity) pair. Callers are expected
// to have filtered out unavailable products already.
type Line struct {
	ProductID int64
	UnitPrice decimal.Decimal
	Quantity  int
}

type Quote struct {
	Subtotal decimal.Decimal
	Shipping decimal.Decimal
	Tax      decimal.Decimal
	Total    decimal.Decimal
}

type Engine struct {
	cfg Config
}

func NewEngine(cfg Config) *Engine {
	return &Engine{cfg: cfg}
}

// Quote is a pure function of its inputs: no side effects, identical
// lines always produce an identical quote.
func (e *Engine) Quote(lines []Line) Quote {
	subtotal := decimal.Zero
	for _, l := range lines {
		qty := decimal.NewFromInt(int64(l.Quantity))
		subtotal = subtotal.Add(l.UnitPrice.Mul(qty))
	}

	shipping := e.cfg.ShippingFlat
	if subtotal.GreaterThanOrEqual(e.cfg.FreeShippingThreshold) {
		shipping = decimal.Zero
	}

	tax := subtotal.Mul(e.cfg.TaxRate).Round(2)

	return Quote{
		Subtotal: subtotal,
		Shipping: shipping,
		Tax:      tax,
		Total:    subtotal.Add(shipping).Add(tax),
	}
}
