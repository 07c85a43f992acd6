package domain

import (
	"errors"
	"fmt"
)

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "PENDING"
	OrderStatusConfirmed  OrderStatus = "CONFIRMED"
	OrderStatusProcessing OrderStatus = "PROCESSING"
	OrderStatusShipped    OrderStatus = "SHIPPED"
	OrderStatusDelivered  OrderStatus = "DELIVERED"
	OrderStatusCancelled  OrderStatus = "CANCELLED"
	OrderStatusRefunded   OrderStatus = "REFUNDED"
)

var ErrInvalidTransition = errors.New("illegal order status transition")

// fulfillmentRank orders the happy-path statuses. Transitions may skip
// ahead but never move backward.
var fulfillmentRank = map[OrderStatus]int{
	OrderStatusPending:    0,
	OrderStatusConfirmed:  1,
	OrderStatusProcessing: 2,
	OrderStatusShipped:    3,
	OrderStatusDelivered:  4,
}

func ParseOrderStatus(s string) (OrderStatus, error) {
	status := OrderStatus(s)
	switch status {
	case OrderStatusPending, OrderStatusConfirmed, OrderStatusProcessing,
		OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled, OrderStatusRefunded:
		return status, nil
	}
	return "", fmt.Errorf("unknown order status %q", s)
}

func (s OrderStatus) String() string {
	return string(s)
}

// IsTerminal reports whether no further transition is possible.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusCancelled || s == OrderStatusRefunded
}

// CanTransitionTo implements the order lifecycle:
//
//	PENDING -> CONFIRMED -> PROCESSING -> SHIPPED -> DELIVERED (forward only, skips allowed)
//	CANCELLED from PENDING/CONFIRMED/PROCESSING
//	REFUNDED from CONFIRMED/PROCESSING/SHIPPED/DELIVERED
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	if s.IsTerminal() || s == next {
		return false
	}
	switch next {
	case OrderStatusCancelled:
		return s == OrderStatusPending || s == OrderStatusConfirmed || s == OrderStatusProcessing
	case OrderStatusRefunded:
		return s == OrderStatusConfirmed || s == OrderStatusProcessing ||
			s == OrderStatusShipped || s == OrderStatusDelivered
	}
	from, ok := fulfillmentRank[s]
	to, ok2 := fulfillmentRank[next]
	return ok && ok2 && to > from
}
