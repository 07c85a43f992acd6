package http

import (
	"time"

	"github.com/Georgemuchir/thrift-ease/internal/domain"
)

// Response DTOs serialize money as plain JSON numbers for the web
// frontend; decimals stay internal.

type ProductDTO struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Price       float64 `json:"price"`
	Category    string  `json:"category"`
	Brand       string  `json:"brand,omitempty"`
	Condition   string  `json:"condition"`
	Image       string  `json:"image,omitempty"`
	Size        string  `json:"size,omitempty"`
	Color       string  `json:"color,omitempty"`
	Material    string  `json:"material,omitempty"`
	IsAvailable bool    `json:"is_available"`
	Featured    bool    `json:"featured"`
	ViewsCount  int64   `json:"views_count"`
	CreatedAt   string  `json:"created_at"`
}

func toProductDTO(p *domain.Product) ProductDTO {
	return ProductDTO{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price.InexactFloat64(),
		Category:    p.Category,
		Brand:       p.Brand,
		Condition:   string(p.Condition),
		Image:       p.Image,
		Size:        p.Size,
		Color:       p.Color,
		Material:    p.Material,
		IsAvailable: p.IsAvailable,
		Featured:    p.Featured,
		ViewsCount:  p.ViewsCount,
		CreatedAt:   p.CreatedAt.Format(time.RFC3339),
	}
}

func toProductDTOs(products []*domain.Product) []ProductDTO {
	dtos := make([]ProductDTO, 0, len(products))
	for _, p := range products {
		dtos = append(dtos, toProductDTO(p))
	}
	return dtos
}

type CartLineDTO struct {
	ItemID    int64       `json:"item_id"`
	ProductID int64       `json:"product_id"`
	Quantity  int         `json:"quantity"`
	Size      string      `json:"size,omitempty"`
	Product   *ProductDTO `json:"product,omitempty"`
	Available bool        `json:"available"`
}

type CartDTO struct {
	UserID     int64         `json:"user_id"`
	Lines      []CartLineDTO `json:"items"`
	TotalItems int           `json:"total_items"`
	TotalPrice float64       `json:"total_price"`
}

func toCartDTO(cart *domain.Cart) CartDTO {
	dto := CartDTO{
		UserID:     cart.UserID,
		Lines:      make([]CartLineDTO, 0, len(cart.Lines)),
		TotalItems: cart.TotalItems,
		TotalPrice: cart.TotalPrice.InexactFloat64(),
	}
	for _, l := range cart.Lines {
		lineDTO := CartLineDTO{
			ItemID:    l.Item.ID,
			ProductID: l.Item.ProductID,
			Quantity:  l.Item.Quantity,
			Size:      l.Item.Size,
			Available: l.Priceable(),
		}
		if l.Product != nil {
			p := toProductDTO(l.Product)
			lineDTO.Product = &p
		}
		dto.Lines = append(dto.Lines, lineDTO)
	}
	return dto
}

type OrderItemDTO struct {
	ID        int64   `json:"id"`
	ProductID int64   `json:"product_id"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"`
	Size      string  `json:"size,omitempty"`
}

type OrderDTO struct {
	ID            string                 `json:"id"`
	OrderNumber   string                 `json:"order_number"`
	UserID        int64                  `json:"user_id"`
	Status        string                 `json:"status"`
	Subtotal      float64                `json:"subtotal"`
	Shipping      float64                `json:"shipping"`
	Tax           float64                `json:"tax"`
	Total         float64                `json:"total"`
	ShippingTo    domain.ShippingAddress `json:"shipping_to"`
	PaymentMethod string                 `json:"payment_method"`
	PaymentStatus string                 `json:"payment_status"`
	Notes         string                 `json:"notes,omitempty"`
	Items         []OrderItemDTO         `json:"items,omitempty"`
	CreatedAt     string                 `json:"created_at"`
	UpdatedAt     string                 `json:"updated_at"`
}

func toOrderDTO(order *domain.Order) OrderDTO {
	dto := OrderDTO{
		ID:            order.ID.String(),
		OrderNumber:   order.OrderNumber,
		UserID:        order.UserID,
		Status:        string(order.Status),
		Subtotal:      order.Subtotal.InexactFloat64(),
		Shipping:      order.Shipping.InexactFloat64(),
		Tax:           order.Tax.InexactFloat64(),
		Total:         order.Total.InexactFloat64(),
		ShippingTo:    order.ShippingTo,
		PaymentMethod: order.PaymentMethod,
		PaymentStatus: order.PaymentStatus,
		Notes:         order.Notes,
		CreatedAt:     order.CreatedAt.Format(time.RFC3339),
		UpdatedAt:     order.UpdatedAt.Format(time.RFC3339),
	}
	for _, item := range order.Items {
		dto.Items = append(dto.Items, OrderItemDTO{
			ID:        item.ID,
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Price:     item.Price.InexactFloat64(),
			Size:      item.Size,
		})
	}
	return dto
}

func toOrderDTOs(orders []*domain.Order) []OrderDTO {
	dtos := make([]OrderDTO, 0, len(orders))
	for _, order := range orders {
		dtos = append(dtos, toOrderDTO(order))
	}
	return dtos
}

type UserDTO struct {
	ID            int64  `json:"id"`
	FirstName     string `json:"first_name"`
	LastName      string `json:"last_name"`
	Email         string `json:"email"`
	Role          string `json:"role"`
	Avatar        string `json:"avatar,omitempty"`
	Phone         string `json:"phone,omitempty"`
	IsActive      bool   `json:"is_active"`
	EmailVerified bool   `json:"email_verified"`
	CreatedAt     string `json:"created_at"`
	LastLogin     string `json:"last_login,omitempty"`
}

func toUserDTO(u *domain.User) UserDTO {
	dto := UserDTO{
		ID:            u.ID,
		FirstName:     u.FirstName,
		LastName:      u.LastName,
		Email:         u.Email,
		Role:          string(u.Role),
		Avatar:        u.Avatar,
		Phone:         u.Phone,
		IsActive:      u.IsActive,
		EmailVerified: u.EmailVerified,
		CreatedAt:     u.CreatedAt.Format(time.RFC3339),
	}
	if u.LastLogin != nil {
		dto.LastLogin = u.LastLogin.Format(time.RFC3339)
	}
	return dto
}
