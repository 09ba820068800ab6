package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusPaid      OrderStatus = "paid"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusPaid, OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

// OrderItem is one product line within an order. Price is a snapshot taken
// at order time and does not follow later catalog price changes.
type OrderItem struct {
	ID        int64           `json:"id"`
	ProductID int64           `json:"product_id"`
	Product   *ProductSummary `json:"product,omitempty"`
	Quantity  int             `json:"quantity"`
	Size      string          `json:"size,omitempty"`
	Color     string          `json:"color,omitempty"`
	Price     decimal.Decimal `json:"price"`

	// Total is price * quantity. It is derived on read and never stored.
	Total decimal.Decimal `json:"total"`
}

// Subtotal returns price * quantity with exact decimal arithmetic.
func (i OrderItem) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Order is a customer purchase request. OrderNumber is the public identifier
// handed to customers; ID stays internal to storage.
type Order struct {
	ID            int64           `json:"id"`
	OrderNumber   string          `json:"order_number"`
	Email         string          `json:"email"`
	FirstName     string          `json:"first_name"`
	LastName      string          `json:"last_name"`
	Phone         string          `json:"phone"`
	Address       string          `json:"address"`
	City          string          `json:"city"`
	State         string          `json:"state"`
	ZipCode       string          `json:"zip_code"`
	Country       string          `json:"country"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	Status        OrderStatus     `json:"status"`
	PaymentMethod string          `json:"payment_method,omitempty"`
	PaymentID     string          `json:"payment_id,omitempty"`
	Notes         string          `json:"notes,omitempty"`
	Items         []OrderItem     `json:"items"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}
