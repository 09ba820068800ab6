package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderCreatedEvent is published to the order.created topic after an order
// and its items have been committed.
type OrderCreatedEvent struct {
	OrderID     int64           `json:"order_id"`
	OrderNumber string          `json:"order_number"`
	Email       string          `json:"email"`
	FirstName   string          `json:"first_name"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Items       []OrderItem     `json:"items"`
	Timestamp   time.Time       `json:"timestamp"`
}
