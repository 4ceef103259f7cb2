package domain

import "time"

// Events emitted through the outbox after a checkout or reconciliation
// settles an order. Consumed by the notification worker.

type OrderConfirmedEvent struct {
	EventID     int64     `json:"event_id"`
	OrderID     int64     `json:"order_id"`
	OrderNumber string    `json:"order_number"`
	UserID      int64     `json:"user_id"`
	Total       string    `json:"total"`
	Currency    string    `json:"currency"`
	ConfirmedAt time.Time `json:"confirmed_at"`
}

type OrderCancelledEvent struct {
	EventID     int64     `json:"event_id"`
	OrderID     int64     `json:"order_id"`
	OrderNumber string    `json:"order_number"`
	UserID      int64     `json:"user_id"`
	Reason      string    `json:"reason"`
	CancelledAt time.Time `json:"cancelled_at"`
}

type PaymentRefundedEvent struct {
	EventID    int64     `json:"event_id"`
	PaymentID  int64     `json:"payment_id"`
	OrderID    int64     `json:"order_id"`
	UserID     int64     `json:"user_id"`
	Amount     string    `json:"amount"`
	Currency   string    `json:"currency"`
	RefundedAt time.Time `json:"refunded_at"`
}
