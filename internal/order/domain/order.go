package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Hasin-ai/E-commerce-sub001/internal/apperr"
	cartdomain "github.com/Hasin-ai/E-commerce-sub001/internal/cart/domain"
	"github.com/Hasin-ai/E-commerce-sub001/pkg/money"
)

type OrderStatus string

const (
	StatusPending       OrderStatus = "PENDING"
	StatusConfirmed     OrderStatus = "CONFIRMED"
	StatusShipped       OrderStatus = "SHIPPED"
	StatusDelivered     OrderStatus = "DELIVERED"
	StatusCancelled     OrderStatus = "CANCELLED"
	StatusPaymentFailed OrderStatus = "PAYMENT_FAILED"
)

// IsTerminal reports whether no further status transition is allowed.
func (s OrderStatus) IsTerminal() bool {
	switch s {
	case StatusDelivered, StatusCancelled, StatusPaymentFailed:
		return true
	}
	return false
}

type Address struct {
	Line1      string `db:"line1" json:"line1"`
	Line2      string `db:"line2" json:"line2,omitempty"`
	City       string `db:"city" json:"city"`
	State      string `db:"state" json:"state,omitempty"`
	PostalCode string `db:"postal_code" json:"postal_code"`
	Country    string `db:"country" json:"country"`
}

// OrderItem is a snapshot of a cart line at checkout time. Later price
// changes never affect an existing order.
type OrderItem struct {
	ID          int64       `db:"id"`
	OrderID     int64       `db:"order_id"`
	ProductID   int64       `db:"product_id"`
	SKU         string      `db:"sku"`
	ProductName string      `db:"product_name"`
	UnitPrice   money.Money `db:"unit_price"`
	Quantity    int32       `db:"quantity"`
}

func (i *OrderItem) TotalPrice() money.Money {
	return i.UnitPrice.MulInt(int64(i.Quantity))
}

type Order struct {
	ID              int64       `db:"id"`
	OrderNumber     string      `db:"order_number"`
	UserID          int64       `db:"user_id"`
	Status          OrderStatus `db:"status"`
	Currency        string      `db:"currency"`
	Items           []OrderItem `db:"-"`
	TotalAmount     money.Money `db:"total_amount"`
	ShippingAddress Address     `db:"-"`
	BillingAddress  Address     `db:"-"`
	TrackingNumber  string      `db:"tracking_number"`
	CancelReason    string      `db:"cancel_reason"`
	CreatedAt       time.Time   `db:"created_at"`
	UpdatedAt       time.Time   `db:"updated_at"`
}

// NewFromCart builds a PENDING order from cart contents, snapshotting every
// line so the order is immune to later cart or price changes.
func NewFromCart(cart *cartdomain.Cart, shipping, billing Address) (*Order, error) {
	if len(cart.Items) == 0 {
		return nil, apperr.New(apperr.KindValidation, "cannot create an order from an empty cart")
	}

	now := time.Now()
	order := &Order{
		OrderNumber:     newOrderNumber(now),
		UserID:          cart.UserID,
		Status:          StatusPending,
		Currency:        cart.Currency,
		TotalAmount:     money.Zero(cart.Currency),
		ShippingAddress: shipping,
		BillingAddress:  billing,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	for _, item := range cart.Items {
		line := OrderItem{
			ProductID:   item.ProductID,
			SKU:         item.SKU,
			ProductName: item.ProductName,
			UnitPrice:   item.UnitPrice,
			Quantity:    item.Quantity,
		}

		total, err := order.TotalAmount.Add(line.TotalPrice())
		if err != nil {
			return nil, err
		}
		order.TotalAmount = total
		order.Items = append(order.Items, line)
	}

	return order, nil
}

func newOrderNumber(now time.Time) string {
	return fmt.Sprintf("ORD-%d-%s", now.UnixMilli(), uuid.NewString()[:8])
}

func (o *Order) Confirm() error {
	if o.Status != StatusPending {
		return o.transitionError(StatusConfirmed)
	}
	o.setStatus(StatusConfirmed)
	return nil
}

func (o *Order) Ship(trackingNumber string) error {
	if trackingNumber == "" {
		return apperr.New(apperr.KindValidation, "tracking number is required to ship an order")
	}
	if o.Status != StatusConfirmed {
		return o.transitionError(StatusShipped)
	}
	o.TrackingNumber = trackingNumber
	o.setStatus(StatusShipped)
	return nil
}

func (o *Order) Deliver() error {
	if o.Status != StatusShipped {
		return o.transitionError(StatusDelivered)
	}
	o.setStatus(StatusDelivered)
	return nil
}

// Cancel is allowed before the order ships.
func (o *Order) Cancel(reason string) error {
	if o.Status != StatusPending && o.Status != StatusConfirmed {
		return o.transitionError(StatusCancelled)
	}
	o.CancelReason = reason
	o.setStatus(StatusCancelled)
	return nil
}

func (o *Order) MarkPaymentFailed() error {
	if o.Status != StatusPending {
		return o.transitionError(StatusPaymentFailed)
	}
	o.setStatus(StatusPaymentFailed)
	return nil
}

func (o *Order) setStatus(status OrderStatus) {
	o.Status = status
	o.UpdatedAt = time.Now()
}

func (o *Order) transitionError(target OrderStatus) error {
	return apperr.Newf(apperr.KindInvalidTransition,
		"order %s cannot move from %s to %s", o.OrderNumber, o.Status, target)
}
