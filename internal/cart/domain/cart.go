package domain

import (
	"time"

	"github.com/Hasin-ai/E-commerce-sub001/internal/apperr"
	"github.com/Hasin-ai/E-commerce-sub001/pkg/money"
)

const MaxItemQuantity = 999

type CartItem struct {
	ID          int64       `db:"id"`
	CartID      int64       `db:"cart_id"`
	ProductID   int64       `db:"product_id"`
	SKU         string      `db:"sku"`
	ProductName string      `db:"product_name"`
	UnitPrice   money.Money `db:"unit_price"`
	Quantity    int32       `db:"quantity"`
}

func (i CartItem) TotalPrice() money.Money {
	return i.UnitPrice.MulInt(int64(i.Quantity))
}

// Cart holds one user's open cart. One cart per user; cleared, not
// deleted, after a successful checkout.
type Cart struct {
	ID          int64       `db:"id"`
	UserID      int64       `db:"user_id"`
	Currency    string      `db:"currency"`
	Items       []CartItem  `db:"items"`
	TotalAmount money.Money `db:"total_amount"`
	CreatedAt   time.Time   `db:"created_at"`
	UpdatedAt   time.Time   `db:"updated_at"`
}

func NewCart(userID int64, currency string) *Cart {
	now := time.Now()
	return &Cart{
		UserID:      userID,
		Currency:    currency,
		TotalAmount: money.Zero(currency),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// AddItem merges into an existing line when the product is already in the
// cart, otherwise appends a new line.
func (c *Cart) AddItem(productID int64, sku, productName string, unitPrice money.Money, quantity int32) error {
	if quantity <= 0 {
		return apperr.New(apperr.KindValidation, "quantity must be positive")
	}
	if unitPrice.Currency() != c.Currency {
		return apperr.Newf(apperr.KindValidation, "price currency %s does not match cart currency %s",
			unitPrice.Currency(), c.Currency)
	}

	for idx := range c.Items {
		if c.Items[idx].ProductID == productID {
			newQuantity := c.Items[idx].Quantity + quantity
			if newQuantity > MaxItemQuantity {
				return apperr.Newf(apperr.KindValidation, "quantity must not exceed %d", MaxItemQuantity)
			}

			c.Items[idx].Quantity = newQuantity
			return c.recomputeTotal()
		}
	}

	if quantity > MaxItemQuantity {
		return apperr.Newf(apperr.KindValidation, "quantity must not exceed %d", MaxItemQuantity)
	}

	c.Items = append(c.Items, CartItem{
		CartID:      c.ID,
		ProductID:   productID,
		SKU:         sku,
		ProductName: productName,
		UnitPrice:   unitPrice,
		Quantity:    quantity,
	})

	return c.recomputeTotal()
}

func (c *Cart) UpdateItemQuantity(productID int64, quantity int32) error {
	if quantity <= 0 || quantity > MaxItemQuantity {
		return apperr.Newf(apperr.KindValidation, "quantity must be between 1 and %d", MaxItemQuantity)
	}

	for idx := range c.Items {
		if c.Items[idx].ProductID == productID {
			c.Items[idx].Quantity = quantity
			return c.recomputeTotal()
		}
	}

	return apperr.Newf(apperr.KindNotFound, "product %d is not in the cart", productID)
}

// RemoveItem is a no-op when the product is absent.
func (c *Cart) RemoveItem(productID int64) error {
	for idx := range c.Items {
		if c.Items[idx].ProductID == productID {
			c.Items = append(c.Items[:idx], c.Items[idx+1:]...)
			return c.recomputeTotal()
		}
	}

	c.UpdatedAt = time.Now()
	return nil
}

func (c *Cart) Clear() {
	c.Items = nil
	c.TotalAmount = money.Zero(c.Currency)
	c.UpdatedAt = time.Now()
}

func (c *Cart) recomputeTotal() error {
	total := money.Zero(c.Currency)
	for _, item := range c.Items {
		sum, err := total.Add(item.TotalPrice())
		if err != nil {
			return apperr.Wrap(apperr.KindValidation, "cart total", err)
		}
		total = sum
	}

	c.TotalAmount = total
	c.UpdatedAt = time.Now()
	return nil
}
