package domain

import (
	"time"

	"github.com/Hasin-ai/E-commerce-sub001/internal/apperr"
)

type MovementType string

const (
	MovementStockIn    MovementType = "STOCK_IN"
	MovementStockOut   MovementType = "STOCK_OUT"
	MovementReserved   MovementType = "RESERVED"
	MovementReleased   MovementType = "RELEASED"
	MovementAdjustment MovementType = "ADJUSTMENT"
	MovementDamaged    MovementType = "DAMAGED"
	MovementReturned   MovementType = "RETURNED"
)

// InventoryMovement is an append-only audit record. Previous/new quantities
// refer to the counter the movement touched: the reserved counter for
// RESERVED/RELEASED, the on-hand quantity for everything else.
type InventoryMovement struct {
	ID               int64        `db:"id"`
	InventoryID      int64        `db:"inventory_id"`
	ProductID        int64        `db:"product_id"`
	Type             MovementType `db:"type"`
	Quantity         int32        `db:"quantity"`
	PreviousQuantity int32        `db:"previous_quantity"`
	NewQuantity      int32        `db:"new_quantity"`
	Reason           string       `db:"reason"`
	Reference        string       `db:"reference"`
	CreatedAt        time.Time    `db:"created_at"`
}

type Inventory struct {
	ID               int64     `db:"id"`
	ProductID        int64     `db:"product_id"`
	VendorID         *int64    `db:"vendor_id"`
	Quantity         int32     `db:"quantity"`
	ReservedQuantity int32     `db:"reserved_quantity"`
	MinStockLevel    int32     `db:"min_stock_level"`
	LastUpdated      time.Time `db:"last_updated"`
	CreatedAt        time.Time `db:"created_at"`
}

func (i *Inventory) AvailableQuantity() int32 {
	return i.Quantity - i.ReservedQuantity
}

func (i *Inventory) IsLowStock() bool {
	return i.AvailableQuantity() <= i.MinStockLevel
}

func (i *Inventory) IsOutOfStock() bool {
	return i.AvailableQuantity() <= 0
}

// Reserve places a hold without decrementing on-hand stock.
func (i *Inventory) Reserve(quantity int32, reference string) (InventoryMovement, error) {
	if quantity <= 0 {
		return InventoryMovement{}, apperr.New(apperr.KindValidation, "reserve quantity must be positive")
	}
	if i.AvailableQuantity() < quantity {
		return InventoryMovement{}, apperr.Newf(apperr.KindInsufficientStock,
			"insufficient stock for product %d: requested %d, available %d",
			i.ProductID, quantity, i.AvailableQuantity())
	}

	previous := i.ReservedQuantity
	i.ReservedQuantity += quantity
	i.LastUpdated = time.Now()

	return i.movement(MovementReserved, quantity, previous, i.ReservedQuantity, "checkout reservation", reference), nil
}

// Release undoes a hold. Releasing more than is reserved is a programming
// error, not a recoverable condition.
func (i *Inventory) Release(quantity int32, reference string) (InventoryMovement, error) {
	if quantity <= 0 {
		return InventoryMovement{}, apperr.New(apperr.KindValidation, "release quantity must be positive")
	}
	if quantity > i.ReservedQuantity {
		return InventoryMovement{}, apperr.Newf(apperr.KindConflict,
			"cannot release %d units of product %d: only %d reserved",
			quantity, i.ProductID, i.ReservedQuantity)
	}

	previous := i.ReservedQuantity
	i.ReservedQuantity -= quantity
	i.LastUpdated = time.Now()

	return i.movement(MovementReleased, quantity, previous, i.ReservedQuantity, "reservation released", reference), nil
}

// Commit consumes a hold after payment succeeds: stock physically leaves.
func (i *Inventory) Commit(quantity int32, reference string) (InventoryMovement, error) {
	if quantity <= 0 {
		return InventoryMovement{}, apperr.New(apperr.KindValidation, "commit quantity must be positive")
	}
	if quantity > i.ReservedQuantity {
		return InventoryMovement{}, apperr.Newf(apperr.KindConflict,
			"cannot commit %d units of product %d: only %d reserved",
			quantity, i.ProductID, i.ReservedQuantity)
	}

	previous := i.Quantity
	i.Quantity -= quantity
	i.ReservedQuantity -= quantity
	i.LastUpdated = time.Now()

	return i.movement(MovementStockOut, quantity, previous, i.Quantity, "reservation committed", reference), nil
}

// Adjust is an administrative override of the on-hand quantity.
func (i *Inventory) Adjust(newQuantity int32, reason string) (InventoryMovement, error) {
	if newQuantity < 0 {
		return InventoryMovement{}, apperr.New(apperr.KindValidation, "quantity must not be negative")
	}
	if newQuantity < i.ReservedQuantity {
		return InventoryMovement{}, apperr.Newf(apperr.KindConflict,
			"cannot adjust product %d below reserved quantity %d",
			i.ProductID, i.ReservedQuantity)
	}

	previous := i.Quantity
	i.Quantity = newQuantity
	i.LastUpdated = time.Now()

	return i.movement(MovementAdjustment, newQuantity-previous, previous, newQuantity, reason, ""), nil
}

func (i *Inventory) movement(t MovementType, quantity, previous, current int32, reason, reference string) InventoryMovement {
	return InventoryMovement{
		InventoryID:      i.ID,
		ProductID:        i.ProductID,
		Type:             t,
		Quantity:         quantity,
		PreviousQuantity: previous,
		NewQuantity:      current,
		Reason:           reason,
		Reference:        reference,
		CreatedAt:        time.Now(),
	}
}
