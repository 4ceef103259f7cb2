package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Hasin-ai/E-commerce-sub001/internal/apperr"
)

func newInventory(quantity, reserved int32) *Inventory {
	return &Inventory{
		ID:               1,
		ProductID:        42,
		Quantity:         quantity,
		ReservedQuantity: reserved,
		MinStockLevel:    5,
	}
}

func TestReserveHoldsWithoutDecrementingStock(t *testing.T) {
	inv := newInventory(10, 0)

	mv, err := inv.Reserve(4, "order-1")
	require.NoError(t, err)

	assert.Equal(t, int32(10), inv.Quantity)
	assert.Equal(t, int32(4), inv.ReservedQuantity)
	assert.Equal(t, int32(6), inv.AvailableQuantity())
	assert.Equal(t, MovementReserved, mv.Type)
	assert.Equal(t, int32(0), mv.PreviousQuantity)
	assert.Equal(t, int32(4), mv.NewQuantity)
	assert.Equal(t, "order-1", mv.Reference)
}

func TestReserveRejectsOverAvailable(t *testing.T) {
	inv := newInventory(10, 7)

	_, err := inv.Reserve(4, "order-1")
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindInsufficientStock))
	assert.Equal(t, int32(7), inv.ReservedQuantity)
}

func TestReserveRejectsNonPositive(t *testing.T) {
	inv := newInventory(10, 0)

	_, err := inv.Reserve(0, "order-1")
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
}

func TestReleaseRestoresAvailability(t *testing.T) {
	inv := newInventory(10, 4)

	mv, err := inv.Release(4, "order-1")
	require.NoError(t, err)

	assert.Equal(t, int32(10), inv.Quantity)
	assert.Equal(t, int32(0), inv.ReservedQuantity)
	assert.Equal(t, MovementReleased, mv.Type)
}

func TestReleaseMoreThanReservedFails(t *testing.T) {
	inv := newInventory(10, 2)

	_, err := inv.Release(3, "order-1")
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindConflict))
}

func TestCommitDecrementsBothCounters(t *testing.T) {
	inv := newInventory(10, 4)

	mv, err := inv.Commit(4, "order-1")
	require.NoError(t, err)

	assert.Equal(t, int32(6), inv.Quantity)
	assert.Equal(t, int32(0), inv.ReservedQuantity)
	assert.Equal(t, MovementStockOut, mv.Type)
	assert.Equal(t, int32(10), mv.PreviousQuantity)
	assert.Equal(t, int32(6), mv.NewQuantity)
}

func TestCommitWithoutReservationFails(t *testing.T) {
	inv := newInventory(10, 0)

	_, err := inv.Commit(1, "order-1")
	assert.True(t, apperr.IsKind(err, apperr.KindConflict))
}

func TestAdjustRecordsDelta(t *testing.T) {
	inv := newInventory(10, 0)

	mv, err := inv.Adjust(25, "restock")
	require.NoError(t, err)

	assert.Equal(t, int32(25), inv.Quantity)
	assert.Equal(t, MovementAdjustment, mv.Type)
	assert.Equal(t, int32(15), mv.Quantity)
	assert.Equal(t, "restock", mv.Reason)
}

func TestAdjustBelowReservedFails(t *testing.T) {
	inv := newInventory(10, 6)

	_, err := inv.Adjust(4, "shrinkage")
	assert.True(t, apperr.IsKind(err, apperr.KindConflict))
}

func TestLowAndOutOfStock(t *testing.T) {
	inv := newInventory(10, 6)
	assert.True(t, inv.IsLowStock())
	assert.False(t, inv.IsOutOfStock())

	inv.ReservedQuantity = 10
	assert.True(t, inv.IsOutOfStock())
}
