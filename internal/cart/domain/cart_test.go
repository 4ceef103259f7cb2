package domain

import (
	"testing"

	"github.com/Hasin-ai/E-commerce-sub001/internal/apperr"
	"github.com/Hasin-ai/E-commerce-sub001/pkg/money"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddItem_AppendsAndRecomputesTotal(t *testing.T) {
	cart := NewCart(1, "USD")

	require.NoError(t, cart.AddItem(10, "SKU-KB", "Keyboard", money.MustNew("49.99", "USD"), 2))
	require.NoError(t, cart.AddItem(11, "SKU-MS", "Mouse", money.MustNew("19.99", "USD"), 1))

	assert.Len(t, cart.Items, 2)
	assert.Equal(t, "119.97 USD", cart.TotalAmount.String())
}

func TestAddItem_MergesSameProduct(t *testing.T) {
	cart := NewCart(1, "USD")

	require.NoError(t, cart.AddItem(10, "SKU-KB", "Keyboard", money.MustNew("49.99", "USD"), 2))
	require.NoError(t, cart.AddItem(10, "SKU-KB", "Keyboard", money.MustNew("49.99", "USD"), 3))

	require.Len(t, cart.Items, 1)
	assert.Equal(t, int32(5), cart.Items[0].Quantity)
	assert.Equal(t, "249.95 USD", cart.TotalAmount.String())
}

func TestAddItem_RejectsCurrencyMismatch(t *testing.T) {
	cart := NewCart(1, "USD")

	err := cart.AddItem(10, "SKU-KB", "Keyboard", money.MustNew("49.99", "EUR"), 1)
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
}

func TestUpdateItemQuantity(t *testing.T) {
	cart := NewCart(1, "USD")
	require.NoError(t, cart.AddItem(10, "SKU-KB", "Keyboard", money.MustNew("10.00", "USD"), 2))

	require.NoError(t, cart.UpdateItemQuantity(10, 7))
	assert.Equal(t, "70.00 USD", cart.TotalAmount.String())
}

func TestUpdateItemQuantity_AbsentProduct(t *testing.T) {
	cart := NewCart(1, "USD")

	err := cart.UpdateItemQuantity(99, 1)
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
}

func TestUpdateItemQuantity_Bounds(t *testing.T) {
	cart := NewCart(1, "USD")
	require.NoError(t, cart.AddItem(10, "SKU-KB", "Keyboard", money.MustNew("10.00", "USD"), 2))

	for _, quantity := range []int32{0, -1, MaxItemQuantity + 1} {
		err := cart.UpdateItemQuantity(10, quantity)
		require.Error(t, err)
		assert.True(t, apperr.IsKind(err, apperr.KindValidation))
	}
}

func TestRemoveItem_IsIdempotent(t *testing.T) {
	cart := NewCart(1, "USD")
	require.NoError(t, cart.AddItem(10, "SKU-KB", "Keyboard", money.MustNew("10.00", "USD"), 2))

	require.NoError(t, cart.RemoveItem(10))
	require.NoError(t, cart.RemoveItem(10))

	assert.True(t, cart.IsEmpty())
	assert.True(t, cart.TotalAmount.IsZero())
}

func TestClear(t *testing.T) {
	cart := NewCart(1, "USD")
	require.NoError(t, cart.AddItem(10, "SKU-KB", "Keyboard", money.MustNew("10.00", "USD"), 2))

	cart.Clear()

	assert.True(t, cart.IsEmpty())
	assert.True(t, cart.TotalAmount.IsZero())
	assert.Equal(t, "USD", cart.Currency)
}
