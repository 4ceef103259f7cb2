package money

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_RejectsNegativeAmount(t *testing.T) {
	_, err := New(decimal.NewFromInt(-1), "USD")
	require.ErrorIs(t, err, ErrNegativeAmount)
}

func TestNew_RejectsBadCurrency(t *testing.T) {
	_, err := New(decimal.NewFromInt(10), "US")
	require.ErrorIs(t, err, ErrInvalidCurrency)
}

func TestAdd_SameCurrency(t *testing.T) {
	a := MustNew("10.50", "USD")
	b := MustNew("4.25", "USD")

	sum, err := a.Add(b)
	require.NoError(t, err)
	assert.Equal(t, "14.75 USD", sum.String())
}

func TestAdd_CurrencyMismatch(t *testing.T) {
	a := MustNew("10.50", "USD")
	b := MustNew("4.25", "EUR")

	_, err := a.Add(b)
	require.ErrorIs(t, err, ErrCurrencyMismatch)
}

func TestMulInt(t *testing.T) {
	unit := MustNew("19.99", "USD")

	total := unit.MulInt(3)
	assert.Equal(t, "59.97 USD", total.String())
}

func TestCmp(t *testing.T) {
	a := MustNew("5.00", "USD")
	b := MustNew("7.00", "USD")

	cmp, err := a.Cmp(b)
	require.NoError(t, err)
	assert.Equal(t, -1, cmp)

	_, err = a.Cmp(MustNew("7.00", "EUR"))
	require.ErrorIs(t, err, ErrCurrencyMismatch)
}

func TestZero(t *testing.T) {
	z := Zero("USD")
	assert.True(t, z.IsZero())

	sum, err := z.Add(MustNew("1.00", "USD"))
	require.NoError(t, err)
	assert.Equal(t, "1.00 USD", sum.String())
}
