package money

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	ErrCurrencyMismatch = errors.New("currency mismatch")
	ErrNegativeAmount   = errors.New("amount must not be negative")
	ErrInvalidCurrency  = errors.New("currency must be a 3-letter ISO 4217 code")
)

// Money is an immutable amount in a single ISO 4217 currency.
// Arithmetic between two Money values requires equal currencies.
type Money struct {
	amount   decimal.Decimal
	currency string
}

func New(amount decimal.Decimal, currency string) (Money, error) {
	if len(currency) != 3 {
		return Money{}, ErrInvalidCurrency
	}
	if amount.IsNegative() {
		return Money{}, ErrNegativeAmount
	}

	return Money{amount: amount, currency: currency}, nil
}

func MustNew(amount string, currency string) Money {
	m, err := New(decimal.RequireFromString(amount), currency)
	if err != nil {
		panic(err)
	}
	return m
}

func Zero(currency string) Money {
	return Money{amount: decimal.Zero, currency: currency}
}

func (m Money) Amount() decimal.Decimal { return m.amount }
func (m Money) Currency() string        { return m.currency }
func (m Money) IsZero() bool            { return m.amount.IsZero() }

func (m Money) Add(other Money) (Money, error) {
	if m.currency != other.currency {
		return Money{}, fmt.Errorf("%w: %s vs %s", ErrCurrencyMismatch, m.currency, other.currency)
	}

	return Money{amount: m.amount.Add(other.amount), currency: m.currency}, nil
}

func (m Money) Sub(other Money) (Money, error) {
	if m.currency != other.currency {
		return Money{}, fmt.Errorf("%w: %s vs %s", ErrCurrencyMismatch, m.currency, other.currency)
	}

	return Money{amount: m.amount.Sub(other.amount), currency: m.currency}, nil
}

func (m Money) MulInt(n int64) Money {
	return Money{amount: m.amount.Mul(decimal.NewFromInt(n)), currency: m.currency}
}

// Cmp returns -1, 0 or 1. Comparing different currencies is an error.
func (m Money) Cmp(other Money) (int, error) {
	if m.currency != other.currency {
		return 0, fmt.Errorf("%w: %s vs %s", ErrCurrencyMismatch, m.currency, other.currency)
	}

	return m.amount.Cmp(other.amount), nil
}

func (m Money) String() string {
	return m.amount.StringFixed(2) + " " + m.currency
}
