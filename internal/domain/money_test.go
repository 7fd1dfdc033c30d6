package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMoney_ToDecimal(t *testing.T) {
	m := NewMoney(10_50, "USD") // 10.50 USD
	d := m.ToDecimal()
	assert.Equal(t, "10.5", d.String())
}

func TestMoney_String(t *testing.T) {
	m := NewMoney(250_00, "USD")
	assert.Equal(t, "250.00 USD", m.String())
}

func TestCentsFromDecimal(t *testing.T) {
	cents, err := CentsFromDecimal(decimal.RequireFromString("10.50"))
	require.NoError(t, err)
	assert.Equal(t, int64(10_50), cents)
}

func TestCentsFromDecimal_Zero(t *testing.T) {
	_, err := CentsFromDecimal(decimal.Zero)
	assert.ErrorIs(t, err, ErrAmountNotPositive)
}

func TestCentsFromDecimal_Negative(t *testing.T) {
	_, err := CentsFromDecimal(decimal.RequireFromString("-5"))
	assert.ErrorIs(t, err, ErrAmountNotPositive)
}

func TestCentsFromDecimal_SubCent(t *testing.T) {
	_, err := CentsFromDecimal(decimal.RequireFromString("0.005"))
	assert.ErrorIs(t, err, ErrAmountSubCent)
}

func TestCentsFromDecimal_Maximum(t *testing.T) {
	// Exactly 1,000,000.00 is allowed; one cent more is not.
	cents, err := CentsFromDecimal(decimal.RequireFromString("1000000"))
	require.NoError(t, err)
	assert.Equal(t, MaxTransferCents, cents)

	_, err = CentsFromDecimal(decimal.RequireFromString("1000000.01"))
	assert.ErrorIs(t, err, ErrAmountTooLarge)
}
