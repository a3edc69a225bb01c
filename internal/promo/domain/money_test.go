package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	promoerrors "github.com/qhato/promoengine/pkg/errors"
)

func TestMoneyAddSub(t *testing.T) {
	a := NewMoney(1000, "GBP")
	b := NewMoney(250, "GBP")

	sum, err := a.Add(b)
	require.NoError(t, err)
	assert.Equal(t, int64(1250), sum.Minor())

	diff, err := a.Sub(b)
	require.NoError(t, err)
	assert.Equal(t, int64(750), diff.Minor())
}

func TestMoneyCurrencyMismatch(t *testing.T) {
	a := NewMoney(1000, "GBP")
	b := NewMoney(250, "USD")

	_, err := a.Add(b)
	require.Error(t, err)
	assert.Equal(t, promoerrors.KindCurrencyMismatch, promoerrors.KindOf(err))
}

func TestMoneyPercentageOfRoundsHalfToEven(t *testing.T) {
	price := NewMoney(5, "GBP") // 5 pence
	pct := MustPercentage(0.5) // 50% of 5 = 2.5 -> rounds to 2 (even)

	off, err := price.PercentageOf(pct)
	require.NoError(t, err)
	assert.Equal(t, int64(2), off.Minor())

	price2 := NewMoney(7, "GBP")
	off2, err := price2.PercentageOf(pct) // 50% of 7 = 3.5 -> rounds to 4 (even)
	require.NoError(t, err)
	assert.Equal(t, int64(4), off2.Minor())
}

func TestMoneyMulMinorOverflow(t *testing.T) {
	a := NewMoney(1<<62, "GBP")
	_, err := a.MulMinor(4)
	require.Error(t, err)
	assert.Equal(t, promoerrors.KindOverflow, promoerrors.KindOf(err))
}

func TestMoneyCmp(t *testing.T) {
	a := NewMoney(100, "GBP")
	b := NewMoney(200, "GBP")
	assert.Equal(t, -1, a.Cmp(b))
	assert.Equal(t, 1, b.Cmp(a))
	assert.Equal(t, 0, a.Cmp(a))
}

func TestMoneyFloor(t *testing.T) {
	neg := NewMoney(-50, "GBP")
	assert.True(t, neg.Floor().IsZero())

	pos := NewMoney(50, "GBP")
	assert.Equal(t, int64(50), pos.Floor().Minor())
}

func TestPercentageRejectsOutOfRange(t *testing.T) {
	_, err := PercentageFromBasisPoints(-1)
	require.Error(t, err)

	_, err = PercentageFromBasisPoints(10001)
	require.Error(t, err)
}
