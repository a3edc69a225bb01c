package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	promoerrors "github.com/qhato/promoengine/pkg/errors"
)

func TestPercentageOffApply(t *testing.T) {
	d := PercentageOff(MustPercentage(0.2))
	final, err := d.Apply(NewMoney(100, "GBP"))
	require.NoError(t, err)
	assert.Equal(t, int64(80), final.Minor())
}

func TestAmountOffGoesNegativeFails(t *testing.T) {
	d := AmountOff(NewMoney(150, "GBP"))
	_, err := d.Apply(NewMoney(100, "GBP"))
	require.Error(t, err)
	assert.Equal(t, promoerrors.KindNegativeResult, promoerrors.KindOf(err))
}

func TestAmountOverrideMustNotExceedOriginal(t *testing.T) {
	d := AmountOverride(NewMoney(150, "GBP"))
	_, err := d.Apply(NewMoney(100, "GBP"))
	require.Error(t, err)
	assert.Equal(t, promoerrors.KindNegativeResult, promoerrors.KindOf(err))
}

func TestAmountOverrideToZero(t *testing.T) {
	d := AmountOverride(NewMoney(0, "GBP"))
	final, err := d.Apply(NewMoney(100, "GBP"))
	require.NoError(t, err)
	assert.True(t, final.IsZero())
}

func TestAmountOverrideCurrencyMismatch(t *testing.T) {
	d := AmountOverride(NewMoney(50, "USD"))
	_, err := d.Apply(NewMoney(100, "GBP"))
	require.Error(t, err)
	assert.Equal(t, promoerrors.KindCurrencyMismatch, promoerrors.KindOf(err))
}

func TestSavings(t *testing.T) {
	s, err := Savings(NewMoney(100, "GBP"), NewMoney(80, "GBP"))
	require.NoError(t, err)
	assert.Equal(t, int64(20), s.Minor())
}
