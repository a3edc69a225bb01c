package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBudgetRedemptionLimit(t *testing.T) {
	b := NoBudget().WithRedemptionLimit(2)

	assert.True(t, b.AllowsRedemption(1, 0, 10))
	assert.False(t, b.AllowsRedemption(2, 0, 10))
}

func TestBudgetMonetaryLimit(t *testing.T) {
	b := NoBudget().WithMonetaryLimit(NewMoney(100, "GBP"))

	assert.True(t, b.AllowsRedemption(0, 80, 15))
	assert.False(t, b.AllowsRedemption(0, 80, 30))
}

func TestNoBudgetAllowsEverything(t *testing.T) {
	b := NoBudget()
	assert.True(t, b.AllowsRedemption(1000, 1_000_000, 1_000_000))
}
