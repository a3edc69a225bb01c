package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustGroup(t *testing.T, currency Currency, items []Item) ItemGroup {
	t.Helper()
	g, err := NewItemGroup(currency, items)
	require.NoError(t, err)
	return g
}

func TestDirectDiscountIsApplicable(t *testing.T) {
	promo := NewDirectDiscount(NewPromotionKey(), NewTagCollection("a"), PercentageOff(MustPercentage(0.1)), NoBudget())

	items := mustGroup(t, "GBP", []Item{
		{ProductKey: "p1", Price: NewMoney(100, "GBP"), Tags: NewTagCollection("b")},
	})
	assert.False(t, promo.IsApplicable(items))

	items2 := mustGroup(t, "GBP", []Item{
		{ProductKey: "p1", Price: NewMoney(100, "GBP"), Tags: NewTagCollection("a", "b")},
	})
	assert.True(t, promo.IsApplicable(items2))
}

func TestPositionalDiscountRejectsBadSize(t *testing.T) {
	_, err := NewPositionalDiscount(NewPromotionKey(), NewTagCollection("a"), 0, []int{1}, AmountOff(NewMoney(0, "GBP")), NoBudget())
	require.Error(t, err)
}

func TestPositionalDiscountRejectsOutOfRangePosition(t *testing.T) {
	_, err := NewPositionalDiscount(NewPromotionKey(), NewTagCollection("a"), 3, []int{4}, AmountOff(NewMoney(0, "GBP")), NoBudget())
	require.Error(t, err)
}

func TestPositionalDiscountRejectsDuplicatePosition(t *testing.T) {
	_, err := NewPositionalDiscount(NewPromotionKey(), NewTagCollection("a"), 3, []int{1, 1}, AmountOff(NewMoney(0, "GBP")), NoBudget())
	require.Error(t, err)
}

func TestPositionalDiscountIsApplicableRequiresEnoughItems(t *testing.T) {
	promo, err := NewPositionalDiscount(NewPromotionKey(), NewTagCollection("x"), 3, []int{3}, AmountOverride(NewMoney(0, "GBP")), NoBudget())
	require.NoError(t, err)

	items := mustGroup(t, "GBP", []Item{
		{ProductKey: "p1", Price: NewMoney(300, "GBP"), Tags: NewTagCollection("x")},
		{ProductKey: "p2", Price: NewMoney(200, "GBP"), Tags: NewTagCollection("x")},
	})
	assert.False(t, promo.IsApplicable(items))

	items = mustGroup(t, "GBP", append(items.Items(), Item{
		ProductKey: "p3", Price: NewMoney(100, "GBP"), Tags: NewTagCollection("x"),
	}))
	assert.True(t, promo.IsApplicable(items))
}

func TestMixAndMatchRequiresEverySlotFilled(t *testing.T) {
	promo, err := NewMixAndMatchDiscount(NewPromotionKey(), []Slot{
		{RequiredTags: NewTagCollection("bread")},
		{RequiredTags: NewTagCollection("cheese")},
	}, NewBundleTotalOverride(NewMoney(500, "GBP")), NoBudget())
	require.NoError(t, err)

	items := mustGroup(t, "GBP", []Item{
		{ProductKey: "p1", Price: NewMoney(300, "GBP"), Tags: NewTagCollection("bread")},
	})
	assert.False(t, promo.IsApplicable(items))

	items = mustGroup(t, "GBP", append(items.Items(), Item{
		ProductKey: "p2", Price: NewMoney(400, "GBP"), Tags: NewTagCollection("cheese"),
	}))
	assert.True(t, promo.IsApplicable(items))
}

func TestMixAndMatchPerSlotDiscountSizeValidation(t *testing.T) {
	_, err := NewMixAndMatchDiscount(NewPromotionKey(), []Slot{
		{RequiredTags: NewTagCollection("a")},
		{RequiredTags: NewTagCollection("b")},
	}, NewPerSlotDiscount([]Discount{PercentageOff(MustPercentage(0.1))}), NoBudget())
	require.Error(t, err)
}

func TestPromotionRegistryRoundTrip(t *testing.T) {
	reg := NewPromotionRegistry()
	p, err := reg.Register("spring sale", func(key PromotionKey) (Promotion, error) {
		return NewDirectDiscount(key, NewTagCollection("sale"), PercentageOff(MustPercentage(0.1)), NoBudget()), nil
	})
	require.NoError(t, err)

	got, ok := reg.Get(p.Key())
	require.True(t, ok)
	assert.Equal(t, p.Key(), got.Key())

	meta, ok := reg.Meta(p.Key())
	require.True(t, ok)
	assert.Equal(t, "spring sale", meta.Name)
	assert.Len(t, reg.All(), 1)
}
