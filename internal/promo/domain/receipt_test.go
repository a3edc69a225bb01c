package domain

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReceiptRoundTripsSubtotalMinusTotal(t *testing.T) {
	reg := NewPromotionRegistry()
	promo := registerDirect(t, reg, "a-off", NewTagCollection("a"), PercentageOff(MustPercentage(0.2)), NoBudget())

	b := NewGraphBuilder()
	require.NoError(t, b.AddLayer(NewLayer("l1", []Promotion{promo}, PassThrough)))
	require.NoError(t, b.SetRoot("l1"))
	g, err := b.Build()
	require.NoError(t, err)

	catalog := NewProductCatalog()
	catalog.Put(Product{Key: "p1", Name: "Widget", UnitPrice: NewMoney(100, "GBP"), Tags: NewTagCollection("a")})
	catalog.Put(Product{Key: "p2", Name: "Gadget", UnitPrice: NewMoney(100, "GBP"), Tags: NewTagCollection("a")})
	catalog.Put(Product{Key: "p3", Name: "Gizmo", UnitPrice: NewMoney(100, "GBP"), Tags: NewTagCollection("b")})

	p1, _ := catalog.Get("p1")
	p2, _ := catalog.Get("p2")
	p3, _ := catalog.Get("p3")
	items := mustGroup(t, "GBP", []Item{
		NewItemFromProduct(p1),
		NewItemFromProduct(p2),
		NewItemFromProduct(p3),
	})

	result, err := Solve(context.Background(), g, items, SolveOptions{})
	require.NoError(t, err)

	receipt, err := BuildReceipt(items, result, catalog, reg)
	require.NoError(t, err)

	var savings int64
	for _, line := range receipt.PromotionRedemptions {
		for _, it := range line.Items {
			s, err := Savings(it.OriginalPrice, it.FinalPrice)
			require.NoError(t, err)
			savings += s.Minor()
		}
	}

	diff, err := receipt.Subtotal.Sub(receipt.Total)
	require.NoError(t, err)
	assert.Equal(t, savings, diff.Minor())

	assert.Len(t, receipt.PromotionRedemptions, 1)
	assert.Equal(t, "a-off", receipt.PromotionRedemptions[0].PromotionName)
	assert.Len(t, receipt.FullPriceItems, 1)
	assert.Equal(t, "Gizmo", receipt.FullPriceItems[0].ProductName)
}
