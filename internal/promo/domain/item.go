package domain

import (
	promoerrors "github.com/qhato/promoengine/pkg/errors"
)

// Item is one basket line: a reference to a product, a price (which
// may differ from the product's base price via a line-item override)
// and a tag set seeded from the product but free to be augmented
// before a solve.
type Item struct {
	ProductKey ProductKey
	Price      Money
	Tags       TagCollection
}

// NewItemFromProduct builds an Item from a catalog Product, seeding
// its tags and price from the product and letting the caller override
// either afterward.
func NewItemFromProduct(p Product) Item {
	return Item{ProductKey: p.Key, Price: p.UnitPrice, Tags: p.Tags}
}

// ItemGroup is the ordered basket submitted to a solve. Position
// within the group is the item_index the rest of the domain refers
// to; it matters only for deterministic tie-breaking, never for
// qualification.
type ItemGroup struct {
	items    []Item
	currency Currency
}

// NewItemGroup builds an ItemGroup, validating that every item shares
// the group's currency.
func NewItemGroup(currency Currency, items []Item) (ItemGroup, error) {
	for i, it := range items {
		if it.Price.Currency() != currency {
			return ItemGroup{}, promoerrors.Newf(promoerrors.KindCurrencyMismatch,
				"item %d has currency %s, group currency is %s", i, it.Price.Currency(), currency)
		}
	}
	out := make([]Item, len(items))
	copy(out, items)
	return ItemGroup{items: out, currency: currency}, nil
}

// Currency returns the group's shared currency.
func (g ItemGroup) Currency() Currency {
	return g.currency
}

// Len returns the number of items in the group.
func (g ItemGroup) Len() int {
	return len(g.items)
}

// At returns the item at the given index.
func (g ItemGroup) At(index int) Item {
	return g.items[index]
}

// Items returns the group's items in basket order. The returned slice
// is a copy; mutating it does not affect the group.
func (g ItemGroup) Items() []Item {
	out := make([]Item, len(g.items))
	copy(out, g.items)
	return out
}

// Subtotal returns the sum of every item's price, regardless of any
// later discounting.
func (g ItemGroup) Subtotal() (Money, error) {
	total := Zero(g.currency)
	var err error
	for _, it := range g.items {
		total, err = total.Add(it.Price)
		if err != nil {
			return Money{}, err
		}
	}
	return total, nil
}
