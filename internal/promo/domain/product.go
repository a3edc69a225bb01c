package domain

import (
	promoerrors "github.com/qhato/promoengine/pkg/errors"
)

// ProductKey opaquely identifies a product within a catalog. Callers
// supply their own stable identifier (a SKU, a UUID string); the
// engine never generates one on a product's behalf.
type ProductKey string

// Product is the catalog-level description of something that can
// appear in a basket: its base unit price and the tags promotions
// match against. Product is distinct from Item: a Product describes
// a SKU, an Item describes one basket line referencing that SKU.
type Product struct {
	Key         ProductKey
	Name        string
	UnitPrice   Money
	Tags        TagCollection
}

// NewProduct constructs a Product, rejecting a negative unit price.
func NewProduct(key ProductKey, name string, unitPrice Money, tags TagCollection) (Product, error) {
	if unitPrice.IsNegative() {
		return Product{}, promoerrors.Newf(promoerrors.KindConfiguration,
			"product %s has negative unit price %s", key, unitPrice)
	}
	return Product{Key: key, Name: name, UnitPrice: unitPrice, Tags: tags}, nil
}

// ProductCatalog resolves ProductKeys to Products: a lookup table so
// that items can be constructed by reference to a catalog entry, the
// way a caller backed by a real product database would build a
// basket.
type ProductCatalog struct {
	products map[ProductKey]Product
}

// NewProductCatalog builds an empty catalog.
func NewProductCatalog() *ProductCatalog {
	return &ProductCatalog{products: make(map[ProductKey]Product)}
}

// Put inserts or replaces a catalog entry.
func (c *ProductCatalog) Put(p Product) {
	c.products[p.Key] = p
}

// Get looks up a product by key.
func (c *ProductCatalog) Get(key ProductKey) (Product, bool) {
	p, ok := c.products[key]
	return p, ok
}

// MustGet looks up a product by key, returning a KindConfiguration
// error naming the missing key rather than a bool, for call sites
// that treat a missing product as a construction failure.
func (c *ProductCatalog) MustGet(key ProductKey) (Product, error) {
	p, ok := c.products[key]
	if !ok {
		return Product{}, promoerrors.Newf(promoerrors.KindConfiguration, "unknown product key %q", key)
	}
	return p, nil
}

// Len returns the number of products in the catalog.
func (c *ProductCatalog) Len() int {
	return len(c.products)
}
