package domain

import "sort"

// ReceiptItemLine is one item's contribution to a receipt line.
type ReceiptItemLine struct {
	ItemIndex     int
	ProductKey    ProductKey
	ProductName   string
	OriginalPrice Money
	FinalPrice    Money
}

// ReceiptLine groups the redemptions formed by one bundle (one
// promotion, one redemption_idx) for display.
type ReceiptLine struct {
	PromotionKey  PromotionKey
	PromotionName string
	BundleIdx     int
	Items         []ReceiptItemLine
}

// FullPriceLine is one item that left the graph without any
// redemption.
type FullPriceLine struct {
	ItemIndex   int
	ProductKey  ProductKey
	ProductName string
	Price       Money
}

// Receipt is the terminal, display-ready transformation of a
// LayeredSolverResult.
type Receipt struct {
	Subtotal             Money
	Total                Money
	PromotionRedemptions []ReceiptLine
	FullPriceItems       []FullPriceLine
}

// BuildReceipt turns a solve's result into a Receipt. catalog and
// promotions resolve ProductKey and PromotionKey to display names;
// either may be nil, in which case names are left empty.
func BuildReceipt(items ItemGroup, result LayeredSolverResult, catalog *ProductCatalog, promotions *PromotionRegistry) (Receipt, error) {
	subtotal, err := items.Subtotal()
	if err != nil {
		return Receipt{}, err
	}

	type groupKey struct {
		promotion PromotionKey
		bundle    int
	}
	groups := make(map[groupKey][]ReceiptItemLine)
	groupFirstIndex := make(map[groupKey]int)

	for _, idx := range result.SortedItemIndices() {
		for _, r := range result.ItemRedemptions[idx] {
			key := groupKey{promotion: r.PromotionKey, bundle: r.RedemptionIdx}
			line := ReceiptItemLine{
				ItemIndex:     idx,
				ProductKey:    items.At(idx).ProductKey,
				OriginalPrice: r.OriginalPrice,
				FinalPrice:    r.FinalPrice,
			}
			if catalog != nil {
				if p, ok := catalog.Get(line.ProductKey); ok {
					line.ProductName = p.Name
				}
			}
			groups[key] = append(groups[key], line)
			if first, ok := groupFirstIndex[key]; !ok || idx < first {
				groupFirstIndex[key] = idx
			}
		}
	}

	keys := make([]groupKey, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(a, b int) bool {
		if groupFirstIndex[keys[a]] != groupFirstIndex[keys[b]] {
			return groupFirstIndex[keys[a]] < groupFirstIndex[keys[b]]
		}
		return lessByDefinitionOrder(promotions, keys[a].promotion, keys[b].promotion)
	})

	lines := make([]ReceiptLine, 0, len(keys))
	for _, k := range keys {
		name := ""
		if promotions != nil {
			if meta, ok := promotions.Meta(k.promotion); ok {
				name = meta.Name
			}
		}
		lines = append(lines, ReceiptLine{
			PromotionKey:  k.promotion,
			PromotionName: name,
			BundleIdx:     k.bundle,
			Items:         groups[k],
		})
	}

	var fullPrice []FullPriceLine
	for idx := range result.FullPriceItems {
		it := items.At(idx)
		line := FullPriceLine{ItemIndex: idx, ProductKey: it.ProductKey, Price: it.Price}
		if catalog != nil {
			if p, ok := catalog.Get(it.ProductKey); ok {
				line.ProductName = p.Name
			}
		}
		fullPrice = append(fullPrice, line)
	}
	sort.Slice(fullPrice, func(a, b int) bool { return fullPrice[a].ItemIndex < fullPrice[b].ItemIndex })

	return Receipt{
		Subtotal:             subtotal,
		Total:                result.Total,
		PromotionRedemptions: lines,
		FullPriceItems:       fullPrice,
	}, nil
}

// lessByDefinitionOrder breaks a tie between two bundles that start
// at the same item index by promotion definition order, i.e. the
// order promotions were registered in. Without a registry to consult
// it falls back to comparing the opaque keys directly, which is
// deterministic within a single build but carries no display meaning.
func lessByDefinitionOrder(promotions *PromotionRegistry, a, b PromotionKey) bool {
	if promotions != nil {
		ai, aok := promotions.DefinitionOrder(a)
		bi, bok := promotions.DefinitionOrder(b)
		if aok && bok {
			return ai < bi
		}
	}
	return a < b
}
