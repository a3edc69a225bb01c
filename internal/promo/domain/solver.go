package domain

import (
	"context"
	"sort"

	promoerrors "github.com/qhato/promoengine/pkg/errors"
	"github.com/qhato/promoengine/pkg/metrics"
)

// bitset is a fixed-width set of item indices, sized to the basket
// the layer is solving over. It has no hard cap on item count; the
// backing slice grows with the basket rather than a fixed word width.
type bitset []uint64

func newBitset(size int) bitset {
	return make(bitset, (size+63)/64)
}

func (b bitset) set(i int) {
	b[i/64] |= 1 << uint(i%64)
}

func (b bitset) has(i int) bool {
	return b[i/64]&(1<<uint(i%64)) != 0
}

func (b bitset) intersects(other bitset) bool {
	for i := range b {
		if b[i]&other[i] != 0 {
			return true
		}
	}
	return false
}

func (b bitset) union(other bitset) bitset {
	out := make(bitset, len(b))
	for i := range b {
		out[i] = b[i] | other[i]
	}
	return out
}

// candidate is one admissible bundle formation for one promotion: the
// set of items it touches, their final prices once the promotion's
// discount is applied, and its total savings.
type candidate struct {
	promotionKey PromotionKey
	kind         PromotionKind
	itemIndices  []int
	finalPrices  []Money
	savingsMinor int64
	mask         bitset
}

// generateCandidates builds every admissible bundle for promotion
// over the free items in the layer. It returns an *Error of kind
// InvalidPromotion, naming the promotion, if applying its discount to
// a candidate bundle fails.
func generateCandidates(promotion Promotion, items []Item, free []int, basketSize int) ([]candidate, error) {
	switch p := promotion.(type) {
	case DirectDiscountPromotion:
		return generateDirectCandidates(p, items, free, basketSize)
	case PositionalDiscountPromotion:
		return generatePositionalCandidates(p, items, free, basketSize)
	case MixAndMatchDiscountPromotion:
		return generateMixAndMatchCandidates(p, items, free, basketSize)
	default:
		return nil, promoerrors.Internalf("unhandled promotion kind %v", promotion.Kind())
	}
}

func generateDirectCandidates(p DirectDiscountPromotion, items []Item, free []int, basketSize int) ([]candidate, error) {
	var out []candidate
	for _, idx := range free {
		it := items[idx]
		if !p.RequiredTags.IsSubsetOf(it.Tags) {
			continue
		}
		final, err := p.Discount.Apply(it.Price)
		if err != nil {
			return nil, promoerrors.InvalidPromotion(string(p.Key()), err)
		}
		savings, err := Savings(it.Price, final)
		if err != nil {
			return nil, promoerrors.InvalidPromotion(string(p.Key()), err)
		}
		if savings.IsZero() || savings.IsNegative() {
			continue
		}
		mask := newBitset(basketSize)
		mask.set(idx)
		out = append(out, candidate{
			promotionKey: p.Key(),
			kind:         PromotionDirect,
			itemIndices:  []int{idx},
			finalPrices:  []Money{final},
			savingsMinor: savings.Minor(),
			mask:         mask,
		})
	}
	return out, nil
}

// generatePositionalCandidates enumerates every size-Size combination
// of qualifying items as a candidate bundle, not just adjacent
// windows of the price-sorted list: Positions may name any subset of
// {1..Size}, so which items should pair together to maximize savings
// depends on the discounted positions, not just on proximity in
// overall price rank (e.g. positions=[1] pairs best as
// highest-with-lowest, not as adjacent-price pairs). Within one
// candidate bundle, ordinal position is still determined by sorting
// that bundle's own items by descending price, ties broken by
// ascending item_index, per PositionalDiscountPromotion's contract.
func generatePositionalCandidates(p PositionalDiscountPromotion, items []Item, free []int, basketSize int) ([]candidate, error) {
	var qualifying []int
	for _, idx := range free {
		if p.RequiredTags.IsSubsetOf(items[idx].Tags) {
			qualifying = append(qualifying, idx)
		}
	}

	n := len(qualifying)
	if n < p.Size {
		return nil, nil
	}

	var out []candidate
	err := forEachCombination(n, p.Size, func(combo []int) error {
		window := make([]int, p.Size)
		for i, ci := range combo {
			window[i] = qualifying[ci]
		}
		sort.Slice(window, func(a, b int) bool {
			pa, pb := items[window[a]].Price, items[window[b]].Price
			if pa.Minor() != pb.Minor() {
				return pa.Minor() > pb.Minor()
			}
			return window[a] < window[b]
		})

		finalPrices := make([]Money, p.Size)
		var savingsMinor int64
		for ord, idx := range window {
			price := items[idx].Price
			pos := ord + 1
			if p.DiscountsPosition(pos) {
				final, err := p.Discount.Apply(price)
				if err != nil {
					return promoerrors.InvalidPromotion(string(p.Key()), err)
				}
				savings, err := Savings(price, final)
				if err != nil {
					return promoerrors.InvalidPromotion(string(p.Key()), err)
				}
				finalPrices[ord] = final
				savingsMinor += savings.Minor()
			} else {
				finalPrices[ord] = price
			}
		}
		if savingsMinor <= 0 {
			return nil
		}

		mask := newBitset(basketSize)
		indices := make([]int, p.Size)
		copy(indices, window)
		for _, idx := range indices {
			mask.set(idx)
		}
		out = append(out, candidate{
			promotionKey: p.Key(),
			kind:         PromotionPositional,
			itemIndices:  indices,
			finalPrices:  finalPrices,
			savingsMinor: savingsMinor,
			mask:         mask,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// forEachCombination calls f once for every k-element combination of
// {0, ..., n-1}, in lexicographic order, stopping at the first error.
// The slice passed to f is reused between calls; f must not retain it.
func forEachCombination(n, k int, f func([]int) error) error {
	if k == 0 {
		return f(nil)
	}
	if k > n {
		return nil
	}
	combo := make([]int, k)
	for i := range combo {
		combo[i] = i
	}
	for {
		if err := f(combo); err != nil {
			return err
		}
		i := k - 1
		for i >= 0 && combo[i] == n-k+i {
			i--
		}
		if i < 0 {
			return nil
		}
		combo[i]++
		for j := i + 1; j < k; j++ {
			combo[j] = combo[j-1] + 1
		}
	}
}

func generateMixAndMatchCandidates(p MixAndMatchDiscountPromotion, items []Item, free []int, basketSize int) ([]candidate, error) {
	slotLists := make([][]int, len(p.Slots))
	for s, slot := range p.Slots {
		for _, idx := range free {
			if slot.RequiredTags.IsSubsetOf(items[idx].Tags) {
				slotLists[s] = append(slotLists[s], idx)
			}
		}
		if len(slotLists[s]) == 0 {
			return nil, nil
		}
	}

	var combos [][]int
	current := make([]int, len(slotLists))
	used := make(map[int]bool, len(slotLists))
	var recurse func(slot int)
	recurse = func(slot int) {
		if slot == len(slotLists) {
			combo := make([]int, len(current))
			copy(combo, current)
			combos = append(combos, combo)
			return
		}
		for _, idx := range slotLists[slot] {
			if used[idx] {
				continue
			}
			used[idx] = true
			current[slot] = idx
			recurse(slot + 1)
			used[idx] = false
		}
	}
	recurse(0)

	var out []candidate
	for _, combo := range combos {
		weights := make([]Money, len(combo))
		var bundleTotal Money
		for i, idx := range combo {
			weights[i] = items[idx].Price
			if i == 0 {
				bundleTotal = weights[0]
			} else {
				var err error
				bundleTotal, err = bundleTotal.Add(weights[i])
				if err != nil {
					return nil, promoerrors.InvalidPromotion(string(p.Key()), err)
				}
			}
		}

		var finalPrices []Money
		var totalSavingsMinor int64

		switch p.Kind_.Tag() {
		case PerSlotDiscount:
			finalPrices = make([]Money, len(combo))
			for i, idx := range combo {
				final, err := p.Kind_.perSlotDiscount[i].Apply(items[idx].Price)
				if err != nil {
					return nil, promoerrors.InvalidPromotion(string(p.Key()), err)
				}
				savings, err := Savings(items[idx].Price, final)
				if err != nil {
					return nil, promoerrors.InvalidPromotion(string(p.Key()), err)
				}
				finalPrices[i] = final
				totalSavingsMinor += savings.Minor()
			}

		case BundleTotalOverride:
			if p.Kind_.overrideAmount.Currency() != bundleTotal.Currency() {
				return nil, promoerrors.InvalidPromotion(string(p.Key()), promoerrors.New(promoerrors.KindCurrencyMismatch,
					"bundle_total_override currency does not match bundle currency"))
			}
			if p.Kind_.overrideAmount.Cmp(bundleTotal) > 0 {
				return nil, promoerrors.InvalidPromotion(string(p.Key()), promoerrors.Newf(promoerrors.KindNegativeResult,
					"bundle_total_override(%s) exceeds bundle total %s", p.Kind_.overrideAmount, bundleTotal))
			}
			savingsTotal, err := bundleTotal.Sub(p.Kind_.overrideAmount)
			if err != nil {
				return nil, promoerrors.InvalidPromotion(string(p.Key()), err)
			}
			savingsShares, err := distributeSavings(savingsTotal, weights)
			if err != nil {
				return nil, promoerrors.InvalidPromotion(string(p.Key()), err)
			}
			finalPrices = make([]Money, len(combo))
			for i := range combo {
				finalPrices[i], err = weights[i].Sub(savingsShares[i])
				if err != nil {
					return nil, promoerrors.InvalidPromotion(string(p.Key()), err)
				}
			}
			totalSavingsMinor = savingsTotal.Minor()

		case PercentOffBundleTotal:
			savingsTotal, err := bundleTotal.PercentageOf(p.Kind_.percentage)
			if err != nil {
				return nil, promoerrors.InvalidPromotion(string(p.Key()), err)
			}
			savingsShares, err := distributeSavings(savingsTotal, weights)
			if err != nil {
				return nil, promoerrors.InvalidPromotion(string(p.Key()), err)
			}
			finalPrices = make([]Money, len(combo))
			for i := range combo {
				finalPrices[i], err = weights[i].Sub(savingsShares[i])
				if err != nil {
					return nil, promoerrors.InvalidPromotion(string(p.Key()), err)
				}
			}
			totalSavingsMinor = savingsTotal.Minor()

		default:
			return nil, promoerrors.Internalf("unhandled mix_and_match kind %v", p.Kind_.Tag())
		}

		if totalSavingsMinor <= 0 {
			continue
		}

		mask := newBitset(basketSize)
		for _, idx := range combo {
			mask.set(idx)
		}
		indices := make([]int, len(combo))
		copy(indices, combo)
		out = append(out, candidate{
			promotionKey: p.Key(),
			kind:         PromotionMixAndMatch,
			itemIndices:  indices,
			finalPrices:  finalPrices,
			savingsMinor: totalSavingsMinor,
			mask:         mask,
		})
	}
	return out, nil
}

type promotionCounter struct {
	redemptions  uint32
	savingsMinor int64
}

// layerOutcome is the per-layer solver's result: the redemptions it
// produced, keyed by item index, and the indices of free items it
// left untouched.
type layerOutcome struct {
	redemptions map[int][]PromotionRedemption
	residual    []int
}

// solveLayer runs the per-layer solver over the free items,
// selecting a disjoint, budget-respecting set of candidate bundles
// that minimizes the sum of final item prices.
func solveLayer(ctx context.Context, items []Item, freeIndices []int, promotions []Promotion) (layerOutcome, error) {
	if len(freeIndices) == 0 || len(promotions) == 0 {
		return layerOutcome{redemptions: map[int][]PromotionRedemption{}, residual: freeIndices}, nil
	}

	basketSize := 0
	for _, idx := range freeIndices {
		if idx+1 > basketSize {
			basketSize = idx + 1
		}
	}

	budgets := make(map[PromotionKey]PromotionBudget, len(promotions))
	for _, p := range promotions {
		budgets[p.Key()] = budgetOf(p)
	}

	freeItems := make([]Item, len(freeIndices))
	for i, idx := range freeIndices {
		freeItems[i] = items[idx]
	}

	var candidates []candidate
	for _, p := range promotions {
		if !p.IsApplicable(mustItemGroup(freeItems)) {
			continue
		}
		cs, err := generateCandidates(p, items, freeIndices, basketSize)
		if err != nil {
			return layerOutcome{}, err
		}
		candidates = append(candidates, cs...)
	}
	if len(candidates) == 0 {
		return layerOutcome{redemptions: map[int][]PromotionRedemption{}, residual: freeIndices}, nil
	}

	sort.SliceStable(candidates, func(a, b int) bool {
		return candidates[a].savingsMinor > candidates[b].savingsMinor
	})

	suffixMax := make([]int64, len(candidates)+1)
	for i := len(candidates) - 1; i >= 0; i-- {
		suffixMax[i] = suffixMax[i+1] + candidates[i].savingsMinor
	}

	s := &searchState{
		candidates: candidates,
		budgets:    budgets,
		suffixMax:  suffixMax,
		ctx:        ctx,
	}
	counters := make(map[PromotionKey]*promotionCounter, len(promotions))
	for key := range budgets {
		counters[key] = &promotionCounter{}
	}
	s.counters = counters

	if err := s.search(0, newBitset(basketSize), nil, 0); err != nil {
		return layerOutcome{}, err
	}
	if s.best == nil {
		return layerOutcome{redemptions: map[int][]PromotionRedemption{}, residual: freeIndices}, nil
	}

	return assembleOutcome(items, freeIndices, candidates, s.best), nil
}

// budgetLimitLabel names which kind of limit a budget carries, for
// the BudgetExhausted metric label. It describes the budget's shape,
// not which comparison tripped; AllowsRedemption alone decides that.
func budgetLimitLabel(b PromotionBudget) string {
	switch {
	case b.RedemptionLimit != nil && b.MonetaryLimit != nil:
		return "redemption_and_monetary"
	case b.RedemptionLimit != nil:
		return "redemption_limit"
	case b.MonetaryLimit != nil:
		return "monetary_limit"
	default:
		return "none"
	}
}

func budgetOf(p Promotion) PromotionBudget {
	switch v := p.(type) {
	case DirectDiscountPromotion:
		return v.Budget
	case PositionalDiscountPromotion:
		return v.Budget
	case MixAndMatchDiscountPromotion:
		return v.Budget
	}
	return NoBudget()
}

// mustItemGroup adapts a raw item slice into an ItemGroup for
// IsApplicable checks without re-validating currency, which the
// caller already guaranteed when the basket-wide ItemGroup was built.
func mustItemGroup(items []Item) ItemGroup {
	return ItemGroup{items: items}
}

type searchState struct {
	candidates []candidate
	budgets    map[PromotionKey]PromotionBudget
	counters   map[PromotionKey]*promotionCounter
	suffixMax  []int64
	best       []int
	bestScore  int64
	ctx        context.Context
	steps      int
}

func (s *searchState) search(i int, used bitset, chosen []int, savings int64) error {
	s.steps++
	if s.steps%4096 == 0 && s.ctx != nil {
		if err := s.ctx.Err(); err != nil {
			return promoerrors.Timeout("solve deadline exceeded")
		}
	}

	if i == len(s.candidates) {
		s.consider(chosen, savings)
		return nil
	}

	// Prune: even taking every remaining candidate cannot beat the
	// best complete solution found so far. Strict inequality keeps
	// branches that could tie open, since ties are resolved by the
	// deterministic tie-break rule rather than discarded.
	if s.best != nil && savings+s.suffixMax[i] < s.bestScore {
		return nil
	}

	c := &s.candidates[i]
	if !used.intersects(c.mask) {
		counter := s.counters[c.promotionKey]
		budget := s.budgets[c.promotionKey]
		allowed := budget.AllowsRedemption(counter.redemptions, counter.savingsMinor, c.savingsMinor)
		if !allowed {
			metrics.Get().BudgetExhausted.WithLabelValues(string(c.promotionKey), budgetLimitLabel(budget)).Inc()
		}
		if allowed {
			counter.redemptions++
			counter.savingsMinor += c.savingsMinor
			if err := s.search(i+1, used.union(c.mask), append(chosen, i), savings+c.savingsMinor); err != nil {
				return err
			}
			counter.redemptions--
			counter.savingsMinor -= c.savingsMinor
		}
	}

	return s.search(i+1, used, chosen, savings)
}

func (s *searchState) consider(chosen []int, savings int64) {
	if s.best == nil || savings > s.bestScore || (savings == s.bestScore && s.betterTieBreak(chosen, s.best)) {
		s.best = append([]int(nil), chosen...)
		s.bestScore = savings
	}
}

// betterTieBreak reports whether candidate solution a should be
// preferred over b: fewer redemptions first, then a lexicographically
// smaller sorted sequence of (promotion_key, item_indices...) tuples.
func (s *searchState) betterTieBreak(a, b []int) bool {
	if len(a) != len(b) {
		return len(a) < len(b)
	}
	keysA := tieBreakKeys(s.candidates, a)
	keysB := tieBreakKeys(s.candidates, b)
	for i := range keysA {
		if cmp := compareTieKey(keysA[i], keysB[i]); cmp != 0 {
			return cmp < 0
		}
	}
	return false
}

type tieKey struct {
	promotionKey string
	indices      []int
}

func tieBreakKeys(candidates []candidate, chosen []int) []tieKey {
	keys := make([]tieKey, len(chosen))
	for i, ci := range chosen {
		c := candidates[ci]
		indices := make([]int, len(c.itemIndices))
		copy(indices, c.itemIndices)
		sort.Ints(indices)
		keys[i] = tieKey{promotionKey: string(c.promotionKey), indices: indices}
	}
	sort.Slice(keys, func(a, b int) bool {
		return compareTieKey(keys[a], keys[b]) < 0
	})
	return keys
}

func compareTieKey(a, b tieKey) int {
	if a.promotionKey != b.promotionKey {
		if a.promotionKey < b.promotionKey {
			return -1
		}
		return 1
	}
	for i := 0; i < len(a.indices) && i < len(b.indices); i++ {
		if a.indices[i] != b.indices[i] {
			if a.indices[i] < b.indices[i] {
				return -1
			}
			return 1
		}
	}
	return len(a.indices) - len(b.indices)
}

func assembleOutcome(items []Item, freeIndices []int, candidates []candidate, chosen []int) layerOutcome {
	touched := make(map[int]bool, len(freeIndices))
	redemptions := make(map[int][]PromotionRedemption)

	byPromotion := make(map[PromotionKey][]int)
	for _, ci := range chosen {
		c := candidates[ci]
		if c.kind == PromotionDirect {
			continue
		}
		byPromotion[c.promotionKey] = append(byPromotion[c.promotionKey], ci)
	}
	for key, idxs := range byPromotion {
		sort.Slice(idxs, func(a, b int) bool {
			return minIndex(candidates[idxs[a]].itemIndices) < minIndex(candidates[idxs[b]].itemIndices)
		})
		byPromotion[key] = idxs
	}
	bundleIdx := make(map[int]int, len(chosen))
	for _, idxs := range byPromotion {
		for n, ci := range idxs {
			bundleIdx[ci] = n
		}
	}

	for _, ci := range chosen {
		c := candidates[ci]
		redemptionIdx := 0
		if c.kind != PromotionDirect {
			redemptionIdx = bundleIdx[ci]
		}
		for i, itemIdx := range c.itemIndices {
			touched[itemIdx] = true
			redemptions[itemIdx] = append(redemptions[itemIdx], PromotionRedemption{
				PromotionKey:  c.promotionKey,
				ItemIndex:     itemIdx,
				RedemptionIdx: redemptionIdx,
				OriginalPrice: items[itemIdx].Price,
				FinalPrice:    c.finalPrices[i],
			})
		}
	}

	var residual []int
	for _, idx := range freeIndices {
		if !touched[idx] {
			residual = append(residual, idx)
		}
	}

	return layerOutcome{redemptions: redemptions, residual: residual}
}

func minIndex(indices []int) int {
	min := indices[0]
	for _, v := range indices[1:] {
		if v < min {
			min = v
		}
	}
	return min
}
