package domain

// PromotionBudget caps how much a single promotion may redeem within
// one layer invocation. Both limits are optional; a nil pointer means
// unbounded. A redemption is one bundle formation for
// positional/mix-and-match promotions, or one item for direct
// promotions.
type PromotionBudget struct {
	RedemptionLimit *uint32
	MonetaryLimit   *Money
}

// NoBudget returns a PromotionBudget with no limits.
func NoBudget() PromotionBudget {
	return PromotionBudget{}
}

// WithRedemptionLimit returns a copy of b with RedemptionLimit set.
func (b PromotionBudget) WithRedemptionLimit(limit uint32) PromotionBudget {
	b.RedemptionLimit = &limit
	return b
}

// WithMonetaryLimit returns a copy of b with MonetaryLimit set.
func (b PromotionBudget) WithMonetaryLimit(limit Money) PromotionBudget {
	b.MonetaryLimit = &limit
	return b
}

// AllowsRedemption reports whether forming one more redemption, given
// redemptionsSoFar prior redemptions and savingsSoFarMinor prior
// cumulative savings in minor units, is admissible under both limits
// once additionalSavingsMinor is added. Amounts are minor units in
// the basket's currency, the same currency MonetaryLimit was
// constructed in; the solver never mixes currencies within one
// basket, so this is the one place budget admissibility is decided,
// for both the hot search loop and any other caller.
func (b PromotionBudget) AllowsRedemption(redemptionsSoFar uint32, savingsSoFarMinor int64, additionalSavingsMinor int64) bool {
	if b.RedemptionLimit != nil && redemptionsSoFar+1 > *b.RedemptionLimit {
		return false
	}
	if b.MonetaryLimit != nil && savingsSoFarMinor+additionalSavingsMinor > b.MonetaryLimit.Minor() {
		return false
	}
	return true
}
