package domain

import (
	promoerrors "github.com/qhato/promoengine/pkg/errors"
)

// DiscountKind identifies which Discount variant a value holds.
type DiscountKind int

const (
	// DiscountPercentageOff subtracts a percentage of the item price.
	DiscountPercentageOff DiscountKind = iota
	// DiscountAmountOff subtracts a fixed amount.
	DiscountAmountOff
	// DiscountAmountOverride replaces the price outright.
	DiscountAmountOverride
)

func (k DiscountKind) String() string {
	switch k {
	case DiscountPercentageOff:
		return "percentage_off"
	case DiscountAmountOff:
		return "amount_off"
	case DiscountAmountOverride:
		return "amount_override"
	default:
		return "unknown"
	}
}

// Discount is a closed sum type: exactly one of the three variants
// below. It is constructed only through the package-level
// constructors so that Apply can exhaustively switch on Kind without
// a default case hiding an unhandled variant.
type Discount struct {
	kind       DiscountKind
	percentage Percentage
	amount     Money
}

// PercentageOff builds a Discount that subtracts pct of the item's
// price.
func PercentageOff(pct Percentage) Discount {
	return Discount{kind: DiscountPercentageOff, percentage: pct}
}

// AmountOff builds a Discount that subtracts a fixed amount.
func AmountOff(amount Money) Discount {
	return Discount{kind: DiscountAmountOff, amount: amount}
}

// AmountOverride builds a Discount that replaces the item's price.
func AmountOverride(amount Money) Discount {
	return Discount{kind: DiscountAmountOverride, amount: amount}
}

// Kind reports which variant d holds.
func (d Discount) Kind() DiscountKind {
	return d.kind
}

// Apply computes the new price for price after this discount. It
// never mutates the caller's Money value; the engine pairs each item
// with its per-layer discounted price separately.
func (d Discount) Apply(price Money) (Money, error) {
	switch d.kind {
	case DiscountPercentageOff:
		off, err := price.PercentageOf(d.percentage)
		if err != nil {
			return Money{}, err
		}
		result, err := price.Sub(off)
		if err != nil {
			return Money{}, err
		}
		if result.IsNegative() {
			return Money{}, promoerrors.Newf(promoerrors.KindNegativeResult,
				"percentage_off(%s) on %s would go negative", d.percentage, price)
		}
		return result, nil

	case DiscountAmountOff:
		result, err := price.Sub(d.amount)
		if err != nil {
			return Money{}, err
		}
		if result.IsNegative() {
			return Money{}, promoerrors.Newf(promoerrors.KindNegativeResult,
				"amount_off(%s) on %s would go negative", d.amount, price)
		}
		return result, nil

	case DiscountAmountOverride:
		if d.amount.Currency() != price.Currency() {
			return Money{}, promoerrors.Newf(promoerrors.KindCurrencyMismatch,
				"amount_override currency %s does not match item currency %s", d.amount.Currency(), price.Currency())
		}
		if d.amount.Cmp(price) > 0 {
			return Money{}, promoerrors.Newf(promoerrors.KindNegativeResult,
				"amount_override(%s) exceeds original price %s", d.amount, price)
		}
		return d.amount, nil

	default:
		return Money{}, promoerrors.Internalf("unhandled discount kind %v", d.kind)
	}
}

// Savings returns original.Sub(final) as the amount a redemption
// saved, used for monetary-budget accounting and receipt totals.
func Savings(original, final Money) (Money, error) {
	return original.Sub(final)
}
