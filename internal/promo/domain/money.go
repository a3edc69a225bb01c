package domain

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	promoerrors "github.com/qhato/promoengine/pkg/errors"
)

// Currency is an ISO 4217 currency code, e.g. "USD" or "JPY".
type Currency string

// Money is an exact amount in a single currency, held as an integer
// count of minor units (cents for USD, yen for JPY). All arithmetic
// stays in integer minor units except for percentage discounts, which
// round to the nearest minor unit using banker's rounding (round
// half to even) so that repeated discounting does not drift.
type Money struct {
	minor    int64
	currency Currency
}

// NewMoney constructs a Money value from a minor-unit integer amount.
func NewMoney(minor int64, currency Currency) Money {
	return Money{minor: minor, currency: currency}
}

// Zero returns the zero amount in the given currency.
func Zero(currency Currency) Money {
	return Money{minor: 0, currency: currency}
}

// Minor returns the amount in minor units.
func (m Money) Minor() int64 {
	return m.minor
}

// Currency returns the amount's currency.
func (m Money) Currency() Currency {
	return m.currency
}

// IsZero reports whether the amount is exactly zero.
func (m Money) IsZero() bool {
	return m.minor == 0
}

// IsNegative reports whether the amount is less than zero.
func (m Money) IsNegative() bool {
	return m.minor < 0
}

func (m Money) sameCurrency(other Money) error {
	if m.currency != other.currency {
		return promoerrors.New(promoerrors.KindCurrencyMismatch,
			fmt.Sprintf("cannot combine %s with %s", m.currency, other.currency)).
			WithDetail("left_currency", string(m.currency)).
			WithDetail("right_currency", string(other.currency))
	}
	return nil
}

// Add returns m + other. Both must share a currency.
func (m Money) Add(other Money) (Money, error) {
	if err := m.sameCurrency(other); err != nil {
		return Money{}, err
	}
	sum := m.minor + other.minor
	if (other.minor > 0 && sum < m.minor) || (other.minor < 0 && sum > m.minor) {
		return Money{}, overflowError(m, other, "add")
	}
	return Money{minor: sum, currency: m.currency}, nil
}

// Sub returns m - other. Both must share a currency.
func (m Money) Sub(other Money) (Money, error) {
	if err := m.sameCurrency(other); err != nil {
		return Money{}, err
	}
	diff := m.minor - other.minor
	if (other.minor < 0 && diff < m.minor) || (other.minor > 0 && diff > m.minor) {
		return Money{}, overflowError(m, other, "subtract")
	}
	return Money{minor: diff, currency: m.currency}, nil
}

// Neg returns the additive inverse of m.
func (m Money) Neg() Money {
	return Money{minor: -m.minor, currency: m.currency}
}

// Cmp returns -1, 0, or 1 as m is less than, equal to, or greater
// than other. Panics if the currencies differ; callers that cannot
// guarantee a shared currency should check first.
func (m Money) Cmp(other Money) int {
	if m.currency != other.currency {
		panic(fmt.Sprintf("domain: Cmp called across currencies %s and %s", m.currency, other.currency))
	}
	switch {
	case m.minor < other.minor:
		return -1
	case m.minor > other.minor:
		return 1
	default:
		return 0
	}
}

// MulMinor multiplies the minor-unit amount by an integer factor,
// failing with an Overflow error if the product does not fit int64.
func (m Money) MulMinor(factor int64) (Money, error) {
	if factor == 0 || m.minor == 0 {
		return Money{minor: 0, currency: m.currency}, nil
	}
	product := m.minor * factor
	if product/factor != m.minor {
		return Money{}, promoerrors.Newf(promoerrors.KindOverflow,
			"minor-unit multiplication overflow: %d * %d", m.minor, factor)
	}
	return Money{minor: product, currency: m.currency}, nil
}

// PercentageOf returns the amount obtained by applying pct to m,
// rounded to the nearest minor unit with round-half-to-even.
func (m Money) PercentageOf(pct Percentage) (Money, error) {
	amount := decimal.NewFromInt(m.minor).Mul(pct.ratio())
	rounded := amount.RoundBank(0)
	if !rounded.IsInteger() {
		return Money{}, promoerrors.Internal("percentage rounding did not produce an integer")
	}
	asFloat, exact := rounded.Float64()
	if !exact || asFloat > math.MaxInt64 || asFloat < math.MinInt64 {
		return Money{}, promoerrors.Newf(promoerrors.KindOverflow,
			"percentage result out of range: %s", rounded.String())
	}
	return Money{minor: rounded.IntPart(), currency: m.currency}, nil
}

// Floor clamps m to zero if it is negative. Discount.Apply does not
// use it: a discount that would go negative fails with NegativeResult.
func (m Money) Floor() Money {
	if m.minor < 0 {
		return Money{minor: 0, currency: m.currency}
	}
	return m
}

func (m Money) String() string {
	return fmt.Sprintf("%d %s", m.minor, m.currency)
}

func overflowError(a, b Money, op string) error {
	return promoerrors.Newf(promoerrors.KindOverflow, "%s overflow: %d and %d minor units", op, a.minor, b.minor)
}
