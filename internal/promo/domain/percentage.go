package domain

import (
	"fmt"

	"github.com/shopspring/decimal"

	promoerrors "github.com/qhato/promoengine/pkg/errors"
)

// Percentage is a decimal-backed rational in [0, 1] representing a
// fraction of a price, e.g. 0.15 for "15% off". It is stored as a
// shopspring/decimal.Decimal rather than a float64 so that chained
// percentage math never accumulates binary-floating-point drift.
type Percentage struct {
	d decimal.Decimal
}

// NewPercentage builds a Percentage from a fraction in [0, 1].
// Fractions outside that range are rejected: the domain has no
// concept of a discount greater than 100% or a negative discount.
func NewPercentage(fraction decimal.Decimal) (Percentage, error) {
	if fraction.IsNegative() {
		return Percentage{}, promoerrors.Newf(promoerrors.KindConfiguration,
			"percentage must not be negative: %s", fraction.String())
	}
	if fraction.GreaterThan(decimal.NewFromInt(1)) {
		return Percentage{}, promoerrors.Newf(promoerrors.KindConfiguration,
			"percentage must not exceed 1.0 (100%%): %s", fraction.String())
	}
	return Percentage{d: fraction}, nil
}

// MustPercentage is NewPercentage for call sites constructing a
// literal percentage, such as tests and fixture builders.
func MustPercentage(fraction float64) Percentage {
	p, err := NewPercentage(decimal.NewFromFloat(fraction))
	if err != nil {
		panic(err)
	}
	return p
}

// PercentageFromBasisPoints builds a Percentage from an integer
// basis-point count (1/100 of a percent), avoiding a float literal at
// call sites that source rates from configuration.
func PercentageFromBasisPoints(bp int64) (Percentage, error) {
	return NewPercentage(decimal.NewFromInt(bp).Div(decimal.NewFromInt(10000)))
}

func (p Percentage) ratio() decimal.Decimal {
	return p.d
}

// IsZero reports whether the percentage is exactly 0%.
func (p Percentage) IsZero() bool {
	return p.d.IsZero()
}

// Float64 returns the fraction as a float64, for logging and metrics
// labels only; never for price arithmetic.
func (p Percentage) Float64() float64 {
	f, _ := p.d.Float64()
	return f
}

func (p Percentage) String() string {
	return fmt.Sprintf("%s%%", p.d.Mul(decimal.NewFromInt(100)).StringFixed(2))
}
