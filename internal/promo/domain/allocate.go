package domain

import (
	"sort"

	"github.com/shopspring/decimal"

	promoerrors "github.com/qhato/promoengine/pkg/errors"
)

// distributeSavings splits total across len(weights) items proportionally
// to weights (the items' original prices), using largest-remainder
// apportionment so the shares sum to exactly total and no share
// exceeds its own weight. It is used to turn a bundle-level discount
// (BundleTotalOverride, PercentOffBundleTotal) into per-item final
// prices while preserving the subtotal-minus-total invariant exactly.
func distributeSavings(total Money, weights []Money) ([]Money, error) {
	n := len(weights)
	if n == 0 {
		return nil, promoerrors.Internal("distributeSavings called with no weights")
	}
	sumWeights := Zero(total.Currency())
	for _, w := range weights {
		var err error
		sumWeights, err = sumWeights.Add(w)
		if err != nil {
			return nil, err
		}
	}
	if sumWeights.IsZero() {
		// No weight to distribute against; split as evenly as integer
		// division allows, remainder to the earliest items.
		base := total.Minor() / int64(n)
		rem := total.Minor() % int64(n)
		out := make([]Money, n)
		for i := range weights {
			share := base
			if int64(i) < rem {
				share++
			}
			out[i] = NewMoney(share, total.Currency())
		}
		return out, nil
	}

	totalDec := decimal.NewFromInt(total.Minor())
	sumDec := decimal.NewFromInt(sumWeights.Minor())

	floors := make([]int64, n)
	remainders := make([]decimal.Decimal, n)
	var sumFloors int64
	for i, w := range weights {
		raw := decimal.NewFromInt(w.Minor()).Mul(totalDec).Div(sumDec)
		floor := raw.Floor()
		floors[i] = floor.IntPart()
		remainders[i] = raw.Sub(floor)
		sumFloors += floors[i]
	}

	leftover := total.Minor() - sumFloors
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		ia, ib := order[a], order[b]
		if !remainders[ia].Equal(remainders[ib]) {
			return remainders[ia].GreaterThan(remainders[ib])
		}
		return ia < ib
	})
	for i := int64(0); i < leftover && int(i) < n; i++ {
		floors[order[i]]++
	}

	out := make([]Money, n)
	for i, f := range floors {
		out[i] = NewMoney(f, total.Currency())
	}
	return out, nil
}
