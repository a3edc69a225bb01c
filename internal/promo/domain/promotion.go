package domain

import (
	"sort"

	"github.com/google/uuid"

	promoerrors "github.com/qhato/promoengine/pkg/errors"
)

// PromotionKey opaquely identifies a registered promotion. Keys are
// generated by PromotionRegistry at registration time; nothing else
// in the domain manufactures one.
type PromotionKey string

// NewPromotionKey generates a fresh opaque key.
func NewPromotionKey() PromotionKey {
	return PromotionKey(uuid.NewString())
}

// PromotionMeta is the display-facing identity of a promotion,
// separate from its matching/discounting logic, so the receipt
// builder can resolve a key to a name without depending on the
// Promotion interface.
type PromotionMeta struct {
	Key  PromotionKey
	Name string
}

// PromotionKind identifies which Promotion variant a value is.
type PromotionKind int

const (
	PromotionDirect PromotionKind = iota
	PromotionPositional
	PromotionMixAndMatch
)

// Promotion is a closed sum type over the three promotion shapes the
// engine understands. It is implemented only by the three types in
// this file; the unexported marker method keeps external packages
// from adding a fourth variant the solver would not know how to
// reason about.
type Promotion interface {
	Key() PromotionKey
	Kind() PromotionKind
	// IsApplicable is a cheap, conservative filter: it may return true
	// when no actual bundle exists, but must return false when none
	// can possibly be formed. The solver performs the exact check.
	IsApplicable(items ItemGroup) bool
	promotionMarker()
}

// --- DirectDiscount ---------------------------------------------------

// DirectDiscountPromotion applies its Discount to every item whose
// tags are a superset of RequiredTags.
type DirectDiscountPromotion struct {
	key          PromotionKey
	RequiredTags TagCollection
	Discount     Discount
	Budget       PromotionBudget
}

// NewDirectDiscount constructs a DirectDiscountPromotion.
func NewDirectDiscount(key PromotionKey, requiredTags TagCollection, discount Discount, budget PromotionBudget) DirectDiscountPromotion {
	return DirectDiscountPromotion{key: key, RequiredTags: requiredTags, Discount: discount, Budget: budget}
}

func (p DirectDiscountPromotion) Key() PromotionKey   { return p.key }
func (p DirectDiscountPromotion) Kind() PromotionKind { return PromotionDirect }
func (p DirectDiscountPromotion) promotionMarker()    {}

func (p DirectDiscountPromotion) IsApplicable(items ItemGroup) bool {
	for i := 0; i < items.Len(); i++ {
		if p.RequiredTags.IsSubsetOf(items.At(i).Tags) {
			return true
		}
	}
	return false
}

// --- PositionalDiscount ------------------------------------------------

// PositionalDiscountPromotion forms bundles of exactly Size
// qualifying items and discounts the items landing at the given
// 1-based ordinal Positions once the bundle is sorted by descending
// price (ties broken by ascending item_index).
type PositionalDiscountPromotion struct {
	key          PromotionKey
	RequiredTags TagCollection
	Size         int
	Positions    []int
	Discount     Discount
	Budget       PromotionBudget
}

// NewPositionalDiscount constructs a PositionalDiscountPromotion,
// validating the structural constraints that make a promotion a
// ConfigurationError rather than a runtime Infeasible: size must be
// positive, positions must lie within [1, size] and be duplicate-free.
func NewPositionalDiscount(key PromotionKey, requiredTags TagCollection, size int, positions []int, discount Discount, budget PromotionBudget) (PositionalDiscountPromotion, error) {
	if size <= 0 {
		return PositionalDiscountPromotion{}, promoerrors.Newf(promoerrors.KindConfiguration,
			"positional discount size must be positive, got %d", size)
	}
	seen := make(map[int]struct{}, len(positions))
	for _, pos := range positions {
		if pos < 1 || pos > size {
			return PositionalDiscountPromotion{}, promoerrors.Newf(promoerrors.KindConfiguration,
				"positional discount position %d out of range [1, %d]", pos, size)
		}
		if _, dup := seen[pos]; dup {
			return PositionalDiscountPromotion{}, promoerrors.Newf(promoerrors.KindConfiguration,
				"positional discount position %d duplicated", pos)
		}
		seen[pos] = struct{}{}
	}
	sorted := make([]int, len(positions))
	copy(sorted, positions)
	sort.Ints(sorted)
	return PositionalDiscountPromotion{
		key:          key,
		RequiredTags: requiredTags,
		Size:         size,
		Positions:    sorted,
		Discount:     discount,
		Budget:       budget,
	}, nil
}

func (p PositionalDiscountPromotion) Key() PromotionKey   { return p.key }
func (p PositionalDiscountPromotion) Kind() PromotionKind { return PromotionPositional }
func (p PositionalDiscountPromotion) promotionMarker()    {}

func (p PositionalDiscountPromotion) IsApplicable(items ItemGroup) bool {
	count := 0
	for i := 0; i < items.Len(); i++ {
		if p.RequiredTags.IsSubsetOf(items.At(i).Tags) {
			count++
			if count >= p.Size {
				return true
			}
		}
	}
	return false
}

// DiscountsPosition reports whether the 1-based ordinal pos is one of
// this promotion's discounted positions.
func (p PositionalDiscountPromotion) DiscountsPosition(pos int) bool {
	for _, d := range p.Positions {
		if d == pos {
			return true
		}
	}
	return false
}

// --- MixAndMatchDiscount ------------------------------------------------

// Slot is one mix-and-match bundle slot: an item qualifies for the
// slot if its tags are a superset of RequiredTags. At most one item
// fills a given slot within a bundle.
type Slot struct {
	RequiredTags TagCollection
}

// MixAndMatchKindTag identifies which of the three bundle-discount
// application methods a MixAndMatchDiscountPromotion uses.
type MixAndMatchKindTag int

const (
	// BundleTotalOverride replaces the sum of the bundle's item prices
	// with a fixed amount, distributed back across the items
	// proportionally to their original price.
	BundleTotalOverride MixAndMatchKindTag = iota
	// PercentOffBundleTotal applies one percentage discount to the
	// bundle as a whole, distributed back across the items
	// proportionally to their original price.
	PercentOffBundleTotal
	// PerSlotDiscount applies an independent Discount to each slot's
	// matched item.
	PerSlotDiscount
)

// MixAndMatchKind is the closed sum type describing how a
// MixAndMatchDiscountPromotion turns a formed bundle into per-item
// final prices.
type MixAndMatchKind struct {
	tag             MixAndMatchKindTag
	overrideAmount  Money
	percentage      Percentage
	perSlotDiscount []Discount
}

// NewBundleTotalOverride builds a MixAndMatchKind that replaces the
// bundle's total price.
func NewBundleTotalOverride(amount Money) MixAndMatchKind {
	return MixAndMatchKind{tag: BundleTotalOverride, overrideAmount: amount}
}

// NewPercentOffBundleTotal builds a MixAndMatchKind that discounts
// the bundle's total price by pct.
func NewPercentOffBundleTotal(pct Percentage) MixAndMatchKind {
	return MixAndMatchKind{tag: PercentOffBundleTotal, percentage: pct}
}

// NewPerSlotDiscount builds a MixAndMatchKind that applies an
// independent Discount to each slot. discounts must have the same
// length as the promotion's Slots.
func NewPerSlotDiscount(discounts []Discount) MixAndMatchKind {
	out := make([]Discount, len(discounts))
	copy(out, discounts)
	return MixAndMatchKind{tag: PerSlotDiscount, perSlotDiscount: out}
}

// Tag reports which MixAndMatchKind variant k holds.
func (k MixAndMatchKind) Tag() MixAndMatchKindTag {
	return k.tag
}

// MixAndMatchDiscountPromotion forms bundles with exactly one item
// per slot (slot predicates need not be disjoint; the solver checks
// feasibility) and discounts the bundle per Kind.
type MixAndMatchDiscountPromotion struct {
	key    PromotionKey
	Slots  []Slot
	Kind_  MixAndMatchKind
	Budget PromotionBudget
}

// NewMixAndMatchDiscount constructs a MixAndMatchDiscountPromotion,
// validating that a PerSlotDiscount kind carries exactly one discount
// per slot.
func NewMixAndMatchDiscount(key PromotionKey, slots []Slot, kind MixAndMatchKind, budget PromotionBudget) (MixAndMatchDiscountPromotion, error) {
	if len(slots) == 0 {
		return MixAndMatchDiscountPromotion{}, promoerrors.New(promoerrors.KindConfiguration,
			"mix_and_match discount must have at least one slot")
	}
	if kind.tag == PerSlotDiscount && len(kind.perSlotDiscount) != len(slots) {
		return MixAndMatchDiscountPromotion{}, promoerrors.Newf(promoerrors.KindConfiguration,
			"mix_and_match per_slot_discount has %d discounts for %d slots", len(kind.perSlotDiscount), len(slots))
	}
	out := make([]Slot, len(slots))
	copy(out, slots)
	return MixAndMatchDiscountPromotion{key: key, Slots: out, Kind_: kind, Budget: budget}, nil
}

func (p MixAndMatchDiscountPromotion) Key() PromotionKey   { return p.key }
func (p MixAndMatchDiscountPromotion) Kind() PromotionKind { return PromotionMixAndMatch }
func (p MixAndMatchDiscountPromotion) promotionMarker()    {}

func (p MixAndMatchDiscountPromotion) IsApplicable(items ItemGroup) bool {
	for _, slot := range p.Slots {
		found := false
		for i := 0; i < items.Len(); i++ {
			if slot.RequiredTags.IsSubsetOf(items.At(i).Tags) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// PromotionRegistry assigns opaque keys and tracks display metadata
// for every promotion a caller registers, so the receipt builder can
// resolve a PromotionKey back to a name without the Promotion
// interface itself carrying one.
type PromotionRegistry struct {
	promotions map[PromotionKey]Promotion
	meta       map[PromotionKey]PromotionMeta
	order      []PromotionKey
	orderIndex map[PromotionKey]int
}

// NewPromotionRegistry builds an empty registry.
func NewPromotionRegistry() *PromotionRegistry {
	return &PromotionRegistry{
		promotions: make(map[PromotionKey]Promotion),
		meta:       make(map[PromotionKey]PromotionMeta),
		orderIndex: make(map[PromotionKey]int),
	}
}

// Register generates a fresh PromotionKey, passes it to build, and
// stores the resulting Promotion under name.
func (r *PromotionRegistry) Register(name string, build func(PromotionKey) (Promotion, error)) (Promotion, error) {
	key := NewPromotionKey()
	p, err := build(key)
	if err != nil {
		return nil, err
	}
	r.promotions[key] = p
	r.meta[key] = PromotionMeta{Key: key, Name: name}
	r.orderIndex[key] = len(r.order)
	r.order = append(r.order, key)
	return p, nil
}

// DefinitionOrder reports key's position in registration order, for
// use as a display tie-break. ok is false if key was never
// registered.
func (r *PromotionRegistry) DefinitionOrder(key PromotionKey) (int, bool) {
	idx, ok := r.orderIndex[key]
	return idx, ok
}

// Get looks up a promotion by key.
func (r *PromotionRegistry) Get(key PromotionKey) (Promotion, bool) {
	p, ok := r.promotions[key]
	return p, ok
}

// Meta looks up a promotion's display metadata by key.
func (r *PromotionRegistry) Meta(key PromotionKey) (PromotionMeta, bool) {
	m, ok := r.meta[key]
	return m, ok
}

// All returns every registered promotion in registration order.
func (r *PromotionRegistry) All() []Promotion {
	out := make([]Promotion, 0, len(r.order))
	for _, key := range r.order {
		out = append(out, r.promotions[key])
	}
	return out
}
