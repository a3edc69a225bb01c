package domain

import "sort"

// Tag is an interned classification string attached to a product,
// e.g. "clearance" or "seasonal". Tags are compared by value; there
// is no hierarchy between them.
type Tag string

// TagCollection is an immutable set of Tags. The zero value is the
// empty set.
type TagCollection struct {
	set map[Tag]struct{}
}

// NewTagCollection builds a TagCollection from a slice of tags,
// deduplicating as it goes.
func NewTagCollection(tags ...Tag) TagCollection {
	set := make(map[Tag]struct{}, len(tags))
	for _, t := range tags {
		set[t] = struct{}{}
	}
	return TagCollection{set: set}
}

// Has reports whether the collection contains t.
func (c TagCollection) Has(t Tag) bool {
	_, ok := c.set[t]
	return ok
}

// Len returns the number of distinct tags in the collection.
func (c TagCollection) Len() int {
	return len(c.set)
}

// IsSubsetOf reports whether every tag in c also appears in other.
// The empty collection is a subset of every collection, including
// itself.
func (c TagCollection) IsSubsetOf(other TagCollection) bool {
	for t := range c.set {
		if !other.Has(t) {
			return false
		}
	}
	return true
}

// Intersects reports whether c and other share at least one tag.
func (c TagCollection) Intersects(other TagCollection) bool {
	for t := range c.set {
		if other.Has(t) {
			return true
		}
	}
	return false
}

// Slice returns the collection's tags in a deterministic, sorted
// order, for use in log fields and tie-break comparisons.
func (c TagCollection) Slice() []Tag {
	out := make([]Tag, 0, len(c.set))
	for t := range c.set {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
