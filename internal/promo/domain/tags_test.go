package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/qhato/promoengine/pkg/testutil"
)

func TestTagCollectionIsSubsetOf(t *testing.T) {
	a := NewTagCollection("clearance")
	b := NewTagCollection("clearance", "seasonal")

	assert.True(t, a.IsSubsetOf(b))
	assert.False(t, b.IsSubsetOf(a))

	empty := NewTagCollection()
	assert.True(t, empty.IsSubsetOf(a))
	assert.True(t, empty.IsSubsetOf(empty))
}

func TestTagCollectionIntersects(t *testing.T) {
	a := NewTagCollection("a", "b")
	b := NewTagCollection("b", "c")
	c := NewTagCollection("d")

	assert.True(t, a.Intersects(b))
	assert.False(t, a.Intersects(c))
}

func TestTagCollectionHasAndLen(t *testing.T) {
	a := NewTagCollection("a", "a", "b")
	testutil.AssertEqual(t, a.Len(), 2, "deduplicated tag count")
	testutil.AssertTrue(t, a.Has("a"), "has a")
	testutil.AssertFalse(t, a.Has("z"), "does not have z")
}

func TestTagCollectionSliceIsSorted(t *testing.T) {
	a := NewTagCollection("z", "a", "m")
	testutil.AssertEqual(t, a.Slice(), []Tag{"a", "m", "z"}, "sorted tag slice")
}
