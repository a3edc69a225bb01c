package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGraphBuilderRequiresRoot(t *testing.T) {
	b := NewGraphBuilder()
	require.NoError(t, b.AddLayer(NewLayer("l1", nil, PassThrough)))
	_, err := b.Build()
	require.Error(t, err)
}

func TestGraphBuilderDetectsCycle(t *testing.T) {
	b := NewGraphBuilder()
	require.NoError(t, b.AddLayer(NewLayer("l1", nil, PassThrough)))
	require.NoError(t, b.AddLayer(NewLayer("l2", nil, PassThrough)))
	require.NoError(t, b.ConnectPassThrough("l1", "l2"))
	require.NoError(t, b.ConnectPassThrough("l2", "l1"))
	require.NoError(t, b.SetRoot("l1"))

	_, err := b.Build()
	require.Error(t, err)
}

func TestGraphBuilderDetectsUnreachableLayer(t *testing.T) {
	b := NewGraphBuilder()
	require.NoError(t, b.AddLayer(NewLayer("l1", nil, PassThrough)))
	require.NoError(t, b.AddLayer(NewLayer("orphan", nil, PassThrough)))
	require.NoError(t, b.SetRoot("l1"))

	_, err := b.Build()
	require.Error(t, err)
}

func TestGraphBuilderRejectsDuplicateLayerKey(t *testing.T) {
	b := NewGraphBuilder()
	require.NoError(t, b.AddLayer(NewLayer("l1", nil, PassThrough)))
	err := b.AddLayer(NewLayer("l1", nil, PassThrough))
	require.Error(t, err)
}

func TestGraphBuilderRejectsSecondPassThroughEdge(t *testing.T) {
	b := NewGraphBuilder()
	require.NoError(t, b.AddLayer(NewLayer("l1", nil, PassThrough)))
	require.NoError(t, b.AddLayer(NewLayer("l2", nil, PassThrough)))
	require.NoError(t, b.AddLayer(NewLayer("l3", nil, PassThrough)))
	require.NoError(t, b.ConnectPassThrough("l1", "l2"))

	err := b.ConnectPassThrough("l1", "l3")
	require.Error(t, err)
}

func TestGraphBuilderTerminalPassThroughIsValid(t *testing.T) {
	b := NewGraphBuilder()
	require.NoError(t, b.AddLayer(NewLayer("l1", nil, PassThrough)))
	require.NoError(t, b.SetRoot("l1"))

	g, err := b.Build()
	require.NoError(t, err)
	assert.Equal(t, LayerKey("l1"), g.Root())
}

func TestGraphBuilderSplitRouting(t *testing.T) {
	b := NewGraphBuilder()
	require.NoError(t, b.AddLayer(NewLayer("root", nil, Split)))
	require.NoError(t, b.AddLayer(NewLayer("high", nil, PassThrough)))
	require.NoError(t, b.AddLayer(NewLayer("low", nil, PassThrough)))

	pred, err := CompileSplitPredicate("price_minor > 1000")
	require.NoError(t, err)
	require.NoError(t, b.ConnectSplit("root", pred, "high"))
	require.NoError(t, b.ConnectSplitDefault("root", "low"))
	require.NoError(t, b.SetRoot("root"))

	g, err := b.Build()
	require.NoError(t, err)

	expensive := Item{ProductKey: "p1", Price: NewMoney(2000, "GBP"), Tags: NewTagCollection()}
	cheap := Item{ProductKey: "p2", Price: NewMoney(500, "GBP"), Tags: NewTagCollection()}

	to, err := g.RouteSplit("root", expensive)
	require.NoError(t, err)
	assert.Equal(t, LayerKey("high"), to)

	to, err = g.RouteSplit("root", cheap)
	require.NoError(t, err)
	assert.Equal(t, LayerKey("low"), to)
}

func TestGraphBuilderSplitLayerNeedsOutgoingEdge(t *testing.T) {
	b := NewGraphBuilder()
	require.NoError(t, b.AddLayer(NewLayer("root", nil, Split)))
	require.NoError(t, b.SetRoot("root"))

	_, err := b.Build()
	require.Error(t, err)
}
