package domain

import (
	promoerrors "github.com/qhato/promoengine/pkg/errors"
	"github.com/qhato/promoengine/pkg/metrics"
)

type splitEdge struct {
	predicate SplitPredicate
	to        LayerKey
}

// GraphBuilder accumulates layers and edges before a single
// validating Build call produces an immutable PromotionGraph.
type GraphBuilder struct {
	layers           map[LayerKey]Layer
	order            []LayerKey
	passThroughEdges map[LayerKey]LayerKey
	splitEdges       map[LayerKey][]splitEdge
	splitDefault     map[LayerKey]LayerKey
	root             LayerKey
	rootSet          bool
}

// NewGraphBuilder returns an empty builder.
func NewGraphBuilder() *GraphBuilder {
	return &GraphBuilder{
		layers:           make(map[LayerKey]Layer),
		passThroughEdges: make(map[LayerKey]LayerKey),
		splitEdges:       make(map[LayerKey][]splitEdge),
		splitDefault:     make(map[LayerKey]LayerKey),
	}
}

// AddLayer registers a layer under its key. It is a GraphError to
// register the same key twice.
func (b *GraphBuilder) AddLayer(layer Layer) error {
	if _, exists := b.layers[layer.Key]; exists {
		return promoerrors.Newf(promoerrors.KindConfiguration, "duplicate layer key %q", layer.Key)
	}
	b.layers[layer.Key] = layer
	b.order = append(b.order, layer.Key)
	return nil
}

// ConnectPassThrough adds the single outgoing PassThrough edge from a
// PassThrough layer.
func (b *GraphBuilder) ConnectPassThrough(from, to LayerKey) error {
	fromLayer, ok := b.layers[from]
	if !ok {
		return promoerrors.Newf(promoerrors.KindConfiguration, "unknown layer %q in connect_pass_through", from)
	}
	if fromLayer.OutputMode != PassThrough {
		return promoerrors.Newf(promoerrors.KindConfiguration,
			"layer %q is not a PassThrough layer", from)
	}
	if _, ok := b.layers[to]; !ok {
		return promoerrors.Newf(promoerrors.KindConfiguration, "unknown layer %q in connect_pass_through", to)
	}
	if _, exists := b.passThroughEdges[from]; exists {
		return promoerrors.Newf(promoerrors.KindConfiguration,
			"layer %q already has an outgoing pass_through edge", from)
	}
	b.passThroughEdges[from] = to
	return nil
}

// ConnectSplit adds one predicated outgoing edge from a Split layer.
func (b *GraphBuilder) ConnectSplit(from LayerKey, predicate SplitPredicate, to LayerKey) error {
	fromLayer, ok := b.layers[from]
	if !ok {
		return promoerrors.Newf(promoerrors.KindConfiguration, "unknown layer %q in connect_split", from)
	}
	if fromLayer.OutputMode != Split {
		return promoerrors.Newf(promoerrors.KindConfiguration, "layer %q is not a Split layer", from)
	}
	if _, ok := b.layers[to]; !ok {
		return promoerrors.Newf(promoerrors.KindConfiguration, "unknown layer %q in connect_split", to)
	}
	b.splitEdges[from] = append(b.splitEdges[from], splitEdge{predicate: predicate, to: to})
	return nil
}

// ConnectSplitDefault sets the default edge that catches items
// matching no predicated edge out of a Split layer.
func (b *GraphBuilder) ConnectSplitDefault(from, to LayerKey) error {
	fromLayer, ok := b.layers[from]
	if !ok {
		return promoerrors.Newf(promoerrors.KindConfiguration, "unknown layer %q in connect_split_default", from)
	}
	if fromLayer.OutputMode != Split {
		return promoerrors.Newf(promoerrors.KindConfiguration, "layer %q is not a Split layer", from)
	}
	if _, ok := b.layers[to]; !ok {
		return promoerrors.Newf(promoerrors.KindConfiguration, "unknown layer %q in connect_split_default", to)
	}
	if _, exists := b.splitDefault[from]; exists {
		return promoerrors.Newf(promoerrors.KindConfiguration, "layer %q already has a default split edge", from)
	}
	b.splitDefault[from] = to
	return nil
}

// SetRoot designates the graph's entry layer.
func (b *GraphBuilder) SetRoot(key LayerKey) error {
	if _, ok := b.layers[key]; !ok {
		return promoerrors.Newf(promoerrors.KindConfiguration, "unknown layer %q in set_root", key)
	}
	b.root = key
	b.rootSet = true
	return nil
}

// Build validates the accumulated layers and edges and produces an
// immutable PromotionGraph, or a KindConfiguration GraphError
// describing the first violation found.
func (b *GraphBuilder) Build() (*PromotionGraph, error) {
	g, err := b.build()
	if err != nil {
		metrics.Get().GraphBuildFailure.Inc()
	}
	return g, err
}

func (b *GraphBuilder) build() (*PromotionGraph, error) {
	if !b.rootSet {
		return nil, promoerrors.New(promoerrors.KindConfiguration, "graph has no root layer")
	}

	for key, layer := range b.layers {
		if layer.OutputMode == PassThrough {
			continue
		}
		if len(b.splitEdges[key]) == 0 && b.splitDefault[key] == "" {
			return nil, promoerrors.Newf(promoerrors.KindConfiguration,
				"split layer %q has no outgoing edges", key)
		}
	}

	successors := func(key LayerKey) []LayerKey {
		var out []LayerKey
		if to, ok := b.passThroughEdges[key]; ok {
			out = append(out, to)
		}
		for _, e := range b.splitEdges[key] {
			out = append(out, e.to)
		}
		if to, ok := b.splitDefault[key]; ok {
			out = append(out, to)
		}
		return out
	}

	const (
		unvisited = 0
		visiting  = 1
		done      = 2
	)
	state := make(map[LayerKey]int, len(b.layers))
	var visit func(key LayerKey) error
	visit = func(key LayerKey) error {
		switch state[key] {
		case done:
			return nil
		case visiting:
			return promoerrors.Newf(promoerrors.KindConfiguration, "cycle detected at layer %q", key)
		}
		state[key] = visiting
		for _, next := range successors(key) {
			if err := visit(next); err != nil {
				return err
			}
		}
		state[key] = done
		return nil
	}

	reachable := map[LayerKey]bool{b.root: true}
	queue := []LayerKey{b.root}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, next := range successors(cur) {
			if !reachable[next] {
				reachable[next] = true
				queue = append(queue, next)
			}
		}
	}
	for key := range b.layers {
		if !reachable[key] {
			return nil, promoerrors.Newf(promoerrors.KindConfiguration, "layer %q is unreachable from the root", key)
		}
	}

	if err := visit(b.root); err != nil {
		return nil, err
	}
	for key := range b.layers {
		if err := visit(key); err != nil {
			return nil, err
		}
	}

	layers := make(map[LayerKey]Layer, len(b.layers))
	for k, v := range b.layers {
		layers[k] = v
	}
	passThroughEdges := make(map[LayerKey]LayerKey, len(b.passThroughEdges))
	for k, v := range b.passThroughEdges {
		passThroughEdges[k] = v
	}
	splitEdges := make(map[LayerKey][]splitEdge, len(b.splitEdges))
	for k, v := range b.splitEdges {
		cp := make([]splitEdge, len(v))
		copy(cp, v)
		splitEdges[k] = cp
	}
	splitDefault := make(map[LayerKey]LayerKey, len(b.splitDefault))
	for k, v := range b.splitDefault {
		splitDefault[k] = v
	}
	order := make([]LayerKey, len(b.order))
	copy(order, b.order)

	return &PromotionGraph{
		layers:           layers,
		order:            order,
		passThroughEdges: passThroughEdges,
		splitEdges:       splitEdges,
		splitDefault:     splitDefault,
		root:             b.root,
	}, nil
}

// PromotionGraph is an immutable, validated DAG of layers. It may be
// solved against many item groups concurrently: nothing about it is
// mutated by a solve.
type PromotionGraph struct {
	layers           map[LayerKey]Layer
	order            []LayerKey
	passThroughEdges map[LayerKey]LayerKey
	splitEdges       map[LayerKey][]splitEdge
	splitDefault     map[LayerKey]LayerKey
	root             LayerKey
}

// Root returns the graph's root layer key.
func (g *PromotionGraph) Root() LayerKey {
	return g.root
}

// Layer returns the layer registered under key.
func (g *PromotionGraph) Layer(key LayerKey) (Layer, bool) {
	l, ok := g.layers[key]
	return l, ok
}

// TopologicalOrder returns every layer key in an order where each
// layer appears after all of its predecessors, starting from the
// root. Layers unreachable from the root cannot exist in a built
// graph, so this always covers every layer.
func (g *PromotionGraph) TopologicalOrder() []LayerKey {
	visited := make(map[LayerKey]bool, len(g.layers))
	var out []LayerKey
	var visit func(key LayerKey)
	visit = func(key LayerKey) {
		if visited[key] {
			return
		}
		visited[key] = true
		for _, next := range g.successorsOf(key) {
			visit(next)
		}
		out = append(out, key)
	}
	visit(g.root)
	// reverse post-order into a valid topological (predecessor-first) order
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// passThroughTarget returns the single outgoing PassThrough edge's
// destination for a PassThrough layer, or false if the layer is
// terminal (no outgoing edge).
func (g *PromotionGraph) passThroughTarget(key LayerKey) (LayerKey, bool) {
	to, ok := g.passThroughEdges[key]
	return to, ok
}

func (g *PromotionGraph) successorsOf(key LayerKey) []LayerKey {
	var out []LayerKey
	if to, ok := g.passThroughEdges[key]; ok {
		out = append(out, to)
	}
	for _, e := range g.splitEdges[key] {
		out = append(out, e.to)
	}
	if to, ok := g.splitDefault[key]; ok {
		out = append(out, to)
	}
	return out
}

// RouteSplit evaluates a Split layer's outgoing edges against item
// and returns the destination layer key. Exactly one predicated edge
// is expected to match; if more than one matches, that is a
// construction-contract violation the builder could not detect
// statically (split predicates are opaque expressions), surfaced as
// an InternalError rather than silently routing to the first match.
func (g *PromotionGraph) RouteSplit(from LayerKey, item Item) (LayerKey, error) {
	var matched []LayerKey
	for _, e := range g.splitEdges[from] {
		ok, err := e.predicate.Evaluate(item)
		if err != nil {
			return "", err
		}
		if ok {
			matched = append(matched, e.to)
		}
	}
	switch len(matched) {
	case 0:
		if to, ok := g.splitDefault[from]; ok {
			return to, nil
		}
		return "", promoerrors.Newf(promoerrors.KindInternal,
			"item matched no split edge out of layer %q and no default edge exists", from)
	case 1:
		return matched[0], nil
	default:
		return "", promoerrors.Newf(promoerrors.KindInternal,
			"item matched %d split edges out of layer %q; split predicates must be mutually exclusive", len(matched), from)
	}
}
