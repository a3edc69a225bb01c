package domain

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/qhato/promoengine/config"
	promoerrors "github.com/qhato/promoengine/pkg/errors"
	"github.com/qhato/promoengine/pkg/logger"
	"github.com/qhato/promoengine/pkg/metrics"
)

var tracer = otel.Tracer("github.com/qhato/promoengine/internal/promo/domain")

var sizingConfig = config.Default()

// SetSizingConfig overrides the size-regime guardrails Solve warns
// against and the default deadline it applies. A host application
// calls this once, after config.Load, to replace the library default.
func SetSizingConfig(cfg *config.Config) {
	sizingConfig = cfg
}

// SolveOptions configures one call to Solve.
type SolveOptions struct {
	// Deadline bounds how long the solve may run. Zero means use the
	// deadline ctx already carries, or, if it carries none, the
	// configured Solver.DefaultDeadline (itself zero by default, meaning
	// run to optimality).
	Deadline time.Duration
}

type itemState struct {
	locked      bool
	redemptions []PromotionRedemption
}

// Solve runs the graph engine: it invokes the per-layer solver on
// each layer in topological order, routes residual and locked items
// to successor layers per each layer's output policy, and composes
// the per-layer outcomes into one LayeredSolverResult.
func Solve(ctx context.Context, graph *PromotionGraph, items ItemGroup, opts SolveOptions) (LayeredSolverResult, error) {
	ctx, span := tracer.Start(ctx, "promo.Solve", trace.WithAttributes(
		attribute.Int("promo.item_count", items.Len()),
	))
	defer span.End()

	m := metrics.Get()
	start := time.Now()

	deadline := opts.Deadline
	if deadline <= 0 {
		if _, has := ctx.Deadline(); !has {
			deadline = sizingConfig.Solver.DefaultDeadline
		}
	}
	if deadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, deadline)
		defer cancel()
	}

	result, err := solveGraph(ctx, graph, items)

	m.SolveDuration.Observe(time.Since(start).Seconds())
	switch {
	case err == nil:
		m.SolvesTotal.WithLabelValues("ok").Inc()
	case promoerrors.Is(err, promoerrors.KindTimeout):
		m.SolvesTotal.WithLabelValues("timeout").Inc()
		m.Timeouts.Inc()
	case promoerrors.Is(err, promoerrors.KindInfeasible):
		m.SolvesTotal.WithLabelValues("infeasible").Inc()
		m.Infeasible.Inc()
	default:
		m.SolvesTotal.WithLabelValues("error").Inc()
	}

	if err != nil {
		span.RecordError(err)
		logger.Get().WithError(err).Warn("promo solve failed")
		return LayeredSolverResult{}, err
	}
	return result, nil
}

func solveGraph(ctx context.Context, graph *PromotionGraph, items ItemGroup) (LayeredSolverResult, error) {
	n := items.Len()
	states := make([]itemState, n)

	incoming := make(map[LayerKey][]int)
	incoming[graph.Root()] = allIndices(n)

	rawItems := items.Items()
	m := metrics.Get()

	order := graph.TopologicalOrder()
	warnSizingRegime(n, order, graph)

	for _, key := range order {
		population, ok := incoming[key]
		if !ok || len(population) == 0 {
			continue
		}
		layer, ok := graph.Layer(key)
		if !ok {
			return LayeredSolverResult{}, promoerrors.Internalf("topological order named unknown layer %q", key)
		}

		var free []int
		for _, idx := range population {
			if !states[idx].locked {
				free = append(free, idx)
			}
		}

		m.LayersEvaluated.Inc()
		outcome, err := solveLayer(ctx, rawItems, free, layer.Promotions)
		if err != nil {
			return LayeredSolverResult{}, err
		}

		redemptionCounts := make(map[PromotionKey]int)
		for idx, rs := range outcome.redemptions {
			states[idx].locked = true
			states[idx].redemptions = append(states[idx].redemptions, rs...)
			for _, r := range rs {
				redemptionCounts[r.PromotionKey]++
			}
		}
		for promoKey, count := range redemptionCounts {
			m.RedemptionsTotal.WithLabelValues(string(promoKey)).Add(float64(count))
		}

		if err := route(graph, layer, key, population, rawItems, incoming); err != nil {
			return LayeredSolverResult{}, err
		}
	}

	return composeResult(items.Currency(), rawItems, states)
}

func route(graph *PromotionGraph, layer Layer, key LayerKey, population []int, rawItems []Item, incoming map[LayerKey][]int) error {
	switch layer.OutputMode {
	case PassThrough:
		to, ok := graph.passThroughTarget(key)
		if !ok {
			return nil // terminal layer
		}
		incoming[to] = append(incoming[to], population...)
	case Split:
		for _, idx := range population {
			to, err := graph.RouteSplit(key, rawItems[idx])
			if err != nil {
				return err
			}
			incoming[to] = append(incoming[to], idx)
		}
	}
	return nil
}

func composeResult(currency Currency, rawItems []Item, states []itemState) (LayeredSolverResult, error) {
	total := Zero(currency)
	itemRedemptions := make(map[int][]PromotionRedemption)
	fullPrice := make(map[int]struct{})

	for idx, st := range states {
		var err error
		if len(st.redemptions) == 0 {
			fullPrice[idx] = struct{}{}
			total, err = total.Add(rawItems[idx].Price)
		} else {
			itemRedemptions[idx] = st.redemptions
			last := st.redemptions[len(st.redemptions)-1]
			total, err = total.Add(last.FinalPrice)
		}
		if err != nil {
			return LayeredSolverResult{}, err
		}
	}

	return LayeredSolverResult{
		Total:           total,
		ItemRedemptions: itemRedemptions,
		FullPriceItems:  fullPrice,
	}, nil
}

// warnSizingRegime logs a warning, never an error, when a basket or
// graph exceeds the configured sizing regime (by default 60 items,
// 20 promotions per layer, 8 layers): the solver
// still runs to completion, but may not finish well under one second.
func warnSizingRegime(itemCount int, order []LayerKey, graph *PromotionGraph) {
	cfg := sizingConfig
	if itemCount > cfg.Solver.MaxItemsPerBasket {
		logger.Get().WithField("item_count", itemCount).
			WithField("max_items_per_basket", cfg.Solver.MaxItemsPerBasket).
			Warn("item count exceeds recommended sizing regime")
	}
	if len(order) > cfg.Solver.MaxLayers {
		logger.Get().WithField("layer_count", len(order)).
			WithField("max_layers", cfg.Solver.MaxLayers).
			Warn("layer count exceeds recommended sizing regime")
	}
	for _, key := range order {
		layer, ok := graph.Layer(key)
		if ok && len(layer.Promotions) > cfg.Solver.MaxPromotionsPerLayer {
			logger.Get().WithField("layer", string(key)).
				WithField("promotion_count", len(layer.Promotions)).
				WithField("max_promotions_per_layer", cfg.Solver.MaxPromotionsPerLayer).
				Warn("layer promotion count exceeds recommended sizing regime")
		}
	}
}

func allIndices(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}
