package domain

import (
	"time"

	"github.com/patrickmn/go-cache"

	promoerrors "github.com/qhato/promoengine/pkg/errors"
	"github.com/qhato/promoengine/pkg/rules"
)

// SplitPredicate decides which outgoing edge of a Split layer one
// item travels down. This engine compiles predicates from an
// expression string evaluated against item facts (price_minor,
// currency, tags), using this codebase's general-purpose
// compiled-rule wrapper around expr.
type SplitPredicate struct {
	rule *rules.CompiledRule
}

var predicateCache = cache.New(30*time.Minute, time.Hour)

// CompileSplitPredicate compiles an expression string into a
// SplitPredicate. Compiled rules are cached by source string so
// that building the same graph repeatedly (e.g. once per request in a
// stateless host) does not recompile identical expressions.
//
// The expression environment exposes:
//   - price_minor (int)
//   - currency (string)
//   - tags ([]string)
//   - has_tag(tag string) bool
func CompileSplitPredicate(source string) (SplitPredicate, error) {
	if cached, ok := predicateCache.Get(source); ok {
		return SplitPredicate{rule: cached.(*rules.CompiledRule)}, nil
	}
	rule, err := rules.NewRule("split_predicate", source, "")
	if err != nil {
		return SplitPredicate{}, promoerrors.Newf(promoerrors.KindConfiguration,
			"split predicate %q failed to compile: %v", source, err)
	}
	predicateCache.Set(source, rule, cache.DefaultExpiration)
	return SplitPredicate{rule: rule}, nil
}

// Source returns the predicate's original expression string, for use
// in GraphError messages and logging.
func (p SplitPredicate) Source() string {
	return p.rule.GetExpression()
}

// Evaluate runs the predicate against item.
func (p SplitPredicate) Evaluate(item Item) (bool, error) {
	tags := item.Tags.Slice()
	tagStrings := make([]string, len(tags))
	for i, t := range tags {
		tagStrings[i] = string(t)
	}
	env := map[string]interface{}{
		"price_minor": item.Price.Minor(),
		"currency":    string(item.Price.Currency()),
		"tags":        tagStrings,
		"has_tag": func(tag string) bool {
			return item.Tags.Has(Tag(tag))
		},
	}
	result, err := p.rule.Evaluate(env)
	if err != nil {
		return false, promoerrors.Newf(promoerrors.KindInternal,
			"split predicate %q failed to evaluate: %v", p.rule.GetExpression(), err)
	}
	return result, nil
}
