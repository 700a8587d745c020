package queryplan

import (
	"fmt"
	"strings"
)

// AggFunc names a SQL aggregate function supported by applyAggregate.
type AggFunc string

const (
	AggCount AggFunc = "COUNT"
	AggSum   AggFunc = "SUM"
	AggAvg   AggFunc = "AVG"
	AggMin   AggFunc = "MIN"
	AggMax   AggFunc = "MAX"
)

// Aggregate is one aggregate projection: Func(field) AS Alias, or
// Func(DISTINCT field) AS Alias when Distinct is set, optionally grouped by
// GroupBy fields shared across every Aggregate in one call. spec.md §6 names
// countDistinct/sumDistinct/avgDistinct as their own output kinds alongside
// plain count/sum/avg; Distinct is the flag that tells applyAggregate which
// form to render rather than adding three more AggFunc constants for what's
// really the same function with a DISTINCT qualifier on its argument.
type Aggregate struct {
	Func     AggFunc
	Field    string
	Distinct bool
	Alias    string
}

// NewAggregate builds an Aggregate whose Alias follows spec.md §6's
// convention: "<op>-><field>", except field "*" (countAll) aliases to the
// bare lowercased op name, matching spec.md §8 scenario 6's
// `COUNT(*) AS count`.
func NewAggregate(fn AggFunc, field string) Aggregate {
	op := strings.ToLower(string(fn))
	if field == "*" {
		return Aggregate{Func: fn, Field: "*", Alias: op}
	}
	return Aggregate{Func: fn, Field: field, Alias: op + "->" + field}
}

// NewDistinctAggregate builds the Distinct counterpart of NewAggregate -
// spec.md §6's countDistinct/sumDistinct/avgDistinct - aliased
// "<op>Distinct-><field>" (e.g. "countDistinct->country") to match those
// output names.
func NewDistinctAggregate(fn AggFunc, field string) Aggregate {
	op := strings.ToLower(string(fn)) + "Distinct"
	return Aggregate{Func: fn, Field: field, Distinct: true, Alias: op + "->" + field}
}

// quoteAlias double-quotes alias when it contains '-' or '>' (the
// "<op>-><field>" convention's "->" isn't valid unquoted), matching
// spec.md §8 scenario 6's `AS "sum->price"`.
func quoteAlias(alias string) string {
	if strings.ContainsAny(alias, "->") {
		return `"` + alias + `"`
	}
	return alias
}

// applyAggregate projects aggregates onto b and, when groupBy is non-empty,
// adds the matching GROUP BY clause. Both fields and groupBy are resolved
// against collection's own columns - aggregate fan-outs don't traverse
// relations, matching spec.md §6's summary of this as a flat projection.
func applyAggregate(b Builder, aggregates []Aggregate, groupBy []string, collection string, cc *compileCtx) error {
	coll, ok := cc.schema.Collection(collection)
	if !ok {
		return invalidQueryf("unknown collection %q", collection)
	}
	alias := rootAliasFor(collection)

	for _, agg := range aggregates {
		if agg.Field == "*" {
			// countAll (spec.md §6): "*" never resolves against the schema,
			// it always means every row.
			b.Column(fmt.Sprintf("%s(*) AS %s", agg.Func, quoteAlias(agg.Alias)))
			continue
		}
		field, ok := coll.Field(agg.Field)
		if !ok {
			cc.log.WithField("field", agg.Field).Warn("queryplan: unknown aggregate field, skipping")
			continue
		}
		arg := alias + "." + field.Column
		if agg.Distinct {
			arg = "DISTINCT " + arg
		}
		expr := fmt.Sprintf("%s(%s) AS %s", agg.Func, arg, quoteAlias(agg.Alias))
		b.Column(expr)
	}

	var cols []string
	for _, g := range groupBy {
		field, ok := coll.Field(g)
		if !ok {
			cc.log.WithField("field", g).Warn("queryplan: unknown group-by field, skipping")
			continue
		}
		cols = append(cols, alias+"."+field.Column)
	}
	if len(cols) > 0 {
		b.GroupBy(cols...)
	}
	return nil
}
