package queryplan

import (
	"strings"

	sq "github.com/Masterminds/squirrel"
)

// Filter is a typed, ordered alternative to the raw JSON grammar
// ({_and:[...]}, {_or:[...]}, {field:{op:val}}): exactly one of Group or
// Predicate is set. Using a struct instead of map[string]interface{}
// keeps clause order deterministic, since Go map iteration order isn't.
type Filter struct {
	Group     *Group
	Predicate *Predicate
}

// Group is a "_and"/"_or" logical grouping of sibling Filters.
type Group struct {
	Op      string // "_and" or "_or"
	Clauses []Filter
}

// Predicate is either a scalar leaf comparison or a structural relation
// filter, distinguished by the type of Value:
//
//   - scalar Value: Path is a dotted chain of relation segments, the last
//     naming a scalar field; Operator is one of the names in an
//     OperatorRegistry, applied to Value once coerced. This is the common
//     shorthand for a single-field condition reached through zero or more
//     relation hops (spec.md §4.4's "single-key chain rule").
//   - Filter Value: Path names a relation (the WHOLE path, not a chain
//     ending in a scalar field); Value is a nested Filter compiled against
//     the related collection, letting multiple fields of that relation be
//     ANDed/ORed inside one join or one EXISTS/membership subquery instead
//     of each allocating its own. Operator selects how an o2m/o2a hop at
//     the end of Path is realized: "_some" (existence, spec.md §4.4.1's
//     "IN" projection form), "_none" (non-membership, "NOT IN"), or ""
//     (EXISTS/NOT EXISTS, spec.md §4.4.1's correlated form - the same
//     dispatch a negated scalar leaf gets).
type Predicate struct {
	Path     string
	Operator string
	Value    interface{}
}

// And builds an "_and" Group filter from clauses.
func And(clauses ...Filter) Filter {
	return Filter{Group: &Group{Op: "_and", Clauses: clauses}}
}

// Or builds an "_or" Group filter from clauses.
func Or(clauses ...Filter) Filter {
	return Filter{Group: &Group{Op: "_or", Clauses: clauses}}
}

// Pred builds a leaf Predicate filter.
func Pred(path, operator string, value interface{}) Filter {
	return Filter{Predicate: &Predicate{Path: path, Operator: operator, Value: value}}
}

// Rel builds a structural relation filter: path names a relation (inline
// or existence), and child is compiled against the related collection as
// its own filter tree - letting several of that relation's fields be
// combined (ANDed/ORed) inside a single join or subquery. An inline
// (m2o/a2o) path compiles child directly against the joined row; an
// o2m/o2a path defaults to the EXISTS/NOT EXISTS dispatch a negated leaf
// would get. Use Some/None for the "_some"/"_none" membership dispatch.
func Rel(path string, child Filter) Filter {
	return Filter{Predicate: &Predicate{Path: path, Operator: "", Value: child}}
}

// Some builds the o2m/o2a "at least one related row matches child"
// membership check (spec.md §4.4.1's "IN" projection form).
func Some(path string, child Filter) Filter {
	return Filter{Predicate: &Predicate{Path: path, Operator: "_some", Value: child}}
}

// None builds the o2m/o2a "no related row matches child" non-membership
// check (spec.md §4.4.1's "NOT IN" projection form).
func None(path string, child Filter) Filter {
	return Filter{Predicate: &Predicate{Path: path, Operator: "_none", Value: child}}
}

// Not builds the logical negation of clause. It never compiles to a
// literal NOT(...) wrapper around clause's own SQL - compileGroup flips
// the negate flag and lets group-operator/leaf-operator inversion (and,
// at an o2m/o2a boundary, EXISTS/NOT EXISTS) do the work, falling back to
// a NOT(...) wrapper only for an operator with no registered inverse.
func Not(clause Filter) Filter {
	return Filter{Group: &Group{Op: "_not", Clauses: []Filter{clause}}}
}

// MatchAll returns the filter that matches every row: an "_or" group with
// no clauses. normalize() treats this as a short-circuit marker per
// spec.md's note that an empty "_or" matches everything.
func MatchAll() Filter {
	return Filter{Group: &Group{Op: "_or", Clauses: nil}}
}

func (f Filter) isMatchAll() bool {
	return f.Group != nil && f.Group.Op == "_or" && len(f.Group.Clauses) == 0
}

// normalize recursively collapses match-all markers: an empty "_or" nested
// inside an "_and" drops out (true AND x == x); an empty "_or" nested
// inside an "_or" collapses the whole enclosing group to match-all
// (true OR x == true).
func normalize(f Filter) Filter {
	if f.Group == nil {
		return f
	}
	g := f.Group

	if g.Op == "_not" {
		nc := normalize(g.Clauses[0])
		return Filter{Group: &Group{Op: "_not", Clauses: []Filter{nc}}}
	}

	clauses := make([]Filter, 0, len(g.Clauses))
	for _, c := range g.Clauses {
		nc := normalize(c)
		if nc.isMatchAll() {
			if g.Op == "_or" {
				return MatchAll()
			}
			continue
		}
		clauses = append(clauses, nc)
	}
	return Filter{Group: &Group{Op: g.Op, Clauses: clauses}}
}

// flipLogicalOp returns the DeMorgan dual of a group operator.
func flipLogicalOp(op string) string {
	if op == "_and" {
		return "_or"
	}
	return "_and"
}

// applyFilter normalizes filter and compiles it onto b against collection,
// rooted at the query's base alias. compileExistence/compileMembership call
// this same path recursively for a nested EXISTS/membership subquery's own
// filter, just against that subquery's own builder, collection and alias -
// join emission and the depth guard are already a pure function of
// (collection, path, kind) looked up fresh at each call, so there's no
// separate "are we inside a subquery" mode to thread through on top of
// that; the collection/alias arguments alone are what make the nested call
// behave correctly.
func applyFilter(b Builder, filter Filter, collection, rootAlias string, cc *compileCtx) error {
	nf := normalize(filter)
	if nf.isMatchAll() {
		return nil
	}
	s, skip, err := compileToSqlizer(b, nf, collection, rootAlias, cc, false)
	if err != nil {
		return err
	}
	if skip {
		return nil
	}
	b.Where(s)
	return nil
}

// compileToSqlizer is the single recursive pass that does both join
// allocation and predicate rendering (spec.md describes this as two
// passes - a join pass then a predicate pass - but since every join a
// predicate needs is discoverable from that same predicate's own path,
// collapsing them into one pass changes no observable join or WHERE
// output while avoiding a redundant tree walk).
//
// negate means "compile this subexpression as the logical inverse of its
// face-value reading" - via DeMorgan group-operator flips and paired
// operator inversion - without ever emitting a NOT(...) wrapper, except
// as a last resort for an operator with no registered inverse. Crossing
// an o2m/o2a existence boundary consumes the pending negation: EXISTS
// becomes NOT EXISTS and the nested filter compiles un-negated from there.
func compileToSqlizer(b Builder, f Filter, collection, parentAlias string, cc *compileCtx, negate bool) (sq.Sqlizer, bool, error) {
	next, err := cc.descend()
	if err != nil {
		return nil, false, err
	}

	if f.Group != nil {
		return compileGroup(b, f.Group, collection, parentAlias, next, negate)
	}
	if f.Predicate == nil {
		return nil, false, invalidQueryf("filter clause is neither a group nor a predicate")
	}
	return compilePredicate(b, f.Predicate, collection, parentAlias, next, negate)
}

func compileGroup(b Builder, g *Group, collection, parentAlias string, cc *compileCtx, negate bool) (sq.Sqlizer, bool, error) {
	if g.Op == "_not" {
		return compileToSqlizer(b, g.Clauses[0], collection, parentAlias, cc, !negate)
	}

	op := g.Op
	if negate {
		op = flipLogicalOp(op)
	}

	var parts []sq.Sqlizer
	for _, clause := range g.Clauses {
		s, skip, err := compileToSqlizer(b, clause, collection, parentAlias, cc, negate)
		if err != nil {
			return nil, false, err
		}
		if skip {
			continue
		}
		parts = append(parts, s)
	}
	if len(parts) == 0 {
		return nil, true, nil
	}
	if op == "_and" {
		return sq.And(parts), false, nil
	}
	return sq.Or(parts), false, nil
}

func compilePredicate(b Builder, p *Predicate, collection, parentAlias string, cc *compileCtx, negate bool) (sq.Sqlizer, bool, error) {
	if child, ok := p.Value.(Filter); ok {
		return compileRelationalPredicate(b, p.Path, p.Operator, child, collection, parentAlias, cc, negate)
	}

	segments := strings.Split(p.Path, ".")

	curCollection := collection
	curAlias := parentAlias

	for i := 0; i < len(segments)-1; i++ {
		seg := segments[i]
		childAlias, childCollection, rel, kind, err := cc.jp.addJoin(b, curAlias, curCollection, seg, cc.aliasMap)
		if err != nil {
			return nil, false, err
		}
		if rel == nil {
			return nil, true, nil
		}
		if kind.isInline() {
			curAlias, curCollection = childAlias, childCollection
			continue
		}

		remaining := strings.Join(segments[i+1:], ".")
		nested := Filter{Predicate: &Predicate{Path: remaining, Operator: p.Operator, Value: p.Value}}
		return compileExistence(b, rel, kind, curCollection, curAlias, seg, nested, cc, negate)
	}

	return compileLeaf(curCollection, curAlias, segments[len(segments)-1], p.Operator, p.Value, cc, negate)
}

// compileRelationalPredicate dispatches a Predicate whose Value is itself a
// nested Filter (built via Rel/Some/None): path names a relation, walked
// hop by hop the same way a scalar leaf's path is, except the terminal hop
// compiles child as a full filter tree instead of a single field/op/value
// leaf.
func compileRelationalPredicate(b Builder, path, operator string, child Filter, collection, parentAlias string, cc *compileCtx, negate bool) (sq.Sqlizer, bool, error) {
	segments := strings.Split(path, ".")
	curCollection := collection
	curAlias := parentAlias

	for i, seg := range segments {
		last := i == len(segments)-1

		childAlias, childCollection, rel, kind, err := cc.jp.addJoin(b, curAlias, curCollection, seg, cc.aliasMap)
		if err != nil {
			return nil, false, err
		}
		if rel == nil {
			return nil, true, nil
		}

		if kind.isInline() {
			curAlias, curCollection = childAlias, childCollection
			if last {
				return compileToSqlizer(b, child, curCollection, curAlias, cc, negate)
			}
			continue
		}

		if !last {
			// An o2m/o2a hop mid-path: existence of the remainder, same
			// dispatch a scalar leaf's mid-path hop gets.
			remaining := strings.Join(segments[i+1:], ".")
			nested := Filter{Predicate: &Predicate{Path: remaining, Operator: operator, Value: child}}
			return compileExistence(b, rel, kind, curCollection, curAlias, seg, nested, cc, negate)
		}
		return compileRelationExistence(b, rel, kind, curCollection, curAlias, seg, operator, child, cc, negate)
	}

	return nil, true, nil
}

// compileRelationExistence dispatches the terminal o2m/o2a hop of a
// structural relation filter by operator, per spec.md §4.4 step 3:
// "_some"/"_none" use the projection-based membership subquery
// (compileMembership); anything else (including "", Rel's default) falls
// through to the EXISTS/NOT EXISTS correlated form (compileExistence).
func compileRelationExistence(b Builder, rel *Relation, kind RelationKind, parentCollection, parentAlias, segment, operator string, child Filter, cc *compileCtx, negate bool) (sq.Sqlizer, bool, error) {
	switch operator {
	case "_some":
		return compileMembership(b, rel, kind, parentCollection, parentAlias, segment, child, cc, negate)
	case "_none":
		return compileMembership(b, rel, kind, parentCollection, parentAlias, segment, child, cc, !negate)
	default:
		return compileExistence(b, rel, kind, parentCollection, parentAlias, segment, child, cc, negate)
	}
}

// compileExistence builds the EXISTS/NOT EXISTS subquery for an o2m/o2a
// hop, compiling nested against a fresh sub-Builder rooted at its own
// alias so joins and predicates inside the subquery never touch the
// outer query's builder.
func compileExistence(b Builder, rel *Relation, kind RelationKind, parentCollection, parentAlias, segment string, nested Filter, cc *compileCtx, negate bool) (sq.Sqlizer, bool, error) {
	_, scope, target, err := resolveTarget(cc.schema, parentCollection, segment)
	if err != nil {
		return nil, false, err
	}
	if target == "" {
		return nil, true, nil
	}

	alias := cc.aliasMap.request(parentAlias, segment, rel, kind, target, scope)
	sub := b.Sub(target, alias)

	corrClause := alias + "." + rel.ForeignKey + " = " + parentAlias + "." + rel.LocalKey
	if kind == KindO2A {
		// The discriminator lives on the many side (alias) and names which
		// one-side collection that row points back to - parentCollection,
		// not the ":scope" suffix (scope only selects which many-side
		// table/target this O2A relation's Scopes map resolves to).
		sub.Where(sq.Expr(corrClause+" AND "+alias+"."+rel.DiscriminatorColumn+" = ?", parentCollection))
	} else {
		sub.Where(sq.Expr(corrClause))
	}

	s, skip, err := compileToSqlizer(sub, nested, target, alias, cc, false)
	if err != nil {
		return nil, false, err
	}
	if !skip {
		sub.Where(s)
	}

	cc.log.WithField("alias", alias).WithField("relation", rel.Name).Debug("queryplan: existence subquery compiled")

	if negate {
		return sq.Expr("NOT EXISTS (?)", sub.ToSub()), false, nil
	}
	return sq.Expr("EXISTS (?)", sub.ToSub()), false, nil
}

// compileMembership builds the projection-based "_some"/"_none" form
// (spec.md §4.4.1): SELECT the child's foreign key, filtered to rows where
// it IS NOT NULL and matching child, then the parent's own key is compared
// against that projection with IN ("_some") or NOT IN ("_none"/negated
// "_some"). This differs from compileExistence's correlated EXISTS form in
// that the subquery carries no correlation to the outer row at all - the
// parent/child relationship is expressed entirely by the outer IN clause.
func compileMembership(b Builder, rel *Relation, kind RelationKind, parentCollection, parentAlias, segment string, child Filter, cc *compileCtx, notIn bool) (sq.Sqlizer, bool, error) {
	_, scope, target, err := resolveTarget(cc.schema, parentCollection, segment)
	if err != nil {
		return nil, false, err
	}
	if target == "" {
		return nil, true, nil
	}

	alias := cc.aliasMap.request(parentAlias, segment, rel, kind, target, scope)
	fkColumn := alias + "." + rel.ForeignKey
	parentKey := parentAlias + "." + rel.LocalKey

	selectExpr := rel.ForeignKey
	if kind == KindO2A {
		// The polymorphic fk/pk pair may differ in SQL type across targets;
		// bridge with a CHAR(255) cast the same way the join planner
		// (join.go) does for its inline a2o/o2a join conditions.
		selectExpr = "CAST(" + fkColumn + " AS CHAR(255))"
		parentKey = "CAST(" + parentKey + " AS CHAR(255))"
	}
	sub := b.SubSelect(target, alias, selectExpr)

	if kind == KindO2A {
		sub.Where(sq.Expr(fkColumn+" IS NOT NULL AND "+alias+"."+rel.DiscriminatorColumn+" = ?", parentCollection))
	} else {
		sub.Where(sq.NotEq{fkColumn: nil})
	}

	s, skip, err := compileToSqlizer(sub, child, target, alias, cc, false)
	if err != nil {
		return nil, false, err
	}
	if !skip {
		sub.Where(s)
	}

	cc.log.WithField("alias", alias).WithField("relation", rel.Name).Debug("queryplan: membership subquery compiled")

	verb := "IN"
	if notIn {
		verb = "NOT IN"
	}
	return sq.Expr(parentKey+" "+verb+" (?)", sub.ToSub()), false, nil
}

// resolveTarget re-derives what ResolvePath already computed for segment;
// kept separate so compilePredicate's addJoin call (which needs the
// Relation/Kind) and compileExistence's target/scope lookup don't need a
// third return-heavy signature threaded between them.
func resolveTarget(schema *Schema, parentCollection, segment string) (kind RelationKind, scope, target string, err error) {
	rel, k, sc, tg, err := ResolvePath(schema, parentCollection, segment)
	if err != nil || rel == nil {
		return 0, "", "", err
	}
	return k, sc, tg, nil
}

func compileLeaf(collection, alias, fieldName, operator string, value interface{}, cc *compileCtx, negate bool) (sq.Sqlizer, bool, error) {
	coll, ok := cc.schema.Collection(collection)
	if !ok {
		return nil, true, nil
	}
	field, ok := coll.Field(fieldName)
	if !ok {
		cc.log.WithField("field", fieldName).Warn("queryplan: unknown field, skipping predicate")
		return nil, true, nil
	}

	opName := operator
	wrapNot := false
	if negate {
		if inv, ok := invert(opName); ok {
			opName = inv
		} else {
			wrapNot = true
		}
	}

	fn, ok := cc.ops.Lookup(opName)
	if !ok {
		return nil, false, unknownOperatorf("operator %q is not registered", opName)
	}

	coerced, err := coerceForOperator(opName, field.Type, value, cc.dateParse)
	if err != nil {
		return nil, false, err
	}

	column := alias + "." + field.Column
	s, err := fn(column, coerced)
	if err != nil {
		return nil, false, err
	}
	if wrapNot {
		return sq.Expr("NOT (?)", s), false, nil
	}
	return s, false, nil
}

func coerceForOperator(op string, ft FieldType, value interface{}, dp DateParser) (interface{}, error) {
	switch op {
	case "_in", "_nin":
		return coerceList(ft, value, dp)
	case "_between", "_nbetween":
		return coerceRange(ft, value, dp)
	case "_empty", "_nempty", "_null", "_nnull":
		return nil, nil
	default:
		return coerce(ft, value, dp)
	}
}
