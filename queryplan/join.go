package queryplan

import "fmt"

// joinPlanner emits LEFT JOIN clauses for inline relation segments (m2o,
// a2o). Existence-subquery segments (o2m, o2a) never go through addJoin -
// the filter compiler builds those as a nested Builder instead (see
// filter.go's compileExistence/compileMembership).
type joinPlanner struct {
	schema *Schema
	cc     *compileCtx
}

func newJoinPlanner(schema *Schema, cc *compileCtx) *joinPlanner {
	return &joinPlanner{schema: schema, cc: cc}
}

// addJoin resolves segment against parentCollection (joined into b under
// parentAlias) and, if it names an inline (m2o/a2o) relation, emits the
// LEFT JOIN and returns the new alias and collection it targets. A nil
// Relation with a nil error means segment named an unknown relation or
// field, which the caller must silently skip per spec.md §7.
//
// o2a is deliberately excluded from this inline join even though spec.md
// §4.3's Join Planner gives it an unconditional LEFT JOIN recipe in the
// same tier as m2o/a2o: routing an o2a predicate hop through a plain LEFT
// JOIN here would let a parent row join to more than one child row and
// multiply the outer result set, the same row-multiplication problem o2m
// has - spec.md §4.4's predicate dispatch algorithm avoids that by routing
// both o2m and o2a predicates through an EXISTS/membership subquery
// instead (filter.go's compileExistence/compileMembership). addSortJoin
// below is the one caller that does want the literal §4.3 recipe, since
// ORDER BY only ever reads one projected column per outer row and doesn't
// care that the join could in principle match more than one child row.
func (jp *joinPlanner) addJoin(b Builder, parentAlias, parentCollection, segment string, aliasMap *AliasMap) (childAlias, childCollection string, rel *Relation, kind RelationKind, err error) {
	rel, kind, scope, target, err := ResolvePath(jp.schema, parentCollection, segment)
	if err != nil {
		return "", "", nil, 0, err
	}
	if rel == nil {
		jp.cc.log.WithField("path", segment).Warn("queryplan: unknown relation or field, skipping")
		return "", "", nil, 0, nil
	}
	if !kind.isInline() {
		return "", "", rel, kind, nil
	}

	targetColl, ok := jp.schema.Collection(target)
	if !ok {
		jp.cc.log.WithField("target", target).Warn("queryplan: relation target collection not found, skipping")
		return "", "", nil, 0, nil
	}

	alias := aliasMap.request(parentAlias, segment, rel, kind, target, scope)

	var onClause string
	switch kind {
	case KindM2O:
		onClause = fmt.Sprintf("%s.%s = %s.%s", alias, rel.ForeignKey, parentAlias, rel.LocalKey)
	case KindA2O:
		onClause = fmt.Sprintf("%s.%s = CAST(%s.%s AS CHAR(255)) AND %s.%s = ?", parentAlias, rel.LocalKey, alias, rel.ForeignKey, parentAlias, rel.DiscriminatorColumn)
	}

	join := fmt.Sprintf("%s AS %s ON %s", targetColl.Table, alias, onClause)
	if kind == KindA2O {
		b.LeftJoin(join, scope)
	} else {
		b.LeftJoin(join)
	}

	jp.cc.log.WithField("alias", alias).WithField("segment", segment).Debug("queryplan: join allocated")

	return alias, target, rel, kind, nil
}

// addSortJoin behaves like addJoin but also joins an o2a segment inline,
// per spec.md §4.3's Join Planner recipe for o2a:
// "LEFT JOIN child AS alias ON alias.discriminator = parent_collection AND
// alias.fk = CAST(parent.pk AS CHAR(255))" - the discriminator compares
// against parentCollection the same way compileExistence's o2a correlation
// does, not the caller's ":scope" suffix, since that suffix only selects
// which target table the relation's Scopes map resolves to. Only o2m is
// rejected here: ordering by a one-to-many relation is still ambiguous
// without an aggregate, and o2m has no inline join recipe to fall back to.
func (jp *joinPlanner) addSortJoin(b Builder, parentAlias, parentCollection, segment string, aliasMap *AliasMap) (childAlias, childCollection string, rel *Relation, kind RelationKind, err error) {
	rel, kind, scope, target, err := ResolvePath(jp.schema, parentCollection, segment)
	if err != nil {
		return "", "", nil, 0, err
	}
	if rel == nil {
		jp.cc.log.WithField("path", segment).Warn("queryplan: unknown relation or field, skipping")
		return "", "", nil, 0, nil
	}
	if kind == KindO2M {
		return "", "", rel, kind, nil
	}
	if kind.isInline() {
		return jp.addJoin(b, parentAlias, parentCollection, segment, aliasMap)
	}

	targetColl, ok := jp.schema.Collection(target)
	if !ok {
		jp.cc.log.WithField("target", target).Warn("queryplan: relation target collection not found, skipping")
		return "", "", nil, 0, nil
	}

	alias := aliasMap.request(parentAlias, segment, rel, kind, target, scope)
	onClause := fmt.Sprintf("%s.%s = ? AND %s.%s = CAST(%s.%s AS CHAR(255))",
		alias, rel.DiscriminatorColumn, alias, rel.ForeignKey, parentAlias, rel.LocalKey)
	join := fmt.Sprintf("%s AS %s ON %s", targetColl.Table, alias, onClause)
	b.LeftJoin(join, parentCollection)

	jp.cc.log.WithField("alias", alias).WithField("segment", segment).Debug("queryplan: sort join allocated")

	return alias, target, rel, kind, nil
}
