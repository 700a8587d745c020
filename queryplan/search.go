package queryplan

import (
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"

	sq "github.com/Masterminds/squirrel"
)

// applySearch implements spec.md §6's free-text search fan-out: one
// disjunct per scalar field considered, dispatched by FieldType -
// string/text fields contribute a case-insensitive LIKE, numeric fields
// contribute an equality check when term parses as a number, and uuid
// fields contribute an equality check when term is a valid UUID. searchOn,
// when non-empty, narrows the fields considered to that list; otherwise
// every scalar field of collection participates, matching spec.md §6's
// "every scalar field of the root collection". All disjuncts are grouped
// into a single clause ANDed against whatever else the builder carries.
func applySearch(b Builder, term string, searchOn []string, collection string, cc *compileCtx) error {
	if term == "" {
		return nil
	}
	coll, ok := cc.schema.Collection(collection)
	if !ok {
		return nil
	}
	alias := rootAliasFor(collection)

	names := searchOn
	if len(names) == 0 {
		names = make([]string, 0, len(coll.Fields))
		for name := range coll.Fields {
			names = append(names, name)
		}
		sort.Strings(names)
	}

	var parts []sq.Sqlizer
	for _, name := range names {
		field, ok := coll.Field(name)
		if !ok {
			cc.log.WithField("field", name).Warn("queryplan: unknown search field, skipping")
			continue
		}
		column := alias + "." + field.Column
		switch field.Type {
		case FieldString, FieldText:
			parts = append(parts, sq.Expr("LOWER("+column+") LIKE ?", "%"+strings.ToLower(term)+"%"))
		case FieldInt, FieldFloat:
			if n, err := strconv.ParseFloat(term, 64); err == nil {
				parts = append(parts, sq.Eq{column: n})
			}
		case FieldUUID:
			if _, err := uuid.Parse(term); err == nil {
				parts = append(parts, sq.Eq{column: term})
			}
		}
	}
	if len(parts) == 0 {
		return nil
	}
	b.Where(sq.Or(parts))
	return nil
}
