package queryplan

import "strings"

// applySort compiles a list of sort directives ("-author.name" descending,
// "createdAt" ascending) onto b, reusing cc's shared alias map so a sort
// path through the same relation segment as a filter still gets its own
// fresh alias per spec.md's per-request allocation rule.
func applySort(b Builder, sort []string, collection string, cc *compileCtx) error {
	for _, entry := range sort {
		if err := applyOneSort(b, entry, collection, cc); err != nil {
			return err
		}
	}
	return nil
}

func applyOneSort(b Builder, entry, collection string, cc *compileCtx) error {
	desc := false
	path := entry
	if strings.HasPrefix(path, "-") {
		desc = true
		path = path[1:]
	}
	if path == "" {
		return invalidQueryf("sort entry %q has an empty path", entry)
	}

	segments := strings.Split(path, ".")
	curCollection := collection
	curAlias := rootAliasFor(collection)

	for i := 0; i < len(segments)-1; i++ {
		childAlias, childCollection, rel, kind, err := cc.jp.addSortJoin(b, curAlias, curCollection, segments[i], cc.aliasMap)
		if err != nil {
			return err
		}
		if rel == nil {
			// unknown relation mid-path: nothing to sort by, skip silently.
			return nil
		}
		if kind == KindO2M {
			return invalidQueryf("sort path %q crosses a %s relation, which requires aggregation", entry, kind)
		}
		curAlias, curCollection = childAlias, childCollection
	}

	coll, ok := cc.schema.Collection(curCollection)
	if !ok {
		return nil
	}
	field, ok := coll.Field(segments[len(segments)-1])
	if !ok {
		cc.log.WithField("field", segments[len(segments)-1]).Warn("queryplan: unknown sort field, skipping")
		return nil
	}

	dir := "ASC"
	if desc {
		dir = "DESC"
	}
	b.OrderBy(curAlias + "." + field.Column + " " + dir)
	return nil
}
