// Package queryplan compiles declarative filter and sort requests into SQL
// joins and predicates against a relational Schema.
//
// The package focuses on two goals:
//
//   - Determinism: a typed Filter AST and an ordered alias map instead of
//     map[string]interface{}, so the same query compiles to the same SQL
//     shape every time.
//   - Relation-kind correctness: many-to-one and any-to-one relations
//     compile to inline LEFT JOINs, while one-to-many and one-to-any
//     relations compile to correlated EXISTS subqueries, so filtering
//     through a one-to-many relation never multiplies result rows.
//
// Compile is the entry point. It renders a Query onto a Builder (the
// module ships SquirrelAdapter over github.com/Masterminds/squirrel)
// against a Schema describing the collections and relations involved:
//
//	schema := queryplan.NewSchema()
//	schema.AddCollection("posts", "posts").
//		AddField("title", "title", queryplan.FieldString).
//		AddRelation("author", queryplan.KindM2O, "authors", "author_id", "id")
//	schema.AddCollection("authors", "authors").
//		AddField("name", "name", queryplan.FieldString)
//
//	q := queryplan.Query{
//		Filter: queryplan.Pred("author.name", "_eq", "Ada"),
//		Sort:   []string{"-title"},
//	}
//
//	sb := queryplan.NewSquirrelAdapter(squirrel.Select("posts.*").From("posts"))
//	err := queryplan.Compile(sb, "posts", q, schema)
//	sql, args, err := sb.SB.ToSql()
//
// Logging, operator registration, date coercion, the filter depth limit and
// the alias length are all pluggable via functional options on Compile; see
// Option.
package queryplan
