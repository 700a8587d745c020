package queryplan

import (
	"strings"
	"testing"

	sq "github.com/Masterminds/squirrel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSchema() *Schema {
	schema := NewSchema()

	schema.AddCollection("posts", "posts").
		AddField("title", "title", FieldString).
		AddField("createdAt", "created_at", FieldDate).
		AddRelation("author", KindM2O, "authors", "author_id", "id").
		AddRelation("comments", KindO2M, "comments", "id", "post_id").
		AddPolymorphicRelation("owner", KindA2O, "owner_id", "id", "owner_type", map[string]string{
			"author": "authors",
		})

	schema.AddCollection("authors", "authors").
		AddField("name", "name", FieldString).
		AddField("country", "country", FieldString)

	schema.AddCollection("comments", "comments").
		AddField("body", "body", FieldString).
		AddField("flagged", "flagged", FieldBool)

	schema.AddCollection("activity", "activity").
		AddField("action", "action", FieldString).
		AddField("itemCollection", "item_collection", FieldString)

	posts, _ := schema.Collection("posts")
	// "activity" on posts is o2a: activity rows carry a polymorphic
	// item_id/item_collection pair that may point at posts among other
	// collections, discriminated by item_collection == "posts".
	posts.AddPolymorphicRelation("activity", KindO2A, "id", "item_id", "item_collection", map[string]string{
		"entries": "activity",
	})

	return schema
}

func compileToSQL(t *testing.T, schema *Schema, collection string, q Query) (string, []interface{}) {
	t.Helper()
	sb := NewSquirrelAdapter(sq.Select("*").From(collection + " AS " + collection))
	err := Compile(sb, collection, q, schema)
	require.NoError(t, err)
	sqlStr, args, err := sb.SB.ToSql()
	require.NoError(t, err)
	return sqlStr, args
}

func TestCompileInlineM2OJoin(t *testing.T) {
	schema := testSchema()
	q := Query{Filter: Pred("author.name", "_eq", "Ada")}

	sqlStr, args := compileToSQL(t, schema, "posts", q)

	assert.Contains(t, sqlStr, "LEFT JOIN authors AS")
	assert.Contains(t, sqlStr, ".name = ?")
	assert.Equal(t, []interface{}{"Ada"}, args)
}

func TestCompileO2MBuildsExistsSubquery(t *testing.T) {
	schema := testSchema()
	q := Query{Filter: Pred("comments.flagged", "_eq", true)}

	sqlStr, args := compileToSQL(t, schema, "posts", q)

	assert.Contains(t, sqlStr, "EXISTS (")
	assert.NotContains(t, sqlStr, "NOT EXISTS")
	assert.Contains(t, sqlStr, ".flagged = ?")
	assert.Equal(t, []interface{}{true}, args)
}

func TestCompileNotO2MUsesNotExists(t *testing.T) {
	schema := testSchema()
	q := Query{Filter: Not(Pred("comments.flagged", "_eq", true))}

	sqlStr, _ := compileToSQL(t, schema, "posts", q)
	assert.Contains(t, sqlStr, "NOT EXISTS (")
}

func TestCompileNotInvertsLeafOperatorWithoutWrapping(t *testing.T) {
	schema := testSchema()
	q := Query{Filter: Not(Pred("title", "_eq", "Ada"))}

	sqlStr, args := compileToSQL(t, schema, "posts", q)
	assert.Contains(t, sqlStr, "title <> ?")
	assert.NotContains(t, sqlStr, "NOT (")
	assert.Equal(t, []interface{}{"Ada"}, args)
}

func TestCompileDoubleNotCancelsOut(t *testing.T) {
	schema := testSchema()
	q := Query{Filter: Not(Not(Pred("title", "_eq", "Ada")))}

	sqlStr, _ := compileToSQL(t, schema, "posts", q)
	assert.Contains(t, sqlStr, "title = ?")
}

func TestCompileNotFlipsAndOr(t *testing.T) {
	schema := testSchema()
	q := Query{Filter: Not(Or(
		Pred("title", "_eq", "a"),
		Pred("title", "_eq", "b"),
	))}

	sqlStr, _ := compileToSQL(t, schema, "posts", q)
	assert.Contains(t, sqlStr, "AND")
	assert.Contains(t, sqlStr, "title <> ?")
}

func TestCompileMatchAllOrProducesNoWhere(t *testing.T) {
	schema := testSchema()
	q := Query{Filter: MatchAll()}

	sqlStr, _ := compileToSQL(t, schema, "posts", q)
	assert.NotContains(t, strings.ToUpper(sqlStr), "WHERE")
}

func TestNormalizeDropsMatchAllFromAnd(t *testing.T) {
	f := And(Pred("title", "_eq", "x"), MatchAll())
	nf := normalize(f)
	require.NotNil(t, nf.Group)
	assert.Len(t, nf.Group.Clauses, 1)
}

func TestNormalizeMatchAllShortCircuitsOr(t *testing.T) {
	f := Or(Pred("title", "_eq", "x"), MatchAll(), Pred("title", "_eq", "y"))
	nf := normalize(f)
	assert.True(t, nf.isMatchAll())
}

func TestCompileUnknownFieldIsSilentlyDropped(t *testing.T) {
	schema := testSchema()
	q := Query{Filter: And(
		Pred("title", "_eq", "hello"),
		Pred("doesNotExist", "_eq", "x"),
	)}

	sqlStr, args := compileToSQL(t, schema, "posts", q)
	assert.Contains(t, sqlStr, "title = ?")
	assert.Equal(t, []interface{}{"hello"}, args)
}

func TestCompileUnknownOperatorErrors(t *testing.T) {
	schema := testSchema()
	q := Query{Filter: Pred("title", "_bogus", "x")}

	sb := NewSquirrelAdapter(sq.Select("*").From("posts AS posts"))
	err := Compile(sb, "posts", q, schema)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownOperator)
}

func TestCompilePolymorphicA2ORequiresScope(t *testing.T) {
	schema := testSchema()
	q := Query{Filter: Pred("owner.name", "_eq", "Ada")}

	sb := NewSquirrelAdapter(sq.Select("*").From("posts AS posts"))
	err := Compile(sb, "posts", q, schema)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidQuery)
}

func TestCompilePolymorphicA2OWithScope(t *testing.T) {
	schema := testSchema()
	q := Query{Filter: Pred("owner:author.name", "_eq", "Ada")}

	sqlStr, _ := compileToSQL(t, schema, "posts", q)
	assert.Contains(t, sqlStr, "LEFT JOIN authors AS")
	assert.Contains(t, sqlStr, "owner_type")
}

func TestCompileO2ABuildsExistsSubqueryWithDiscriminator(t *testing.T) {
	schema := testSchema()
	q := Query{Filter: Pred("activity:entries.action", "_eq", "viewed")}

	sqlStr, args := compileToSQL(t, schema, "posts", q)

	assert.Contains(t, sqlStr, "EXISTS (")
	assert.Contains(t, sqlStr, "item_collection = ?")
	assert.Contains(t, sqlStr, ".action = ?")
	assert.Equal(t, []interface{}{"posts", "viewed"}, args)
}

func TestCompileNotO2AUsesNotExists(t *testing.T) {
	schema := testSchema()
	q := Query{Filter: Not(Pred("activity:entries.action", "_eq", "viewed"))}

	sqlStr, _ := compileToSQL(t, schema, "posts", q)
	assert.Contains(t, sqlStr, "NOT EXISTS (")
}

func TestCompileRelInlineAndsMultipleFieldsInOneJoin(t *testing.T) {
	schema := testSchema()
	q := Query{Filter: Rel("author", And(
		Pred("name", "_eq", "Ada"),
		Pred("country", "_eq", "NZ"),
	))}

	sqlStr, args := compileToSQL(t, schema, "posts", q)

	assert.Equal(t, 1, strings.Count(sqlStr, "LEFT JOIN authors AS"), "one join for both fields")
	assert.Contains(t, sqlStr, ".name = ?")
	assert.Contains(t, sqlStr, ".country = ?")
	assert.Equal(t, []interface{}{"Ada", "NZ"}, args)
}

func TestCompileRelO2MDefaultsToExists(t *testing.T) {
	schema := testSchema()
	q := Query{Filter: Rel("comments", Pred("flagged", "_eq", true))}

	sqlStr, args := compileToSQL(t, schema, "posts", q)

	assert.Contains(t, sqlStr, "EXISTS (")
	assert.NotContains(t, sqlStr, "NOT EXISTS")
	assert.Equal(t, []interface{}{true}, args)
}

func TestCompileSomeUsesInMembershipSubquery(t *testing.T) {
	schema := testSchema()
	q := Query{Filter: Some("comments", Pred("flagged", "_eq", true))}

	sqlStr, args := compileToSQL(t, schema, "posts", q)

	assert.Contains(t, sqlStr, "posts.id IN (")
	assert.Contains(t, sqlStr, "SELECT")
	assert.Contains(t, sqlStr, "post_id")
	assert.Contains(t, sqlStr, "IS NOT NULL")
	assert.Contains(t, sqlStr, ".flagged = ?")
	assert.NotContains(t, sqlStr, "NOT IN")
	assert.Equal(t, []interface{}{true}, args)
}

func TestCompileNoneUsesNotInMembershipSubquery(t *testing.T) {
	schema := testSchema()
	q := Query{Filter: None("comments", Pred("flagged", "_eq", true))}

	sqlStr, _ := compileToSQL(t, schema, "posts", q)

	assert.Contains(t, sqlStr, "posts.id NOT IN (")
}

func TestCompileNotSomeFlipsToNotIn(t *testing.T) {
	schema := testSchema()
	q := Query{Filter: Not(Some("comments", Pred("flagged", "_eq", true)))}

	sqlStr, _ := compileToSQL(t, schema, "posts", q)

	assert.Contains(t, sqlStr, "posts.id NOT IN (")
}

func TestCompileSomeO2ACastsBothSidesAndFiltersDiscriminator(t *testing.T) {
	schema := testSchema()
	q := Query{Filter: Some("activity:entries", Pred("action", "_eq", "viewed"))}

	sqlStr, args := compileToSQL(t, schema, "posts", q)

	assert.Contains(t, sqlStr, "CAST(")
	assert.Contains(t, sqlStr, "item_collection")
	assert.Contains(t, sqlStr, "IN (")
	assert.Equal(t, []interface{}{"posts", "viewed"}, args)
}

func TestCompileFreshAliasPerRepeatedPath(t *testing.T) {
	schema := testSchema()
	q := Query{Filter: Or(
		Pred("author.name", "_eq", "Ada"),
		Pred("author.country", "_eq", "NZ"),
	)}

	sqlStr, _ := compileToSQL(t, schema, "posts", q)
	joins := strings.Count(sqlStr, "LEFT JOIN authors AS")
	assert.Equal(t, 2, joins, "each request for author.* allocates its own join, per spec")
}
