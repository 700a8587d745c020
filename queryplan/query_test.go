package queryplan

import (
	"testing"

	sq "github.com/Masterminds/squirrel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompileUnknownCollectionErrors(t *testing.T) {
	schema := testSchema()
	sb := NewSquirrelAdapter(sq.Select("*").From("ghosts AS ghosts"))
	err := Compile(sb, "ghosts", Query{}, schema)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidQuery)
}

func TestCompileEmptyQueryProducesNoWhere(t *testing.T) {
	schema := testSchema()
	sqlStr, _ := compileToSQL(t, schema, "posts", Query{})
	assert.NotContains(t, sqlStr, "WHERE")
}

func TestCompilePaginationAndSearch(t *testing.T) {
	schema := testSchema()
	limit := uint64(10)
	offset := uint64(20)
	q := Query{
		SearchTerm: "ada",
		SearchOn:   []string{"title"},
		Limit:      &limit,
		Offset:     &offset,
	}

	sqlStr, args := compileToSQL(t, schema, "posts", q)
	assert.Contains(t, sqlStr, "LOWER(posts.title) LIKE ?")
	assert.Contains(t, sqlStr, "LIMIT 10")
	assert.Contains(t, sqlStr, "OFFSET 20")
	assert.Equal(t, []interface{}{"%ada%"}, args)
}

func TestCompilePageOverridesOffset(t *testing.T) {
	schema := testSchema()
	limit := uint64(10)
	offset := uint64(999)
	page := uint64(3)
	q := Query{Limit: &limit, Offset: &offset, Page: &page}

	sqlStr, _ := compileToSQL(t, schema, "posts", q)
	assert.Contains(t, sqlStr, "LIMIT 10")
	assert.Contains(t, sqlStr, "OFFSET 20", "offset = limit*(page-1) overrides the given offset")
}

func TestCompileNoLimitOmitsLimitClause(t *testing.T) {
	schema := testSchema()
	sqlStr, _ := compileToSQL(t, schema, "posts", Query{})
	assert.NotContains(t, sqlStr, "LIMIT")
}

func TestCompileSearchDefaultsToEveryScalarFieldAndDispatchesByType(t *testing.T) {
	schema := testSchema()
	q := Query{SearchTerm: "hello"}

	sqlStr, _ := compileToSQL(t, schema, "posts", q)
	assert.Contains(t, sqlStr, "LOWER(posts.title) LIKE ?")
	assert.NotContains(t, sqlStr, "created_at", "a date field contributes no search disjunct for a non-date term")
}

func TestCompileAggregateWithGroupBy(t *testing.T) {
	schema := testSchema()
	q := Query{
		Aggregates: []Aggregate{{Func: AggCount, Field: "title", Alias: "n"}},
		GroupBy:    []string{"createdAt"},
	}

	sqlStr, _ := compileToSQL(t, schema, "posts", q)
	assert.Contains(t, sqlStr, "COUNT(posts.title) AS n")
	assert.Contains(t, sqlStr, "GROUP BY posts.created_at")
}

func TestCompileAggregateCountAllAndSum(t *testing.T) {
	schema := testSchema()
	schema.Collections["posts"].AddField("price", "price", FieldFloat)
	q := Query{
		Aggregates: []Aggregate{
			NewAggregate(AggCount, "*"),
			NewAggregate(AggSum, "price"),
		},
	}

	sqlStr, _ := compileToSQL(t, schema, "posts", q)
	assert.Contains(t, sqlStr, "COUNT(*) AS count")
	assert.Contains(t, sqlStr, `SUM(posts.price) AS "sum->price"`)
}

func TestCompileAggregateDistinctVariants(t *testing.T) {
	schema := testSchema()
	schema.Collections["posts"].AddField("price", "price", FieldFloat)
	q := Query{
		Aggregates: []Aggregate{
			NewDistinctAggregate(AggCount, "title"),
			NewDistinctAggregate(AggSum, "price"),
			NewDistinctAggregate(AggAvg, "price"),
		},
	}

	sqlStr, _ := compileToSQL(t, schema, "posts", q)
	assert.Contains(t, sqlStr, `COUNT(DISTINCT posts.title) AS "countDistinct->title"`)
	assert.Contains(t, sqlStr, `SUM(DISTINCT posts.price) AS "sumDistinct->price"`)
	assert.Contains(t, sqlStr, `AVG(DISTINCT posts.price) AS "avgDistinct->price"`)
}

func TestCompileWithCustomOperatorOption(t *testing.T) {
	schema := testSchema()
	ops := DefaultOperators()
	ops.Register("_startswith", func(col string, v interface{}) (sq.Sqlizer, error) {
		s, _ := v.(string)
		return sq.Like{col: s + "%"}, nil
	})

	q := Query{Filter: Pred("title", "_startswith", "Ada")}
	sb := NewSquirrelAdapter(sq.Select("*").From("posts AS posts"))
	err := Compile(sb, "posts", q, schema, WithOperators(ops))
	require.NoError(t, err)

	sqlStr, args, err := sb.SB.ToSql()
	require.NoError(t, err)
	assert.Contains(t, sqlStr, "title LIKE ?")
	assert.Equal(t, []interface{}{"Ada%"}, args)
}

func TestCompileRespectsMaxFilterDepth(t *testing.T) {
	schema := testSchema()
	f := Pred("title", "_eq", "x")
	for i := 0; i < 20; i++ {
		f = And(f)
	}

	sb := NewSquirrelAdapter(sq.Select("*").From("posts AS posts"))
	err := Compile(sb, "posts", Query{Filter: f}, schema, WithMaxFilterDepth(5))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrFilterTooDeep)
}
