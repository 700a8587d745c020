package queryplan

import (
	"strings"

	sq "github.com/Masterminds/squirrel"
)

// Builder is the narrow surface the compiler decorates. Callers can supply
// their own implementation; the module ships SquirrelAdapter over
// github.com/Masterminds/squirrel for the common case.
type Builder interface {
	LeftJoin(join string, args ...interface{})
	Where(pred sq.Sqlizer)
	OrderBy(expr string)
	Limit(n uint64)
	Offset(n uint64)
	GroupBy(cols ...string)
	Column(expr string, args ...interface{})
	// Sub returns a fresh Builder seeded as "SELECT 1 FROM target AS alias",
	// used to compile an EXISTS/NOT EXISTS subquery's own join+predicate
	// tree without touching the outer query.
	Sub(target, alias string) Builder
	// SubSelect returns a fresh Builder seeded as
	// "SELECT alias.column FROM target AS alias", used for the
	// projection-based "_some"/"_none" membership subquery form
	// (spec.md §4.4.1), which needs the foreign key projected rather
	// than a constant "1". column is treated as a raw expression (not
	// quoted/prefixed further) when it already contains "(", letting a
	// caller project a CAST(...) expression instead of a bare column.
	SubSelect(target, alias, column string) Builder
	// ToSub renders the builder's accumulated SELECT as a squirrel
	// Sqlizer, for embedding inside sq.Expr("EXISTS (?)", ...).
	ToSub() sq.Sqlizer
}

// SquirrelAdapter wraps a squirrel.SelectBuilder, re-assigning the wrapped
// value on every mutation since squirrel's builder methods return new,
// immutable values rather than mutating in place.
type SquirrelAdapter struct {
	SB sq.SelectBuilder
}

// NewSquirrelAdapter wraps an existing squirrel.SelectBuilder.
func NewSquirrelAdapter(sb sq.SelectBuilder) *SquirrelAdapter {
	return &SquirrelAdapter{SB: sb}
}

func (b *SquirrelAdapter) LeftJoin(join string, args ...interface{}) {
	b.SB = b.SB.LeftJoin(join, args...)
}

func (b *SquirrelAdapter) Where(pred sq.Sqlizer) {
	b.SB = b.SB.Where(pred)
}

func (b *SquirrelAdapter) OrderBy(expr string) {
	b.SB = b.SB.OrderBy(expr)
}

func (b *SquirrelAdapter) Limit(n uint64) {
	b.SB = b.SB.Limit(n)
}

func (b *SquirrelAdapter) Offset(n uint64) {
	b.SB = b.SB.Offset(n)
}

func (b *SquirrelAdapter) GroupBy(cols ...string) {
	b.SB = b.SB.GroupBy(cols...)
}

func (b *SquirrelAdapter) Column(expr string, args ...interface{}) {
	b.SB = b.SB.Column(sq.Expr(expr, args...))
}

func (b *SquirrelAdapter) Sub(target, alias string) Builder {
	return &SquirrelAdapter{
		SB: sq.Select("1").From(target + " AS " + alias),
	}
}

func (b *SquirrelAdapter) SubSelect(target, alias, column string) Builder {
	expr := alias + "." + column
	if strings.Contains(column, "(") {
		expr = column
	}
	return &SquirrelAdapter{
		SB: sq.Select(expr).From(target + " AS " + alias),
	}
}

func (b *SquirrelAdapter) ToSub() sq.Sqlizer {
	return b.SB
}
