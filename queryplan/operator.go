package queryplan

import (
	"fmt"

	sq "github.com/Masterminds/squirrel"
)

// OperatorFunc renders one predicate operator against column into a
// squirrel.Sqlizer. value has already been coerced to the field's type
// (coerce.go) by the time an OperatorFunc sees it.
type OperatorFunc func(column string, value interface{}) (sq.Sqlizer, error)

// OperatorRegistry maps operator names ("_eq", "_in", ...) to their
// OperatorFunc.
type OperatorRegistry struct {
	funcs map[string]OperatorFunc
}

// Register adds or overrides the OperatorFunc for name.
func (r *OperatorRegistry) Register(name string, fn OperatorFunc) {
	r.funcs[name] = fn
}

// Lookup returns the OperatorFunc registered for name, if any.
func (r *OperatorRegistry) Lookup(name string) (OperatorFunc, bool) {
	fn, ok := r.funcs[name]
	return fn, ok
}

// negationEntry names op's logical inverse and whether op is itself the
// negative half of the pair. Negativity is recorded explicitly per entry
// rather than derived from the operator's spelling, because "_null" begins
// with the same "_n" a prefix check would key on for "_neq"/"_nin"/... but
// isn't the negative half of anything named "_ull".
type negationEntry struct {
	Inverse  string
	Negative bool
}

// negationPairs maps every operator to its negationEntry.
var negationPairs = map[string]negationEntry{
	"_eq":           {Inverse: "_neq", Negative: false},
	"_neq":          {Inverse: "_eq", Negative: true},
	"_in":           {Inverse: "_nin", Negative: false},
	"_nin":          {Inverse: "_in", Negative: true},
	"_contains":     {Inverse: "_ncontains", Negative: false},
	"_ncontains":    {Inverse: "_contains", Negative: true},
	"_starts_with":  {Inverse: "_nstarts_with", Negative: false},
	"_nstarts_with": {Inverse: "_starts_with", Negative: true},
	"_ends_with":    {Inverse: "_nends_with", Negative: false},
	"_nends_with":   {Inverse: "_ends_with", Negative: true},
	"_between":      {Inverse: "_nbetween", Negative: false},
	"_nbetween":     {Inverse: "_between", Negative: true},
	"_empty":        {Inverse: "_nempty", Negative: false},
	"_nempty":       {Inverse: "_empty", Negative: true},
	"_null":         {Inverse: "_nnull", Negative: false},
	"_nnull":        {Inverse: "_null", Negative: true},
}

// isNegative reports whether op is the negative half of a negation pair.
func isNegative(op string) bool {
	entry, ok := negationPairs[op]
	return ok && entry.Negative
}

// invert returns the logical opposite of op, used when a Not() negation
// that reaches a leaf is applied by inverting its operator rather than
// wrapping with NOT. An o2m/o2a hop consumes the negation itself (NOT
// EXISTS / NOT IN), so leaves inside that subquery are not inverted.
func invert(op string) (string, bool) {
	entry, ok := negationPairs[op]
	return entry.Inverse, ok
}

// DefaultOperators returns the built-in operator set every Schema-backed
// compilation starts from.
func DefaultOperators() *OperatorRegistry {
	r := &OperatorRegistry{funcs: make(map[string]OperatorFunc)}

	r.Register("_eq", func(col string, v interface{}) (sq.Sqlizer, error) {
		return sq.Eq{col: v}, nil
	})
	r.Register("_neq", func(col string, v interface{}) (sq.Sqlizer, error) {
		return sq.NotEq{col: v}, nil
	})
	r.Register("_in", func(col string, v interface{}) (sq.Sqlizer, error) {
		return sq.Eq{col: v}, nil
	})
	r.Register("_nin", func(col string, v interface{}) (sq.Sqlizer, error) {
		return sq.NotEq{col: v}, nil
	})
	r.Register("_gt", func(col string, v interface{}) (sq.Sqlizer, error) {
		return sq.Gt{col: v}, nil
	})
	r.Register("_gte", func(col string, v interface{}) (sq.Sqlizer, error) {
		return sq.GtOrEq{col: v}, nil
	})
	r.Register("_lt", func(col string, v interface{}) (sq.Sqlizer, error) {
		return sq.Lt{col: v}, nil
	})
	r.Register("_lte", func(col string, v interface{}) (sq.Sqlizer, error) {
		return sq.LtOrEq{col: v}, nil
	})
	r.Register("_contains", func(col string, v interface{}) (sq.Sqlizer, error) {
		s, ok := v.(string)
		if !ok {
			return nil, invalidQueryf("_contains requires a string value, got %T", v)
		}
		return sq.Like{col: "%" + s + "%"}, nil
	})
	r.Register("_ncontains", func(col string, v interface{}) (sq.Sqlizer, error) {
		s, ok := v.(string)
		if !ok {
			return nil, invalidQueryf("_ncontains requires a string value, got %T", v)
		}
		return sq.NotLike{col: "%" + s + "%"}, nil
	})
	r.Register("_starts_with", func(col string, v interface{}) (sq.Sqlizer, error) {
		s, ok := v.(string)
		if !ok {
			return nil, invalidQueryf("_starts_with requires a string value, got %T", v)
		}
		return sq.Like{col: s + "%"}, nil
	})
	r.Register("_nstarts_with", func(col string, v interface{}) (sq.Sqlizer, error) {
		s, ok := v.(string)
		if !ok {
			return nil, invalidQueryf("_nstarts_with requires a string value, got %T", v)
		}
		return sq.NotLike{col: s + "%"}, nil
	})
	r.Register("_ends_with", func(col string, v interface{}) (sq.Sqlizer, error) {
		s, ok := v.(string)
		if !ok {
			return nil, invalidQueryf("_ends_with requires a string value, got %T", v)
		}
		return sq.Like{col: "%" + s}, nil
	})
	r.Register("_nends_with", func(col string, v interface{}) (sq.Sqlizer, error) {
		s, ok := v.(string)
		if !ok {
			return nil, invalidQueryf("_nends_with requires a string value, got %T", v)
		}
		return sq.NotLike{col: "%" + s}, nil
	})
	r.Register("_between", func(col string, v interface{}) (sq.Sqlizer, error) {
		bounds, ok := v.([2]interface{})
		if !ok {
			return nil, invalidQueryf("_between requires a 2-element range, got %T", v)
		}
		return sq.Expr(fmt.Sprintf("%s BETWEEN ? AND ?", col), bounds[0], bounds[1]), nil
	})
	r.Register("_nbetween", func(col string, v interface{}) (sq.Sqlizer, error) {
		bounds, ok := v.([2]interface{})
		if !ok {
			return nil, invalidQueryf("_nbetween requires a 2-element range, got %T", v)
		}
		return sq.Expr(fmt.Sprintf("%s NOT BETWEEN ? AND ?", col), bounds[0], bounds[1]), nil
	})
	r.Register("_empty", func(col string, v interface{}) (sq.Sqlizer, error) {
		return sq.Eq{col: ""}, nil
	})
	r.Register("_nempty", func(col string, v interface{}) (sq.Sqlizer, error) {
		return sq.NotEq{col: ""}, nil
	})
	r.Register("_null", func(col string, v interface{}) (sq.Sqlizer, error) {
		return sq.Eq{col: nil}, nil
	})
	r.Register("_nnull", func(col string, v interface{}) (sq.Sqlizer, error) {
		return sq.NotEq{col: nil}, nil
	})

	return r
}
