package queryplan

import "github.com/sirupsen/logrus"

// Query bundles everything one compilation pass renders onto a Builder.
// Zero values are all "not requested" - an empty Filter compiles to no
// WHERE clause, a nil Sort adds no ORDER BY, and so on.
type Query struct {
	Filter     Filter
	Sort       []string
	SearchTerm string
	SearchOn   []string
	Aggregates []Aggregate
	GroupBy    []string

	// Limit is nil for "no limit requested" (spec.md's "-1" sentinel maps
	// to a nil pointer here rather than a signed -1 value).
	Limit  *uint64
	Offset *uint64
	// Page is 1-based; when set alongside Limit it overrides Offset with
	// Limit*(Page-1), per spec.md §4.7's pagination-coherence rule.
	Page *uint64
}

// rootAliasFor is the alias the root collection is joined under: its own
// name, matching the teacher's convention of aliasing the base table to
// itself when no alias is explicitly requested.
func rootAliasFor(collection string) string {
	return collection
}

// options holds the resolved, optional inputs to Compile after every
// Option has been applied.
type options struct {
	logger      *logrus.Logger
	ops         *OperatorRegistry
	dateParse   DateParser
	maxDepth    int
	aliasLength int
}

// Option configures one optional aspect of a Compile call, in the same
// chainable-functional-option spirit as the teacher's fluent Query
// builder.
type Option func(*options)

// WithLogger overrides the *logrus.Logger compilation events are written
// to. Defaults to a quiet, warn-level logger.
func WithLogger(l *logrus.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithOperators overrides the OperatorRegistry, letting callers register
// custom operators alongside or instead of DefaultOperators().
func WithOperators(r *OperatorRegistry) Option {
	return func(o *options) { o.ops = r }
}

// WithDateParser overrides the DateParser used to coerce FieldDate values.
func WithDateParser(dp DateParser) Option {
	return func(o *options) { o.dateParse = dp }
}

// WithMaxFilterDepth overrides the recursion guard (spec.md §5); default 10.
func WithMaxFilterDepth(n int) Option {
	return func(o *options) { o.maxDepth = n }
}

// WithAliasLength overrides the generated alias length (spec.md §4.1);
// default 5.
func WithAliasLength(n int) Option {
	return func(o *options) { o.aliasLength = n }
}

func resolveOptions(opts []Option) *options {
	o := &options{
		ops:         DefaultOperators(),
		dateParse:   NewDefaultDateParser(),
		maxDepth:    10,
		aliasLength: defaultAliasLength,
	}
	for _, apply := range opts {
		apply(o)
	}
	return o
}

// Compile renders q onto b for collection against schema, in the fixed
// order spec.md §4.7 requires: sort, then limit, then offset (page
// overrides offset when both are given), then search, then group/aggregate,
// then filter last - so subquery builders nested inside the filter see a
// builder already carrying pagination-free context, and ORDER BY precedes
// LIMIT in the emitted SQL.
func Compile(b Builder, collection string, q Query, schema *Schema, opts ...Option) error {
	o := resolveOptions(opts)
	cc := newCompileCtx(o.logger, o.maxDepth, o.ops, o.dateParse, schema, o.aliasLength)
	cc.log = cc.log.WithField("collection", collection)

	if _, ok := schema.Collection(collection); !ok {
		return invalidQueryf("unknown collection %q", collection)
	}

	root := rootAliasFor(collection)

	if err := applySort(b, q.Sort, collection, cc); err != nil {
		return err
	}

	if q.Limit != nil {
		b.Limit(*q.Limit)
	}

	offset := q.Offset
	if q.Page != nil && q.Limit != nil {
		pageOffset := *q.Limit * (*q.Page - 1)
		offset = &pageOffset
	}
	if offset != nil {
		b.Offset(*offset)
	}

	if q.SearchTerm != "" {
		if err := applySearch(b, q.SearchTerm, q.SearchOn, collection, cc); err != nil {
			return err
		}
	}

	if len(q.Aggregates) > 0 || len(q.GroupBy) > 0 {
		if err := applyAggregate(b, q.Aggregates, q.GroupBy, collection, cc); err != nil {
			return err
		}
	}

	if q.Filter.Group != nil || q.Filter.Predicate != nil {
		if err := applyFilter(b, q.Filter, collection, root, cc); err != nil {
			return err
		}
	}

	return nil
}
