package queryplan

import "github.com/pkg/errors"

// Sentinel error kinds per the compiler's contract. UnknownField and
// UnknownRelation are deliberately absent here: per spec they are silently
// dropped during compilation rather than surfaced as errors.
var (
	// ErrInvalidQuery marks a structurally malformed query (a Filter clause
	// that is neither a group nor a predicate, a sort entry with an empty
	// path, and similar shape violations).
	ErrInvalidQuery = errors.New("queryplan: invalid query")

	// ErrUnknownOperator marks a predicate whose operator name is not
	// registered in the active OperatorRegistry.
	ErrUnknownOperator = errors.New("queryplan: unknown operator")

	// ErrFilterTooDeep marks a filter/path whose nesting exceeds the
	// configured maximum depth.
	ErrFilterTooDeep = errors.New("queryplan: filter nesting too deep")
)

// invalidQueryf wraps ErrInvalidQuery with formatted context while preserving
// the sentinel for errors.Cause/errors.Is-style callers that switch on kind.
func invalidQueryf(format string, args ...interface{}) error {
	return errors.Wrapf(ErrInvalidQuery, format, args...)
}

func unknownOperatorf(format string, args ...interface{}) error {
	return errors.Wrapf(ErrUnknownOperator, format, args...)
}

func tooDeepf(format string, args ...interface{}) error {
	return errors.Wrapf(ErrFilterTooDeep, format, args...)
}
