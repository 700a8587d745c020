package queryplan

import (
	"time"

	"github.com/spf13/cast"
)

// DateParser coerces a raw filter value into a time.Time. It is the one
// external collaborator spec.md §6 names explicitly: dialect-specific
// date/time parsing is out of scope for the compiler itself, so callers
// may supply their own. DefaultDateParser covers the common RFC3339 case.
type DateParser interface {
	ParseDate(value interface{}) (time.Time, error)
}

// DefaultDateParser parses string values with time.Parse against a fixed
// set of layouts, falling back through each in order.
type DefaultDateParser struct {
	Layouts []string
}

// NewDefaultDateParser returns a DefaultDateParser trying RFC3339 first,
// then a handful of common date-only/date-time layouts.
func NewDefaultDateParser() *DefaultDateParser {
	return &DefaultDateParser{
		Layouts: []string{
			time.RFC3339,
			"2006-01-02T15:04:05",
			"2006-01-02 15:04:05",
			"2006-01-02",
		},
	}
}

func (p *DefaultDateParser) ParseDate(value interface{}) (time.Time, error) {
	s, err := cast.ToStringE(value)
	if err != nil {
		return time.Time{}, invalidQueryf("date value must be a string: %v", err)
	}
	var lastErr error
	for _, layout := range p.Layouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, invalidQueryf("could not parse date %q: %v", s, lastErr)
}

// coerce converts value to the scalar type ft expects, using spf13/cast
// for numeric/bool/string conversions and dp for FieldDate.
func coerce(ft FieldType, value interface{}, dp DateParser) (interface{}, error) {
	switch ft {
	case FieldString, FieldText, FieldUUID:
		return cast.ToStringE(value)
	case FieldInt:
		return cast.ToInt64E(value)
	case FieldFloat:
		return cast.ToFloat64E(value)
	case FieldBool:
		return cast.ToBoolE(value)
	case FieldDate:
		return dp.ParseDate(value)
	default:
		return value, nil
	}
}

// coerceRange coerces a two-element range value (used by _between/_nbetween)
// element-wise.
func coerceRange(ft FieldType, value interface{}, dp DateParser) (interface{}, error) {
	pair, ok := value.([]interface{})
	if !ok || len(pair) != 2 {
		return nil, invalidQueryf("range operator requires a 2-element array, got %T", value)
	}
	lo, err := coerce(ft, pair[0], dp)
	if err != nil {
		return nil, err
	}
	hi, err := coerce(ft, pair[1], dp)
	if err != nil {
		return nil, err
	}
	return [2]interface{}{lo, hi}, nil
}

// coerceList coerces an _in/_nin value, which may be a single scalar or a
// list, always returning a []interface{}.
func coerceList(ft FieldType, value interface{}, dp DateParser) (interface{}, error) {
	list, ok := value.([]interface{})
	if !ok {
		single, err := coerce(ft, value, dp)
		if err != nil {
			return nil, err
		}
		return []interface{}{single}, nil
	}
	out := make([]interface{}, len(list))
	for i, v := range list {
		c, err := coerce(ft, v, dp)
		if err != nil {
			return nil, err
		}
		out[i] = c
	}
	return out, nil
}
