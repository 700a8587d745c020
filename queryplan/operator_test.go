package queryplan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultOperatorsEq(t *testing.T) {
	ops := DefaultOperators()
	fn, ok := ops.Lookup("_eq")
	require.True(t, ok)

	s, err := fn("u.name", "Ada")
	require.NoError(t, err)

	sqlStr, args, err := s.ToSql()
	require.NoError(t, err)
	assert.Equal(t, "u.name = ?", sqlStr)
	assert.Equal(t, []interface{}{"Ada"}, args)
}

func TestDefaultOperatorsIn(t *testing.T) {
	ops := DefaultOperators()
	fn, ok := ops.Lookup("_in")
	require.True(t, ok)

	s, err := fn("u.id", []interface{}{1, 2, 3})
	require.NoError(t, err)

	sqlStr, args, err := s.ToSql()
	require.NoError(t, err)
	assert.Equal(t, "u.id IN (?,?,?)", sqlStr)
	assert.Equal(t, []interface{}{1, 2, 3}, args)
}

func TestDefaultOperatorsNull(t *testing.T) {
	ops := DefaultOperators()
	fn, ok := ops.Lookup("_null")
	require.True(t, ok)

	s, err := fn("u.deleted_at", nil)
	require.NoError(t, err)

	sqlStr, _, err := s.ToSql()
	require.NoError(t, err)
	assert.Equal(t, "u.deleted_at IS NULL", sqlStr)
}

func TestDefaultOperatorsStartsWithEndsWith(t *testing.T) {
	ops := DefaultOperators()

	starts, ok := ops.Lookup("_starts_with")
	require.True(t, ok)
	s, _ := starts("u.name", "Ad")
	sqlStr, args, err := s.ToSql()
	require.NoError(t, err)
	assert.Equal(t, "u.name LIKE ?", sqlStr)
	assert.Equal(t, []interface{}{"Ad%"}, args)

	ends, ok := ops.Lookup("_ends_with")
	require.True(t, ok)
	s, _ = ends("u.name", "da")
	sqlStr, args, err = s.ToSql()
	require.NoError(t, err)
	assert.Equal(t, "u.name LIKE ?", sqlStr)
	assert.Equal(t, []interface{}{"%da"}, args)
}

func TestInvertIsSymmetric(t *testing.T) {
	for op, entry := range negationPairs {
		got, ok := invert(op)
		require.True(t, ok, "expected %q to have a registered inverse", op)
		assert.Equal(t, entry.Inverse, got)

		back, ok := invert(got)
		require.True(t, ok)
		assert.Equal(t, op, back)

		assert.NotEqual(t, entry.Negative, isNegative(got), "op and its inverse must have opposite Negative flags")
	}
}

func TestIsNegativeDoesNotMisreadNull(t *testing.T) {
	// "_null" begins with "_n" but is not the negative half of any pair;
	// "_nnull" is. A prefix check alone would get this backwards.
	assert.False(t, isNegative("_null"))
	assert.True(t, isNegative("_nnull"))
	assert.True(t, isNegative("_neq"))
	assert.False(t, isNegative("_eq"))
}
