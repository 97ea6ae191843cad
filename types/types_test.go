package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInternIdempotence(t *testing.T) {
	r := NewRegistry()

	s32 := r.Builtin(S32)
	assert.Equal(t, s32, r.Builtin(S32))

	f64 := r.Builtin(F64)
	a := r.Struct(s32, r.Pointer(f64), r.Array(s32, 4))
	b := r.Struct(r.Builtin(S32), r.Pointer(r.Builtin(F64)), r.Array(r.Builtin(S32), 4))
	assert.Equal(t, a, b)

	assert.NotEqual(t, r.Array(s32, 4), r.Array(s32, 5))
	assert.NotEqual(t, r.Struct(s32, f64), r.Struct(f64, s32))
	assert.NotEqual(t, r.Struct(), r.Struct(s32))
	assert.Equal(t, r.Struct(), r.Struct())
}

func TestRegistriesAreIndependent(t *testing.T) {
	r1, r2 := NewRegistry(), NewRegistry()

	a := r1.Builtin(S64)
	b := r2.Builtin(S64)

	assert.NotEqual(t, a, b)
	assert.True(t, r1.Owns(a))
	assert.True(t, r2.Owns(b))
	assert.False(t, r2.Owns(a))
	assert.False(t, r1.Owns(b))

	// the first entry of each registry must still be foreign to the other.
	f64 := r2.Builtin(F64)
	assert.False(t, r1.Owns(f64))
	assert.Panics(t, func() { r1.Lookup(b) })
	assert.Panics(t, func() { r1.Pointer(b) })
	assert.Panics(t, func() { r1.Struct(a, b) })

	assert.Equal(t, 1, r1.Len())
	assert.Equal(t, 2, r2.Len())
}

func TestBuiltinPredicates(t *testing.T) {
	assert.True(t, F32.IsFloat())
	assert.False(t, S32.IsFloat())
	assert.True(t, Char.IsSigned())
	assert.True(t, Char.IsInteger())
	assert.Equal(t, 8, Char.Bits())
	assert.False(t, U16.IsSigned())
	assert.False(t, Bool.IsInteger())
	assert.Equal(t, 1, Bool.Bits())
}

func TestRepr(t *testing.T) {
	r := NewRegistry()
	s32 := r.Builtin(S32)
	st := r.Struct(s32, r.Pointer(r.Builtin(Char)), r.Array(r.Builtin(F32), 3))

	assert.Equal(t, "{s32, char*, [3 x f32]}", r.Repr(st))
}

// sampleTypes interns a nest of composite types for order tests.
func sampleTypes(r *Registry) []ID {
	var ids []ID
	for b := S8; b <= Void; b++ {
		ids = append(ids, r.Builtin(b))
	}

	s32, f64 := r.Builtin(S32), r.Builtin(F64)
	inner := r.Struct(s32, f64)
	ids = append(ids,
		inner,
		r.Struct(f64, s32),
		r.Struct(s32),
		r.Struct(inner, r.Pointer(inner)),
		r.Array(s32, 2),
		r.Array(s32, 10),
		r.Array(inner, 2),
		r.Array(r.Array(s32, 2), 2),
		r.Pointer(s32),
		r.Pointer(r.Pointer(s32)),
		r.Pointer(inner),
	)

	return ids
}

func TestTotalOrder(t *testing.T) {
	r := NewRegistry()
	ids := sampleTypes(r)

	for _, a := range ids {
		assert.Equal(t, 0, r.Compare(a, a))

		for _, b := range ids {
			ab, ba := r.Compare(a, b), r.Compare(b, a)
			assert.Equal(t, -ab, ba, "antisymmetry %s %s", r.Repr(a), r.Repr(b))
			assert.Equal(t, a == b, ab == 0, "consistent with equality %s %s", r.Repr(a), r.Repr(b))

			for _, c := range ids {
				if ab < 0 && r.Compare(b, c) < 0 {
					assert.Negative(t, r.Compare(a, c), "transitivity %s %s %s", r.Repr(a), r.Repr(b), r.Repr(c))
				}
			}
		}
	}
}

func TestAllIsSorted(t *testing.T) {
	r := NewRegistry()
	sampleTypes(r)

	all := r.All()
	require.Len(t, all, r.Len())
	for i := 1; i < len(all); i++ {
		assert.True(t, r.Less(all[i-1], all[i]))
	}

	// Builtins sort first in enumeration order.
	first, ok := r.IsBuiltin(all[0])
	require.True(t, ok)
	assert.Equal(t, S8, first)
}

func TestForeignHandlePanics(t *testing.T) {
	r := NewRegistry()
	assert.Panics(t, func() { r.Pointer(ID(42)) })
	assert.Panics(t, func() { r.Lookup(NoType) })
}
