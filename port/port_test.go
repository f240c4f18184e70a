package port

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/flowbuilder/errors"
)

func TestCompatible_Exhaustive(t *testing.T) {
	for _, a := range DataTypes() {
		for _, b := range DataTypes() {
			want := a == b || a == Any || b == Any
			assert.Equal(t, want, Compatible(a, b), "%s -> %s", a, b)
		}
	}
}

func TestCompatible_NoCoercion(t *testing.T) {
	assert.False(t, Compatible(Number, String))
	assert.False(t, Compatible(String, Number))
	assert.False(t, Compatible(Number, Boolean))
	assert.False(t, Compatible(Array, Object))
	assert.True(t, Compatible(Object, Any))
	assert.True(t, Compatible(Any, Boolean))
}

func TestParseDataType(t *testing.T) {
	for _, d := range DataTypes() {
		got, err := ParseDataType(string(d))
		require.NoError(t, err)
		assert.Equal(t, d, got)
	}

	_, err := ParseDataType("datetime")
	require.Error(t, err)
	assert.True(t, errors.IsInvalid(err))
	assert.False(t, DataType("").Valid())
}

func TestFind(t *testing.T) {
	specs := []Spec{
		{ID: "url", DataType: String, Required: true},
		{ID: "headers", DataType: Object},
	}

	got, ok := Find(specs, "headers")
	require.True(t, ok)
	assert.Equal(t, Object, got.DataType)

	_, ok = Find(specs, "body")
	assert.False(t, ok)
}
