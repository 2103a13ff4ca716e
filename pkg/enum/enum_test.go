package enum

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	type Color string

	red := New(Color("red"))
	require.Equal(t, Color("red"), red)

	v, err := ToEnum[Color]("red")
	require.NoError(t, err)
	require.Equal(t, red, v)

	_, err = ToEnum[Color]("blue")
	require.Error(t, err)
}

func TestToEnum_unregisteredType(t *testing.T) {
	type Shape string

	_, err := ToEnum[Shape]("circle")
	require.Error(t, err)
}
