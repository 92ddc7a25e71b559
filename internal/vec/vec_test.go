package vec

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFloorDiv(t *testing.T) {
	cases := []struct {
		a, b, want int
	}{
		{0, 32, 0},
		{31, 32, 0},
		{32, 32, 1},
		{-1, 32, -1},
		{-32, 32, -1},
		{-33, 32, -2},
		{-64, 32, -2},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, FloorDiv(c.a, c.b), "FloorDiv(%d, %d)", c.a, c.b)
	}
}

func TestFloorModAndAlign(t *testing.T) {
	assert.Equal(t, 31, FloorMod(-1, 32))
	assert.Equal(t, 0, FloorMod(-32, 32))
	assert.Equal(t, 5, FloorMod(37, 32))
	assert.Equal(t, -32, AlignDown(-1, 32))
	assert.Equal(t, 64, AlignDown(70, 32))
}

func TestVec3FloatFloor(t *testing.T) {
	v := Vec3Float{X: -0.5, Y: 10.9, Z: -32.0}
	assert.Equal(t, Vec3{X: -1, Y: 10, Z: -32}, v.Floor())
}

func TestChebyshevDistance(t *testing.T) {
	a := Vec3{X: 0, Y: 0, Z: 0}
	assert.Equal(t, 3, a.ChebyshevDistance(Vec3{X: -3, Y: 1, Z: 2}))
}
