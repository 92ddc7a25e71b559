package world

import (
	"errors"
	"testing"

	"github.com/annel0/voxel-world/internal/vec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalCoordRoundTripAllAxes(t *testing.T) {
	// Полный перебор X/Z на нескольких Y и полный перебор Y на углах
	for y := 0; y <= MaxLocalY; y++ {
		for _, xz := range [][2]int{{0, 0}, {127, 0}, {0, 127}, {127, 127}, {64, 33}} {
			c, err := NewLocalCoord(xz[0], y, xz[1])
			require.NoError(t, err)
			x, gotY, z := c.XYZ()
			if x != xz[0] || gotY != y || z != xz[1] {
				t.Fatalf("round-trip (%d,%d,%d) -> (%d,%d,%d)", xz[0], y, xz[1], x, gotY, z)
			}
		}
	}

	for _, y := range []int{0, 1, 255, 256, 511, 512, 1023} {
		for x := 0; x <= MaxLocalX; x++ {
			for z := 0; z <= MaxLocalZ; z++ {
				c := MustLocalCoord(x, y, z)
				if c.X() != x || c.Y() != y || c.Z() != z {
					t.Fatalf("round-trip (%d,%d,%d) -> %v", x, y, z, c)
				}
			}
		}
	}
}

func TestLocalCoordPackUnpack(t *testing.T) {
	c := MustLocalCoord(101, 777, 55)
	packed := c.Pack()
	assert.Zero(t, packed>>24, "упакованное значение должно помещаться в 24 бита")

	back, err := UnpackLocalCoord(packed)
	require.NoError(t, err)
	assert.Equal(t, c, back)

	_, err = UnpackLocalCoord(1 << 24)
	assert.ErrorIs(t, err, ErrRange)
}

func TestLocalCoordRangeErrors(t *testing.T) {
	cases := []struct {
		name    string
		x, y, z int
		axis    string
	}{
		{"x overflow", 128, 0, 0, "x"},
		{"y overflow", 0, 1024, 0, "y"},
		{"z overflow", 0, 0, 128, "z"},
		{"x negative", -1, 0, 0, "x"},
		{"y negative", 0, -1, 0, "y"},
		{"z negative", 0, 0, -5, "z"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewLocalCoord(tc.x, tc.y, tc.z)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrRange))

			var rangeErr *RangeError
			require.ErrorAs(t, err, &rangeErr)
			assert.Equal(t, tc.axis, rangeErr.Axis)
		})
	}
}

func TestLocalCoordEqualityAndHashing(t *testing.T) {
	a := MustLocalCoord(3, 300, 9)
	b := MustLocalCoord(3, 300, 9)
	c := MustLocalCoord(3, 301, 9)

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)

	m := map[LocalCoord]int{a: 1}
	m[b]++
	m[c] = 7
	assert.Len(t, m, 2)
	assert.Equal(t, 2, m[a])
}

func TestLocalCoordOffsetArithmetic(t *testing.T) {
	c := MustLocalCoord(10, 511, 20)

	up, err := c.Add(vec.Vec3{Y: 1})
	require.NoError(t, err)
	assert.Equal(t, 512, up.Y(), "перенос через границу байта")

	down, err := up.Sub(vec.Vec3{X: 10, Y: 512, Z: 20})
	require.NoError(t, err)
	assert.Equal(t, MustLocalCoord(0, 0, 0), down)

	_, err = c.Add(vec.Vec3{X: 118})
	assert.ErrorIs(t, err, ErrRange)

	_, err = c.Sub(vec.Vec3{Z: 21})
	assert.ErrorIs(t, err, ErrRange)
}

func TestValidChunkSize(t *testing.T) {
	for _, size := range []int{32, 64, 128} {
		assert.True(t, ValidChunkSize(size), "%d", size)
	}
	for _, size := range []int{0, 16, 48, 96, 256, -32} {
		assert.False(t, ValidChunkSize(size), "%d", size)
	}
}
