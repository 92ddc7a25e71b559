package physics

import (
	"testing"

	"github.com/annel0/voxel-world/internal/vec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// floorWorld - твердый пол ниже floor, известная область ограничена по X
type floorWorld struct {
	floor   int
	extra   map[vec.Vec3]bool
	knownTo int
}

func (w floorWorld) IsSolidAt(pos vec.Vec3) (bool, bool) {
	if w.knownTo > 0 && pos.X >= w.knownTo {
		return false, false
	}
	return pos.Y < w.floor || w.extra[pos], true
}

func TestBoundsAndIntersects(t *testing.T) {
	c := NewBoxCollider(1, 2, 1)
	box := c.Bounds(vec.Vec3Float{X: 0.5, Y: 10, Z: 0.5})
	assert.Equal(t, vec.Vec3Float{X: 0, Y: 10, Z: 0}, box.Min)
	assert.Equal(t, vec.Vec3Float{X: 1, Y: 12, Z: 1}, box.Max)

	assert.True(t, CheckBoxCollision(vec.Vec3Float{}, c, vec.Vec3Float{X: 0.9}, c))
	assert.False(t, CheckBoxCollision(vec.Vec3Float{}, c, vec.Vec3Float{X: 1}, c), "касание - не пересечение")
}

func TestCells(t *testing.T) {
	box := AABB{Min: vec.Vec3Float{X: -0.5, Y: 0, Z: 0}, Max: vec.Vec3Float{X: 0.5, Y: 1, Z: 1}}
	cells := box.Cells()
	assert.ElementsMatch(t, []vec.Vec3{{X: -1}, {X: 0}}, cells)
}

func TestCanMoveToPosition(t *testing.T) {
	w := floorWorld{floor: 10, extra: map[vec.Vec3]bool{{X: 3, Y: 10, Z: 0}: true}}
	player := NewBoxCollider(0.6, 1.8, 0.6)

	assert.True(t, CanMoveToPosition(w, vec.Vec3Float{X: 0.5, Y: 10, Z: 0.5}, player))
	assert.False(t, CanMoveToPosition(w, vec.Vec3Float{X: 0.5, Y: 9.5, Z: 0.5}, player), "в полу")
	assert.False(t, CanMoveToPosition(w, vec.Vec3Float{X: 3.5, Y: 10, Z: 0.5}, player), "в стене")

	unknown := floorWorld{floor: 10, knownTo: 5}
	assert.False(t, CanMoveToPosition(unknown, vec.Vec3Float{X: 5.5, Y: 20, Z: 0.5}, player), "незагруженный чанк")
}

func TestRaycastDown(t *testing.T) {
	w := floorWorld{floor: 10}

	hit, ok := Raycast(w, vec.Vec3Float{X: 0.5, Y: 15.5, Z: 0.5}, vec.Vec3Float{Y: -1}, 20)
	require.True(t, ok)
	assert.Equal(t, vec.Vec3{X: 0, Y: 9, Z: 0}, hit.Cell)
	assert.Equal(t, vec.Vec3{Y: 1}, hit.Normal)
	assert.InDelta(t, 5.5, hit.Distance, 1e-9)

	_, ok = Raycast(w, vec.Vec3Float{X: 0.5, Y: 15.5, Z: 0.5}, vec.Vec3Float{Y: -1}, 5)
	assert.False(t, ok, "пол дальше maxDist")
}

func TestRaycastDiagonalIntoWall(t *testing.T) {
	w := floorWorld{floor: -100, extra: map[vec.Vec3]bool{{X: -3, Y: 0, Z: 0}: true}}

	hit, ok := Raycast(w, vec.Vec3Float{X: 0.5, Y: 0.5, Z: 0.5}, vec.Vec3Float{X: -1}, 10)
	require.True(t, ok)
	assert.Equal(t, vec.Vec3{X: -3}, hit.Cell)
	assert.Equal(t, vec.Vec3{X: 1}, hit.Normal)
	assert.InDelta(t, 2.5, hit.Distance, 1e-9)

	_, ok = Raycast(w, vec.Vec3Float{X: 0.5, Y: 0.5, Z: 0.5}, vec.Vec3Float{X: 1, Y: 1}, 10)
	assert.False(t, ok)
}

func TestRaycastStartsInsideSolid(t *testing.T) {
	w := floorWorld{floor: 10}
	hit, ok := Raycast(w, vec.Vec3Float{X: 0.5, Y: 5, Z: 0.5}, vec.Vec3Float{X: 1}, 3)
	require.True(t, ok)
	assert.Zero(t, hit.Distance)
	assert.Equal(t, vec.Vec3{}, hit.Normal)

	_, ok = Raycast(w, vec.Vec3Float{}, vec.Vec3Float{}, 3)
	assert.False(t, ok, "нулевое направление")
}
