package main

import (
	"github.com/annel0/voxel-world/internal/physics"
	"github.com/annel0/voxel-world/internal/vec"
)

// focusPath - сценарный маршрут точки фокуса вместо ввода игрока:
// движение по прямой с поворотом на 90° каждые turnEvery тиков.
type focusPath struct {
	pos       vec.Vec3Float
	speed     float64
	turnEvery int
	tick      int
	heading   int
}

// Направления в плоскости XZ по часовой стрелке
var headings = [4]vec.Vec3Float{
	{Z: 1},
	{X: 1},
	{Z: -1},
	{X: -1},
}

func newFocusPath(start vec.Vec3Float, speed float64, turnEvery int) *focusPath {
	if turnEvery <= 0 {
		turnEvery = 1
	}
	return &focusPath{pos: start, speed: speed, turnEvery: turnEvery}
}

// Next сдвигает фокус на один тик и возвращает новую позицию
func (p *focusPath) Next() vec.Vec3Float {
	p.tick++
	p.pos = p.pos.Add(headings[p.heading].Mul(p.speed))
	if p.tick%p.turnEvery == 0 {
		p.heading = (p.heading + 1) % len(headings)
	}
	return p.pos
}

// groundLevel возвращает высоту опоры под фокусом. Если фокус оказался внутри
// рельефа, луч возвращает начальную клетку, и высота берётся сразу по
// поверхности колонны surfaceAt. ok = false, пока под фокусом нет известной опоры.
func groundLevel(q physics.VoxelQuery, surfaceAt func(x, z int) int, focus vec.Vec3Float, maxDist float64) (y float64, ok bool) {
	hit, ok := physics.Raycast(q, focus, vec.Vec3Float{Y: -1}, maxDist)
	if !ok {
		return 0, false
	}
	if hit.Distance == 0 {
		return float64(surfaceAt(hit.Cell.X, hit.Cell.Z)), true
	}
	return float64(hit.Cell.Y) + 1, true
}
