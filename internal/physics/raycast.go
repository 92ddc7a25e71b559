package physics

import (
	"math"

	"github.com/annel0/voxel-world/internal/vec"
)

// Hit - результат попадания луча в твердую клетку
type Hit struct {
	Cell     vec.Vec3 // Клетка попадания
	Normal   vec.Vec3 // Нормаль грани, через которую луч вошёл (нулевая, если луч начался внутри)
	Distance float64  // Расстояние от начала луча
}

// Raycast проходит луч по сетке вокселей (DDA) до первой твердой клетки или
// до maxDist. Клетки неизвестных чанков пропускаются. Если начало луча лежит в
// твердой клетке, возвращается она сама с нулевыми Distance и Normal: луч не
// ищет выход из рельефа.
func Raycast(q VoxelQuery, origin, dir vec.Vec3Float, maxDist float64) (Hit, bool) {
	d := dir.Normalized()
	if maxDist <= 0 || d.Length() == 0 {
		return Hit{}, false
	}

	cell := origin.Floor()
	if solid, _ := q.IsSolidAt(cell); solid {
		return Hit{Cell: cell}, true
	}

	stepX, tMaxX, tDeltaX := axisSetup(origin.X, d.X, cell.X)
	stepY, tMaxY, tDeltaY := axisSetup(origin.Y, d.Y, cell.Y)
	stepZ, tMaxZ, tDeltaZ := axisSetup(origin.Z, d.Z, cell.Z)

	for {
		var t float64
		var normal vec.Vec3
		switch {
		case tMaxX < tMaxY && tMaxX < tMaxZ:
			cell.X += stepX
			t = tMaxX
			tMaxX += tDeltaX
			normal = vec.Vec3{X: -stepX}
		case tMaxY < tMaxZ:
			cell.Y += stepY
			t = tMaxY
			tMaxY += tDeltaY
			normal = vec.Vec3{Y: -stepY}
		default:
			cell.Z += stepZ
			t = tMaxZ
			tMaxZ += tDeltaZ
			normal = vec.Vec3{Z: -stepZ}
		}

		if t > maxDist {
			return Hit{}, false
		}
		if solid, _ := q.IsSolidAt(cell); solid {
			return Hit{Cell: cell, Normal: normal, Distance: t}, true
		}
	}
}

// axisSetup возвращает шаг по оси, параметр до первой границы клетки и
// приращение параметра на одну клетку
func axisSetup(origin, dir float64, cell int) (step int, tMax, tDelta float64) {
	switch {
	case dir > 0:
		return 1, (float64(cell+1) - origin) / dir, 1 / dir
	case dir < 0:
		return -1, (origin - float64(cell)) / -dir, -1 / dir
	default:
		return 0, math.Inf(1), math.Inf(1)
	}
}
