package physics

import (
	"math"

	"github.com/annel0/voxel-world/internal/vec"
)

// VoxelQuery отвечает на запрос твердости клетки. known = false, если
// чанк с клеткой ещё не сгенерирован.
type VoxelQuery interface {
	IsSolidAt(pos vec.Vec3) (solid, known bool)
}

// BoxCollider представляет прямоугольный коллайдер с центром по X/Z и
// основанием на высоте позиции
type BoxCollider struct {
	Width  float64 // Размер по X в блоках
	Height float64 // Размер по Y в блоках
	Depth  float64 // Размер по Z в блоках
}

// NewBoxCollider создаёт новый коллайдер с указанными размерами
func NewBoxCollider(width, height, depth float64) *BoxCollider {
	return &BoxCollider{
		Width:  width,
		Height: height,
		Depth:  depth,
	}
}

// AABB - выровненный по осям параллелепипед [Min, Max)
type AABB struct {
	Min vec.Vec3Float
	Max vec.Vec3Float
}

// Bounds возвращает параллелепипед коллайдера в позиции pos
func (bc *BoxCollider) Bounds(pos vec.Vec3Float) AABB {
	hw, hd := bc.Width/2, bc.Depth/2
	return AABB{
		Min: vec.Vec3Float{X: pos.X - hw, Y: pos.Y, Z: pos.Z - hd},
		Max: vec.Vec3Float{X: pos.X + hw, Y: pos.Y + bc.Height, Z: pos.Z + hd},
	}
}

// Intersects проверяет пересечение двух параллелепипедов
func (a AABB) Intersects(b AABB) bool {
	return a.Min.X < b.Max.X && a.Max.X > b.Min.X &&
		a.Min.Y < b.Max.Y && a.Max.Y > b.Min.Y &&
		a.Min.Z < b.Max.Z && a.Max.Z > b.Min.Z
}

// Cells возвращает клетки мира, которые задевает параллелепипед
func (a AABB) Cells() []vec.Vec3 {
	lo := a.Min.Floor()
	hi := vec.Vec3{
		X: int(math.Ceil(a.Max.X)) - 1,
		Y: int(math.Ceil(a.Max.Y)) - 1,
		Z: int(math.Ceil(a.Max.Z)) - 1,
	}

	var cells []vec.Vec3
	for y := lo.Y; y <= hi.Y; y++ {
		for z := lo.Z; z <= hi.Z; z++ {
			for x := lo.X; x <= hi.X; x++ {
				cells = append(cells, vec.Vec3{X: x, Y: y, Z: z})
			}
		}
	}
	return cells
}

// CheckBoxCollision проверяет столкновение двух коллайдеров
func CheckBoxCollision(pos1 vec.Vec3Float, collider1 *BoxCollider, pos2 vec.Vec3Float, collider2 *BoxCollider) bool {
	return collider1.Bounds(pos1).Intersects(collider2.Bounds(pos2))
}

// Collides проверяет, задевает ли параллелепипед твердую клетку.
// Клетки неизвестных чанков считаются твердыми.
func Collides(q VoxelQuery, box AABB) bool {
	for _, cell := range box.Cells() {
		solid, known := q.IsSolidAt(cell)
		if solid || !known {
			return true
		}
	}
	return false
}

// CanMoveToPosition проверяет, может ли сущность с указанным коллайдером
// переместиться в указанную позицию
func CanMoveToPosition(q VoxelQuery, newPos vec.Vec3Float, collider *BoxCollider) bool {
	return !Collides(q, collider.Bounds(newPos))
}
