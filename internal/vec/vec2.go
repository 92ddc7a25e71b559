package vec

// Vec2 представляет горизонтальную колонку мира (X, Z)
type Vec2 struct {
	X, Z int
}

// Add складывает две колонки
func (v Vec2) Add(other Vec2) Vec2 {
	return Vec2{X: v.X + other.X, Z: v.Z + other.Z}
}

// At поднимает колонку в трехмерную точку на высоте y
func (v Vec2) At(y int) Vec3 {
	return Vec3{X: v.X, Y: y, Z: v.Z}
}
