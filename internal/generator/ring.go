package generator

import "github.com/annel0/voxel-world/internal/vec"

// WalkRing обходит квадратное кольцо радиуса r вокруг center с шагом step.
// Кольцо 0 - сам центр. Для r > 0 на каждое i из [-r, r-1] выпускаются четыре
// плеча: переднее (i, r), правое (r, -i), заднее (-i, -r) и левое (-r, i),
// всего 8r различных позиций.
func WalkRing(center vec.Vec2, r, step int, fn func(vec.Vec2)) {
	if r < 0 {
		return
	}
	if r == 0 {
		fn(center)
		return
	}

	at := func(dx, dz int) vec.Vec2 {
		return center.Add(vec.Vec2{X: dx * step, Z: dz * step})
	}
	for i := -r; i < r; i++ {
		fn(at(i, r))
		fn(at(r, -i))
		fn(at(-i, -r))
		fn(at(-r, i))
	}
}

// WalkRings обходит кольца 0..radius от центра наружу
func WalkRings(center vec.Vec2, radius, step int, fn func(vec.Vec2)) {
	for r := 0; r <= radius; r++ {
		WalkRing(center, r, step, fn)
	}
}

// ChunkOrigin возвращает выровненную позицию чанка, содержащего pos.
// Деление округляется вниз, поэтому x = -1 при size 32 даёт -32.
func ChunkOrigin(pos vec.Vec3, size int) vec.Vec3 {
	return vec.Vec3{X: vec.AlignDown(pos.X, size), Z: vec.AlignDown(pos.Z, size)}
}
