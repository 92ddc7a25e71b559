package mesh

import "github.com/annel0/voxel-world/internal/world/block"

// faceDef - геометрия одной грани единичного куба
type faceDef struct {
	face    block.Face
	dir     [3]int
	normal  [3]float32
	corners [4][3]float32
}

// Обход вершин против часовой стрелки при взгляде снаружи:
// нормаль равна (v1-v0) x (v2-v0).
var faceDefs = [block.FaceCount]faceDef{
	{
		face:    block.FaceTop,
		dir:     [3]int{0, 1, 0},
		normal:  [3]float32{0, 1, 0},
		corners: [4][3]float32{{0, 1, 0}, {0, 1, 1}, {1, 1, 1}, {1, 1, 0}},
	},
	{
		face:    block.FaceBottom,
		dir:     [3]int{0, -1, 0},
		normal:  [3]float32{0, -1, 0},
		corners: [4][3]float32{{0, 0, 0}, {1, 0, 0}, {1, 0, 1}, {0, 0, 1}},
	},
	{
		face:    block.FaceNorth,
		dir:     [3]int{0, 0, 1},
		normal:  [3]float32{0, 0, 1},
		corners: [4][3]float32{{0, 0, 1}, {1, 0, 1}, {1, 1, 1}, {0, 1, 1}},
	},
	{
		face:    block.FaceSouth,
		dir:     [3]int{0, 0, -1},
		normal:  [3]float32{0, 0, -1},
		corners: [4][3]float32{{1, 0, 0}, {0, 0, 0}, {0, 1, 0}, {1, 1, 0}},
	},
	{
		face:    block.FaceEast,
		dir:     [3]int{1, 0, 0},
		normal:  [3]float32{1, 0, 0},
		corners: [4][3]float32{{1, 0, 1}, {1, 0, 0}, {1, 1, 0}, {1, 1, 1}},
	},
	{
		face:    block.FaceWest,
		dir:     [3]int{-1, 0, 0},
		normal:  [3]float32{-1, 0, 0},
		corners: [4][3]float32{{0, 0, 0}, {0, 0, 1}, {0, 1, 1}, {0, 1, 0}},
	},
}

// UV углов квада в долях тайла, в том же порядке, что и corners
var cornerUV = [4][2]float32{{0, 0}, {1, 0}, {1, 1}, {0, 1}}

// Индексы двух треугольников квада относительно первой вершины
var quadIndices = [6]uint32{0, 1, 2, 0, 2, 3}
