package world

import "github.com/annel0/voxel-world/internal/vec"

// Vertex - вершина меша чанка в локальных координатах
type Vertex struct {
	Position [3]float32
	Normal   [3]float32
	UV       [2]float32
}

// Mesh - пара буферов вершин и индексов, передаваемая рендеру
type Mesh struct {
	Origin   vec.Vec3 // Мировая позиция чанка
	Vertices []Vertex
	Indices  []uint32
}

// Faces возвращает число квадов в меше
func (m *Mesh) Faces() int {
	if m == nil {
		return 0
	}
	return len(m.Indices) / 6
}

// Empty сообщает, что меш не содержит геометрии
func (m *Mesh) Empty() bool {
	return m == nil || len(m.Indices) == 0
}
