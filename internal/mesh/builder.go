package mesh

import (
	"errors"
	"fmt"
	"math"

	"github.com/annel0/voxel-world/internal/world"
	"github.com/annel0/voxel-world/internal/world/block"
)

// ErrTooManyVertices возвращается, если меш не помещается в 32-битные индексы
var ErrTooManyVertices = errors.New("mesh vertex count exceeds index range")

// NeighborSource отвечает на вопрос о твердости клетки в мировых координатах.
// Используется для граней на краю чанка, сосед которого может ещё не существовать.
type NeighborSource interface {
	IsSolidAt(x, y, z int) bool
}

// Builder строит меш чанка с отсечением невидимых граней
type Builder struct {
	neighbors NeighborSource
	atlas     Atlas
}

// NewBuilder создаёт построитель мешей
func NewBuilder(neighbors NeighborSource, atlas Atlas) *Builder {
	return &Builder{
		neighbors: neighbors,
		atlas:     atlas,
	}
}

// Build обходит разреженную карту чанка и выпускает квад для каждой грани
// твердого вокселя, сосед которой пуст.
func (b *Builder) Build(c *world.Chunk) (*world.Mesh, error) {
	voxels := c.Voxels()
	m := &world.Mesh{Origin: c.Position}

	for local, id := range voxels {
		if !block.IsSolid(id) {
			continue
		}

		x, y, z := local.XYZ()
		for i := range faceDefs {
			f := &faceDefs[i]
			if b.solidNeighbor(c, voxels, x+f.dir[0], y+f.dir[1], z+f.dir[2]) {
				continue
			}
			if uint64(len(m.Vertices))+4 > math.MaxUint32 {
				return nil, fmt.Errorf("build chunk %v: %w", c.Position, ErrTooManyVertices)
			}
			b.emit(m, f, id, x, y, z)
		}
	}
	return m, nil
}

// solidNeighbor разрешает соседа по локальным координатам, которые могут выходить
// за пределы чанка.
func (b *Builder) solidNeighbor(c *world.Chunk, voxels map[world.LocalCoord]block.BlockID, x, y, z int) bool {
	switch {
	case y < 0:
		return true
	case y >= c.Height:
		return false
	case x < 0 || z < 0 || x >= c.Size || z >= c.Size:
		if b.neighbors == nil {
			return false
		}
		return b.neighbors.IsSolidAt(c.Position.X+x, c.Position.Y+y, c.Position.Z+z)
	}

	id, ok := voxels[world.MustLocalCoord(x, y, z)]
	if !ok {
		// Отсутствующая клетка внутри чанка - закрытый твердый воксель
		return true
	}
	return block.IsSolid(id)
}

func (b *Builder) emit(m *world.Mesh, f *faceDef, id block.BlockID, x, y, z int) {
	base := uint32(len(m.Vertices))
	u, v, du, dv := b.atlas.Rect(block.TileFor(id, f.face))

	for i, corner := range f.corners {
		m.Vertices = append(m.Vertices, world.Vertex{
			Position: [3]float32{
				float32(x) + corner[0],
				float32(y) + corner[1],
				float32(z) + corner[2],
			},
			Normal: f.normal,
			UV:     [2]float32{u + cornerUV[i][0]*du, v + cornerUV[i][1]*dv},
		})
	}
	for _, idx := range quadIndices {
		m.Indices = append(m.Indices, base+idx)
	}
}
