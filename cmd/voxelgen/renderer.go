package main

import (
	"sync"

	"github.com/annel0/voxel-world/internal/logging"
	"github.com/annel0/voxel-world/internal/world"
)

// logRenderer заменяет движок отображения: ведёт учёт прикреплённых мешей и
// пишет события в лог
type logRenderer struct {
	logger *logging.Logger

	mu      sync.Mutex
	faces   map[*world.Chunk]int
	visible map[*world.Chunk]bool
}

func newLogRenderer(logger *logging.Logger) *logRenderer {
	return &logRenderer{
		logger:  logger,
		faces:   make(map[*world.Chunk]int),
		visible: make(map[*world.Chunk]bool),
	}
}

func (r *logRenderer) Attach(c *world.Chunk, m *world.Mesh) {
	r.mu.Lock()
	r.faces[c] = m.Faces()
	r.mu.Unlock()
	r.logger.Trace("Меш %v (lod %d) прикреплён: %d граней", c.Position, c.LOD, m.Faces())
}

func (r *logRenderer) SetVisible(c *world.Chunk, visible bool) {
	r.mu.Lock()
	r.visible[c] = visible
	r.mu.Unlock()
}

func (r *logRenderer) Detach(c *world.Chunk) {
	r.mu.Lock()
	delete(r.faces, c)
	delete(r.visible, c)
	r.mu.Unlock()
	r.logger.Trace("Меш %v (lod %d) освобождён", c.Position, c.LOD)
}

// totals возвращает число прикреплённых мешей, видимых из них и сумму граней видимых
func (r *logRenderer) totals() (meshes, shown, faces int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for c, n := range r.faces {
		meshes++
		if r.visible[c] {
			shown++
			faces += n
		}
	}
	return meshes, shown, faces
}
