package generator

import "github.com/annel0/voxel-world/internal/world"

// Renderer - внешний получатель мешей. Вызовы планировщика сериализованы,
// но приходят из разных горутин.
type Renderer interface {
	// Attach передаёт готовый меш чанка
	Attach(c *world.Chunk, m *world.Mesh)
	// SetVisible показывает или скрывает прикреплённый меш без его удаления
	SetVisible(c *world.Chunk, visible bool)
	// Detach освобождает меш вытесненного чанка
	Detach(c *world.Chunk)
}

// NopRenderer ничего не отображает
type NopRenderer struct{}

func (NopRenderer) Attach(*world.Chunk, *world.Mesh) {}
func (NopRenderer) SetVisible(*world.Chunk, bool)    {}
func (NopRenderer) Detach(*world.Chunk)              {}
