package world

import (
	"fmt"
	"sync"

	"github.com/annel0/voxel-world/internal/vec"
)

// Index - пространственный индекс чанков: уровень LOD -> выровненная позиция -> чанк.
// Пишет планировщик, читают воркеры и внешние запросы коллизий.
type Index struct {
	sizes  []int
	levels []map[vec.Vec3]*Chunk
	mu     sync.RWMutex
}

// NewIndex создаёт индекс для списка размеров LOD (по возрастанию)
func NewIndex(lodSizes []int) *Index {
	levels := make([]map[vec.Vec3]*Chunk, len(lodSizes))
	for i := range levels {
		levels[i] = make(map[vec.Vec3]*Chunk)
	}
	sizes := make([]int, len(lodSizes))
	copy(sizes, lodSizes)

	return &Index{
		sizes:  sizes,
		levels: levels,
	}
}

// Levels возвращает число уровней LOD
func (idx *Index) Levels() int {
	return len(idx.sizes)
}

// Size возвращает размер чанка для уровня LOD
func (idx *Index) Size(lod int) int {
	if lod < 0 || lod >= len(idx.sizes) {
		return 0
	}
	return idx.sizes[lod]
}

// Aligned проверяет, что позиция - допустимый ключ для уровня LOD
func (idx *Index) Aligned(lod int, pos vec.Vec3) bool {
	size := idx.Size(lod)
	if size == 0 {
		return false
	}
	return pos.Y == 0 && vec.FloorMod(pos.X, size) == 0 && vec.FloorMod(pos.Z, size) == 0
}

// Insert добавляет чанк. Ключ уникален в пределах уровня и всегда выровнен.
func (idx *Index) Insert(c *Chunk) error {
	if c.LOD < 0 || c.LOD >= len(idx.sizes) {
		return fmt.Errorf("insert chunk at lod %d: %w", c.LOD, ErrUnknownLOD)
	}
	if c.Size != idx.sizes[c.LOD] || !idx.Aligned(c.LOD, c.Position) {
		return fmt.Errorf("insert chunk %v size %d at lod %d: %w", c.Position, c.Size, c.LOD, ErrMisaligned)
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	level := idx.levels[c.LOD]
	if _, exists := level[c.Position]; exists {
		return fmt.Errorf("insert chunk %v at lod %d: %w", c.Position, c.LOD, ErrDuplicateChunk)
	}
	level[c.Position] = c
	return nil
}

// Get возвращает чанк по уровню и выровненной позиции
func (idx *Index) Get(lod int, pos vec.Vec3) (*Chunk, bool) {
	if lod < 0 || lod >= len(idx.levels) {
		return nil, false
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	c, ok := idx.levels[lod][pos]
	return c, ok
}

// Remove удаляет чанк из индекса и возвращает его
func (idx *Index) Remove(lod int, pos vec.Vec3) (*Chunk, bool) {
	if lod < 0 || lod >= len(idx.levels) {
		return nil, false
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	c, ok := idx.levels[lod][pos]
	if ok {
		delete(idx.levels[lod], pos)
	}
	return c, ok
}

// Len возвращает общее число чанков во всех уровнях
func (idx *Index) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	total := 0
	for _, level := range idx.levels {
		total += len(level)
	}
	return total
}

// LenLOD возвращает число чанков на уровне
func (idx *Index) LenLOD(lod int) int {
	if lod < 0 || lod >= len(idx.levels) {
		return 0
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.levels[lod])
}

// Snapshot возвращает копию списка всех чанков
func (idx *Index) Snapshot() []*Chunk {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	result := make([]*Chunk, 0, 64)
	for _, level := range idx.levels {
		for _, c := range level {
			result = append(result, c)
		}
	}
	return result
}

// GetStats возвращает строку статистики индекса
func (idx *Index) GetStats() string {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	s := "Index Stats:"
	for lod, level := range idx.levels {
		s += fmt.Sprintf(" lod%d(size=%d)=%d", lod, idx.sizes[lod], len(level))
	}
	return s
}
