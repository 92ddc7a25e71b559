package world

import (
	"maps"
	"sync"
	"sync/atomic"

	"github.com/annel0/voxel-world/internal/vec"
	"github.com/annel0/voxel-world/internal/world/block"
)

// State описывает стадию жизненного цикла чанка
type State int32

const (
	StateQueued     State = iota // ожидает генерации
	StateGenerating              // заполняется полем плотности
	StateGenerated               // разреженная карта готова, ждёт меша
	StateBuilding                // строится меш
	StateReady                   // меш прикреплён
	StateEvicted                 // удалён из индекса, обработка запрещена
)

// String возвращает имя состояния
func (s State) String() string {
	switch s {
	case StateQueued:
		return "queued"
	case StateGenerating:
		return "generating"
	case StateGenerated:
		return "generated"
	case StateBuilding:
		return "building"
	case StateReady:
		return "ready"
	case StateEvicted:
		return "evicted"
	default:
		return "unknown"
	}
}

// Chunk - колонна мира размером Size x Height x Size.
//
// Разреженная карта хранит только открытые воксели и соседние с ними пустые
// ячейки. Отсутствие ключа означает либо подтверждённую пустоту, либо полностью
// закрытый твердый воксель; различие известно только во время генерации.
// Для будущего копания понадобится явное трёхзначное состояние.
type Chunk struct {
	Position vec.Vec3 // Мировая позиция (выровнена по Size, Y = 0)
	Size     int      // Горизонтальный размер
	Height   int      // Вертикальный размер
	LOD      int      // Уровень детализации

	voxels map[LocalCoord]block.BlockID
	mesh   *Mesh
	mu     sync.RWMutex

	state       atomic.Int32
	visible     atomic.Bool
	lastVisible atomic.Uint64
	attempts    atomic.Int32
}

// NewChunk создаёт пустой чанк в указанной позиции
func NewChunk(pos vec.Vec3, size, height, lod int) *Chunk {
	return &Chunk{
		Position: pos,
		Size:     size,
		Height:   height,
		LOD:      lod,
		voxels:   make(map[LocalCoord]block.BlockID),
	}
}

// WithinBounds проверяет, что координата лежит внутри собственного размера чанка
func (c *Chunk) WithinBounds(local LocalCoord) bool {
	x, y, z := local.XYZ()
	return x < c.Size && z < c.Size && y < c.Height
}

func (c *Chunk) boundsError(local LocalCoord) error {
	x, y, z := local.XYZ()
	return &BoundsError{X: x, Y: y, Z: z, Size: c.Size, Height: c.Height}
}

// Get возвращает тип вокселя. Отсутствующие в карте ячейки возвращаются как воздух.
func (c *Chunk) Get(local LocalCoord) (block.BlockID, error) {
	if !c.WithinBounds(local) {
		return block.NoneBlockID, c.boundsError(local)
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	if id, ok := c.voxels[local]; ok {
		return id, nil
	}
	return block.AirBlockID, nil
}

// Lookup возвращает сохранённый тип и признак присутствия в разреженной карте
func (c *Chunk) Lookup(local LocalCoord) (block.BlockID, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	id, ok := c.voxels[local]
	return id, ok
}

// Set сохраняет тип вокселя
func (c *Chunk) Set(local LocalCoord, id block.BlockID) error {
	if !c.WithinBounds(local) {
		return c.boundsError(local)
	}

	c.mu.Lock()
	c.voxels[local] = id
	c.mu.Unlock()
	return nil
}

// Delete удаляет воксель из разреженной карты
func (c *Chunk) Delete(local LocalCoord) {
	c.mu.Lock()
	delete(c.voxels, local)
	c.mu.Unlock()
}

// Replace атомарно заменяет всю разреженную карту
func (c *Chunk) Replace(voxels map[LocalCoord]block.BlockID) {
	c.mu.Lock()
	c.voxels = voxels
	c.mu.Unlock()
}

// Len возвращает число сохранённых вокселей
func (c *Chunk) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.voxels)
}

// Voxels возвращает копию разреженной карты
func (c *Chunk) Voxels() map[LocalCoord]block.BlockID {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return maps.Clone(c.voxels)
}

// Range обходит разреженную карту под read-блокировкой; fn возвращает false для остановки
func (c *Chunk) Range(fn func(local LocalCoord, id block.BlockID) bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for local, id := range c.voxels {
		if !fn(local, id) {
			return
		}
	}
}

// WorldToLocal переводит мировую координату в локальную координату чанка
func (c *Chunk) WorldToLocal(pos vec.Vec3) (LocalCoord, error) {
	rel := pos.Sub(c.Position)
	local, err := NewLocalCoord(rel.X, rel.Y, rel.Z)
	if err != nil {
		return LocalCoord{}, err
	}
	if !c.WithinBounds(local) {
		return LocalCoord{}, c.boundsError(local)
	}
	return local, nil
}

// LocalToWorld переводит локальную координату в мировую
func (c *Chunk) LocalToWorld(local LocalCoord) vec.Vec3 {
	return c.Position.Add(local.Vec())
}

// Mesh возвращает прикреплённый меш (nil до построения)
func (c *Chunk) Mesh() *Mesh {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.mesh
}

// SetMesh прикрепляет меш к чанку
func (c *Chunk) SetMesh(m *Mesh) {
	c.mu.Lock()
	c.mesh = m
	c.mu.Unlock()
}

// State возвращает текущую стадию жизненного цикла
func (c *Chunk) State() State {
	return State(c.state.Load())
}

// SetState устанавливает стадию жизненного цикла
func (c *Chunk) SetState(s State) {
	c.state.Store(int32(s))
}

// CompareAndSwapState переводит чанк в новое состояние, только если текущее равно from
func (c *Chunk) CompareAndSwapState(from, to State) bool {
	return c.state.CompareAndSwap(int32(from), int32(to))
}

// Visible сообщает, отображается ли чанк
func (c *Chunk) Visible() bool {
	return c.visible.Load()
}

// SetVisible переключает видимость и возвращает true, если значение изменилось
func (c *Chunk) SetVisible(v bool) bool {
	return c.visible.Swap(v) != v
}

// Touch запоминает тик, на котором чанк был в зоне видимости
func (c *Chunk) Touch(tick uint64) {
	c.lastVisible.Store(tick)
}

// LastVisible возвращает последний тик видимости
func (c *Chunk) LastVisible() uint64 {
	return c.lastVisible.Load()
}

// NextAttempt увеличивает счётчик неудачных попыток обработки
func (c *Chunk) NextAttempt() int {
	return int(c.attempts.Add(1))
}

// ResetAttempts сбрасывает счётчик попыток
func (c *Chunk) ResetAttempts() {
	c.attempts.Store(0)
}
