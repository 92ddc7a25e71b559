package terrain

import (
	"bytes"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/annel0/voxel-world/internal/logging"
	"github.com/annel0/voxel-world/internal/vec"
	"github.com/annel0/voxel-world/internal/world"
	"github.com/annel0/voxel-world/internal/world/block"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubField - ручное поле: плоская поверхность и явный набор пещер
type stubField struct {
	surface int
	detail  int
	carved  map[vec.Vec3]bool
}

func (f stubField) SurfaceHeight(x, z int) int     { return f.surface }
func (f stubField) UndergroundDetail(x, z int) int { return f.detail }
func (f stubField) Carved(x, y, z int) bool        { return f.carved[vec.Vec3{X: x, Y: y, Z: z}] }

var grassland = Strata{SurfaceDepth: 3, SeaLevel: 0}

func newTestSampler(field Field, height int) *Sampler {
	return NewSampler(field, grassland, height, NewPool(2, 32, height))
}

func TestPopulateFlatWorld(t *testing.T) {
	s := newTestSampler(stubField{surface: 10}, 64)
	c := world.NewChunk(vec.Vec3{}, 32, 64, 0)

	require.NoError(t, s.Populate(context.Background(), c))

	solid, empty := 0, 0
	c.Range(func(local world.LocalCoord, id block.BlockID) bool {
		switch {
		case block.IsSolid(id):
			solid++
			assert.Equal(t, 9, local.Y(), "твердые только на верхнем слое")
			assert.Equal(t, block.GrassBlockID, id)
		default:
			empty++
			assert.Equal(t, 10, local.Y(), "пустые только над поверхностью")
			assert.Equal(t, block.NoneBlockID, id)
		}
		return true
	})
	assert.Equal(t, 32*32, solid)
	assert.Equal(t, 32*32, empty)
	assert.Equal(t, 2*32*32, c.Len())

	// Закрытые воксели под поверхностью в карту не попадают
	_, ok := c.Lookup(world.MustLocalCoord(4, 5, 4))
	assert.False(t, ok)
}

func TestPopulateEnclosedVoxel(t *testing.T) {
	center := world.MustLocalCoord(5, 5, 5)

	s := newTestSampler(stubField{surface: 20}, 32)
	c := world.NewChunk(vec.Vec3{}, 32, 32, 0)
	require.NoError(t, s.Populate(context.Background(), c))

	_, ok := c.Lookup(center)
	assert.False(t, ok, "воксель окружён камнем со всех сторон")

	carved := stubField{surface: 20, carved: map[vec.Vec3]bool{{X: 6, Y: 5, Z: 5}: true}}
	s = newTestSampler(carved, 32)
	c = world.NewChunk(vec.Vec3{}, 32, 32, 0)
	require.NoError(t, s.Populate(context.Background(), c))

	id, ok := c.Lookup(center)
	require.True(t, ok, "сосед вырезан, воксель открыт")
	assert.Equal(t, block.StoneBlockID, id)

	id, ok = c.Lookup(world.MustLocalCoord(6, 5, 5))
	require.True(t, ok)
	assert.Equal(t, block.AirBlockID, id, "пещера хранится как воздух")
}

func TestPopulateChunkEdgeUsesNeighbourField(t *testing.T) {
	s := newTestSampler(stubField{surface: 20}, 32)
	c := world.NewChunk(vec.Vec3{X: -32, Z: 64}, 32, 32, 0)
	require.NoError(t, s.Populate(context.Background(), c))

	// Кольцо дополнения заполнено тем же полем: край чанка у камня соседа закрыт
	_, ok := c.Lookup(world.MustLocalCoord(0, 5, 5))
	assert.False(t, ok)
	_, ok = c.Lookup(world.MustLocalCoord(31, 5, 31))
	assert.False(t, ok)
	assert.Equal(t, 32*32, countAt(c, 19))
}

func countAt(c *world.Chunk, y int) int {
	n := 0
	c.Range(func(local world.LocalCoord, id block.BlockID) bool {
		if local.Y() == y && block.IsSolid(id) {
			n++
		}
		return true
	})
	return n
}

func TestPopulateRejectsForeignHeight(t *testing.T) {
	s := newTestSampler(stubField{surface: 10}, 64)
	c := world.NewChunk(vec.Vec3{}, 32, 128, 0)
	assert.Error(t, s.Populate(context.Background(), c))
	assert.Equal(t, 0, s.Pool().InUse())
}

func TestPopulateCancelledContext(t *testing.T) {
	s := newTestSampler(stubField{surface: 10}, 64)
	c := world.NewChunk(vec.Vec3{}, 32, 64, 0)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, s.Populate(ctx, c))
	assert.Equal(t, 0, s.Pool().InUse(), "буфер возвращается и на пути ошибки")
}

func TestSamplerAgreesWithPopulate(t *testing.T) {
	s := NewSampler(NewNoiseField(DefaultSettings(42)), DefaultStrata(), 128, NewPool(1, 32, 128))
	c := world.NewChunk(vec.Vec3{X: 32, Z: -32}, 32, 128, 0)
	require.NoError(t, s.Populate(context.Background(), c))

	c.Range(func(local world.LocalCoord, id block.BlockID) bool {
		w := c.LocalToWorld(local)
		assert.Equal(t, s.BlockAt(w.X, w.Y, w.Z), id, "клетка %v", w)
		return true
	})
	assert.True(t, s.IsSolidAt(0, -1, 0), "ниже мира - основание")
	assert.False(t, s.IsSolidAt(0, 128, 0), "выше мира - пусто")
}

func TestPopulateConcurrentIsDeterministic(t *testing.T) {
	field := NewNoiseField(DefaultSettings(7))
	positions := []vec.Vec3{{X: 0}, {X: 32}, {Z: 32}, {X: -32, Z: -32}}

	sequential := make([]int, len(positions))
	s := NewSampler(field, DefaultStrata(), 128, NewPool(1, 32, 128))
	for i, pos := range positions {
		c := world.NewChunk(pos, 32, 128, 0)
		require.NoError(t, s.Populate(context.Background(), c))
		sequential[i] = c.Len()
	}

	// Буферов меньше, чем воркеров: арендаторы ждут друг друга
	s = NewSampler(field, DefaultStrata(), 128, NewPool(2, 32, 128))
	parallel := make([]int, len(positions))
	var wg sync.WaitGroup
	for i, pos := range positions {
		i, pos := i, pos
		wg.Add(1)
		go func() {
			defer wg.Done()
			c := world.NewChunk(pos, 32, 128, 0)
			if assert.NoError(t, s.Populate(context.Background(), c)) {
				parallel[i] = c.Len()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, sequential, parallel)
	assert.Equal(t, 0, s.Pool().InUse())
}

func TestPopulateRentTimeout(t *testing.T) {
	s := newTestSampler(stubField{surface: 10}, 64)
	s.SetRentTimeout(10 * time.Millisecond)

	// Занимаем оба буфера арены
	a, err := s.Pool().TryRent()
	require.NoError(t, err)
	defer a.Release()
	b, err := s.Pool().TryRent()
	require.NoError(t, err)
	defer b.Release()

	var buf bytes.Buffer
	s.SetLogger(logging.NewWriterLogger("terrain", &buf, logging.DEBUG))

	err = s.Populate(context.Background(), world.NewChunk(vec.Vec3{}, 32, 64, 0))
	assert.ErrorIs(t, err, ErrPoolExhausted)
	assert.Contains(t, buf.String(), "[DEBUG] [terrain] Ожидание буфера: занято 2/2")
	assert.Contains(t, buf.String(), "[WARN] [terrain] Буфер не получен")
}

func TestPopulateTracesReduction(t *testing.T) {
	s := newTestSampler(stubField{surface: 10}, 64)
	var buf bytes.Buffer
	s.SetLogger(logging.NewWriterLogger("terrain", &buf, logging.TRACE))

	c := world.NewChunk(vec.Vec3{X: 32}, 32, 64, 0)
	require.NoError(t, s.Populate(context.Background(), c))

	assert.Contains(t, buf.String(), "[TRACE] [terrain] Чанк")
	assert.Contains(t, buf.String(), "открыто 2048 вокселей из 65536 клеток")
	assert.NotContains(t, buf.String(), "Ожидание буфера", "свободный буфер выдаётся без ожидания")
}
