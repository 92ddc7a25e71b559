package terrain

import (
	"context"
	"fmt"
	"time"

	"github.com/annel0/voxel-world/internal/logging"
	"github.com/annel0/voxel-world/internal/world"
	"github.com/annel0/voxel-world/internal/world/block"
)

// Sampler заполняет чанки по полю рельефа и отвечает на запросы твердости
// для соседних чанков, которых может ещё не существовать.
type Sampler struct {
	field  Field
	strata Strata
	height int
	pool   *Pool
	logger *logging.Logger

	rentTimeout time.Duration
}

// NewSampler создаёт сэмплер для высоты мира height
func NewSampler(field Field, strata Strata, height int, pool *Pool) *Sampler {
	return &Sampler{
		field:  field,
		strata: strata,
		height: height,
		pool:   pool,
		logger: logging.GetTerrainLogger(),
	}
}

// SetLogger задаёт логгер компонента
func (s *Sampler) SetLogger(l *logging.Logger) {
	s.logger = l
}

// SetRentTimeout ограничивает ожидание свободного буфера; 0 - ждать до отмены ctx
func (s *Sampler) SetRentTimeout(d time.Duration) {
	s.rentTimeout = d
}

// Height возвращает вертикальный размер мира
func (s *Sampler) Height() int {
	return s.height
}

// Pool возвращает арену буферов
func (s *Sampler) Pool() *Pool {
	return s.pool
}

// ColumnAt оценивает 2D поля колонны
func (s *Sampler) ColumnAt(x, z int) Column {
	return columnAt(s.field, x, z)
}

// BlockAt возвращает сгенерированный тип клетки в мировых координатах
func (s *Sampler) BlockAt(x, y, z int) block.BlockID {
	return columnAt(s.field, x, z).blockAt(s.field, s.strata, y, s.height)
}

// IsSolidAt сообщает, твердая ли клетка в мировых координатах
func (s *Sampler) IsSolidAt(x, y, z int) bool {
	return block.IsSolid(s.BlockAt(x, y, z))
}

// Populate заполняет разреженную карту чанка открытыми вокселями.
// Буфер берётся из арены и возвращается на любом пути выхода.
func (s *Sampler) Populate(ctx context.Context, c *world.Chunk) error {
	if c.Height != s.height {
		return fmt.Errorf("populate chunk %v: height %d, sampler height %d", c.Position, c.Height, s.height)
	}

	lease, err := s.rent(ctx)
	if err != nil {
		return fmt.Errorf("populate chunk %v: %w", c.Position, err)
	}
	defer lease.Release()

	vol, err := lease.Volume(c.Size, c.Height)
	if err != nil {
		return fmt.Errorf("populate chunk %v: %w", c.Position, err)
	}

	if err := s.fill(ctx, vol, c); err != nil {
		return fmt.Errorf("populate chunk %v: %w", c.Position, err)
	}
	voxels := Reduce(vol, c.Size)
	c.Replace(voxels)
	s.logger.Trace("Чанк %v (lod %d): открыто %d вокселей из %d клеток, буфер %s",
		c.Position, c.LOD, len(voxels), c.Size*c.Size*c.Height, lease.Token)
	return nil
}

// rent берёт буфер без ожидания, а если арена занята, ждёт не дольше rentTimeout
func (s *Sampler) rent(ctx context.Context) (*Lease, error) {
	if lease, err := s.pool.TryRent(); err == nil {
		return lease, nil
	}
	s.logger.Debug("Ожидание буфера: занято %d/%d", s.pool.InUse(), s.pool.Capacity())

	rctx := ctx
	if s.rentTimeout > 0 {
		var cancel context.CancelFunc
		rctx, cancel = context.WithTimeout(ctx, s.rentTimeout)
		defer cancel()
	}

	lease, err := s.pool.Rent(rctx)
	if err != nil {
		s.logger.Warn("Буфер не получен: %v", err)
		return nil, err
	}
	return lease, nil
}

// fill записывает плотный объём чанка вместе с кольцом дополнения
func (s *Sampler) fill(ctx context.Context, vol *Volume, c *world.Chunk) error {
	for pz := 0; pz < vol.W; pz++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		for px := 0; px < vol.W; px++ {
			col := columnAt(s.field, c.Position.X+px-1, c.Position.Z+pz-1)
			top := min(col.Surface, vol.Height)
			for y := 0; y < top; y++ {
				vol.SetAt(px, y, pz, col.blockAt(s.field, s.strata, y, vol.Height))
			}
		}
	}
	return nil
}

// Смещения шести соседей по граням
var neighborOffsets = [6][3]int{
	{1, 0, 0}, {-1, 0, 0},
	{0, 1, 0}, {0, -1, 0},
	{0, 0, 1}, {0, 0, -1},
}

// cellAt возвращает клетку объёма; ниже дна - твердое основание, выше - небо
func cellAt(vol *Volume, px, y, pz int) block.BlockID {
	switch {
	case y < 0:
		return block.BedrockBlockID
	case y >= vol.Height:
		return block.NoneBlockID
	}
	return vol.At(px, y, pz)
}

// Exposed сообщает, открыт ли твердый воксель: хотя бы один сосед пуст или
// клетка лежит на кольце дополнения.
func Exposed(vol *Volume, px, y, pz int) bool {
	if !block.IsSolid(vol.At(px, y, pz)) {
		return false
	}
	if vol.OnBorder(px, pz) {
		return true
	}
	for _, off := range neighborOffsets {
		if !block.IsSolid(cellAt(vol, px+off[0], y+off[1], pz+off[2])) {
			return true
		}
	}
	return false
}

// touchesSolid сообщает, граничит ли пустая клетка с твердой внутри объёма
func touchesSolid(vol *Volume, px, y, pz int) bool {
	for _, off := range neighborOffsets {
		ny := y + off[1]
		if ny < 0 || ny >= vol.Height {
			continue
		}
		if block.IsSolid(vol.At(px+off[0], ny, pz+off[2])) {
			return true
		}
	}
	return false
}

// Reduce сворачивает плотный объём в разреженную карту: открытые твердые воксели
// и пустые клетки рядом с ними (None и Air сохраняются как есть). Полностью
// закрытые и нетронутые клетки опускаются. Кольцо дополнения в карту не попадает.
func Reduce(vol *Volume, size int) map[world.LocalCoord]block.BlockID {
	voxels := make(map[world.LocalCoord]block.BlockID, size*size*2)

	for y := 0; y < vol.Height; y++ {
		for pz := 1; pz <= size; pz++ {
			for px := 1; px <= size; px++ {
				id := vol.At(px, y, pz)

				keep := false
				if block.IsSolid(id) {
					keep = Exposed(vol, px, y, pz)
				} else {
					keep = touchesSolid(vol, px, y, pz)
				}
				if !keep {
					continue
				}

				local, err := world.NewLocalCoord(px-1, y, pz-1)
				if err != nil {
					// Размеры чанка проверяются конфигурацией, сюда не попадаем
					continue
				}
				voxels[local] = id
			}
		}
	}
	return voxels
}
