package terrain

import "github.com/annel0/voxel-world/internal/world/block"

// Strata - правила выбора материала у поверхности
type Strata struct {
	SurfaceDepth int // Толщина почвенного слоя под травой
	SeaLevel     int // Колонны с поверхностью не выше SeaLevel+1 становятся пляжем
}

// DefaultStrata возвращает правила по умолчанию
func DefaultStrata() Strata {
	return Strata{SurfaceDepth: 3, SeaLevel: 62}
}

// Column - результат оценки полей для одной горизонтальной колонны
type Column struct {
	X, Z    int
	Surface int
	Detail  int
}

// columnAt оценивает 2D поля колонны один раз
func columnAt(field Field, x, z int) Column {
	return Column{
		X:       x,
		Z:       z,
		Surface: field.SurfaceHeight(x, z),
		Detail:  field.UndergroundDetail(x, z),
	}
}

// blockAt возвращает тип клетки колонны на высоте y. Эта функция - единственный
// источник правды и для плотного буфера, и для запросов соседних чанков.
func (col Column) blockAt(field Field, strata Strata, y, height int) block.BlockID {
	switch {
	case y < 0:
		return block.BedrockBlockID
	case y >= height || y >= col.Surface:
		return block.NoneBlockID
	case y < col.Detail:
		return deepStone(field, col.X, y, col.Z)
	case field.Carved(col.X, y, col.Z):
		return block.AirBlockID
	}

	depth := col.Surface - 1 - y
	beach := col.Surface <= strata.SeaLevel+1
	switch {
	case depth == 0 && beach:
		return block.SandBlockID
	case depth == 0:
		return block.GrassBlockID
	case depth < strata.SurfaceDepth && beach:
		return block.SandstoneBlockID
	case depth < strata.SurfaceDepth:
		return block.DirtBlockID
	}
	return deepStone(field, col.X, y, col.Z)
}

func deepStone(field Field, x, y, z int) block.BlockID {
	if ores, ok := field.(OreSource); ok {
		if id, found := ores.Ore(x, y, z); found {
			return id
		}
	}
	return block.StoneBlockID
}
