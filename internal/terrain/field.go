package terrain

import (
	"math"

	"github.com/annel0/voxel-world/internal/world/block"
	"github.com/aquilax/go-perlin"
)

// Field - детерминированное скалярное поле рельефа. Реализации обязаны быть
// чистыми функциями координат и безопасными для параллельного чтения.
type Field interface {
	// SurfaceHeight возвращает высоту поверхности колонны (первая пустая клетка)
	SurfaceHeight(x, z int) int
	// UndergroundDetail возвращает высоту, ниже которой пещеры не вырезаются
	UndergroundDetail(x, z int) int
	// Carved сообщает, попадает ли клетка в вырезанную полосу пещерного шума
	Carved(x, y, z int) bool
}

// OreSource - необязательное расширение поля для размещения руд в камне
type OreSource interface {
	Ore(x, y, z int) (block.BlockID, bool)
}

// NoiseSettings - параметры одного многооктавного поля go-perlin
type NoiseSettings struct {
	Octaves   int32   // Количество октав
	Frequency float64 // Масштаб входных координат
	Alpha     float64 // Делитель амплитуды между октавами
	Beta      float64 // Множитель частоты между октавами
}

// Settings - параметры всех полей генератора рельефа
type Settings struct {
	Seed int64

	Surface          NoiseSettings
	SurfaceBase      float64
	SurfaceAmplitude float64

	Detail          NoiseSettings
	DetailBase      float64
	DetailAmplitude float64

	Cave    NoiseSettings
	CaveMin float64 // Нижняя граница вырезаемой полосы
	CaveMax float64 // Верхняя граница вырезаемой полосы

	Ores bool
}

// DefaultSettings возвращает настройки, которые дают холмистую местность с пещерами
func DefaultSettings(seed int64) Settings {
	return Settings{
		Seed:             seed,
		Surface:          NoiseSettings{Octaves: 4, Frequency: 0.008, Alpha: 2, Beta: 2},
		SurfaceBase:      72,
		SurfaceAmplitude: 40,
		Detail:           NoiseSettings{Octaves: 3, Frequency: 0.04, Alpha: 2, Beta: 2},
		DetailBase:       40,
		DetailAmplitude:  12,
		Cave:             NoiseSettings{Octaves: 2, Frequency: 0.03, Alpha: 2, Beta: 2},
		CaveMin:          -0.06,
		CaveMax:          0.06,
		Ores:             true,
	}
}

// Смещение от целочисленной решетки: perlin в узлах решетки всегда равен нулю
const latticeShift = 0.3183

// Смещения сидов отдельных полей относительно мирового сида
const (
	surfaceSeedOffset = 0
	detailSeedOffset  = 7919
	caveSeedOffset    = 104729
)

// NoiseField - поле рельефа на шуме Перлина
type NoiseField struct {
	settings Settings
	surface  *perlin.Perlin
	detail   *perlin.Perlin
	cave     *perlin.Perlin
}

// NewNoiseField создаёт поле с независимыми генераторами шума для каждой функции
func NewNoiseField(s Settings) *NoiseField {
	return &NoiseField{
		settings: s,
		surface:  newPerlin(s.Surface, s.Seed+surfaceSeedOffset),
		detail:   newPerlin(s.Detail, s.Seed+detailSeedOffset),
		cave:     newPerlin(s.Cave, s.Seed+caveSeedOffset),
	}
}

func newPerlin(n NoiseSettings, seed int64) *perlin.Perlin {
	return perlin.NewPerlin(n.Alpha, n.Beta, n.Octaves, seed)
}

// Settings возвращает параметры поля
func (f *NoiseField) Settings() Settings {
	return f.settings
}

// SurfaceHeight - низкочастотное многооктавное 2D поле
func (f *NoiseField) SurfaceHeight(x, z int) int {
	freq := f.settings.Surface.Frequency
	n := f.surface.Noise2D(float64(x)*freq+latticeShift, float64(z)*freq+latticeShift)
	return int(math.Floor(f.settings.SurfaceBase + n*f.settings.SurfaceAmplitude))
}

// UndergroundDetail - высокочастотное 2D поле глубинного камня
func (f *NoiseField) UndergroundDetail(x, z int) int {
	freq := f.settings.Detail.Frequency
	n := f.detail.Noise2D(float64(x)*freq+latticeShift, float64(z)*freq+latticeShift)
	return int(math.Floor(f.settings.DetailBase + n*f.settings.DetailAmplitude))
}

// Carved оценивает 3D пещерный шум в точке (x, 2y, z)
func (f *NoiseField) Carved(x, y, z int) bool {
	freq := f.settings.Cave.Frequency
	v := f.cave.Noise3D(
		float64(x)*freq+latticeShift,
		float64(2*y)*freq+latticeShift,
		float64(z)*freq+latticeShift,
	)
	return v >= f.settings.CaveMin && v <= f.settings.CaveMax
}

// Ore размещает жилы руд по хешу координаты; глубже - реже и ценнее
func (f *NoiseField) Ore(x, y, z int) (block.BlockID, bool) {
	if !f.settings.Ores {
		return block.StoneBlockID, false
	}

	roll := hash3(int64(x), int64(y), int64(z), f.settings.Seed) % 1000
	switch {
	case y < 16 && roll < 3:
		return block.GoldOreBlockID, true
	case y < 48 && roll < 10:
		return block.IronOreBlockID, true
	case y < 96 && roll < 18:
		return block.CoalOreBlockID, true
	}
	return block.StoneBlockID, false
}

// hash3 - целочисленный хеш в стиле SplitMix64, стабилен между запусками
func hash3(x, y, z, seed int64) uint64 {
	v := uint64(x)*0x9E3779B97F4A7C15 + uint64(y)*0x517CC1B727220A95 + uint64(z)*0x6C62272E07BB0142 + uint64(seed)
	v += 0x9E3779B97F4A7C15
	v = (v ^ (v >> 30)) * 0xBF58476D1CE4E5B9
	v = (v ^ (v >> 27)) * 0x94D049BB133111EB
	return v ^ (v >> 31)
}
