package config

import (
	"errors"
	"fmt"
	"math/bits"
	"os"
	"strconv"
	"time"

	"github.com/annel0/voxel-world/internal/generator"
	"github.com/annel0/voxel-world/internal/logging"
	"github.com/annel0/voxel-world/internal/observability"
	"github.com/annel0/voxel-world/internal/terrain"
	"github.com/annel0/voxel-world/internal/world"
	"gopkg.in/yaml.v3"
)

// Переменные окружения
const (
	EnvConfigPath  = "VOXEL_CONFIG"
	EnvSeed        = "VOXEL_SEED"
	EnvMetricsAddr = "VOXEL_METRICS_ADDR"
)

// Duration - time.Duration, читаемый из YAML строкой вида "250ms"
type Duration time.Duration

// Duration возвращает значение как time.Duration
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// MarshalYAML кодирует длительность канонической строкой
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// UnmarshalYAML принимает строку ("2s") или целое число наносекунд
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return fmt.Errorf("duration: %w", err)
	}
	if s == "" {
		*d = 0
		return nil
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		*d = Duration(n)
		return nil
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("duration: parse %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// Config корневая структура конфигурации генератора мира
type Config struct {
	World     WorldConfig     `yaml:"world"`
	Terrain   TerrainConfig   `yaml:"terrain"`
	Workers   WorkersConfig   `yaml:"workers"`
	Logging   LoggingConfig   `yaml:"logging"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Driver    DriverConfig    `yaml:"driver"`
}

type WorldConfig struct {
	Seed        int64 `yaml:"seed"`
	ChunkHeight int   `yaml:"chunk_height"`
	LODSizes    []int `yaml:"lod_sizes"`
	ViewRadius  int   `yaml:"view_radius"`
	MaxChunks   int   `yaml:"max_chunks"` // 0 - без вытеснения
}

type NoiseConfig struct {
	Octaves   int32   `yaml:"octaves"`
	Frequency float64 `yaml:"frequency"`
	Alpha     float64 `yaml:"alpha"`
	Beta      float64 `yaml:"beta"`
}

type TerrainConfig struct {
	Surface          NoiseConfig `yaml:"surface"`
	SurfaceBase      float64     `yaml:"surface_base"`
	SurfaceAmplitude float64     `yaml:"surface_amplitude"`
	Detail           NoiseConfig `yaml:"detail"`
	DetailBase       float64     `yaml:"detail_base"`
	DetailAmplitude  float64     `yaml:"detail_amplitude"`
	Cave             NoiseConfig `yaml:"cave"`
	CaveMin          float64     `yaml:"cave_min"`
	CaveMax          float64     `yaml:"cave_max"`
	Ores             bool        `yaml:"ores"`
	SurfaceDepth     int         `yaml:"surface_depth"`
	SeaLevel         int         `yaml:"sea_level"`
}

type WorkersConfig struct {
	Generation  int      `yaml:"generation"`
	Build       int      `yaml:"build"`
	PoolSize    int      `yaml:"pool_size"`
	RentTimeout Duration `yaml:"rent_timeout"` // 0 - ждать без ограничения
	MaxRetries  int      `yaml:"max_retries"`
}

type LoggingConfig struct {
	Level     string `yaml:"level"`
	FileLevel string `yaml:"file_level"`
	Dir       string `yaml:"dir"` // пусто - только консоль

	// Уровни консоли отдельных компонентов: generator, terrain, mesh
	Components map[string]string `yaml:"components"`
}

type MetricsConfig struct {
	Addr     string   `yaml:"addr"` // пусто - HTTP эндпоинт не поднимается
	Interval Duration `yaml:"interval"`
}

type TelemetryConfig struct {
	Enabled     bool    `yaml:"enabled"`
	Endpoint    string  `yaml:"endpoint"`
	Insecure    bool    `yaml:"insecure"`
	SampleRatio float64 `yaml:"sample_ratio"`
}

// DriverConfig описывает сценарный маршрут точки фокуса
type DriverConfig struct {
	TickRate  Duration `yaml:"tick_rate"`
	Speed     float64  `yaml:"speed"`      // блоков за тик
	Turn      int      `yaml:"turn_every"` // тиков между поворотами
	StatsRate Duration `yaml:"stats_rate"`
}

// Default возвращает конфигурацию по умолчанию
func Default() *Config {
	t := terrain.DefaultSettings(1337)
	strata := terrain.DefaultStrata()

	return &Config{
		World: WorldConfig{
			Seed:        t.Seed,
			ChunkHeight: 256,
			LODSizes:    []int{32, 64, 128},
			ViewRadius:  4,
			MaxChunks:   2048,
		},
		Terrain: TerrainConfig{
			Surface:          noiseConfig(t.Surface),
			SurfaceBase:      t.SurfaceBase,
			SurfaceAmplitude: t.SurfaceAmplitude,
			Detail:           noiseConfig(t.Detail),
			DetailBase:       t.DetailBase,
			DetailAmplitude:  t.DetailAmplitude,
			Cave:             noiseConfig(t.Cave),
			CaveMin:          t.CaveMin,
			CaveMax:          t.CaveMax,
			Ores:             t.Ores,
			SurfaceDepth:     strata.SurfaceDepth,
			SeaLevel:         strata.SeaLevel,
		},
		Workers: WorkersConfig{
			Generation:  2,
			Build:       2,
			PoolSize:    4,
			RentTimeout: Duration(2 * time.Second),
			MaxRetries:  3,
		},
		Logging: LoggingConfig{
			Level:     "info",
			FileLevel: "debug",
		},
		Metrics: MetricsConfig{
			Addr:     ":2112",
			Interval: Duration(time.Second),
		},
		Driver: DriverConfig{
			TickRate:  Duration(100 * time.Millisecond),
			Speed:     4,
			Turn:      50,
			StatsRate: Duration(5 * time.Second),
		},
	}
}

func noiseConfig(n terrain.NoiseSettings) NoiseConfig {
	return NoiseConfig{Octaves: n.Octaves, Frequency: n.Frequency, Alpha: n.Alpha, Beta: n.Beta}
}

// Load читает YAML файл конфигурации поверх значений по умолчанию.
// Если path == "", берётся путь из ENV VOXEL_CONFIG; без него используются
// значения по умолчанию. Переменные VOXEL_SEED и VOXEL_METRICS_ADDR
// применяются последними.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv(EnvConfigPath)
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv(EnvSeed); v != "" {
		seed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvSeed, err)
		}
		c.World.Seed = seed
	}
	if v, ok := os.LookupEnv(EnvMetricsAddr); ok {
		c.Metrics.Addr = v
	}
	return nil
}

func isPowerOfTwo(n int) bool {
	return n > 0 && bits.OnesCount(uint(n)) == 1
}

// Validate проверяет согласованность параметров
func (c *Config) Validate() error {
	h := c.World.ChunkHeight
	if !isPowerOfTwo(h) || h < 32 || h > 1024 {
		return errors.New("world.chunk_height must be a power of two in [32, 1024]")
	}
	if len(c.World.LODSizes) == 0 {
		return errors.New("world.lod_sizes must not be empty")
	}
	for i, size := range c.World.LODSizes {
		if !world.ValidChunkSize(size) {
			return fmt.Errorf("world.lod_sizes[%d] must be a power of two in [32, 128]", i)
		}
		if i > 0 && size <= c.World.LODSizes[i-1] {
			return errors.New("world.lod_sizes must be strictly ascending")
		}
	}
	if c.World.ViewRadius <= 0 {
		return errors.New("world.view_radius must be positive")
	}
	if c.World.MaxChunks < 0 {
		return errors.New("world.max_chunks cannot be negative")
	}

	for name, n := range map[string]NoiseConfig{
		"surface": c.Terrain.Surface,
		"detail":  c.Terrain.Detail,
		"cave":    c.Terrain.Cave,
	} {
		if n.Octaves <= 0 {
			return fmt.Errorf("terrain.%s.octaves must be positive", name)
		}
		if n.Frequency <= 0 {
			return fmt.Errorf("terrain.%s.frequency must be positive", name)
		}
		if n.Alpha <= 0 || n.Beta <= 0 {
			return fmt.Errorf("terrain.%s alpha and beta must be positive", name)
		}
	}
	if c.Terrain.CaveMin >= c.Terrain.CaveMax {
		return errors.New("terrain.cave_min must be below terrain.cave_max")
	}
	if c.Terrain.SurfaceDepth < 0 {
		return errors.New("terrain.surface_depth cannot be negative")
	}

	if c.Workers.Generation < 1 || c.Workers.Build < 1 {
		return errors.New("workers.generation and workers.build must be at least 1")
	}
	if c.Workers.PoolSize < 1 {
		return errors.New("workers.pool_size must be at least 1")
	}
	if c.Workers.RentTimeout < 0 {
		return errors.New("workers.rent_timeout cannot be negative")
	}
	if c.Workers.MaxRetries < 0 {
		return errors.New("workers.max_retries cannot be negative")
	}

	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}
	if _, err := logging.ParseLevel(c.Logging.FileLevel); err != nil {
		return fmt.Errorf("logging.file_level: %w", err)
	}
	for component, level := range c.Logging.Components {
		if !logging.IsComponent(component) {
			return fmt.Errorf("logging.components: unknown component %q", component)
		}
		if _, err := logging.ParseLevel(level); err != nil {
			return fmt.Errorf("logging.components.%s: %w", component, err)
		}
	}
	if c.Metrics.Interval < 0 {
		return errors.New("metrics.interval cannot be negative")
	}
	if c.Telemetry.SampleRatio < 0 || c.Telemetry.SampleRatio > 1 {
		return errors.New("telemetry.sample_ratio must be in [0, 1]")
	}
	if c.Driver.TickRate <= 0 {
		return errors.New("driver.tick_rate must be positive")
	}
	return nil
}

// TerrainSettings переводит секцию terrain в параметры поля шума
func (c *Config) TerrainSettings() terrain.Settings {
	t := c.Terrain
	return terrain.Settings{
		Seed:             c.World.Seed,
		Surface:          noiseSettings(t.Surface),
		SurfaceBase:      t.SurfaceBase,
		SurfaceAmplitude: t.SurfaceAmplitude,
		Detail:           noiseSettings(t.Detail),
		DetailBase:       t.DetailBase,
		DetailAmplitude:  t.DetailAmplitude,
		Cave:             noiseSettings(t.Cave),
		CaveMin:          t.CaveMin,
		CaveMax:          t.CaveMax,
		Ores:             t.Ores,
	}
}

func noiseSettings(n NoiseConfig) terrain.NoiseSettings {
	return terrain.NoiseSettings{Octaves: n.Octaves, Frequency: n.Frequency, Alpha: n.Alpha, Beta: n.Beta}
}

// Strata возвращает правила поверхностных слоёв
func (c *Config) Strata() terrain.Strata {
	return terrain.Strata{SurfaceDepth: c.Terrain.SurfaceDepth, SeaLevel: c.Terrain.SeaLevel}
}

// MaxChunkSize возвращает размер чанка самого грубого уровня
func (c *Config) MaxChunkSize() int {
	return c.World.LODSizes[len(c.World.LODSizes)-1]
}

// SchedulerOptions возвращает параметры планировщика
func (c *Config) SchedulerOptions() generator.Options {
	sizes := make([]int, len(c.World.LODSizes))
	copy(sizes, c.World.LODSizes)

	return generator.Options{
		LODSizes:          sizes,
		ViewRadius:        c.World.ViewRadius,
		MaxChunks:         c.World.MaxChunks,
		GenerationWorkers: c.Workers.Generation,
		BuildWorkers:      c.Workers.Build,
		MaxRetries:        c.Workers.MaxRetries,
	}
}

// LoggingOptions возвращает параметры логгеров
func (c *Config) LoggingOptions() (logging.Options, error) {
	console, err := logging.ParseLevel(c.Logging.Level)
	if err != nil {
		return logging.Options{}, err
	}
	file, err := logging.ParseLevel(c.Logging.FileLevel)
	if err != nil {
		return logging.Options{}, err
	}

	var components map[string]logging.LogLevel
	if len(c.Logging.Components) > 0 {
		components = make(map[string]logging.LogLevel, len(c.Logging.Components))
		for component, name := range c.Logging.Components {
			level, err := logging.ParseLevel(name)
			if err != nil {
				return logging.Options{}, fmt.Errorf("logging.components.%s: %w", component, err)
			}
			components[component] = level
		}
	}

	return logging.Options{
		Dir:          c.Logging.Dir,
		ConsoleLevel: console,
		FileLevel:    file,
		Components:   components,
	}, nil
}

// TelemetryOptions возвращает параметры экспорта трасс
func (c *Config) TelemetryOptions() observability.Options {
	return observability.Options{
		Enabled:     c.Telemetry.Enabled,
		Endpoint:    c.Telemetry.Endpoint,
		Insecure:    c.Telemetry.Insecure,
		SampleRatio: c.Telemetry.SampleRatio,
	}
}
