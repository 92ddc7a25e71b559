package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/annel0/voxel-world/internal/config"
	"github.com/annel0/voxel-world/internal/generator"
	"github.com/annel0/voxel-world/internal/logging"
	"github.com/annel0/voxel-world/internal/mesh"
	"github.com/annel0/voxel-world/internal/metrics"
	"github.com/annel0/voxel-world/internal/observability"
	"github.com/annel0/voxel-world/internal/physics"
	"github.com/annel0/voxel-world/internal/terrain"
	"github.com/annel0/voxel-world/internal/vec"
)

func main() {
	var (
		configPath = flag.String("config", "", "Path to YAML config (defaults to $VOXEL_CONFIG)")
		runFor     = flag.Duration("duration", 0, "Stop after this long (0 - until signal)")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("❌ Ошибка загрузки конфигурации: %v", err)
	}

	logOpts, err := cfg.LoggingOptions()
	if err != nil {
		log.Fatalf("❌ Ошибка конфигурации логирования: %v", err)
	}
	if err := logging.InitDefaultLogger(logOpts); err != nil {
		log.Fatalf("❌ Ошибка инициализации логирования: %v", err)
	}
	defer logging.CloseDefaultLogger()
	defer logging.GetLoggerManager().CloseAll()

	logging.Info("🌍 Запуск генератора мира: seed=%d, LOD=%v, радиус=%d, высота=%d",
		cfg.World.Seed, cfg.World.LODSizes, cfg.World.ViewRadius, cfg.World.ChunkHeight)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if *runFor > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, *runFor)
		defer cancel()
	}

	shutdownTelemetry, err := observability.InitTelemetry(ctx, "voxelgen", cfg.TelemetryOptions())
	if err != nil {
		logging.Error("❌ Ошибка инициализации OpenTelemetry: %v", err)
		os.Exit(1)
	}
	defer func() {
		if err := shutdownTelemetry(context.Background()); err != nil {
			logging.Warn("Ошибка остановки OpenTelemetry: %v", err)
		}
	}()

	// === СБОРКА КОНВЕЙЕРА ===
	pool := terrain.NewPool(cfg.Workers.PoolSize, cfg.MaxChunkSize(), cfg.World.ChunkHeight)
	sampler := terrain.NewSampler(terrain.NewNoiseField(cfg.TerrainSettings()), cfg.Strata(), cfg.World.ChunkHeight, pool)
	sampler.SetRentTimeout(cfg.Workers.RentTimeout.Duration())
	builder := mesh.NewBuilder(sampler, mesh.DefaultAtlas())

	scheduler, err := generator.NewScheduler(cfg.SchedulerOptions(), sampler, builder)
	if err != nil {
		logging.Error("❌ Ошибка создания планировщика: %v", err)
		os.Exit(1)
	}

	renderer := newLogRenderer(logging.GetMeshLogger())
	m := metrics.New()
	scheduler.SetRenderer(renderer)
	scheduler.SetMetrics(m)

	exporter := metrics.NewExporter(m, scheduler, cfg.Metrics.Interval.Duration())
	exporter.StartHTTP(cfg.Metrics.Addr)

	if err := scheduler.Start(ctx); err != nil {
		logging.Error("❌ Ошибка запуска воркеров: %v", err)
		os.Exit(1)
	}

	run(ctx, cfg, scheduler, renderer)

	// === GRACEFUL SHUTDOWN ===
	logging.Info("📡 Завершение работы...")
	if err := scheduler.Stop(); err != nil {
		logging.Error("❌ Ошибка остановки воркеров: %v", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := exporter.Stop(shutdownCtx); err != nil {
		logging.Warn("Ошибка остановки экспортера метрик: %v", err)
	}

	logging.Info("%s", scheduler.Index().GetStats())
	logging.Info("👋 Генератор остановлен")
}

// run ведёт точку фокуса по маршруту до отмены ctx
func run(ctx context.Context, cfg *config.Config, s *generator.Scheduler, r *logRenderer) {
	surface := s.Sampler().ColumnAt(0, 0).Surface
	path := newFocusPath(vec.Vec3Float{X: 0.5, Y: float64(surface) + 2, Z: 0.5}, cfg.Driver.Speed, cfg.Driver.Turn)
	player := physics.NewBoxCollider(0.6, 1.8, 0.6)
	surfaceAt := func(x, z int) int { return s.Sampler().ColumnAt(x, z).Surface }

	ticker := time.NewTicker(cfg.Driver.TickRate.Duration())
	defer ticker.Stop()

	statsRate := cfg.Driver.StatsRate.Duration()
	if statsRate <= 0 {
		statsRate = 5 * time.Second
	}
	statsTicker := time.NewTicker(statsRate)
	defer statsTicker.Stop()

	focus := path.pos
	s.Update(focus)

	for {
		select {
		case <-ctx.Done():
			return

		case <-ticker.C:
			focus = path.Next()
			s.Update(focus)

			// Ставим фокус на поверхность, когда чанк под ним уже сгенерирован
			if y, ok := groundLevel(s, surfaceAt, focus, float64(cfg.World.ChunkHeight)); ok {
				path.pos.Y = y
				if !physics.CanMoveToPosition(s, path.pos, player) {
					logging.Debug("Фокус %v внутри рельефа", path.pos)
				}
			}

		case <-statsTicker.C:
			st := s.Stats()
			meshes, shown, faces := r.totals()
			logging.Info("📊 Тик %d: чанков %d %v, видимо %d, очереди %d/%d, буферов %d/%d, мешей %d (видимо %d, граней %d)",
				st.Tick, st.Indexed, st.IndexedByLOD, st.Visible,
				st.GenerationQueue, st.BuildQueue, st.PoolInUse, st.PoolCapacity,
				meshes, shown, faces)
		}
	}
}
