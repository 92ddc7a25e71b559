package generator

import (
	"errors"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/annel0/voxel-world/internal/logging"
	"github.com/annel0/voxel-world/internal/mesh"
	"github.com/annel0/voxel-world/internal/metrics"
	"github.com/annel0/voxel-world/internal/observability"
	"github.com/annel0/voxel-world/internal/terrain"
	"github.com/annel0/voxel-world/internal/vec"
	"github.com/annel0/voxel-world/internal/world"
	"github.com/annel0/voxel-world/internal/world/block"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

var (
	// ErrAlreadyRunning возвращается при повторном запуске воркеров
	ErrAlreadyRunning = errors.New("scheduler already running")
	// ErrStopped возвращается при запуске остановленного планировщика
	ErrStopped = errors.New("scheduler stopped")
)

// Options задаёт параметры планировщика
type Options struct {
	LODSizes          []int // Размеры чанков по уровням, по возрастанию
	ViewRadius        int   // Радиус колец в чанках своего уровня
	MaxChunks         int   // Предел чанков в индексе; 0 - без вытеснения
	GenerationWorkers int
	BuildWorkers      int
	MaxRetries        int // Повторы обработки чанка после ошибки
}

// UpdateReport - итог одного пересчёта множества видимых чанков
type UpdateReport struct {
	Tick     uint64
	Required int // Чанков в зоне видимости
	Created  int // Новых чанков поставлено в очередь генерации
	Requeued int // Существующих чанков возвращено в очереди
	Hidden   int // Чанков скрыто
	Evicted  int // Чанков вытеснено из индекса
}

// Stats - снимок состояния планировщика
type Stats struct {
	Tick            uint64
	Indexed         int
	IndexedByLOD    []int
	Visible         int
	GenerationQueue int
	BuildQueue      int
	PoolInUse       int
	PoolCapacity    int
}

// Scheduler поддерживает множество чанков вокруг точки фокуса и проводит их
// через очереди генерации и построения мешей.
type Scheduler struct {
	opts    Options
	index   *world.Index
	genQ    *Queue
	buildQ  *Queue
	sampler *terrain.Sampler
	builder *mesh.Builder

	renderer Renderer
	metrics  *metrics.Metrics
	logger   *logging.Logger
	tracer   trace.Tracer

	mu      sync.Mutex // сериализует Update
	tick    atomic.Uint64
	visible map[*world.Chunk]struct{}

	// renderMu упорядочивает вызовы рендера и переходы Ready/Evicted
	renderMu sync.Mutex

	runMu   sync.Mutex
	cancel  func()
	group   *errgroup.Group
	stopped bool
}

// NewScheduler создаёт планировщик. Зависимости рендера, метрик и логгера
// задаются сеттерами до Start.
func NewScheduler(opts Options, sampler *terrain.Sampler, builder *mesh.Builder) (*Scheduler, error) {
	if len(opts.LODSizes) == 0 {
		return nil, errors.New("scheduler: no LOD sizes")
	}
	for i, size := range opts.LODSizes {
		if !world.ValidChunkSize(size) {
			return nil, fmt.Errorf("scheduler: LOD %d size %d must be a power of two in [%d, %d]",
				i, size, world.MinChunkSize, world.MaxChunkSize)
		}
		if i > 0 && size <= opts.LODSizes[i-1] {
			return nil, fmt.Errorf("scheduler: LOD sizes must ascend, got %v", opts.LODSizes)
		}
	}
	if opts.ViewRadius < 0 {
		return nil, fmt.Errorf("scheduler: negative view radius %d", opts.ViewRadius)
	}
	if sampler == nil || builder == nil {
		return nil, errors.New("scheduler: sampler and builder are required")
	}
	if opts.GenerationWorkers <= 0 {
		opts.GenerationWorkers = 1
	}
	if opts.BuildWorkers <= 0 {
		opts.BuildWorkers = 1
	}

	return &Scheduler{
		opts:     opts,
		index:    world.NewIndex(opts.LODSizes),
		genQ:     NewQueue(),
		buildQ:   NewQueue(),
		sampler:  sampler,
		builder:  builder,
		renderer: NopRenderer{},
		logger:   logging.GetGeneratorLogger(),
		tracer:   observability.Tracer(),
		visible:  make(map[*world.Chunk]struct{}),
	}, nil
}

// SetRenderer задаёт получателя мешей
func (s *Scheduler) SetRenderer(r Renderer) {
	if r == nil {
		r = NopRenderer{}
	}
	s.renderer = r
}

// SetMetrics задаёт метрики экземпляра
func (s *Scheduler) SetMetrics(m *metrics.Metrics) {
	s.metrics = m
}

// SetLogger задаёт логгер компонента
func (s *Scheduler) SetLogger(l *logging.Logger) {
	s.logger = l
}

// Index возвращает пространственный индекс
func (s *Scheduler) Index() *world.Index {
	return s.index
}

// Sampler возвращает сэмплер рельефа
func (s *Scheduler) Sampler() *terrain.Sampler {
	return s.sampler
}

// Update пересчитывает множество требуемых чанков вокруг focus: очищает обе
// очереди, обходит кольца каждого уровня детализации, ставит отсутствующие
// чанки в очередь генерации и скрывает покинувшие зону.
func (s *Scheduler) Update(focus vec.Vec3Float) UpdateReport {
	s.mu.Lock()
	defer s.mu.Unlock()

	tick := s.tick.Add(1)
	report := UpdateReport{Tick: tick}

	s.genQ.Clear()
	s.buildQ.Clear()

	s.renderMu.Lock()
	defer s.renderMu.Unlock()

	required := make(map[*world.Chunk]struct{})
	for _, pos := range s.requiredPositions(focus.Floor()) {
		c, created, err := s.acquire(pos.lod, pos.origin, tick)
		if err != nil {
			s.logger.Error("Не удалось добавить чанк %v (lod %d): %v", pos.origin, pos.lod, err)
			continue
		}
		required[c] = struct{}{}

		if created {
			report.Created++
			continue
		}
		if s.requeue(c) {
			report.Requeued++
		}
		s.show(c, true)
	}
	report.Required = len(required)

	for c := range s.visible {
		if _, ok := required[c]; ok {
			continue
		}
		s.show(c, false)
		report.Hidden++
	}
	s.visible = required

	report.Evicted = s.evict()

	s.logger.Debug("Тик %d: требуется %d, новых %d, скрыто %d, вытеснено %d",
		tick, report.Required, report.Created, report.Hidden, report.Evicted)
	return report
}

type lodPosition struct {
	lod    int
	origin vec.Vec3
}

// requiredPositions обходит кольца каждого уровня. Чанк грубого уровня
// пропускается, если его целиком покрывает квадрат более мелкого уровня.
func (s *Scheduler) requiredPositions(focus vec.Vec3) []lodPosition {
	var out []lodPosition
	radius := s.opts.ViewRadius

	for lod, size := range s.opts.LODSizes {
		center := ChunkOrigin(focus, size)
		WalkRings(center.Column(), radius, size, func(cell vec.Vec2) {
			origin := cell.At(0)
			if lod > 0 && s.coveredByFiner(lod-1, focus, origin, size) {
				return
			}
			out = append(out, lodPosition{lod: lod, origin: origin})
		})
	}
	return out
}

func (s *Scheduler) coveredByFiner(finer int, focus, origin vec.Vec3, size int) bool {
	fs := s.opts.LODSizes[finer]
	fc := ChunkOrigin(focus, fs)
	span := s.opts.ViewRadius * fs

	loX, hiX := fc.X-span, fc.X+span+fs
	loZ, hiZ := fc.Z-span, fc.Z+span+fs
	return origin.X >= loX && origin.X+size <= hiX && origin.Z >= loZ && origin.Z+size <= hiZ
}

// acquire возвращает чанк из индекса или создаёт его и ставит в очередь генерации
func (s *Scheduler) acquire(lod int, origin vec.Vec3, tick uint64) (*world.Chunk, bool, error) {
	if c, ok := s.index.Get(lod, origin); ok {
		c.Touch(tick)
		return c, false, nil
	}

	c := world.NewChunk(origin, s.opts.LODSizes[lod], s.sampler.Height(), lod)
	if err := s.index.Insert(c); err != nil {
		return nil, false, err
	}
	c.Touch(tick)
	c.SetVisible(true)
	s.genQ.Push(c)
	return c, true, nil
}

// requeue возвращает в очереди чанк, работа над которым была сброшена очисткой
func (s *Scheduler) requeue(c *world.Chunk) bool {
	switch c.State() {
	case world.StateQueued:
		return s.genQ.Push(c)
	case world.StateGenerated:
		return s.buildQ.Push(c)
	}
	return false
}

// show меняет видимость и сообщает рендеру о чанках с готовым мешем.
// Вызывается под renderMu.
func (s *Scheduler) show(c *world.Chunk, visible bool) {
	if !c.SetVisible(visible) {
		return
	}
	if c.State() == world.StateReady {
		s.renderer.SetVisible(c, visible)
	}
}

// evict удаляет скрытые чанки, давно не бывшие в зоне видимости, пока индекс
// превышает предел. Чанки в обработке не трогаются. Вызывается под renderMu.
func (s *Scheduler) evict() int {
	limit := s.opts.MaxChunks
	if limit <= 0 || s.index.Len() <= limit {
		return 0
	}

	var candidates []*world.Chunk
	for _, c := range s.index.Snapshot() {
		if c.Visible() {
			continue
		}
		switch c.State() {
		case world.StateQueued, world.StateGenerated, world.StateReady:
			candidates = append(candidates, c)
		}
	}
	slices.SortFunc(candidates, func(a, b *world.Chunk) int {
		switch {
		case a.LastVisible() < b.LastVisible():
			return -1
		case a.LastVisible() > b.LastVisible():
			return 1
		}
		return 0
	})

	evicted := 0
	for _, c := range candidates {
		if s.index.Len() <= limit {
			break
		}
		state := c.State()
		if !c.CompareAndSwapState(state, world.StateEvicted) {
			continue
		}
		s.index.Remove(c.LOD, c.Position)
		if state == world.StateReady {
			s.renderer.Detach(c)
		}
		c.SetMesh(nil)
		evicted++
	}

	if evicted > 0 {
		s.metrics.ObserveEviction(evicted)
		s.logger.Debug("Вытеснено %d чанков, в индексе %d", evicted, s.index.Len())
	}
	return evicted
}

// GetChunkAndLocal находит сгенерированный чанк нулевого уровня, содержащий
// мировую позицию, и локальную координату в нём.
func (s *Scheduler) GetChunkAndLocal(pos vec.Vec3) (*world.Chunk, world.LocalCoord, bool) {
	origin := ChunkOrigin(pos, s.index.Size(0))
	c, ok := s.index.Get(0, origin)
	if !ok {
		return nil, world.LocalCoord{}, false
	}

	switch c.State() {
	case world.StateGenerated, world.StateBuilding, world.StateReady:
	default:
		return nil, world.LocalCoord{}, false
	}

	local, err := c.WorldToLocal(pos)
	if err != nil {
		return nil, world.LocalCoord{}, false
	}
	return c, local, true
}

// Locate - GetChunkAndLocal для дробной позиции (округление вниз)
func (s *Scheduler) Locate(pos vec.Vec3Float) (*world.Chunk, world.LocalCoord, bool) {
	return s.GetChunkAndLocal(pos.Floor())
}

// IsSolidAt отвечает на запрос коллизий. known = false, пока чанк не сгенерирован.
// Отсутствие клетки в разреженной карте неоднозначно, поэтому ответ берётся у поля.
func (s *Scheduler) IsSolidAt(pos vec.Vec3) (solid, known bool) {
	c, local, ok := s.GetChunkAndLocal(pos)
	if !ok {
		return false, false
	}
	if id, present := c.Lookup(local); present {
		return block.IsSolid(id), true
	}
	return s.sampler.IsSolidAt(pos.X, pos.Y, pos.Z), true
}

// Stats возвращает снимок состояния
func (s *Scheduler) Stats() Stats {
	byLOD := make([]int, s.index.Levels())
	for lod := range byLOD {
		byLOD[lod] = s.index.LenLOD(lod)
	}

	s.mu.Lock()
	visible := len(s.visible)
	s.mu.Unlock()

	pool := s.sampler.Pool()
	return Stats{
		Tick:            s.tick.Load(),
		Indexed:         s.index.Len(),
		IndexedByLOD:    byLOD,
		Visible:         visible,
		GenerationQueue: s.genQ.Len(),
		BuildQueue:      s.buildQ.Len(),
		PoolInUse:       pool.InUse(),
		PoolCapacity:    pool.Capacity(),
	}
}

// Gauges отдаёт состояние экспортеру метрик
func (s *Scheduler) Gauges() metrics.Gauges {
	st := s.Stats()
	return metrics.Gauges{
		GenerationQueue: st.GenerationQueue,
		BuildQueue:      st.BuildQueue,
		IndexedByLOD:    st.IndexedByLOD,
		Visible:         st.Visible,
		PoolInUse:       st.PoolInUse,
	}
}
