package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "voxel"

// Metrics - набор Prometheus-метрик одного экземпляра генератора мира.
// Метрики регистрируются в собственном реестре, поэтому в процессе может
// сосуществовать несколько миров.
type Metrics struct {
	registry *prometheus.Registry

	ChunksGenerated prometheus.Counter
	ChunksMeshed    prometheus.Counter
	ChunksEvicted   prometheus.Counter
	Failures        *prometheus.CounterVec
	Faces           prometheus.Counter

	GenerationQueue prometheus.Gauge
	BuildQueue      prometheus.Gauge
	IndexedChunks   *prometheus.GaugeVec
	VisibleChunks   prometheus.Gauge
	PoolInUse       prometheus.Gauge
	ProcessRSS      prometheus.Gauge
	ProcessCPU      prometheus.Gauge

	GenerationSeconds prometheus.Histogram
	MeshSeconds       prometheus.Histogram
}

// New создаёт метрики и регистрирует их в новом реестре
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		ChunksGenerated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chunks_generated_total",
			Help:      "Чанков, заполненных полем плотности.",
		}),
		ChunksMeshed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chunks_meshed_total",
			Help:      "Чанков с построенным мешем.",
		}),
		ChunksEvicted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chunks_evicted_total",
			Help:      "Скрытых чанков, вытесненных из индекса.",
		}),
		Failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chunk_failures_total",
			Help:      "Ошибки обработки чанков по стадиям.",
		}, []string{"stage"}),
		Faces: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mesh_faces_total",
			Help:      "Общее число выпущенных квадов.",
		}),
		GenerationQueue: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "generation_queue_depth",
			Help:      "Чанков в очереди генерации.",
		}),
		BuildQueue: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "build_queue_depth",
			Help:      "Чанков в очереди построения мешей.",
		}),
		IndexedChunks: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "indexed_chunks",
			Help:      "Чанков в пространственном индексе по уровням детализации.",
		}, []string{"lod"}),
		VisibleChunks: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "visible_chunks",
			Help:      "Видимых чанков.",
		}),
		PoolInUse: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "scratch_pool_in_use",
			Help:      "Выданных буферов арены.",
		}),
		ProcessRSS: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "process_resident_bytes",
			Help:      "Резидентная память процесса.",
		}),
		ProcessCPU: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "process_cpu_percent",
			Help:      "Загрузка CPU процессом в процентах.",
		}),
		GenerationSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "generation_duration_seconds",
			Help:      "Время заполнения одного чанка.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12),
		}),
		MeshSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "mesh_duration_seconds",
			Help:      "Время построения меша одного чанка.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12),
		}),
	}

	m.registry.MustRegister(
		m.ChunksGenerated, m.ChunksMeshed, m.ChunksEvicted, m.Failures, m.Faces,
		m.GenerationQueue, m.BuildQueue, m.IndexedChunks, m.VisibleChunks,
		m.PoolInUse, m.ProcessRSS, m.ProcessCPU,
		m.GenerationSeconds, m.MeshSeconds,
	)
	return m
}

// Registry возвращает реестр экземпляра
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveGeneration учитывает успешно заполненный чанк
func (m *Metrics) ObserveGeneration(d time.Duration) {
	if m == nil {
		return
	}
	m.ChunksGenerated.Inc()
	m.GenerationSeconds.Observe(d.Seconds())
}

// ObserveMesh учитывает построенный меш
func (m *Metrics) ObserveMesh(d time.Duration, faces int) {
	if m == nil {
		return
	}
	m.ChunksMeshed.Inc()
	m.Faces.Add(float64(faces))
	m.MeshSeconds.Observe(d.Seconds())
}

// ObserveFailure учитывает ошибку на стадии stage ("generate" или "build")
func (m *Metrics) ObserveFailure(stage string) {
	if m == nil {
		return
	}
	m.Failures.WithLabelValues(stage).Inc()
}

// ObserveEviction учитывает вытесненные чанки
func (m *Metrics) ObserveEviction(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.ChunksEvicted.Add(float64(n))
}
