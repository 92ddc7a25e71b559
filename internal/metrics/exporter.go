package metrics

import (
	"context"
	"errors"
	"net/http"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/annel0/voxel-world/internal/logging"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shirou/gopsutil/v3/process"
)

// Gauges - мгновенное состояние генератора для периодической выгрузки
type Gauges struct {
	GenerationQueue int
	BuildQueue      int
	IndexedByLOD    []int
	Visible         int
	PoolInUse       int
}

// StatsProvider отдаёт текущее состояние генератора. Экспортер не зависит от
// конкретной реализации планировщика.
type StatsProvider interface {
	Gauges() Gauges
}

// Exporter управляет HTTP-эндпоинтом Prometheus и периодически обновляет Gauge
type Exporter struct {
	metrics  *Metrics
	source   StatsProvider
	interval time.Duration
	proc     *process.Process
	server   *http.Server

	mu       sync.Mutex
	started  bool
	stopped  bool
	stopOnce sync.Once

	quit chan struct{}
	done chan struct{}
}

// NewExporter создаёт экспортер, но не запускает HTTP-сервер
func NewExporter(m *Metrics, source StatsProvider, interval time.Duration) *Exporter {
	if interval <= 0 {
		interval = time.Second
	}

	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		logging.Warn("Метрики процесса недоступны: %v", err)
		proc = nil
	}

	return &Exporter{
		metrics:  m,
		source:   source,
		interval: interval,
		proc:     proc,
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Handler возвращает HTTP-обработчик реестра экземпляра
func (e *Exporter) Handler() http.Handler {
	return promhttp.HandlerFor(e.metrics.Registry(), promhttp.HandlerOpts{})
}

// StartHTTP запускает эндпоинт /metrics на addr (например, ":2112") и цикл
// обновления. Метод неблокирующий. Пустой addr запускает только цикл.
// Повторный вызов и вызов после Stop ничего не делают.
func (e *Exporter) StartHTTP(addr string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.started || e.stopped {
		return
	}
	e.started = true

	if addr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", e.Handler())
		e.server = &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

		go func() {
			logging.Info("📈 Prometheus /metrics доступен по адресу %s", addr)
			if err := e.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logging.Error("Ошибка Prometheus HTTP сервера: %v", err)
			}
		}()
	}
	go e.loop()
}

// Stop останавливает цикл обновления и HTTP-сервер. Безопасен без StartHTTP
// и при повторном вызове.
func (e *Exporter) Stop(ctx context.Context) error {
	var err error
	e.stopOnce.Do(func() {
		e.mu.Lock()
		started := e.started
		e.stopped = true
		e.mu.Unlock()

		if !started {
			return
		}
		close(e.quit)
		<-e.done

		if e.server != nil {
			err = e.server.Shutdown(ctx)
		}
	})
	return err
}

func (e *Exporter) loop() {
	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()
	defer close(e.done)

	for {
		select {
		case <-ticker.C:
			e.Collect()
		case <-e.quit:
			return
		}
	}
}

// Collect переносит текущее состояние источника и процесса в Gauge
func (e *Exporter) Collect() {
	m := e.metrics
	if e.source != nil {
		g := e.source.Gauges()
		m.GenerationQueue.Set(float64(g.GenerationQueue))
		m.BuildQueue.Set(float64(g.BuildQueue))
		m.VisibleChunks.Set(float64(g.Visible))
		m.PoolInUse.Set(float64(g.PoolInUse))
		for lod, n := range g.IndexedByLOD {
			m.IndexedChunks.WithLabelValues(strconv.Itoa(lod)).Set(float64(n))
		}
	}

	if e.proc == nil {
		return
	}
	if mem, err := e.proc.MemoryInfo(); err == nil {
		m.ProcessRSS.Set(float64(mem.RSS))
	}
	if cpu, err := e.proc.CPUPercent(); err == nil {
		m.ProcessCPU.Set(cpu)
	}
}
