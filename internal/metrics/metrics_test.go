package metrics

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedStats Gauges

func (f fixedStats) Gauges() Gauges { return Gauges(f) }

func TestObserveCounters(t *testing.T) {
	m := New()

	m.ObserveGeneration(3 * time.Millisecond)
	m.ObserveGeneration(5 * time.Millisecond)
	m.ObserveMesh(time.Millisecond, 120)
	m.ObserveFailure("generate")
	m.ObserveEviction(4)
	m.ObserveEviction(0)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.ChunksGenerated))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ChunksMeshed))
	assert.Equal(t, 120.0, testutil.ToFloat64(m.Faces))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Failures.WithLabelValues("generate")))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.ChunksEvicted))
	assert.Equal(t, 1, testutil.CollectAndCount(m.GenerationSeconds), "одна серия гистограммы")
	assert.Equal(t, uint64(2), sampleCount(t, m, "voxel_generation_duration_seconds"))
	assert.Equal(t, uint64(1), sampleCount(t, m, "voxel_mesh_duration_seconds"))
}

// sampleCount возвращает число наблюдений гистограммы из реестра экземпляра
func sampleCount(t *testing.T, m *Metrics, name string) uint64 {
	t.Helper()

	families, err := m.Registry().Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		require.Len(t, mf.GetMetric(), 1)
		return mf.GetMetric()[0].GetHistogram().GetSampleCount()
	}
	t.Fatalf("метрика %s не зарегистрирована", name)
	return 0
}

func TestNilMetricsIgnored(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveGeneration(time.Second)
		m.ObserveMesh(time.Second, 1)
		m.ObserveFailure("build")
		m.ObserveEviction(1)
	})
}

func TestInstancesAreIndependent(t *testing.T) {
	a, b := New(), New()
	a.ObserveGeneration(time.Millisecond)
	assert.Equal(t, 0.0, testutil.ToFloat64(b.ChunksGenerated))
}

func TestExporterCollect(t *testing.T) {
	m := New()
	e := NewExporter(m, fixedStats{
		GenerationQueue: 7,
		BuildQueue:      3,
		IndexedByLOD:    []int{25, 9},
		Visible:         30,
		PoolInUse:       2,
	}, time.Hour)

	e.Collect()

	assert.Equal(t, 7.0, testutil.ToFloat64(m.GenerationQueue))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.BuildQueue))
	assert.Equal(t, 25.0, testutil.ToFloat64(m.IndexedChunks.WithLabelValues("0")))
	assert.Equal(t, 9.0, testutil.ToFloat64(m.IndexedChunks.WithLabelValues("1")))
	assert.Equal(t, 30.0, testutil.ToFloat64(m.VisibleChunks))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.PoolInUse))
}

func TestExporterHandlerServesRegistry(t *testing.T) {
	m := New()
	m.ObserveMesh(time.Millisecond, 6)
	e := NewExporter(m, nil, time.Hour)

	rec := httptest.NewRecorder()
	e.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body := rec.Body.String()
	assert.True(t, strings.Contains(body, "voxel_mesh_faces_total 6"), body)
}

func TestExporterStopWithoutServer(t *testing.T) {
	e := NewExporter(New(), fixedStats{}, 10*time.Millisecond)
	e.StartHTTP("")
	time.Sleep(25 * time.Millisecond)
	require.NoError(t, e.Stop(context.Background()))
}

func TestExporterStopIsIdempotent(t *testing.T) {
	idle := NewExporter(New(), fixedStats{}, time.Hour)
	done := make(chan error, 1)
	go func() { done <- idle.Stop(context.Background()) }()

	select {
	case err := <-done:
		require.NoError(t, err, "остановка без запуска")
	case <-time.After(time.Second):
		t.Fatal("Stop без StartHTTP заблокировался")
	}
	assert.NotPanics(t, func() { _ = idle.Stop(context.Background()) })

	idle.StartHTTP("")
	assert.NoError(t, idle.Stop(context.Background()), "запуск после остановки игнорируется")

	running := NewExporter(New(), fixedStats{}, 10*time.Millisecond)
	running.StartHTTP("")
	require.NoError(t, running.Stop(context.Background()))
	assert.NotPanics(t, func() {
		assert.NoError(t, running.Stop(context.Background()))
	})
}
