package generator

import (
	"context"
	"errors"
	"time"

	"github.com/annel0/voxel-world/internal/world"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

// Start запускает воркеры генерации и построения мешей. Воркеры работают до
// отмены ctx или вызова Stop.
func (s *Scheduler) Start(ctx context.Context) error {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	switch {
	case s.stopped:
		return ErrStopped
	case s.group != nil:
		return ErrAlreadyRunning
	}

	ctx, cancel := context.WithCancel(ctx)
	g, gctx := errgroup.WithContext(ctx)

	for i := 0; i < s.opts.GenerationWorkers; i++ {
		id := i
		g.Go(func() error { return s.generationWorker(gctx, id) })
	}
	for i := 0; i < s.opts.BuildWorkers; i++ {
		id := i
		g.Go(func() error { return s.buildWorker(gctx, id) })
	}

	s.cancel = cancel
	s.group = g
	s.logger.Info("🚀 Запущено воркеров: генерация %d, меши %d",
		s.opts.GenerationWorkers, s.opts.BuildWorkers)
	return nil
}

// Stop отменяет воркеры, закрывает очереди и ждёт завершения
func (s *Scheduler) Stop() error {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	if s.stopped {
		return nil
	}
	s.stopped = true

	s.genQ.Close()
	s.buildQ.Close()
	if s.group == nil {
		return nil
	}

	s.cancel()
	err := s.group.Wait()
	s.logger.Info("Воркеры остановлены")
	return err
}

// stopErr отличает штатное завершение воркера от ошибки
func stopErr(err error) error {
	if errors.Is(err, ErrQueueClosed) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	return err
}

func (s *Scheduler) generationWorker(ctx context.Context, id int) error {
	for {
		c, err := s.genQ.Pop(ctx)
		if err != nil {
			return stopErr(err)
		}
		if !c.CompareAndSwapState(world.StateQueued, world.StateGenerating) {
			continue
		}
		s.generate(ctx, c, id)
	}
}

func (s *Scheduler) generate(ctx context.Context, c *world.Chunk, worker int) {
	ctx, span := s.tracer.Start(ctx, "terrain.populate", trace.WithAttributes(chunkAttributes(c, worker)...))
	defer span.End()

	start := time.Now()
	err := s.sampler.Populate(ctx, c)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		c.SetState(world.StateQueued)
		s.metrics.ObserveFailure("generate")
		s.retry(ctx, c, s.genQ, "генерации", err)
		return
	}

	c.ResetAttempts()
	c.SetState(world.StateGenerated)
	s.metrics.ObserveGeneration(time.Since(start))
	span.SetAttributes(attribute.Int("chunk.voxels", c.Len()))
	s.logger.Trace("Чанк %v (lod %d) заполнен: %d вокселей за %v", c.Position, c.LOD, c.Len(), time.Since(start))

	s.buildQ.Push(c)
}

func (s *Scheduler) buildWorker(ctx context.Context, id int) error {
	for {
		c, err := s.buildQ.Pop(ctx)
		if err != nil {
			return stopErr(err)
		}
		if !c.CompareAndSwapState(world.StateGenerated, world.StateBuilding) {
			continue
		}
		s.build(ctx, c, id)
	}
}

func (s *Scheduler) build(ctx context.Context, c *world.Chunk, worker int) {
	_, span := s.tracer.Start(ctx, "mesh.build", trace.WithAttributes(chunkAttributes(c, worker)...))
	defer span.End()

	start := time.Now()
	m, err := s.builder.Build(c)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		c.SetState(world.StateGenerated)
		s.metrics.ObserveFailure("build")
		s.retry(ctx, c, s.buildQ, "построения меша", err)
		return
	}

	s.renderMu.Lock()
	c.SetMesh(m)
	s.renderer.Attach(c, m)
	s.renderer.SetVisible(c, c.Visible())
	c.SetState(world.StateReady)
	s.renderMu.Unlock()

	c.ResetAttempts()
	s.metrics.ObserveMesh(time.Since(start), m.Faces())
	span.SetAttributes(attribute.Int("mesh.faces", m.Faces()))
	s.logger.Trace("Меш чанка %v (lod %d): %d граней", c.Position, c.LOD, m.Faces())
}

// retry возвращает чанк в очередь, пока не исчерпан лимит попыток. Иначе чанк
// остаётся в текущем состоянии до следующего Update.
func (s *Scheduler) retry(ctx context.Context, c *world.Chunk, q *Queue, stage string, err error) {
	attempt := c.NextAttempt()
	if ctx.Err() != nil {
		return
	}
	if attempt <= s.opts.MaxRetries {
		s.logger.Warn("Ошибка %s чанка %v (попытка %d/%d): %v", stage, c.Position, attempt, s.opts.MaxRetries, err)
		q.Push(c)
		return
	}
	s.logger.Error("Ошибка %s чанка %v, повторы исчерпаны: %v", stage, c.Position, err)
	c.ResetAttempts()
}

func chunkAttributes(c *world.Chunk, worker int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Int("chunk.x", c.Position.X),
		attribute.Int("chunk.z", c.Position.Z),
		attribute.Int("chunk.lod", c.LOD),
		attribute.Int("worker", worker),
	}
}
