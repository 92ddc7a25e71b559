package generator

import (
	"context"
	"errors"
	"sync"

	"github.com/annel0/voxel-world/internal/world"
)

// ErrQueueClosed возвращается из Pop после закрытия очереди
var ErrQueueClosed = errors.New("chunk queue closed")

// Queue - FIFO-очередь чанков, в которой каждый чанк присутствует не более
// одного раза. Pop блокируется на условной переменной, пока очередь пуста.
type Queue struct {
	mu      sync.Mutex
	cond    *sync.Cond
	items   []*world.Chunk
	members map[*world.Chunk]struct{}
	closed  bool
}

// NewQueue создаёт пустую очередь
func NewQueue() *Queue {
	q := &Queue{
		members: make(map[*world.Chunk]struct{}),
	}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Push добавляет чанк в конец очереди. Возвращает false, если чанк уже в
// очереди или очередь закрыта.
func (q *Queue) Push(c *world.Chunk) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}
	if _, ok := q.members[c]; ok {
		return false
	}

	q.items = append(q.items, c)
	q.members[c] = struct{}{}
	q.cond.Signal()
	return true
}

// Pop извлекает первый чанк, ожидая появления элемента. Возвращает
// ErrQueueClosed после Close или ошибку ctx после его отмены.
func (q *Queue) Pop(ctx context.Context) (*world.Chunk, error) {
	stop := context.AfterFunc(ctx, func() {
		q.mu.Lock()
		q.cond.Broadcast()
		q.mu.Unlock()
	})
	defer stop()

	q.mu.Lock()
	defer q.mu.Unlock()

	for len(q.items) == 0 {
		if q.closed {
			return nil, ErrQueueClosed
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		q.cond.Wait()
	}

	c := q.items[0]
	q.items[0] = nil
	q.items = q.items[1:]
	delete(q.members, c)
	return c, nil
}

// Contains сообщает, стоит ли чанк в очереди
func (q *Queue) Contains(c *world.Chunk) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	_, ok := q.members[c]
	return ok
}

// Clear удаляет все элементы и возвращает их число
func (q *Queue) Clear() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	n := len(q.items)
	q.items = nil
	q.members = make(map[*world.Chunk]struct{})
	return n
}

// Len возвращает число элементов в очереди
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Close будит всех ожидающих. Оставшиеся элементы ещё можно извлечь.
func (q *Queue) Close() {
	q.mu.Lock()
	q.closed = true
	q.cond.Broadcast()
	q.mu.Unlock()
}
