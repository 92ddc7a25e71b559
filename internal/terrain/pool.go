package terrain

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/annel0/voxel-world/internal/world/block"
	"github.com/google/uuid"
)

var (
	// ErrPoolExhausted возвращается, когда все буферы выданы и ожидание прервано
	ErrPoolExhausted = errors.New("scratch pool exhausted")
	// ErrVolumeTooLarge возвращается при запросе объёма больше ёмкости буфера
	ErrVolumeTooLarge = errors.New("scratch volume exceeds buffer capacity")
)

// scratch - один плотный буфер арены
type scratch struct {
	cells []block.BlockID
}

// Pool - арена плотных буферов фиксированного размера. Каждый буфер одновременно
// выдан не более чем одному арендатору.
type Pool struct {
	free     chan *scratch
	leases   map[uuid.UUID]*Lease
	mu       sync.Mutex
	capacity int
	cellCap  int
}

// Lease - аренда одного буфера, идентифицируемая уникальным токеном
type Lease struct {
	Token uuid.UUID

	pool *Pool
	buf  *scratch
	once sync.Once
}

// NewPool создаёт арену на capacity буферов, каждый вмещает дополненный объём
// чанка maxSize x height (с кольцом в одну клетку). Память выделяется лениво.
func NewPool(capacity, maxSize, height int) *Pool {
	if capacity <= 0 {
		capacity = 1
	}
	w := maxSize + 2

	p := &Pool{
		free:     make(chan *scratch, capacity),
		leases:   make(map[uuid.UUID]*Lease),
		capacity: capacity,
		cellCap:  w * w * height,
	}
	for i := 0; i < capacity; i++ {
		p.free <- &scratch{}
	}
	return p
}

// Capacity возвращает число буферов арены
func (p *Pool) Capacity() int {
	return p.capacity
}

// InUse возвращает число выданных буферов
func (p *Pool) InUse() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.leases)
}

// Rent блокируется до освобождения буфера или отмены ctx
func (p *Pool) Rent(ctx context.Context) (*Lease, error) {
	select {
	case buf := <-p.free:
		return p.lease(buf), nil
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %v", ErrPoolExhausted, ctx.Err())
	}
}

// TryRent выдаёт буфер без ожидания
func (p *Pool) TryRent() (*Lease, error) {
	select {
	case buf := <-p.free:
		return p.lease(buf), nil
	default:
		return nil, ErrPoolExhausted
	}
}

func (p *Pool) lease(buf *scratch) *Lease {
	if buf.cells == nil {
		buf.cells = make([]block.BlockID, p.cellCap)
	}

	l := &Lease{
		Token: uuid.New(),
		pool:  p,
		buf:   buf,
	}

	p.mu.Lock()
	p.leases[l.Token] = l
	p.mu.Unlock()
	return l
}

// Release возвращает буфер в арену. Повторный вызов ничего не делает.
func (l *Lease) Release() {
	l.once.Do(func() {
		l.pool.mu.Lock()
		delete(l.pool.leases, l.Token)
		l.pool.mu.Unlock()

		buf := l.buf
		l.buf = nil
		l.pool.free <- buf
	})
}

// Volume размечает буфер аренды под дополненный объём чанка и очищает его
func (l *Lease) Volume(size, height int) (*Volume, error) {
	if l.buf == nil {
		return nil, fmt.Errorf("volume from released lease %s", l.Token)
	}

	w := size + 2
	n := w * w * height
	if n > len(l.buf.cells) {
		return nil, fmt.Errorf("volume %dx%dx%d: %w", w, height, w, ErrVolumeTooLarge)
	}

	cells := l.buf.cells[:n]
	clear(cells)
	return &Volume{W: w, Height: height, cells: cells}, nil
}

// Volume - плотный буфер (size+2) x height x (size+2). Индексация плоская по
// дополненным координатам: px + W*pz + W*W*y. Кодек локальных координат сюда не
// подходит: кольцо дополнения выходит за его диапазон.
type Volume struct {
	W      int
	Height int
	cells  []block.BlockID
}

func (v *Volume) index(px, y, pz int) int {
	return px + v.W*pz + v.W*v.W*y
}

// At возвращает клетку по дополненным координатам
func (v *Volume) At(px, y, pz int) block.BlockID {
	return v.cells[v.index(px, y, pz)]
}

// SetAt записывает клетку по дополненным координатам
func (v *Volume) SetAt(px, y, pz int, id block.BlockID) {
	v.cells[v.index(px, y, pz)] = id
}

// OnBorder сообщает, лежит ли клетка на кольце дополнения
func (v *Volume) OnBorder(px, pz int) bool {
	return px == 0 || pz == 0 || px == v.W-1 || pz == v.W-1
}
