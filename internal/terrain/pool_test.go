package terrain

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/annel0/voxel-world/internal/world/block"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoolRentAndRelease(t *testing.T) {
	pool := NewPool(2, 32, 16)
	assert.Equal(t, 2, pool.Capacity())

	a, err := pool.TryRent()
	require.NoError(t, err)
	b, err := pool.TryRent()
	require.NoError(t, err)
	assert.NotEqual(t, a.Token, b.Token, "токены аренды уникальны")
	assert.Equal(t, 2, pool.InUse())

	_, err = pool.TryRent()
	assert.ErrorIs(t, err, ErrPoolExhausted)

	a.Release()
	a.Release() // повторный возврат безопасен
	assert.Equal(t, 1, pool.InUse())

	c, err := pool.TryRent()
	require.NoError(t, err)
	c.Release()
	b.Release()
	assert.Equal(t, 0, pool.InUse())
}

func TestPoolRentHonoursContext(t *testing.T) {
	pool := NewPool(1, 32, 16)
	held, err := pool.Rent(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = pool.Rent(ctx)
	assert.ErrorIs(t, err, ErrPoolExhausted)

	// Освобождение будит ожидающего арендатора
	done := make(chan struct{})
	go func() {
		defer close(done)
		l, err := pool.Rent(context.Background())
		if err == nil {
			l.Release()
		}
	}()
	held.Release()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("ожидающий арендатор не получил буфер")
	}
}

func TestLeaseVolumeIsClearedAndBounded(t *testing.T) {
	pool := NewPool(1, 32, 16)

	l, err := pool.TryRent()
	require.NoError(t, err)
	vol, err := l.Volume(32, 16)
	require.NoError(t, err)
	assert.Equal(t, 34, vol.W)

	vol.SetAt(3, 4, 5, block.StoneBlockID)
	assert.Equal(t, block.StoneBlockID, vol.At(3, 4, 5))
	assert.True(t, vol.OnBorder(0, 5))
	assert.True(t, vol.OnBorder(5, 33))
	assert.False(t, vol.OnBorder(1, 32))
	l.Release()

	l, err = pool.TryRent()
	require.NoError(t, err)
	defer l.Release()
	vol, err = l.Volume(32, 16)
	require.NoError(t, err)
	assert.Equal(t, block.NoneBlockID, vol.At(3, 4, 5), "буфер очищается при каждой аренде")

	_, err = l.Volume(64, 16)
	assert.ErrorIs(t, err, ErrVolumeTooLarge)
}

func TestPoolNoBufferSharedBetweenBorrowers(t *testing.T) {
	pool := NewPool(3, 32, 8)

	var (
		mu     sync.Mutex
		active = make(map[*scratch]bool)
		wg     sync.WaitGroup
	)
	for i := 0; i < 12; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			l, err := pool.Rent(context.Background())
			if !assert.NoError(t, err) {
				return
			}
			buf := l.buf

			mu.Lock()
			assert.False(t, active[buf], "буфер выдан двум арендаторам одновременно")
			active[buf] = true
			mu.Unlock()

			time.Sleep(2 * time.Millisecond)

			mu.Lock()
			active[buf] = false
			mu.Unlock()
			l.Release()
		}()
	}
	wg.Wait()
	assert.Equal(t, 0, pool.InUse())
}
