package world

import (
	"errors"
	"fmt"
)

var (
	// ErrRange возвращается, когда ось локальной координаты выходит за пределы кодека
	ErrRange = errors.New("local coordinate out of range")
	// ErrOutOfBounds возвращается при доступе за пределами размера чанка
	ErrOutOfBounds = errors.New("voxel access out of chunk bounds")
	// ErrDuplicateChunk возвращается при повторной вставке чанка в индекс
	ErrDuplicateChunk = errors.New("chunk already indexed")
	// ErrMisaligned возвращается, если позиция чанка не выровнена по размеру LOD
	ErrMisaligned = errors.New("chunk position not aligned to lod size")
	// ErrUnknownLOD возвращается для уровня детализации вне индекса
	ErrUnknownLOD = errors.New("unknown lod level")
)

// RangeError описывает ось, вышедшую за пределы кодека
type RangeError struct {
	Axis  string
	Value int
	Max   int
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("local coordinate %s=%d out of range [0, %d]", e.Axis, e.Value, e.Max)
}

// Unwrap позволяет использовать errors.Is(err, ErrRange)
func (e *RangeError) Unwrap() error {
	return ErrRange
}

// BoundsError описывает доступ к вокселю за пределами объявленного размера чанка
type BoundsError struct {
	X, Y, Z int
	Size    int
	Height  int
}

func (e *BoundsError) Error() string {
	return fmt.Sprintf("voxel (%d,%d,%d) outside chunk %dx%dx%d", e.X, e.Y, e.Z, e.Size, e.Height, e.Size)
}

// Unwrap позволяет использовать errors.Is(err, ErrOutOfBounds)
func (e *BoundsError) Unwrap() error {
	return ErrOutOfBounds
}
