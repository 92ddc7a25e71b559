package world

import (
	"fmt"

	"github.com/annel0/voxel-world/internal/vec"
)

// Границы кодека локальных координат
const (
	MaxLocalX = 127  // 7 бит
	MaxLocalY = 1023 // 10 бит
	MaxLocalZ = 127  // 7 бит
)

// Допустимые горизонтальные размеры чанка
const (
	MinChunkSize = 32
	MaxChunkSize = MaxLocalX + 1
)

// ValidChunkSize сообщает, является ли size степенью двойки в [MinChunkSize, MaxChunkSize]
func ValidChunkSize(size int) bool {
	return size >= MinChunkSize && size <= MaxChunkSize && size&(size-1) == 0
}

// LocalCoord - упакованная в 3 байта локальная координата вокселя внутри чанка.
//
// Раскладка (24 бита, младший бит первым):
//
//	биты 0-6   X
//	биты 7-16  Y (пересекает границы байтов 0/1 и 1/2)
//	биты 17-23 Z
//
// Тип сравним и используется как ключ разреженной карты чанка.
type LocalCoord [3]byte

// NewLocalCoord упаковывает координату. Возвращает *RangeError, если хотя бы одна
// ось выходит за пределы; значения никогда не обрезаются.
func NewLocalCoord(x, y, z int) (LocalCoord, error) {
	if x < 0 || x > MaxLocalX {
		return LocalCoord{}, &RangeError{Axis: "x", Value: x, Max: MaxLocalX}
	}
	if y < 0 || y > MaxLocalY {
		return LocalCoord{}, &RangeError{Axis: "y", Value: y, Max: MaxLocalY}
	}
	if z < 0 || z > MaxLocalZ {
		return LocalCoord{}, &RangeError{Axis: "z", Value: z, Max: MaxLocalZ}
	}

	return LocalCoord{
		byte(x) | byte(y&1)<<7,
		byte(y >> 1),
		byte(y>>9)&1 | byte(z)<<1,
	}, nil
}

// MustLocalCoord как NewLocalCoord, но паникует при ошибке. Только для констант и тестов.
func MustLocalCoord(x, y, z int) LocalCoord {
	c, err := NewLocalCoord(x, y, z)
	if err != nil {
		panic(err)
	}
	return c
}

// X возвращает координату X
func (c LocalCoord) X() int {
	return int(c[0] & 0x7F)
}

// Y возвращает координату Y
func (c LocalCoord) Y() int {
	return int(c[0]>>7) | int(c[1])<<1 | int(c[2]&1)<<9
}

// Z возвращает координату Z
func (c LocalCoord) Z() int {
	return int(c[2] >> 1)
}

// XYZ распаковывает все три оси
func (c LocalCoord) XYZ() (x, y, z int) {
	return c.X(), c.Y(), c.Z()
}

// Vec возвращает координату как вектор
func (c LocalCoord) Vec() vec.Vec3 {
	return vec.Vec3{X: c.X(), Y: c.Y(), Z: c.Z()}
}

// Add смещает координату на знаковый вектор с повторной проверкой диапазона
func (c LocalCoord) Add(off vec.Vec3) (LocalCoord, error) {
	return NewLocalCoord(c.X()+off.X, c.Y()+off.Y, c.Z()+off.Z)
}

// Sub вычитает знаковый вектор с повторной проверкой диапазона
func (c LocalCoord) Sub(off vec.Vec3) (LocalCoord, error) {
	return NewLocalCoord(c.X()-off.X, c.Y()-off.Y, c.Z()-off.Z)
}

// Pack возвращает 24-битное целое представление
func (c LocalCoord) Pack() uint32 {
	return uint32(c[0]) | uint32(c[1])<<8 | uint32(c[2])<<16
}

// UnpackLocalCoord восстанавливает координату из Pack. Значения шире 24 бит отклоняются.
func UnpackLocalCoord(v uint32) (LocalCoord, error) {
	if v>>24 != 0 {
		return LocalCoord{}, fmt.Errorf("packed local coordinate %#x wider than 24 bits: %w", v, ErrRange)
	}
	return LocalCoord{byte(v), byte(v >> 8), byte(v >> 16)}, nil
}

func (c LocalCoord) String() string {
	return fmt.Sprintf("(%d,%d,%d)", c.X(), c.Y(), c.Z())
}
