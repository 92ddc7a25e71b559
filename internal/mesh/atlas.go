package mesh

// Atlas описывает сетку тайлов текстурного атласа
type Atlas struct {
	Columns int
	Rows    int
}

// DefaultAtlas - атлас 16x16 тайлов
func DefaultAtlas() Atlas {
	return Atlas{Columns: 16, Rows: 16}
}

// Rect возвращает UV-прямоугольник тайла: левый нижний угол и размер
func (a Atlas) Rect(tile int) (u, v, du, dv float32) {
	cols, rows := a.Columns, a.Rows
	if cols <= 0 || rows <= 0 {
		return 0, 0, 1, 1
	}
	if tile < 0 || tile >= cols*rows {
		tile = 0
	}

	du = 1 / float32(cols)
	dv = 1 / float32(rows)
	return float32(tile%cols) * du, float32(tile/cols) * dv, du, dv
}
