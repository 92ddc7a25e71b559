package block

// Face обозначает одну из шести граней вокселя
type Face uint8

const (
	FaceTop    Face = iota // +Y
	FaceBottom             // -Y
	FaceNorth              // +Z
	FaceSouth              // -Z
	FaceEast               // +X
	FaceWest               // -X

	FaceCount // всегда последний
)

// String возвращает имя грани
func (f Face) String() string {
	switch f {
	case FaceTop:
		return "top"
	case FaceBottom:
		return "bottom"
	case FaceNorth:
		return "north"
	case FaceSouth:
		return "south"
	case FaceEast:
		return "east"
	case FaceWest:
		return "west"
	default:
		return "unknown"
	}
}

// Properties описывает статические свойства типа блока.
// Tiles - индексы тайлов атласа текстур: верх, низ, бока.
type Properties struct {
	ID     BlockID
	Name   string
	Solid  bool
	Top    int
	Bottom int
	Side   int
}

// Tile возвращает индекс тайла атласа для грани
func (p Properties) Tile(face Face) int {
	switch face {
	case FaceTop:
		return p.Top
	case FaceBottom:
		return p.Bottom
	default:
		return p.Side
	}
}

// TileFor возвращает индекс тайла для блока и грани (0 для неизвестных блоков)
func TileFor(id BlockID, face Face) int {
	props, ok := Get(id)
	if !ok {
		return 0
	}
	return props.Tile(face)
}

// uniform создаёт свойства с одним тайлом на все грани
func uniform(id BlockID, name string, tile int) Properties {
	return Properties{ID: id, Name: name, Solid: true, Top: tile, Bottom: tile, Side: tile}
}

// Регистрируем палитру при импорте пакета
func init() {
	Register(Properties{ID: NoneBlockID, Name: "none"})
	Register(Properties{ID: AirBlockID, Name: "air"})

	Register(uniform(StoneBlockID, "stone", 1))
	Register(Properties{ID: GrassBlockID, Name: "grass", Solid: true, Top: 0, Bottom: 2, Side: 3})
	Register(uniform(DirtBlockID, "dirt", 2))
	Register(uniform(SandBlockID, "sand", 18))
	Register(Properties{ID: SandstoneBlockID, Name: "sandstone", Solid: true, Top: 176, Bottom: 208, Side: 192})
	Register(uniform(BedrockBlockID, "bedrock", 17))

	Register(uniform(CoalOreBlockID, "coal_ore", 34))
	Register(uniform(IronOreBlockID, "iron_ore", 33))
	Register(uniform(GoldOreBlockID, "gold_ore", 32))

	Register(Properties{ID: LogBlockID, Name: "log", Solid: true, Top: 21, Bottom: 21, Side: 20})
	Register(uniform(LeavesBlockID, "leaves", 52))
}
