package block

import "sync"

var (
	registry   = make(map[BlockID]Properties)
	registryMu sync.RWMutex
)

// Register добавляет свойства блока в регистр (повторная регистрация перезаписывает)
func Register(props Properties) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[props.ID] = props
}

// Get возвращает свойства для указанного ID
func Get(id BlockID) (Properties, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	props, exists := registry[id]
	return props, exists
}

// IsValidBlockID проверяет, является ли ID допустимым идентификатором блока
func IsValidBlockID(id BlockID) bool {
	_, exists := Get(id)
	return exists
}

// BlockID представляет тип вокселя. Вмещается в байт, чтобы плотный
// буфер генерации оставался компактным.
type BlockID uint8

// Константы ID блоков
const (
	// Пустые типы: геометрии не имеют
	NoneBlockID BlockID = iota // 0 - вне мира / ни разу не записан
	AirBlockID                 // 1 - настоящий воздух (пещеры)

	// Грунт
	StoneBlockID     // 2
	GrassBlockID     // 3
	DirtBlockID      // 4
	SandBlockID      // 5
	SandstoneBlockID // 6
	BedrockBlockID   // 7

	// Руды
	CoalOreBlockID // 8
	IronOreBlockID // 9
	GoldOreBlockID // 10

	// Растительность
	LogBlockID    // 11
	LeavesBlockID // 12
)

// IsEmpty возвращает true для типов без геометрии
func IsEmpty(id BlockID) bool {
	return !IsSolid(id)
}

// IsSolid возвращает true, если блок твердый. Незарегистрированные ID
// считаются пустыми.
func IsSolid(id BlockID) bool {
	if id == NoneBlockID || id == AirBlockID {
		return false
	}
	props, ok := Get(id)
	return ok && props.Solid
}

// String возвращает имя блока
func (id BlockID) String() string {
	if props, ok := Get(id); ok {
		return props.Name
	}
	return "unknown"
}
