package logging

import (
	"errors"
	"fmt"
	"maps"
	"os"
	"sync"
)

// Компоненты генератора мира
const (
	ComponentGenerator = "generator"
	ComponentTerrain   = "terrain"
	ComponentMesh      = "mesh"
)

// IsComponent сообщает, известен ли компонент менеджеру
func IsComponent(name string) bool {
	switch name {
	case ComponentGenerator, ComponentTerrain, ComponentMesh:
		return true
	}
	return false
}

// LoggerManager хранит логгеры компонентов и переопределения их уровней.
// Переопределение задаёт уровень консоли; файл получает не менее подробный уровень.
type LoggerManager struct {
	mu      sync.Mutex
	loggers map[string]*Logger
	levels  map[string]LogLevel
}

var globalManager = newLoggerManager()

func newLoggerManager() *LoggerManager {
	return &LoggerManager{
		loggers: make(map[string]*Logger),
		levels:  make(map[string]LogLevel),
	}
}

// GetLoggerManager возвращает менеджер логгеров процесса
func GetLoggerManager() *LoggerManager {
	return globalManager
}

// Logger возвращает логгер компонента, создавая его при первом обращении.
// Если файл логов открыть не удалось, компонент пишет только в консоль.
func (lm *LoggerManager) Logger(component string) *Logger {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	if l, ok := lm.loggers[component]; ok {
		return l
	}

	opts := currentOptions()
	l, err := NewLogger(component)
	if err != nil {
		l = newConsoleLogger(component, os.Stdout, opts.ConsoleLevel)
		l.Warn("Файл логов недоступен, вывод только в консоль: %v", err)
	}
	lm.apply(component, l, opts)
	lm.loggers[component] = l
	return l
}

// SetComponentLevels заменяет переопределения уровней и применяет их к уже
// созданным логгерам. Компоненты без переопределения получают уровни Options.
func (lm *LoggerManager) SetComponentLevels(levels map[string]LogLevel) {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	lm.levels = maps.Clone(levels)
	if lm.levels == nil {
		lm.levels = make(map[string]LogLevel)
	}

	opts := currentOptions()
	for component, l := range lm.loggers {
		lm.apply(component, l, opts)
	}
}

// apply выставляет уровни логгера; вызывается под lm.mu
func (lm *LoggerManager) apply(component string, l *Logger, opts Options) {
	console, file := opts.ConsoleLevel, opts.FileLevel
	if level, ok := lm.levels[component]; ok {
		console = level
		file = min(file, level)
	}
	l.SetLevels(console, file)
}

// CloseAll закрывает файлы всех логгеров и забывает их
func (lm *LoggerManager) CloseAll() error {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	var errs []error
	for component, l := range lm.loggers {
		if err := l.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close logger %s: %w", component, err))
		}
	}
	lm.loggers = make(map[string]*Logger)
	return errors.Join(errs...)
}

// GetGeneratorLogger возвращает логгер планировщика чанков
func GetGeneratorLogger() *Logger {
	return globalManager.Logger(ComponentGenerator)
}

// GetTerrainLogger возвращает логгер заполнения чанков
func GetTerrainLogger() *Logger {
	return globalManager.Logger(ComponentTerrain)
}

// GetMeshLogger возвращает логгер мешей и рендера
func GetMeshLogger() *Logger {
	return globalManager.Logger(ComponentMesh)
}
