package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]LogLevel{
		"trace":   TRACE,
		"DEBUG":   DEBUG,
		"":        INFO,
		" info ":  INFO,
		"warning": WARN,
		"Error":   ERROR,
	}
	for in, want := range cases {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseLevel("loud")
	assert.Error(t, err)
}

func TestLoggerFiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriterLogger("generator", &buf, WARN)

	l.Info("скрыто %d", 1)
	l.Warn("очередь переполнена: %d", 42)

	out := buf.String()
	assert.NotContains(t, out, "скрыто")
	assert.Contains(t, out, "[WARN] [generator] очередь переполнена: 42")

	l.SetLevels(TRACE, ERROR)
	l.Trace("подробно")
	assert.Contains(t, buf.String(), "[TRACE] [generator] подробно")
}

func TestNilLoggerIsSilent(t *testing.T) {
	var l *Logger
	assert.NotPanics(t, func() { l.Error("ничего") })
}

func TestLoggerWritesFile(t *testing.T) {
	dir := t.TempDir()
	Configure(Options{Dir: dir, ConsoleLevel: ERROR, FileLevel: DEBUG})
	t.Cleanup(func() { Configure(Options{ConsoleLevel: INFO, FileLevel: DEBUG}) })

	l, err := NewLogger("terrain")
	require.NoError(t, err)
	l.Debug("чанк %s заполнен", "(0,0,0)")
	require.NoError(t, l.Close())
	require.NoError(t, l.Close(), "повторное закрытие безопасно")

	files, err := filepath.Glob(filepath.Join(dir, "terrain_*.log"))
	require.NoError(t, err)
	require.Len(t, files, 1)

	data, err := os.ReadFile(files[0])
	require.NoError(t, err)
	assert.Contains(t, string(data), "[DEBUG] [terrain] чанк (0,0,0) заполнен")
}

func TestManagerReusesComponentLoggers(t *testing.T) {
	m := newLoggerManager()

	a := m.Logger(ComponentMesh)
	b := m.Logger(ComponentMesh)
	assert.Same(t, a, b)
	assert.Equal(t, ComponentMesh, a.Component())
	assert.NotSame(t, a, m.Logger(ComponentTerrain))

	assert.NoError(t, m.CloseAll())
	assert.NotSame(t, a, m.Logger(ComponentMesh), "после CloseAll логгер создаётся заново")
}

func TestManagerAppliesComponentLevels(t *testing.T) {
	m := newLoggerManager()
	existing := m.Logger(ComponentTerrain)

	m.SetComponentLevels(map[string]LogLevel{
		ComponentTerrain: TRACE,
		ComponentMesh:    ERROR,
	})

	assert.Equal(t, TRACE, existing.minConsoleLevel, "уровень применяется к созданному логгеру")
	assert.Equal(t, TRACE, existing.minFileLevel, "файл не менее подробен, чем консоль")

	meshLog := m.Logger(ComponentMesh)
	assert.Equal(t, ERROR, meshLog.minConsoleLevel)
	assert.Equal(t, DEBUG, meshLog.minFileLevel, "уровень файла из Options сохраняется")

	genLog := m.Logger(ComponentGenerator)
	assert.Equal(t, INFO, genLog.minConsoleLevel, "без переопределения - уровни Options")

	m.SetComponentLevels(nil)
	assert.Equal(t, INFO, existing.minConsoleLevel, "сброс переопределений")
}

func TestConfigureRoutesComponentLevels(t *testing.T) {
	t.Cleanup(func() { Configure(Options{ConsoleLevel: INFO, FileLevel: DEBUG}) })

	Configure(Options{
		ConsoleLevel: WARN,
		FileLevel:    DEBUG,
		Components:   map[string]LogLevel{ComponentGenerator: DEBUG},
	})

	genLog := GetGeneratorLogger()
	assert.Equal(t, DEBUG, genLog.minConsoleLevel)
	assert.Equal(t, WARN, GetMeshLogger().minConsoleLevel)
}

func TestIsComponent(t *testing.T) {
	assert.True(t, IsComponent(ComponentTerrain))
	assert.False(t, IsComponent("network"))
}
