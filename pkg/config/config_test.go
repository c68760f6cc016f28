package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/noats/pkg/hotkey"
	"github.com/aretw0/noats/pkg/widget"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "json", cfg.Format)
	assert.Equal(t, 200*time.Millisecond, cfg.SaveDebounce.Duration)
	assert.Equal(t, widget.DefaultLayout(), cfg.Layout())
	assert.Nil(t, cfg.WorkingAreas())
	assert.Equal(t, "Noats", filepath.Base(cfg.DataDir))

	b, err := cfg.Bindings()
	require.NoError(t, err)
	assert.Equal(t, hotkey.DefaultBindings(), b)
}

func TestLoadFromReader(t *testing.T) {
	t.Setenv(EnvDataDir, "")
	t.Setenv(EnvLogLevel, "")

	doc := `
data_dir: /tmp/noats-test
format: yaml
log_level: debug
save_debounce: 1s
resize_debounce: 75ms
min_height: 60
max_aspect: 2
watch_external: true
themes_file: themes.toml
hotkeys:
  alt+n: create
  alt+shift+h: hide-all
screens:
  - {x: 0, y: 0, width: 2560, height: 1400}
  - {x: 2560, y: 0, width: 1920, height: 1040}
`
	cfg, err := LoadFromReader(strings.NewReader(doc))
	require.NoError(t, err)

	assert.Equal(t, "/tmp/noats-test", cfg.DataDir)
	assert.Equal(t, "yaml", cfg.Format)
	assert.Equal(t, time.Second, cfg.SaveDebounce.Duration)
	assert.True(t, cfg.WatchExternal)
	assert.Equal(t, filepath.Join("/tmp/noats-test", "themes.toml"), cfg.ResolvedThemesFile())

	l := cfg.Layout()
	assert.Equal(t, 60.0, l.MinHeight)
	assert.Equal(t, 1.0, l.MinAspect, "unset keys keep their default")
	assert.Equal(t, 2.0, l.MaxAspect)
	assert.Equal(t, 75*time.Millisecond, l.ResizeDebounce)

	screens := cfg.WorkingAreas()
	require.Len(t, screens, 2)
	assert.Equal(t, widget.Rect{X: 2560, W: 1920, H: 1040}, screens[1])

	b, err := cfg.Bindings()
	require.NoError(t, err)
	tr, ok := b.Lookup("shift+alt+h")
	require.True(t, ok)
	assert.Equal(t, hotkey.TriggerHideAll, tr)

	level, err := ParseLevel(cfg.LogLevel)
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)
}

func TestLoadFromReaderRejectsBadInput(t *testing.T) {
	cases := map[string]string{
		"unknown key":   "colour: red\n",
		"format":        "format: xml\n",
		"level":         "log_level: loud\n",
		"duration":      "save_debounce: soon\n",
		"negative":      "save_debounce: -1s\n",
		"aspect":        "min_aspect: 2\nmax_aspect: 1\n",
		"height":        "min_height: 0\n",
		"screen":        "screens:\n  - {width: 0, height: 10}\n",
		"hotkey":        "hotkeys:\n  ctrl+j: explode\n",
		"chord":         "hotkeys:\n  ctrl+: create\n",
		"drag margin":   "drag_margin: -3\n",
		"empty datadir": "data_dir: ''\n",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			t.Setenv(EnvDataDir, "")
			_, err := LoadFromReader(strings.NewReader(doc))
			assert.Error(t, err)
		})
	}
}

func TestLoadEmptyFile(t *testing.T) {
	cfg, err := LoadFromReader(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, "json", cfg.Format)
}

func TestLoadFromFileMissingUsesDefaults(t *testing.T) {
	t.Setenv(EnvDataDir, "")
	cfg, err := LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default().Format, cfg.Format)
}

func TestEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(EnvDataDir, dir)
	t.Setenv(EnvLogLevel, "warn")

	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte("data_dir: /elsewhere\nformat: yaml\n"), 0644))

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, dir, cfg.DataDir, "environment wins over the file")
	assert.Equal(t, "yaml", cfg.Format, "the file was found through NOATS_DATA_DIR")
	assert.Equal(t, "warn", cfg.LogLevel)
}
