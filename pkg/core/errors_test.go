package core_test

import (
	"errors"
	"fmt"
	"io/fs"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/aretw0/noats/pkg/core"
)

func TestStorageErrorUnwraps(t *testing.T) {
	err := fmt.Errorf("save: %w", &core.StorageError{Op: "write", Path: "state.json", Err: fs.ErrPermission})

	var se *core.StorageError
	assert.True(t, errors.As(err, &se))
	assert.Equal(t, "write", se.Op)
	assert.ErrorIs(t, err, fs.ErrPermission)
	assert.Contains(t, err.Error(), "state.json")
}

func TestLoadCorruptionUnwraps(t *testing.T) {
	cause := errors.New("unexpected EOF")
	err := &core.LoadCorruption{Path: "state.backup.json", Err: cause}
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "corrupt state state.backup.json: unexpected EOF", err.Error())
}

func TestNewAppState(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	state := core.NewAppState(now)
	assert.Empty(t, state.Widgets)
	assert.Equal(t, 1, state.Version)
	assert.True(t, state.LastSaved.Equal(now))
}

func TestEventString(t *testing.T) {
	assert.Equal(t, "RELOAD", core.Event{Type: core.EventReload}.String())
	assert.Equal(t, "CLOSE abc", core.Event{Type: core.EventClose, WidgetID: "abc"}.String())
}
