package core

import (
	"errors"
	"fmt"
)

// Common errors.
var (
	ErrThemeNotFound = errors.New("theme not found")
	ErrUnknownWidget = errors.New("unknown widget")
	ErrSaverClosed   = errors.New("saver is closed")
)

// StorageError reports an I/O failure while saving state.
// Save failures are always surfaced to whoever triggered the save.
type StorageError struct {
	Op   string
	Path string
	Err  error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// LoadCorruption reports a state file that is missing or does not parse.
// It is recovered locally by the store and never escapes Load.
type LoadCorruption struct {
	Path string
	Err  error
}

func (e *LoadCorruption) Error() string {
	return fmt.Sprintf("corrupt state %s: %v", e.Path, e.Err)
}

func (e *LoadCorruption) Unwrap() error {
	return e.Err
}
