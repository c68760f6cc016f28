package fs

import (
	"bytes"
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	iofs "io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/jonboulle/clockwork"

	"github.com/aretw0/noats/pkg/core"
)

const (
	stateBase   = "state"
	backupBase  = "state.backup"
	loadLogName = "load_error.log"
	filePerm    = 0644
)

// Store implements core.Store on the local filesystem.
//
// Layout inside Dir:
//
//	state.json         last committed state
//	state.backup.json  the state committed before it
//	load_error.log     append-only diagnostics from Load
type Store struct {
	Dir    string
	config Config

	// writeMu serializes the backup-then-write sequence and Load's self-heal.
	writeMu sync.Mutex

	mu             sync.RWMutex
	lastDigest     [sha256.Size]byte
	hasDigest      bool
	lastSave       *time.Time
	lastLoadSource string
	watcherActive  bool
}

// Config holds the configuration for the filesystem store.
type Config struct {
	Dir          string
	Serializer   Serializer // defaults to JSON
	Logger       *slog.Logger
	Clock        clockwork.Clock
	ErrorHandler func(error) // receives watcher failures
}

// NewStore creates a new filesystem-backed store.
func NewStore(config Config) *Store {
	if config.Serializer == nil {
		config.Serializer = NewJSONSerializer()
	}
	if config.Logger == nil {
		config.Logger = slog.New(slog.DiscardHandler)
	}
	if config.Clock == nil {
		config.Clock = clockwork.NewRealClock()
	}
	return &Store{
		Dir:    config.Dir,
		config: config,
	}
}

// StatePath is the primary state file.
func (s *Store) StatePath() string {
	return filepath.Join(s.Dir, stateBase+s.config.Serializer.Ext())
}

// BackupPath is the backup of the previously committed state.
func (s *Store) BackupPath() string {
	return filepath.Join(s.Dir, backupBase+s.config.Serializer.Ext())
}

// LogPath is the diagnostic log written by Load.
func (s *Store) LogPath() string {
	return filepath.Join(s.Dir, loadLogName)
}

// Initialize creates the storage directory and removes temp files left by
// writes that were interrupted before their rename.
func (s *Store) Initialize(ctx context.Context) error {
	if err := s.ensureDir(); err != nil {
		return err
	}

	leftovers, err := doublestar.Glob(os.DirFS(s.Dir), TempFilePrefix+"*")
	if err != nil {
		return fmt.Errorf("failed to scan for stale temp files: %w", err)
	}
	for _, name := range leftovers {
		if err := os.Remove(filepath.Join(s.Dir, name)); err != nil && !os.IsNotExist(err) {
			s.config.Logger.Warn("failed to remove stale temp file", "file", name, "error", err)
			continue
		}
		s.config.Logger.Debug("removed stale temp file", "file", name)
	}
	return nil
}

func (s *Store) ensureDir() error {
	if err := os.MkdirAll(s.Dir, 0755); err != nil {
		return fmt.Errorf("failed to create storage directory: %w", err)
	}
	return nil
}

// Save persists the full state.
//
// Workflow:
//  1. Create the storage directory if needed.
//  2. Serialize the state (before touching any file).
//  3. If a primary file exists and parses, copy it over the backup. A
//     corrupt primary never replaces a good backup.
//  4. Write the primary atomically.
//
// Every failure is returned as *core.StorageError.
func (s *Store) Save(ctx context.Context, state core.AppState) error {
	path := s.StatePath()
	if err := ctx.Err(); err != nil {
		return &core.StorageError{Op: "save", Path: path, Err: err}
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if err := s.ensureDir(); err != nil {
		return &core.StorageError{Op: "mkdir", Path: s.Dir, Err: err}
	}

	data, err := s.config.Serializer.Serialize(state)
	if err != nil {
		return &core.StorageError{Op: "encode", Path: path, Err: err}
	}

	if err := s.backupPrimary(); err != nil {
		return err
	}

	if err := writeFileAtomic(path, data, filePerm); err != nil {
		return &core.StorageError{Op: "write", Path: path, Err: err}
	}

	now := s.config.Clock.Now()
	s.mu.Lock()
	s.lastDigest = sha256.Sum256(data)
	s.hasDigest = true
	s.lastSave = &now
	s.mu.Unlock()

	s.config.Logger.Debug("state saved", "path", path, "widgets", len(state.Widgets))
	return nil
}

func (s *Store) backupPrimary() error {
	path := s.StatePath()
	data, err := os.ReadFile(path)
	if errors.Is(err, iofs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return &core.StorageError{Op: "read", Path: path, Err: err}
	}
	if _, _, err := s.config.Serializer.Parse(bytes.NewReader(data)); err != nil {
		s.config.Logger.Warn("primary state is corrupt, keeping backup", "path", path, "error", err)
		return nil
	}
	if err := writeFileAtomic(s.BackupPath(), data, filePerm); err != nil {
		return &core.StorageError{Op: "backup", Path: s.BackupPath(), Err: err}
	}
	return nil
}

// Load returns the last committed state, falling back in order to the
// backup (which is then restored over the primary) and to an empty state.
// It never fails; problems are appended to the diagnostic log.
func (s *Store) Load(ctx context.Context) core.AppState {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if err := s.ensureDir(); err != nil {
		s.logLoadError(err)
		return s.fresh("empty")
	}

	state, data, err := s.readState(s.StatePath())
	if err == nil {
		s.remember(data, "primary")
		return state
	}
	if !errors.Is(err, iofs.ErrNotExist) {
		s.logLoadError(err)
	}

	state, data, err = s.readState(s.BackupPath())
	if err == nil {
		if werr := writeFileAtomic(s.StatePath(), data, filePerm); werr != nil {
			s.logLoadError(fmt.Errorf("failed to restore backup over %s: %w", s.StatePath(), werr))
		} else {
			s.config.Logger.Info("restored state from backup", "path", s.BackupPath())
		}
		s.remember(data, "backup")
		return state
	}
	if !errors.Is(err, iofs.ErrNotExist) {
		s.logLoadError(err)
	}

	return s.fresh("empty")
}

// readState reads and parses one state file. Any failure is a *core.LoadCorruption.
func (s *Store) readState(path string) (core.AppState, []byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return core.AppState{}, nil, &core.LoadCorruption{Path: path, Err: err}
	}

	state, skipped, err := s.config.Serializer.Parse(bytes.NewReader(data))
	if err != nil {
		return core.AppState{}, nil, &core.LoadCorruption{Path: path, Err: err}
	}
	for _, skip := range skipped {
		s.logLoadError(fmt.Errorf("%s: dropped %w", path, skip))
	}
	return state, data, nil
}

func (s *Store) fresh(source string) core.AppState {
	s.mu.Lock()
	s.lastLoadSource = source
	s.mu.Unlock()
	return core.NewAppState(s.config.Clock.Now().UTC())
}

func (s *Store) remember(data []byte, source string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastDigest = sha256.Sum256(data)
	s.hasDigest = true
	s.lastLoadSource = source
}

// isOwnWrite reports whether data is what the store last wrote or read.
func (s *Store) isOwnWrite(data []byte) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hasDigest && s.lastDigest == sha256.Sum256(data)
}

// logLoadError appends an entry to the diagnostic log. It is best-effort:
// failures are only reported to the logger.
func (s *Store) logLoadError(cause error) {
	s.config.Logger.Warn("failed to load state", "error", cause)

	f, err := os.OpenFile(s.LogPath(), os.O_APPEND|os.O_CREATE|os.O_WRONLY, filePerm)
	if err != nil {
		s.config.Logger.Debug("diagnostic log unavailable", "path", s.LogPath(), "error", err)
		return
	}
	defer f.Close()

	ts := s.config.Clock.Now().UTC().Format("2006-01-02 15:04:05Z")
	if _, err := io.WriteString(f, fmt.Sprintf("[%s] Failed to load state: %v\n\n", ts, cause)); err != nil {
		s.config.Logger.Debug("diagnostic log write failed", "path", s.LogPath(), "error", err)
	}
}

// HasSavedState reports whether a primary or backup file exists.
func (s *Store) HasSavedState() bool {
	return fileExists(s.StatePath()) || fileExists(s.BackupPath())
}

// DeleteState removes the primary and backup files.
func (s *Store) DeleteState() error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	for _, path := range []string{s.StatePath(), s.BackupPath()} {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return &core.StorageError{Op: "delete", Path: path, Err: err}
		}
	}

	s.mu.Lock()
	s.hasDigest = false
	s.mu.Unlock()
	return nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

var _ core.Store = (*Store)(nil)
