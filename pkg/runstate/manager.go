// Package runstate records ingestion runs in the .medrag/ directory and
// serializes them across processes with a file lock.
package runstate

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"syscall"
	"time"

	"github.com/papercomputeco/medrag/pkg/dotdir"
)

const (
	stateFileName = "ingest.json"
	logFileName   = "ingest.log"
	lockFileName  = "ingest.lock"
	stateVersion  = 1
)

// ErrLocked is returned by TryLock while another process holds the lock.
var ErrLocked = errors.New("another ingestion is running")

// Run describes one finished ingestion.
type Run struct {
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
	Files     int           `json:"files"`
	Units     int           `json:"units"`
	NewUnits  int           `json:"new_units"`
	Skipped   bool          `json:"skipped"`
	Error     string        `json:"error,omitempty"`
}

// State is the persisted ingestion status.
type State struct {
	Version   int       `json:"version"`
	PID       int       `json:"pid"`
	RawDir    string    `json:"raw_dir"`
	Watching  bool      `json:"watching"`
	Runs      int       `json:"runs"`
	LastRun   *Run      `json:"last_run,omitempty"`
	LogPath   string    `json:"log_path"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Manager struct {
	Dir       string
	StatePath string
	LogPath   string
	LockPath  string
}

type Lock struct {
	file *os.File
}

func NewManager(configDir string) (*Manager, error) {
	dir, err := dotdir.NewManager().Target(configDir)
	if err != nil {
		return nil, err
	}

	return &Manager{
		Dir:       dir,
		StatePath: filepath.Join(dir, stateFileName),
		LogPath:   filepath.Join(dir, logFileName),
		LockPath:  filepath.Join(dir, lockFileName),
	}, nil
}

// Lock blocks until the ingestion lock is held.
func (m *Manager) Lock() (*Lock, error) {
	return m.lock(syscall.LOCK_EX)
}

// TryLock acquires the ingestion lock or returns ErrLocked immediately.
func (m *Manager) TryLock() (*Lock, error) {
	return m.lock(syscall.LOCK_EX | syscall.LOCK_NB)
}

func (m *Manager) lock(how int) (*Lock, error) {
	file, err := os.OpenFile(m.LockPath, os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return nil, fmt.Errorf("opening lock file: %w", err)
	}

	if err := syscall.Flock(int(file.Fd()), how); err != nil {
		file.Close()
		if errors.Is(err, syscall.EWOULDBLOCK) {
			return nil, ErrLocked
		}
		return nil, fmt.Errorf("locking ingest file: %w", err)
	}

	return &Lock{file: file}, nil
}

func (l *Lock) Release() error {
	if l == nil || l.file == nil {
		return nil
	}
	if err := syscall.Flock(int(l.file.Fd()), syscall.LOCK_UN); err != nil {
		_ = l.file.Close()
		return fmt.Errorf("unlocking ingest file: %w", err)
	}
	return l.file.Close()
}

// LoadState returns nil, nil when no run has been recorded.
func (m *Manager) LoadState() (*State, error) {
	data, err := os.ReadFile(m.StatePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading ingest state: %w", err)
	}

	state := &State{}
	if err := json.Unmarshal(data, state); err != nil {
		return nil, fmt.Errorf("parsing ingest state: %w", err)
	}

	return state, nil
}

// SaveState writes state atomically through a temp file and rename.
func (m *Manager) SaveState(state *State) error {
	if state == nil {
		return errors.New("cannot save nil state")
	}
	if state.Version == 0 {
		state.Version = stateVersion
	}
	state.UpdatedAt = time.Now()
	if state.LogPath == "" {
		state.LogPath = m.LogPath
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling ingest state: %w", err)
	}

	tmpFile, err := os.CreateTemp(m.Dir, "ingest-state-*.json")
	if err != nil {
		return fmt.Errorf("creating temp state file: %w", err)
	}

	if err := tmpFile.Chmod(0o600); err != nil {
		_ = tmpFile.Close()
		return fmt.Errorf("chmod temp state file: %w", err)
	}

	if _, err := tmpFile.Write(data); err != nil {
		_ = tmpFile.Close()
		return fmt.Errorf("writing temp state file: %w", err)
	}

	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("closing temp state file: %w", err)
	}

	if err := os.Rename(tmpFile.Name(), m.StatePath); err != nil {
		return fmt.Errorf("persisting state file: %w", err)
	}

	return nil
}

// RecordRun appends run to the persisted state, creating it if needed.
func (m *Manager) RecordRun(rawDir string, watching bool, run Run) error {
	state, err := m.LoadState()
	if err != nil {
		return err
	}
	if state == nil {
		state = &State{}
	}

	state.PID = os.Getpid()
	state.RawDir = rawDir
	state.Watching = watching
	state.Runs++
	state.LastRun = &run

	return m.SaveState(state)
}

// OpenLog opens the ingest log for appending.
func (m *Manager) OpenLog() (*os.File, error) {
	f, err := os.OpenFile(m.LogPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, fmt.Errorf("opening ingest log: %w", err)
	}
	return f, nil
}

func (m *Manager) ClearState() error {
	if err := os.Remove(m.StatePath); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("removing ingest state: %w", err)
	}
	return nil
}
