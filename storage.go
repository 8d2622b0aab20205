package douyin

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
)

// Keys under which the session pair is persisted.
const (
	KeyToken  = "token"
	KeyUserID = "userId"
)

// Storage is a small key-value area that survives process restarts.
type Storage interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
	Delete(keys ...string) error
}

// DefaultConfigDir returns $XDG_CONFIG_HOME/douyin, falling back to ~/.config/douyin.
func DefaultConfigDir() string {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return filepath.Join(v, "douyin")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "douyin")
}

// errCorruptFile marks a session file that exists but does not hold a JSON object.
var errCorruptFile = errors.New("corrupt session file")

// FileStorage keeps all keys in one JSON object on disk. Every write rewrites
// the file, which is fine for the handful of keys a session needs. Reads of a
// corrupt file fail; writes replace it.
type FileStorage struct {
	path string
	log  *zap.Logger
	mu   sync.Mutex
}

// NewFileStorage returns a FileStorage writing to dir/session.json.
func NewFileStorage(dir string) *FileStorage {
	if dir == "" {
		dir = DefaultConfigDir()
	}
	return &FileStorage{path: filepath.Join(dir, "session.json"), log: zap.NewNop()}
}

// WithLogger sets the logger used when a corrupt file is overwritten.
func (f *FileStorage) WithLogger(log *zap.Logger) *FileStorage {
	if log != nil {
		f.log = log
	}
	return f
}

// Path returns the backing file path.
func (f *FileStorage) Path() string { return f.path }

func (f *FileStorage) Get(key string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	m, err := f.load()
	if err != nil {
		return "", false, err
	}
	v, ok := m[key]
	return v, ok, nil
}

func (f *FileStorage) Set(key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	m, err := f.loadForWrite()
	if err != nil {
		return err
	}
	m[key] = value
	return f.save(m)
}

func (f *FileStorage) Delete(keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	m, err := f.loadForWrite()
	if err != nil {
		return err
	}
	for _, k := range keys {
		delete(m, k)
	}
	return f.save(m)
}

func (f *FileStorage) load() (map[string]string, error) {
	m := map[string]string{}
	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return m, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read session file: %w", err)
	}
	if len(data) == 0 {
		return m, nil
	}
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: %w", errCorruptFile, err)
	}
	if m == nil {
		m = map[string]string{}
	}
	return m, nil
}

// loadForWrite is load, except that a corrupt file reads as empty so the next
// save overwrites it.
func (f *FileStorage) loadForWrite() (map[string]string, error) {
	m, err := f.load()
	if errors.Is(err, errCorruptFile) {
		f.log.Warn("session file corrupt, overwriting", zap.String("path", f.path), zap.Error(err))
		return map[string]string{}, nil
	}
	return m, err
}

func (f *FileStorage) save(m map[string]string) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal session file: %w", err)
	}
	return os.WriteFile(f.path, data, 0o600)
}

// MemoryStorage is a Storage that lives only as long as the process.
type MemoryStorage struct {
	mu     sync.RWMutex
	values map[string]string
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{values: make(map[string]string)}
}

func (m *MemoryStorage) Get(key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *MemoryStorage) Set(key, value string) error {
	m.mu.Lock()
	m.values[key] = value
	m.mu.Unlock()
	return nil
}

func (m *MemoryStorage) Delete(keys ...string) error {
	m.mu.Lock()
	for _, k := range keys {
		delete(m.values, k)
	}
	m.mu.Unlock()
	return nil
}
