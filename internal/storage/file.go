package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"
)

const (
	configDirName  = "payhub"
	storageDirName = "storage"
)

// FileStore persists all keys of one origin in a single JSON object file
type FileStore struct {
	mu     sync.Mutex
	path   string
	logger zerolog.Logger
}

// FileOption configures a FileStore
type FileOption func(*FileStore)

// WithFileLogger sets the logger that reports unreadable store files
func WithFileLogger(l zerolog.Logger) FileOption {
	return func(f *FileStore) { f.logger = l }
}

// NewFileStore creates a store backed by the file at path. The file and its
// directory are created on first write.
func NewFileStore(path string, opts ...FileOption) *FileStore {
	f := &FileStore{path: path, logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// DefaultPath returns ~/.config/payhub/storage/<origin>.json for the API URL
func DefaultPath(apiURL string) (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", configDirName, storageDirName, OriginKey(apiURL)+".json"), nil
}

// Path returns the backing file path
func (f *FileStore) Path() string {
	return f.path
}

func (f *FileStore) StoreItem(key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", key, err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	items := f.load()
	items[key] = data
	return f.save(items)
}

func (f *FileStore) GetItem(key string, out any) bool {
	f.mu.Lock()
	items := f.load()
	f.mu.Unlock()

	raw, ok := items[key]
	if !ok {
		return false
	}
	return decodeInto(raw, out)
}

func (f *FileStore) RemoveItem(key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	items := f.load()
	if _, ok := items[key]; !ok {
		return nil
	}
	delete(items, key)
	return f.save(items)
}

// load reads the file; a missing or corrupt file reads as empty. The next
// write replaces a corrupt file, dropping whatever it held.
func (f *FileStore) load() map[string]json.RawMessage {
	items := make(map[string]json.RawMessage)

	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return items
	}
	if err != nil {
		f.logger.Debug().Err(err).Str("path", f.path).Msg("Storage file unreadable, treating as empty")
		return items
	}
	if err := json.Unmarshal(data, &items); err != nil {
		f.logger.Debug().Err(err).Str("path", f.path).Int("bytes", len(data)).
			Msg("Storage file corrupt, treating as empty; next write replaces it")
		return make(map[string]json.RawMessage)
	}
	return items
}

func (f *FileStore) save(items map[string]json.RawMessage) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0700); err != nil {
		return fmt.Errorf("failed to create storage directory: %w", err)
	}

	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal storage file: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(f.path), ".storage-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write storage file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to write storage file: %w", err)
	}
	if err := os.Chmod(tmpName, 0600); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to set storage file mode: %w", err)
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace storage file: %w", err)
	}
	return nil
}
