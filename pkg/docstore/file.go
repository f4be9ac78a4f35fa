package docstore

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"
)

const docExt = ".json"

// FileStore stores each document as a JSON file in a directory.
// Writes go to a temporary file that is renamed into place, so readers never
// observe a partially written document.
type FileStore struct {
	mu  sync.RWMutex
	dir string
}

// DefaultDir returns $XDG_DATA_HOME/patternmark/docs, falling back to
// ~/.local/share/patternmark/docs.
func DefaultDir() (string, error) {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, "patternmark", "docs"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", storageErr(err, "get home dir")
	}
	return filepath.Join(home, ".local", "share", "patternmark", "docs"), nil
}

// NewFileStore creates a file store rooted at dir, creating it if needed.
// An empty dir selects DefaultDir.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		var err error
		if dir, err = DefaultDir(); err != nil {
			return nil, err
		}
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, storageErr(err, "create document dir")
	}
	return &FileStore{dir: dir}, nil
}

// Path returns the file that holds the named document.
func (s *FileStore) Path(key string) string {
	return filepath.Join(s.dir, key+docExt)
}

// Dir returns the document directory.
func (s *FileStore) Dir() string { return s.dir }

// UpdatedAt returns the modification time of the document file.
func (s *FileStore) UpdatedAt(ctx context.Context, key string) (time.Time, bool, error) {
	if err := ValidateKey(key); err != nil {
		return time.Time{}, false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	info, err := os.Stat(s.Path(key))
	if os.IsNotExist(err) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, storageErr(err, "stat document %s", key)
	}
	return info.ModTime().UTC(), true, nil
}

func (s *FileStore) Get(ctx context.Context, key string) (data []byte, hit bool, err error) {
	start := time.Now()
	defer func() { observeRead(ctx, BackendFile, start, hit, err) }()
	if err := ValidateKey(key); err != nil {
		return nil, false, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err = os.ReadFile(s.Path(key))
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, storageErr(err, "read document %s", key)
	}
	return data, true, nil
}

func (s *FileStore) Put(ctx context.Context, key string, data []byte) (err error) {
	start := time.Now()
	defer func() { observeWrite(ctx, BackendFile, start, len(data), err) }()
	if err := ValidateKey(key); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tmp, err := os.CreateTemp(s.dir, "."+key+".*.tmp")
	if err != nil {
		return storageErr(err, "create temp file")
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return storageErr(err, "write document %s", key)
	}
	if err := tmp.Close(); err != nil {
		return storageErr(err, "close document %s", key)
	}
	if err := os.Rename(tmp.Name(), s.Path(key)); err != nil {
		return storageErr(err, "replace document %s", key)
	}
	return nil
}

func (s *FileStore) Delete(ctx context.Context, key string) error {
	if err := ValidateKey(key); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.Path(key)); err != nil && !os.IsNotExist(err) {
		return storageErr(err, "remove document %s", key)
	}
	return nil
}

func (s *FileStore) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, storageErr(err, "read document dir")
	}

	names := []string{}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") || filepath.Ext(name) != docExt {
			continue
		}
		names = append(names, strings.TrimSuffix(name, docExt))
	}
	slices.Sort(names)
	return names, nil
}

func (s *FileStore) Close() error { return nil }

var (
	_ Store       = (*FileStore)(nil)
	_ Timestamped = (*FileStore)(nil)
)
