package filestorage

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"

	"github.com/storecount/go-footfall-client/session"
)

var _ session.Storage = (*FileStorage)(nil)

// FileStorage persists session keys as a single JSON object on disk. It is
// the process-restart-surviving analogue of browser local storage.
type FileStorage struct {
	path string
	lock sync.Mutex
}

func New(path string) *FileStorage {
	return &FileStorage{path: path}
}

func (fs *FileStorage) Get(key string) (string, error) {
	fs.lock.Lock()
	defer fs.lock.Unlock()

	values, err := fs.load()
	if err != nil {
		return "", err
	}
	return values[key], nil
}

func (fs *FileStorage) Set(key, value string) error {
	fs.lock.Lock()
	defer fs.lock.Unlock()

	values, err := fs.load()
	if err != nil {
		return err
	}
	values[key] = value
	return fs.save(values)
}

func (fs *FileStorage) Clear() error {
	fs.lock.Lock()
	defer fs.lock.Unlock()

	if err := os.Remove(fs.path); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "[FileStorage.Clear] remove")
	}
	return nil
}

func (fs *FileStorage) load() (map[string]string, error) {
	data, err := os.ReadFile(fs.path)
	if os.IsNotExist(err) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "[FileStorage.load] read")
	}

	values := make(map[string]string)
	if err := json.Unmarshal(data, &values); err != nil {
		// A corrupt session file is equivalent to no session.
		return map[string]string{}, nil
	}
	return values, nil
}

func (fs *FileStorage) save(values map[string]string) error {
	if err := os.MkdirAll(filepath.Dir(fs.path), 0o700); err != nil {
		return errors.Wrap(err, "[FileStorage.save] mkdir")
	}
	data, err := json.Marshal(values)
	if err != nil {
		return errors.Wrap(err, "[FileStorage.save] marshal")
	}

	// Write-and-rename so a crash never leaves a half-written session.
	tmp := fs.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return errors.Wrap(err, "[FileStorage.save] write")
	}
	if err := os.Rename(tmp, fs.path); err != nil {
		return errors.Wrap(err, "[FileStorage.save] rename")
	}
	return nil
}
