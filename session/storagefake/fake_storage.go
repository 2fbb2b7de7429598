package storagefake

import (
	"sync"

	"github.com/storecount/go-footfall-client/session"
)

var _ session.Storage = (*FakeStorage)(nil)

type FakeStorage struct {
	values map[string]string
	lock   sync.RWMutex
}

func NewFakeStorage() *FakeStorage {
	return &FakeStorage{values: make(map[string]string)}
}

func (fs *FakeStorage) Get(key string) (string, error) {
	fs.lock.RLock()
	defer fs.lock.RUnlock()
	return fs.values[key], nil
}

func (fs *FakeStorage) Set(key, value string) error {
	fs.lock.Lock()
	defer fs.lock.Unlock()
	fs.values[key] = value
	return nil
}

func (fs *FakeStorage) Clear() error {
	fs.lock.Lock()
	defer fs.lock.Unlock()
	fs.values = make(map[string]string)
	return nil
}
