package persistence

import (
	"context"
	"strconv"
	"sync"
)

// MemoryAdapter is a non-durable Adapter for tests and local development.
type MemoryAdapter struct {
	lock    sync.RWMutex
	records map[string]string
}

func NewMemoryAdapter() *MemoryAdapter {
	return &MemoryAdapter{
		records: make(map[string]string),
	}
}

func (a *MemoryAdapter) Close(ctx context.Context) error {
	return nil
}

func (a *MemoryAdapter) get(key string) (string, error) {
	a.lock.RLock()
	defer a.lock.RUnlock()
	value, ok := a.records[key]
	if !ok {
		return "", &ErrNotFound{}
	}
	return value, nil
}

func (a *MemoryAdapter) set(key, value string) error {
	a.lock.Lock()
	defer a.lock.Unlock()
	a.records[key] = value
	return nil
}

func (a *MemoryAdapter) GetBool(ctx context.Context, key string) (bool, error) {
	value, err := a.get(key)
	if err != nil {
		return false, err
	}
	return parseBool(key, value)
}

func (a *MemoryAdapter) SetBool(ctx context.Context, key string, value bool) error {
	return a.set(key, strconv.FormatBool(value))
}

func (a *MemoryAdapter) GetInt64(ctx context.Context, key string) (int64, error) {
	value, err := a.get(key)
	if err != nil {
		return 0, err
	}
	return parseInt64(key, value)
}

func (a *MemoryAdapter) SetInt64(ctx context.Context, key string, value int64) error {
	return a.set(key, strconv.FormatInt(value, 10))
}

func (a *MemoryAdapter) GetString(ctx context.Context, key string) (string, error) {
	return a.get(key)
}

func (a *MemoryAdapter) SetString(ctx context.Context, key string, value string) error {
	return a.set(key, value)
}
