package repository_test

import (
	"context"
	"errors"
	"sync"
	"time"

	repo "privemr-record-service/internal/repository"
)

// fakeKVStore 仅用于单元测试（内存 KV）
type fakeKVStore struct {
	mu   sync.Mutex
	data map[string]string

	// 注入的写失败（用于存储错误传播测试）
	setErr error
}

func newFakeKVStore() *fakeKVStore {
	return &fakeKVStore{
		data: make(map[string]string),
	}
}

var errInjectedWrite = errors.New("injected write failure")

func (f *fakeKVStore) Get(ctx context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	val, ok := f.data[key]
	if !ok {
		return "", repo.ErrKeyMiss
	}
	return val, nil
}

func (f *fakeKVStore) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.setErr != nil {
		return f.setErr
	}
	f.data[key] = value
	return nil
}

func (f *fakeKVStore) Del(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	delete(f.data, key)
	return nil
}
