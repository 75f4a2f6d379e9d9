package regcache

import (
	"context"
	"strconv"
	"time"

	"github.com/kailas-cloud/verdex/internal/db"
	"github.com/kailas-cloud/verdex/internal/domain"
	"github.com/kailas-cloud/verdex/internal/domain/registry"
)

// mockResolver counts calls to the inner resolver.
type mockResolver struct {
	versions []registry.FieldVersion
	err      error
	calls    int
}

func (m *mockResolver) ActiveVersions(context.Context, string, string, domain.Identity) ([]registry.FieldVersion, error) {
	m.calls++
	return m.versions, m.err
}

// mockKVStore implements the consumer interface for tests, backed by a map so
// hit-after-miss flows work without stubbing.
type mockKVStore struct {
	data      map[string][]byte
	getErr    error
	setErr    error
	incrErr   error
	incrCalls []string
}

func newMockKV() *mockKVStore {
	return &mockKVStore{data: map[string][]byte{}}
}

func (m *mockKVStore) Get(_ context.Context, key string) ([]byte, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	data, ok := m.data[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return data, nil
}

func (m *mockKVStore) SetWithTTL(_ context.Context, key string, value []byte, _ time.Duration) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.data[key] = value
	return nil
}

func (m *mockKVStore) IncrBy(_ context.Context, key string, val int64) (int64, error) {
	m.incrCalls = append(m.incrCalls, key)
	if m.incrErr != nil {
		return 0, m.incrErr
	}
	var n int64
	if data, ok := m.data[key]; ok {
		n, _ = strconv.ParseInt(string(data), 10, 64)
	}
	n += val
	m.data[key] = []byte(strconv.FormatInt(n, 10))
	return n, nil
}
