package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"daily-routine/internal/database"
)

var errStoreDown = errors.New("store unavailable")

// memoryStore хранилище документов в памяти с внедрением ошибок
type memoryStore struct {
	mu    sync.Mutex
	docs  map[string]database.Fields
	order map[string]int
	seq   int
	ids   int

	failReads  bool
	failWrites bool
	calls      []string
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		docs:  make(map[string]database.Fields),
		order: make(map[string]int),
	}
}

func (m *memoryStore) record(op, path string) {
	m.calls = append(m.calls, op+" "+path)
}

func (m *memoryStore) GetDocument(_ context.Context, path string) (*database.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("get", path)

	if m.failReads {
		return nil, errStoreDown
	}
	fields, ok := m.docs[path]
	if !ok {
		return nil, database.ErrNotFound
	}
	i := strings.LastIndex(path, "/")
	return &database.Document{ID: path[i+1:], Collection: path[:i], Fields: copyFields(fields)}, nil
}

func (m *memoryStore) ListCollection(_ context.Context, path string) ([]database.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("list", path)

	if m.failReads {
		return nil, errStoreDown
	}
	var docs []database.Document
	for p, fields := range m.docs {
		i := strings.LastIndex(p, "/")
		if p[:i] == path {
			docs = append(docs, database.Document{ID: p[i+1:], Collection: path, Fields: copyFields(fields)})
		}
	}
	sort.Slice(docs, func(i, j int) bool {
		return m.order[docs[i].Path()] < m.order[docs[j].Path()]
	})
	return docs, nil
}

func (m *memoryStore) SetDocument(_ context.Context, path string, fields database.Fields, merge bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("set", path)

	if m.failWrites {
		return errStoreDown
	}
	next := database.Fields{}
	if existing, ok := m.docs[path]; ok && merge {
		next = copyFields(existing)
	}
	for k, v := range fields {
		next[k] = v
	}
	if _, ok := m.docs[path]; !ok {
		m.seq++
		m.order[path] = m.seq
	}
	m.docs[path] = next
	return nil
}

func (m *memoryStore) AddDocument(ctx context.Context, collection string, fields database.Fields) (string, error) {
	m.mu.Lock()
	m.ids++
	id := fmt.Sprintf("remote-%d", m.ids)
	m.mu.Unlock()

	if err := m.SetDocument(ctx, collection+"/"+id, fields, false); err != nil {
		return "", err
	}
	return id, nil
}

func (m *memoryStore) DeleteDocument(_ context.Context, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("delete", path)

	if m.failWrites {
		return errStoreDown
	}
	delete(m.docs, path)
	return nil
}

func (m *memoryStore) DeleteCollection(_ context.Context, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("delete-collection", path)

	if m.failWrites {
		return errStoreDown
	}
	for p := range m.docs {
		if i := strings.LastIndex(p, "/"); p[:i] == path {
			delete(m.docs, p)
		}
	}
	return nil
}

func (m *memoryStore) get(path string) (database.Fields, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	fields, ok := m.docs[path]
	return copyFields(fields), ok
}

func (m *memoryStore) put(path string, fields database.Fields) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.docs[path]; !ok {
		m.seq++
		m.order[path] = m.seq
	}
	m.docs[path] = copyFields(fields)
}

func (m *memoryStore) setFailures(reads, writes bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failReads, m.failWrites = reads, writes
}

func (m *memoryStore) count(prefix string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for p := range m.docs {
		if strings.HasPrefix(p, prefix) {
			n++
		}
	}
	return n
}

func copyFields(f database.Fields) database.Fields {
	if f == nil {
		return nil
	}
	out := make(database.Fields, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}
