package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore keeps every collection in process memory. Data is lost on
// restart. Safe for concurrent use.
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string][]Document
	unique      map[string][]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		collections: make(map[string][]Document),
		unique:      make(map[string][]string),
	}
}

func (m *MemoryStore) Collection(name string) Collection {
	return &memoryCollection{store: m, name: name}
}

func (m *MemoryStore) EnsureUniqueIndex(_ context.Context, collection, field string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, f := range m.unique[collection] {
		if f == field {
			return nil
		}
	}
	docs := m.collections[collection]
	for i, doc := range docs {
		value, ok := doc[field]
		if ok && conflicts(docs[i+1:], field, value) {
			return fmt.Errorf("create unique index on %s.%s: %w", collection, field, ErrDuplicateKey)
		}
	}
	m.unique[collection] = append(m.unique[collection], field)
	return nil
}

func (m *MemoryStore) Ping(context.Context) error { return nil }

func (m *MemoryStore) Close(context.Context) error { return nil }

type memoryCollection struct {
	store *MemoryStore
	name  string
}

func (c *memoryCollection) Find(_ context.Context, filter Filter, opts FindOptions) ([]Document, error) {
	c.store.mu.RLock()
	defer c.store.mu.RUnlock()
	return selectDocuments(c.store.collections[c.name], filter, opts), nil
}

func (c *memoryCollection) InsertOne(ctx context.Context, doc Document) error {
	return c.InsertMany(ctx, []Document{doc})
}

func (c *memoryCollection) InsertMany(_ context.Context, docs []Document) error {
	c.store.mu.Lock()
	defer c.store.mu.Unlock()

	existing := c.store.collections[c.name]
	batch := make([]Document, 0, len(docs))
	for _, doc := range docs {
		stored := copyDocument(doc)
		if _, ok := stored[InternalIDField]; !ok {
			stored[InternalIDField] = uuid.NewString()
		}
		for _, field := range c.store.unique[c.name] {
			value, ok := stored[field]
			if !ok {
				continue
			}
			if conflicts(existing, field, value) || conflicts(batch, field, value) {
				return ErrDuplicateKey
			}
		}
		batch = append(batch, stored)
	}
	c.store.collections[c.name] = append(existing, batch...)
	return nil
}

func conflicts(docs []Document, field string, value interface{}) bool {
	for _, doc := range docs {
		if current, ok := doc[field]; ok && valuesEqual(current, value) {
			return true
		}
	}
	return false
}

func (c *memoryCollection) UpdateMany(_ context.Context, filter Filter, set Document) (int64, error) {
	c.store.mu.Lock()
	defer c.store.mu.Unlock()
	var modified int64
	for _, doc := range c.store.collections[c.name] {
		if matches(doc, filter) && applySet(doc, set) {
			modified++
		}
	}
	return modified, nil
}

func (c *memoryCollection) DeleteMany(_ context.Context, filter Filter) (int64, error) {
	c.store.mu.Lock()
	defer c.store.mu.Unlock()
	docs := c.store.collections[c.name]
	kept := docs[:0]
	var deleted int64
	for _, doc := range docs {
		if matches(doc, filter) {
			deleted++
			continue
		}
		kept = append(kept, doc)
	}
	c.store.collections[c.name] = kept
	return deleted, nil
}

func (c *memoryCollection) Distinct(_ context.Context, field string) ([]interface{}, error) {
	c.store.mu.RLock()
	defer c.store.mu.RUnlock()
	var out []interface{}
	for _, doc := range c.store.collections[c.name] {
		value, ok := doc[field]
		if !ok {
			continue
		}
		seen := false
		for _, v := range out {
			if valuesEqual(v, value) {
				seen = true
				break
			}
		}
		if !seen {
			out = append(out, value)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out, nil
}
