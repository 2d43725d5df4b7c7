// Package repository is the document store adapter. It exposes
// collection-scoped find/insert/update/delete primitives over MongoDB, SQLite
// or process memory.
package repository

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
)

// Document is a flat field map as stored in a collection.
type Document = map[string]interface{}

// InternalIDField is the storage identifier every backend attaches to a
// document. Typed records do not declare it, so responses never carry it.
const InternalIDField = "_id"

// ErrDuplicateKey is returned by inserts that violate a unique index.
var ErrDuplicateKey = errors.New("duplicate key")

// Filter selects documents. All conditions must hold.
type Filter struct {
	// Equals requires the field to equal the value exactly.
	Equals map[string]interface{}
	// Contains requires the string field to contain the text, ignoring case.
	Contains map[string]string
}

func (f Filter) IsEmpty() bool {
	return len(f.Equals) == 0 && len(f.Contains) == 0
}

// Eq is a Filter with a single equality condition.
func Eq(field string, value interface{}) Filter {
	return Filter{Equals: map[string]interface{}{field: value}}
}

type FindOptions struct {
	// SortBy orders results ascending by this field when set.
	SortBy string
	// Limit caps the number of results when positive.
	Limit int64
}

type Collection interface {
	Find(ctx context.Context, filter Filter, opts FindOptions) ([]Document, error)
	InsertOne(ctx context.Context, doc Document) error
	InsertMany(ctx context.Context, docs []Document) error
	// UpdateMany merges set into every matching document and returns how many
	// documents actually changed.
	UpdateMany(ctx context.Context, filter Filter, set Document) (int64, error)
	DeleteMany(ctx context.Context, filter Filter) (int64, error)
	Distinct(ctx context.Context, field string) ([]interface{}, error)
}

type Store interface {
	Collection(name string) Collection
	// EnsureUniqueIndex makes field unique within the collection.
	EnsureUniqueIndex(ctx context.Context, collection, field string) error
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

// ToDocument converts a bson-tagged value into a Document.
func ToDocument(v interface{}) (Document, error) {
	raw, err := bson.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal document: %w", err)
	}
	var doc Document
	if err := bson.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("unmarshal document: %w", err)
	}
	return doc, nil
}

// DecodeDocument fills out from doc. Fields out does not declare, such as
// the internal storage id, are dropped.
func DecodeDocument(doc Document, out interface{}) error {
	raw, err := bson.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}
	if err := bson.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode document: %w", err)
	}
	return nil
}
