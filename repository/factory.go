package repository

import (
	"context"
	"fmt"
)

type Options struct {
	Backend       string
	MongoURI      string
	MongoDatabase string
	SQLitePath    string
}

// Open creates a Store for the named backend.
//
// Supported backends:
//
//	"mongo"  - MongoDB at MongoURI (default)
//	"sqlite" - SQLite database file at SQLitePath
//	"memory" - in-memory, for tests and local runs
func Open(ctx context.Context, opts Options) (Store, error) {
	switch opts.Backend {
	case "mongo", "":
		return NewMongoStore(ctx, opts.MongoURI, opts.MongoDatabase)
	case "sqlite":
		return NewSQLiteStore(opts.SQLitePath)
	case "memory":
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown store backend: %q (supported: mongo, sqlite, memory)", opts.Backend)
	}
}
