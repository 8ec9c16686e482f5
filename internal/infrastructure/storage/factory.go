package storage

import (
	"fmt"
	"log"
	"strings"

	"github.com/pavel13595/Baranchik-Inventory/internal/domain/repository"
)

// Options selects and configures a key-value backend.
type Options struct {
	Driver   string // memory | file | sqlite | postgres
	Path     string // file / sqlite path
	Postgres PostgresOptions
}

// Open returns the configured backend. Like the chat store it falls back to
// memory when the configured backend can't be opened, so the service stays up.
func Open(opts Options) repository.KeyValueStore {
	store, err := open(opts)
	if err != nil {
		log.Printf("[storage] %s backend unavailable, using memory store: %v", opts.Driver, err)
		return NewMemoryKeyValueStore()
	}
	return store
}

func open(opts Options) (repository.KeyValueStore, error) {
	switch strings.ToLower(strings.TrimSpace(opts.Driver)) {
	case "", "memory":
		return NewMemoryKeyValueStore(), nil
	case "file", "json":
		return NewFileKeyValueStore(opts.Path)
	case "sqlite":
		return NewSQLiteKeyValueStore(opts.Path)
	case "postgres", "postgresql":
		if strings.TrimSpace(opts.Postgres.DSN) == "" {
			return nil, fmt.Errorf("POSTGRES_DSN is empty")
		}
		return NewPostgresKeyValueStore(opts.Postgres)
	default:
		return nil, fmt.Errorf("unknown store driver %q", opts.Driver)
	}
}
