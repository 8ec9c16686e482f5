package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/pavel13595/Baranchik-Inventory/internal/domain/repository"
)

// exerciseKeyValueStore runs the same contract checks against any backend.
func exerciseKeyValueStore(t *testing.T, store repository.KeyValueStore) {
	t.Helper()
	ctx := context.Background()

	if _, err := store.Get(ctx, "missing"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("Get(missing) error = %v, want ErrNotFound", err)
	}

	if err := store.Set(ctx, "inventory:city:Львів", []byte(`{"v":1}`)); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := store.Set(ctx, "inventory:city:Харків", []byte(`{"v":2}`)); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := store.Set(ctx, "selectedCity", []byte(`"Львів"`)); err != nil {
		t.Fatalf("Set: %v", err)
	}

	got, err := store.Get(ctx, "inventory:city:Львів")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != `{"v":1}` {
		t.Fatalf("Get = %q", got)
	}

	// overwrite
	if err := store.Set(ctx, "inventory:city:Львів", []byte(`{"v":3}`)); err != nil {
		t.Fatalf("Set overwrite: %v", err)
	}
	got, _ = store.Get(ctx, "inventory:city:Львів")
	if string(got) != `{"v":3}` {
		t.Fatalf("Get after overwrite = %q", got)
	}

	keys, err := store.Keys(ctx, "inventory:city:")
	if err != nil {
		t.Fatalf("Keys: %v", err)
	}
	want := []string{"inventory:city:Львів", "inventory:city:Харків"}
	if !reflect.DeepEqual(keys, want) {
		t.Fatalf("Keys = %v, want %v", keys, want)
	}

	if err := store.Delete(ctx, "inventory:city:Харків"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := store.Get(ctx, "inventory:city:Харків"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("Get after delete error = %v", err)
	}
	// deleting an absent key is not an error
	if err := store.Delete(ctx, "nope"); err != nil {
		t.Fatalf("Delete(absent): %v", err)
	}
}

func TestMemoryKeyValueStore(t *testing.T) {
	store := NewMemoryKeyValueStore()
	defer store.Close()
	exerciseKeyValueStore(t, store)
}

func TestMemoryKeyValueStoreCopiesValues(t *testing.T) {
	store := NewMemoryKeyValueStore()
	ctx := context.Background()

	buf := []byte("abc")
	_ = store.Set(ctx, "k", buf)
	buf[0] = 'x'

	got, _ := store.Get(ctx, "k")
	if string(got) != "abc" {
		t.Fatalf("stored value mutated through caller slice: %q", got)
	}
	got[1] = 'y'
	again, _ := store.Get(ctx, "k")
	if string(again) != "abc" {
		t.Fatalf("stored value mutated through returned slice: %q", again)
	}
}

func TestFileKeyValueStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "store.json")
	store, err := NewFileKeyValueStore(path)
	if err != nil {
		t.Fatalf("NewFileKeyValueStore: %v", err)
	}
	exerciseKeyValueStore(t, store)
}

func TestFileKeyValueStoreSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.json")
	ctx := context.Background()

	first, err := NewFileKeyValueStore(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := first.Set(ctx, "selectedCity", []byte(`"Харків"`)); err != nil {
		t.Fatalf("Set: %v", err)
	}
	_ = first.Close()

	second, err := NewFileKeyValueStore(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	got, err := second.Get(ctx, "selectedCity")
	if err != nil {
		t.Fatalf("Get after reopen: %v", err)
	}
	if string(got) != `"Харків"` {
		t.Fatalf("Get after reopen = %q", got)
	}
}

func TestFileKeyValueStoreRejectsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewFileKeyValueStore(path); err == nil {
		t.Fatalf("expected decode error for corrupt file")
	}
}

func TestSQLiteKeyValueStore(t *testing.T) {
	store, err := NewSQLiteKeyValueStore(filepath.Join(t.TempDir(), "inventory.db"))
	if err != nil {
		t.Fatalf("NewSQLiteKeyValueStore: %v", err)
	}
	defer store.Close()
	exerciseKeyValueStore(t, store)
}

func TestOpenFallsBackToMemory(t *testing.T) {
	store := Open(Options{Driver: "postgres"})
	if _, ok := store.(*memoryKeyValueStore); !ok {
		t.Fatalf("expected memory fallback for empty DSN, got %T", store)
	}
	store = Open(Options{Driver: "cassandra"})
	if _, ok := store.(*memoryKeyValueStore); !ok {
		t.Fatalf("expected memory fallback for unknown driver, got %T", store)
	}
}

func TestParsePostgresDSNInfo(t *testing.T) {
	info, ok := parsePostgresDSNInfo("postgres://inv:secret@db:5433/baranchik?sslmode=require")
	if !ok {
		t.Fatalf("url dsn not parsed")
	}
	if info.User != "inv" || info.Password != "secret" || info.Host != "db" || info.Port != "5433" || info.DBName != "baranchik" || info.SSLMode != "require" {
		t.Fatalf("unexpected url info: %+v", info)
	}
	if got := info.buildURL("postgres"); got != "postgres://inv:secret@db:5433/postgres?sslmode=require" {
		t.Fatalf("buildURL = %q", got)
	}

	info, ok = parsePostgresDSNInfo("host=localhost user=inv dbname='baranchik'")
	if !ok {
		t.Fatalf("key/value dsn not parsed")
	}
	if info.Host != "localhost" || info.DBName != "baranchik" || info.Port != "5432" || info.SSLMode != "disable" {
		t.Fatalf("unexpected kv info: %+v", info)
	}
}

func TestOpenPostgresHonoursConnectTries(t *testing.T) {
	start := time.Now()
	_, err := openPostgresWithRetry(PostgresOptions{
		DSN:          "postgres://inv@127.0.0.1:1/baranchik?sslmode=disable&connect_timeout=1",
		ConnectTries: 1,
		ConnectDelay: time.Hour,
	})
	if err == nil {
		t.Fatalf("expected connection error")
	}
	if time.Since(start) > 30*time.Second {
		t.Fatalf("single attempt slept between retries")
	}
}
