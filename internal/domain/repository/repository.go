package repository

import (
	"context"
	"errors"

	"github.com/pavel13595/Baranchik-Inventory/internal/domain/entity"
)

// ErrNotFound is returned by KeyValueStore.Get for a missing key.
var ErrNotFound = errors.New("key not found")

// KeyValueStore is the persistence capability behind the inventory store.
// Writes are unconditional overwrites (last writer wins).
type KeyValueStore interface {
	// Get returns the value of key or ErrNotFound
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value under key
	Set(ctx context.Context, key string, value []byte) error

	// Delete removes key; deleting a missing key is not an error
	Delete(ctx context.Context, key string) error

	// Keys lists keys starting with prefix ("" lists everything)
	Keys(ctx context.Context, prefix string) ([]string, error)

	Close() error
}

// RemoteSyncer pushes one city's inventory to the remote spreadsheet.
// History is used for the "last updated"/"updated by" columns.
type RemoteSyncer interface {
	Sync(ctx context.Context, spreadsheetID string, state entity.CityState) error
}

// SheetStore is the "clear then replace" pair used by the bot intake, plus a reader.
type SheetStore interface {
	ClearSheet(ctx context.Context, sheetName string) error
	ReplaceSheet(ctx context.Context, sheetName string, rows [][]string) error
	ReadSheet(ctx context.Context, sheetName string) ([][]string, error)
}

// ErrShareUnsupported is returned by a Sharer that has no share target.
var ErrShareUnsupported = errors.New("share is not supported")

// Downloader saves a generated document locally and returns where it went.
type Downloader interface {
	Download(ctx context.Context, doc entity.Document) (string, error)
}

// Sharer hands a document to an external app (a chat, in practice).
type Sharer interface {
	Share(ctx context.Context, doc entity.Document) error
}

// DeepLinker builds a chat deep link pre-filled with text. userAgent picks
// between the app scheme and the web share URL.
type DeepLinker interface {
	Link(text, userAgent string) string
}

// ConnectivityObserver reports whether the outside world is reachable and
// notifies subscribers on every transition.
type ConnectivityObserver interface {
	Online() bool
	Subscribe(fn func(online bool)) (unsubscribe func())
}

// ConnectivityChecker re-checks connectivity on demand.
type ConnectivityChecker interface {
	Check(ctx context.Context) bool
}
