package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pavel13595/Baranchik-Inventory/internal/domain/entity"
	"github.com/pavel13595/Baranchik-Inventory/internal/domain/repository"
)

// FileDownloader saves documents into a directory.
type FileDownloader struct {
	dir string
}

func NewFileDownloader(dir string) repository.Downloader {
	if strings.TrimSpace(dir) == "" {
		dir = "exports"
	}
	return &FileDownloader{dir: dir}
}

func (d *FileDownloader) Download(ctx context.Context, doc entity.Document) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	name := filepath.Base(strings.TrimSpace(doc.FileName))
	if name == "" || name == "." || name == string(filepath.Separator) {
		return "", fmt.Errorf("document has no file name")
	}
	if err := os.MkdirAll(d.dir, 0o755); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}
	path := filepath.Join(d.dir, name)
	if err := os.WriteFile(path, doc.Data, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	return path, nil
}
