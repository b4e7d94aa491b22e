package repository

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"platewatch-service/internal/domain/platewatch"
)

// UploadRepository stores uploaded media as plain files in one directory.
// The directory listing is the source of truth; nothing is indexed elsewhere.
type UploadRepository struct {
	dir string
}

func NewUploadRepository(dir string) (*UploadRepository, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &UploadRepository{dir: dir}, nil
}

func (r *UploadRepository) Dir() string {
	return r.dir
}

// List returns every regular file in the upload directory. uploadedAt is the
// file modification time.
func (r *UploadRepository) List(ctx context.Context) ([]platewatch.UploadRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return nil, fmt.Errorf("list uploads: %w", err)
	}

	records := make([]platewatch.UploadRecord, 0, len(entries))
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return nil, fmt.Errorf("stat upload %s: %w", e.Name(), err)
		}
		records = append(records, platewatch.UploadRecord{
			FileName:   e.Name(),
			Size:       info.Size(),
			UploadedAt: platewatch.FormatTime(info.ModTime()),
		})
	}
	return records, nil
}

// Create writes data to name, replacing any file already stored under it.
// A failed write leaves no file behind.
func (r *UploadRepository) Create(ctx context.Context, name string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	path := filepath.Join(r.dir, name)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("create upload %s: %w", name, err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(path)
		return fmt.Errorf("write upload %s: %w", name, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return fmt.Errorf("write upload %s: %w", name, err)
	}
	return nil
}
