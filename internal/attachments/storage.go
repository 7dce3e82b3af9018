package attachments

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// DiskStorage keeps attachment blobs as flat files under a single
// directory. Stored names are generated, never taken from the client.
type DiskStorage struct {
	dir string
}

func NewDiskStorage(dir string) (*DiskStorage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &DiskStorage{dir: dir}, nil
}

func (d *DiskStorage) path(storedName string) string {
	// Base strips any path components a corrupted record could carry.
	return filepath.Join(d.dir, filepath.Base(storedName))
}

func (d *DiskStorage) Save(storedName string, r io.Reader) (int64, error) {
	f, err := os.Create(d.path(storedName))
	if err != nil {
		return 0, err
	}
	n, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(d.path(storedName))
		return 0, err
	}
	return n, nil
}

func (d *DiskStorage) Open(storedName string) (*os.File, error) {
	return os.Open(d.path(storedName))
}

func (d *DiskStorage) Remove(storedName string) error {
	err := os.Remove(d.path(storedName))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
