package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// FileStore keeps each document as a JSON file in one directory.
//
// Layout:
//
//	data_dir/
//	  books.json     # {"books": [...]}
//	  reviews.json   # {"reviews": [...]}
type FileStore struct {
	snapshots
	dir string
}

var _ Backend = (*FileStore)(nil)

// NewFileStore creates dir if needed and writes an empty document for each
// file that does not exist yet.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	s := &FileStore{dir: dir}
	s.snapshots = snapshots{io: s}

	for _, name := range documentNames {
		_, err := os.Stat(s.path(name))
		if err == nil {
			continue
		}
		if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		if err := s.writeDocument(context.Background(), name, emptyDocument(name)); err != nil {
			return nil, fmt.Errorf("initialise %s: %w", name, err)
		}
	}
	return s, nil
}

func (s *FileStore) path(name string) string {
	return filepath.Join(s.dir, name+".json")
}

func (s *FileStore) readDocument(_ context.Context, name string) ([]byte, error) {
	return os.ReadFile(s.path(name))
}

// writeDocument replaces the file through a rename so readers never see a
// partial write and a failed write keeps the previous content.
func (s *FileStore) writeDocument(_ context.Context, name string, body []byte) error {
	tmp, err := os.CreateTemp(s.dir, name+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(body); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, s.path(name)); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}

func (s *FileStore) Ping(context.Context) error {
	info, err := os.Stat(s.dir)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", s.dir)
	}
	return nil
}

func (s *FileStore) Close() error {
	return nil
}
