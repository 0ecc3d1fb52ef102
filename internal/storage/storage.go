// Package storage is the object-storage boundary: named blobs that can
// be listed, fetched and stored. Remote backends sit behind the same
// interface; the local implementation doubles as the upload folder.
package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"

	"kbchat/internal/models"
)

// ErrObjectNotFound is returned by Fetch for unknown object names.
var ErrObjectNotFound = errors.New("object not found")

// ObjectInfo describes one stored object.
type ObjectInfo struct {
	Name string
	Size int64
	URL  string
}

// ObjectStore is the narrow contract the ingestion core consumes.
type ObjectStore interface {
	List(ctx context.Context) ([]ObjectInfo, error)
	Fetch(ctx context.Context, name string) ([]byte, error)
	Store(ctx context.Context, data []byte, filename string) (ObjectInfo, error)
}

// LocalStore keeps objects as files in one directory. Stored names get
// a timestamp prefix so repeated uploads of the same filename do not
// collide, matching the remote blob layout.
type LocalStore struct {
	dir string
	now func() time.Time
}

func NewLocalStore(dir string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create object store directory: %w", err)
	}
	return &LocalStore{dir: dir, now: time.Now}, nil
}

func (s *LocalStore) List(ctx context.Context) ([]ObjectInfo, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list objects: %w", err)
	}
	var objects []ObjectInfo
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		objects = append(objects, ObjectInfo{
			Name: entry.Name(),
			Size: info.Size(),
			URL:  s.objectURL(entry.Name()),
		})
	}
	return objects, nil
}

func (s *LocalStore) Fetch(ctx context.Context, name string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, filepath.Base(name)))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrObjectNotFound, name)
		}
		return nil, fmt.Errorf("failed to fetch object %s: %w", name, err)
	}
	return data, nil
}

func (s *LocalStore) Store(ctx context.Context, data []byte, filename string) (ObjectInfo, error) {
	name := s.now().Format(models.ObjectNameTimeFormat) + "_" + filepath.Base(filename)
	path := filepath.Join(s.dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return ObjectInfo{}, fmt.Errorf("failed to store object %s: %w", name, err)
	}
	log.Debug().Str("object", name).Int("bytes", len(data)).Msg("Stored object")
	return ObjectInfo{Name: name, Size: int64(len(data)), URL: s.objectURL(name)}, nil
}

// Location is a human-readable descriptor of where objects live.
func (s *LocalStore) Location() string {
	return "Local folder: " + s.dir
}

func (s *LocalStore) objectURL(name string) string {
	abs, err := filepath.Abs(filepath.Join(s.dir, name))
	if err != nil {
		abs = filepath.Join(s.dir, name)
	}
	return "file://" + abs
}
