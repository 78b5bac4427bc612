package cache

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/alnah/go-htmlatex/internal/fileutil"
)

// ImageExt is the extension of every stored image.
const ImageExt = "png"

// Location is where a key's image lives on disk and how it is addressed.
type Location struct {
	Path string
	URL  string
}

// Store is a sharded image directory. It holds no mutable state; all
// coordination is done by the filesystem.
type Store struct {
	root      string
	urlPrefix string
}

// NewStore returns a Store rooted at root whose images are served under
// urlPrefix, which may be a path or an absolute URL. A trailing slash on
// urlPrefix is dropped.
func NewStore(root, urlPrefix string) *Store {
	return &Store{root: root, urlPrefix: strings.TrimRight(urlPrefix, "/")}
}

// Root returns the image root directory.
func (s *Store) Root() string { return s.root }

// EnsureLayout creates the root and its 16 shard directories if absent.
func (s *Store) EnsureLayout() error {
	for _, shard := range Shards {
		if err := fileutil.EnsureDir(filepath.Join(s.root, shard)); err != nil {
			return fmt.Errorf("creating shard %s: %w", shard, err)
		}
	}
	return nil
}

// Locate derives the path and URL for k.
func (s *Store) Locate(k Key) Location {
	name := string(k) + "." + ImageExt
	return Location{
		Path: filepath.Join(s.root, k.Shard(), name),
		URL:  s.urlPrefix + "/" + k.Shard() + "/" + name,
	}
}

// Exists reports whether an image for k is stored.
func (s *Store) Exists(k Key) bool {
	if !k.Valid() {
		return false
	}
	return fileutil.FileExists(s.Locate(k).Path)
}

// TempFile allocates an empty, uniquely named file in k's shard for a writer
// to fill before Commit. The caller must Commit or Discard it.
func (s *Store) TempFile(k Key) (string, error) {
	if !k.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, k)
	}
	f, err := os.CreateTemp(filepath.Join(s.root, k.Shard()), "."+string(k)+"-*.tmp")
	if err != nil {
		return "", fmt.Errorf("allocating temp image: %w", err)
	}
	name := f.Name()
	if err := f.Close(); err != nil {
		_ = os.Remove(name)
		return "", fmt.Errorf("allocating temp image: %w", err)
	}
	return name, nil
}

// Commit publishes tmpPath as k's image. tmpPath must be in k's shard so the
// rename is atomic.
func (s *Store) Commit(k Key, tmpPath string) (Location, error) {
	if !k.Valid() {
		return Location{}, fmt.Errorf("%w: %q", ErrInvalidKey, k)
	}
	loc := s.Locate(k)
	if err := os.Chmod(tmpPath, fileutil.FilePermissions); err != nil {
		return Location{}, fmt.Errorf("publishing %s: %w", k, err)
	}
	if err := os.Rename(tmpPath, loc.Path); err != nil {
		return Location{}, fmt.Errorf("publishing %s: %w", k, err)
	}
	return loc, nil
}

// Discard removes an uncommitted temp file.
func (s *Store) Discard(tmpPath string) {
	_ = fileutil.RemoveFiles(tmpPath)
}

// Put stores data as k's image.
func (s *Store) Put(k Key, data []byte) (Location, error) {
	tmp, err := s.TempFile(k)
	if err != nil {
		return Location{}, err
	}
	if err := os.WriteFile(tmp, data, fileutil.FilePermissions); err != nil {
		s.Discard(tmp)
		return Location{}, fmt.Errorf("writing %s: %w", k, err)
	}
	loc, err := s.Commit(k, tmp)
	if err != nil {
		s.Discard(tmp)
		return Location{}, err
	}
	return loc, nil
}
