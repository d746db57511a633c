package fs

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/fwojciec/postmap"
)

// Ensure MediaStore implements postmap.MediaStore at compile time.
var _ postmap.MediaStore = (*MediaStore)(nil)

// MediaStore saves media files under baseDir/yyyy/mm and exposes them
// under baseURL.
type MediaStore struct {
	baseDir string
	baseURL string

	// Now returns the current time. Used to pick the year and month directory.
	Now func() time.Time
}

// NewMediaStore creates a new MediaStore.
func NewMediaStore(baseDir, baseURL string) *MediaStore {
	return &MediaStore{
		baseDir: baseDir,
		baseURL: strings.TrimRight(baseURL, "/"),
		Now:     time.Now,
	}
}

// Save writes data under a unique name. An existing file with the same
// name gets a numeric suffix on the new file rather than being replaced.
func (s *MediaStore) Save(ctx context.Context, name string, data []byte) (*postmap.StoredFile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	name = path.Base(filepath.ToSlash(name))
	if name == "." || name == "/" || name == ".." {
		return nil, postmap.Errorf(postmap.EINVALID, "invalid media file name %q", name)
	}

	now := s.Now()
	dir := path.Join(now.Format("2006"), now.Format("01"))
	if err := os.MkdirAll(filepath.Join(s.baseDir, filepath.FromSlash(dir)), 0755); err != nil {
		return nil, err
	}

	ext := path.Ext(name)
	stem := strings.TrimSuffix(name, ext)

	for i := 0; i < 1000; i++ {
		candidate := name
		if i > 0 {
			candidate = fmt.Sprintf("%s-%d%s", stem, i, ext)
		}
		rel := path.Join(dir, candidate)

		f, err := os.OpenFile(filepath.Join(s.baseDir, filepath.FromSlash(rel)), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
		if errors.Is(err, os.ErrExist) {
			continue
		}
		if err != nil {
			return nil, err
		}

		if _, err := f.Write(data); err != nil {
			f.Close()
			os.Remove(f.Name())
			return nil, err
		}
		if err := f.Close(); err != nil {
			os.Remove(f.Name())
			return nil, err
		}

		return &postmap.StoredFile{Path: rel, URL: s.baseURL + "/" + rel}, nil
	}

	return nil, postmap.Errorf(postmap.ECONFLICT, "too many files named %q", name)
}

// Remove deletes a previously saved file. Missing files are not an error.
func (s *MediaStore) Remove(ctx context.Context, rel string) error {
	full, err := s.resolve(rel)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// resolve maps a stored path to a file under baseDir.
func (s *MediaStore) resolve(rel string) (string, error) {
	clean := path.Clean("/" + filepath.ToSlash(rel))
	if clean == "/" || strings.Contains(rel, "..") {
		return "", postmap.Errorf(postmap.EINVALID, "path traversal in %q", rel)
	}
	return filepath.Join(s.baseDir, filepath.FromSlash(strings.TrimPrefix(clean, "/"))), nil
}
