// Package storage keeps uploaded files (resumes, profile pictures, company
// logos) on the local filesystem under a media root.  Keys are slash
// separated paths relative to that root.
package storage

import (
	"context"
	"io"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/pkg/errors"

	"github.com/iliyamo/job-board/internal/config"
	"github.com/iliyamo/job-board/internal/utils"
)

const (
	nameAttempts = 10
	suffixLen    = 7
)

// LocalStore writes files below Root and serves them under BaseURL.
type LocalStore struct {
	root    string
	baseURL string
}

func NewLocalStore(cfg config.StorageConfig) (*LocalStore, error) {
	if err := os.MkdirAll(cfg.Root, 0o755); err != nil {
		return nil, errors.Wrap(err, "create media root")
	}
	return &LocalStore{root: cfg.Root, baseURL: strings.TrimRight(cfg.BaseURL, "/")}, nil
}

func (s *LocalStore) Root() string { return s.root }

var unsafeName = regexp.MustCompile(`[^-\w.]`)

// cleanName reduces an uploaded filename to a safe base name: spaces become
// underscores and anything outside [-\w.] is dropped.
func cleanName(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = strings.ReplaceAll(strings.TrimSpace(name), " ", "_")
	name = unsafeName.ReplaceAllString(name, "")
	if name == "" || name == "." || name == ".." {
		return "file"
	}
	return name
}

// Save stores r as dir/filename and returns the key.  When the name is taken
// a random suffix is inserted before the extension.
func (s *LocalStore) Save(ctx context.Context, dir, filename string, r io.Reader) (string, error) {
	dir = strings.Trim(path.Clean("/"+dir), "/")
	name := cleanName(filename)
	if err := os.MkdirAll(filepath.Join(s.root, filepath.FromSlash(dir)), 0o755); err != nil {
		return "", errors.Wrap(err, "create upload dir")
	}

	ext := path.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	for attempt := 0; attempt < nameAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		candidate := name
		if attempt > 0 {
			suffix, err := utils.RandomSuffix(suffixLen)
			if err != nil {
				return "", err
			}
			candidate = stem + "_" + suffix + ext
		}
		key := path.Join(dir, candidate)
		f, err := os.OpenFile(s.path(key), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if os.IsExist(err) {
			continue
		}
		if err != nil {
			return "", errors.Wrap(err, "create file")
		}
		if _, err := io.Copy(f, r); err != nil {
			f.Close()
			_ = os.Remove(s.path(key))
			return "", errors.Wrap(err, "write file")
		}
		if err := f.Close(); err != nil {
			_ = os.Remove(s.path(key))
			return "", errors.Wrap(err, "close file")
		}
		return key, nil
	}
	return "", errors.Errorf("no free name for %s/%s", dir, name)
}

// Delete removes a stored file.  Missing files and empty keys are ignored.
func (s *LocalStore) Delete(_ context.Context, key string) error {
	if key == "" {
		return nil
	}
	if err := os.Remove(s.path(key)); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "delete file")
	}
	return nil
}

// URL returns the public URL of key, or "" for an empty key.
func (s *LocalStore) URL(key string) string {
	if key == "" {
		return ""
	}
	return s.baseURL + "/" + key
}

func (s *LocalStore) path(key string) string {
	return filepath.Join(s.root, filepath.FromSlash(path.Clean("/"+key)))
}
