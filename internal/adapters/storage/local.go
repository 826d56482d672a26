package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
)

// LocalStore keeps blobs on disk under a root directory. The HTTP layer
// serves that directory at publicURL.
type LocalStore struct {
	root      string
	publicURL string
	log       zerolog.Logger
	now       func() time.Time
}

// NewLocalStore creates root if needed
func NewLocalStore(root, publicURL string, l zerolog.Logger) (*LocalStore, error) {
	if root == "" {
		return nil, errors.New("local storage directory is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create storage directory: %w", err)
	}
	l.Info().Str("dir", root).Str("url", publicURL).Msg("local blob store ready")
	return &LocalStore{root: root, publicURL: publicURL, log: l, now: time.Now}, nil
}

// Root is the directory blobs are written to
func (s *LocalStore) Root() string { return s.root }

// Upload writes r to a temp file and renames it into place
func (s *LocalStore) Upload(ctx context.Context, objectPath string, r io.Reader, contentType string) (string, error) {
	rel, err := cleanObjectPath(objectPath)
	if err != nil {
		return "", err
	}
	dst := filepath.Join(s.root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", err
	}

	tmp, err := os.CreateTemp(filepath.Dir(dst), ".upload-*")
	if err != nil {
		return "", err
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, &ctxReader{ctx: ctx, r: r}); err != nil {
		tmp.Close()
		return "", fmt.Errorf("write %s: %w", rel, err)
	}
	if err := tmp.Close(); err != nil {
		return "", err
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		return "", err
	}

	s.log.Debug().Str("path", rel).Str("content_type", contentType).Msg("blob stored")
	return s.publicURL + "/" + rel, nil
}

// Delete removes a blob. A missing blob is not an error.
func (s *LocalStore) Delete(ctx context.Context, objectPath string) error {
	rel, err := cleanObjectPath(objectPath)
	if err != nil {
		return err
	}
	err = os.Remove(filepath.Join(s.root, filepath.FromSlash(rel)))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// GeneratePath returns "<folder>/<unix-ms>_<filename>"
func (s *LocalStore) GeneratePath(folder, filename string) string {
	return objectPath(s.now(), folder, filename)
}

// ctxReader stops a copy once ctx is done
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
