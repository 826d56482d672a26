// Package storage holds the blob stores for lecture videos and syllabus
// files.
package storage

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"campus-aid-buddy/internal/config"
	"campus-aid-buddy/internal/core/services"

	"github.com/rs/zerolog"
)

// New opens the blob store selected by cfg.Driver
func New(ctx context.Context, cfg config.StorageConfig, l zerolog.Logger) (services.BlobStore, error) {
	switch cfg.Driver {
	case "firebase":
		s, err := NewFirebaseStore(ctx, cfg.FirebaseCredentials, cfg.FirebaseBucket, l)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "local", "":
		s, err := NewLocalStore(cfg.LocalDir, cfg.PublicURL, l)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
	return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
}

// objectPath builds "<folder>/<unix-ms>_<filename>". Directory parts and
// spaces are stripped from filename.
func objectPath(now time.Time, folder, filename string) string {
	name := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	if name == "." || name == "/" || name == ".." {
		name = "file"
	}
	name = strings.Join(strings.Fields(name), "_")
	return fmt.Sprintf("%s/%d_%s", strings.Trim(folder, "/"), now.UnixMilli(), name)
}

// cleanObjectPath rejects paths that would escape the store root
func cleanObjectPath(p string) (string, error) {
	clean := path.Clean("/" + strings.ReplaceAll(p, "\\", "/"))[1:]
	if clean == "" || clean != strings.TrimPrefix(p, "/") {
		return "", fmt.Errorf("invalid object path %q", p)
	}
	return clean, nil
}
