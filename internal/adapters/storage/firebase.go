//go:build firebase
// +build firebase

package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	firebase "firebase.google.com/go/v4"
	fbstorage "firebase.google.com/go/v4/storage"
	"github.com/rs/zerolog"
	"google.golang.org/api/option"
)

// FirebaseStore keeps blobs in a Firebase Storage bucket
type FirebaseStore struct {
	client *fbstorage.Client
	bucket string
	log    zerolog.Logger
	now    func() time.Time
}

// NewFirebaseStore connects to bucket with the service account in
// credentialsFile.
func NewFirebaseStore(ctx context.Context, credentialsFile, bucket string, l zerolog.Logger) (*FirebaseStore, error) {
	if strings.TrimSpace(credentialsFile) == "" {
		return nil, errors.New("firebase credentials file is required")
	}
	if strings.TrimSpace(bucket) == "" {
		return nil, errors.New("firebase bucket is required")
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{StorageBucket: bucket}, option.WithCredentialsFile(credentialsFile))
	if err != nil {
		return nil, err
	}
	client, err := app.Storage(ctx)
	if err != nil {
		return nil, err
	}

	l.Info().Str("bucket", bucket).Msg("firebase blob store ready")
	return &FirebaseStore{client: client, bucket: bucket, log: l, now: time.Now}, nil
}

// Upload streams r into the bucket and returns the object's public URL
func (s *FirebaseStore) Upload(ctx context.Context, objectPath string, r io.Reader, contentType string) (string, error) {
	rel, err := cleanObjectPath(objectPath)
	if err != nil {
		return "", err
	}
	b, err := s.client.Bucket(s.bucket)
	if err != nil {
		return "", err
	}

	w := b.Object(rel).NewWriter(ctx)
	w.ContentType = contentType
	if _, err := io.Copy(w, r); err != nil {
		w.Close()
		return "", fmt.Errorf("upload %s: %w", rel, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("upload %s: %w", rel, err)
	}

	s.log.Debug().Str("path", rel).Str("content_type", contentType).Msg("blob stored")
	return fmt.Sprintf("https://firebasestorage.googleapis.com/v0/b/%s/o/%s?alt=media",
		s.bucket, url.PathEscape(rel)), nil
}

// Delete removes an object from the bucket
func (s *FirebaseStore) Delete(ctx context.Context, objectPath string) error {
	rel, err := cleanObjectPath(objectPath)
	if err != nil {
		return err
	}
	b, err := s.client.Bucket(s.bucket)
	if err != nil {
		return err
	}
	return b.Object(rel).Delete(ctx)
}

// GeneratePath returns "<folder>/<unix-ms>_<filename>"
func (s *FirebaseStore) GeneratePath(folder, filename string) string {
	return objectPath(s.now(), folder, filename)
}
