//go:build !firebase
// +build !firebase

package storage

import (
	"context"
	"errors"
	"io"

	"github.com/rs/zerolog"
)

// FirebaseStore is unavailable in builds without the firebase tag
type FirebaseStore struct{}

func NewFirebaseStore(_ context.Context, _, _ string, _ zerolog.Logger) (*FirebaseStore, error) {
	return nil, errors.New("firebase storage requires building with -tags firebase")
}

func (*FirebaseStore) Upload(context.Context, string, io.Reader, string) (string, error) {
	return "", errors.New("firebase storage is not compiled in")
}

func (*FirebaseStore) Delete(context.Context, string) error {
	return errors.New("firebase storage is not compiled in")
}

func (*FirebaseStore) GeneratePath(folder, filename string) string {
	return folder + "/" + filename
}
