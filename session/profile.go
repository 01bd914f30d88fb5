package session

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/benjamonnguyen/dynsched"
)

const MaxProfileImageSize = 2 * 1024 * 1024

var (
	ErrNotImage      = errors.New("please select an image file")
	ErrImageTooLarge = errors.New("image must be 2MB or smaller")
)

// SetProfileImage stores data as a data URL after checking its type and size.
func (s *Store) SetProfileImage(ctx context.Context, data []byte) error {
	if len(data) > MaxProfileImageSize {
		return ErrImageTooLarge
	}
	if len(data) == 0 {
		return ErrNotImage
	}
	mime := http.DetectContentType(data)
	if !strings.HasPrefix(mime, "image/") {
		return ErrNotImage
	}

	dataURL := "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
	if err := s.kv.SetMany(ctx, map[string]string{dynsched.StorageKeyProfileImage: dataURL}); err != nil {
		return fmt.Errorf("save profile image: %w", err)
	}
	s.l.Debug("saved profile image", "mime", mime, "size", len(data))
	return nil
}

// ProfileImage returns the stored data URL; ok is false when none is set.
func (s *Store) ProfileImage(ctx context.Context) (string, bool, error) {
	return s.kv.Get(ctx, dynsched.StorageKeyProfileImage)
}

// ParseDataURL splits a base64 data URL into its MIME type and payload.
func ParseDataURL(dataURL string) (string, []byte, error) {
	rest, ok := strings.CutPrefix(dataURL, "data:")
	if !ok {
		return "", nil, fmt.Errorf("not a data url")
	}
	mime, payload, ok := strings.Cut(rest, ";base64,")
	if !ok {
		return "", nil, fmt.Errorf("data url is not base64")
	}
	b, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("decode data url: %w", err)
	}
	return mime, b, nil
}
