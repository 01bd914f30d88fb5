package session

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/benjamonnguyen/dynsched/charmlog"
	"github.com/benjamonnguyen/dynsched/memstore"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func TestSetProfileImage(t *testing.T) {
	ctx := context.Background()
	s := NewStore(memstore.New(), acceptAlice("tok123"), charmlog.Discard())

	if _, ok, _ := s.ProfileImage(ctx); ok {
		t.Fatal("expected no image")
	}
	if err := s.SetProfileImage(ctx, pngHeader); err != nil {
		t.Fatal(err)
	}
	dataURL, ok, err := s.ProfileImage(ctx)
	if err != nil || !ok {
		t.Fatalf("expected stored image, got ok=%v err=%v", ok, err)
	}

	mime, data, err := ParseDataURL(dataURL)
	if err != nil {
		t.Fatal(err)
	}
	if mime != "image/png" || !bytes.Equal(data, pngHeader) {
		t.Errorf("unexpected round trip %s %q", mime, data)
	}
}

func TestSetProfileImage_Rejects(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"empty", nil, ErrNotImage},
		{"text", []byte("hello, world"), ErrNotImage},
		{"too large", append(append([]byte{}, pngHeader...), make([]byte, MaxProfileImageSize)...), ErrImageTooLarge},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			kv := memstore.New()
			s := NewStore(kv, acceptAlice("tok123"), charmlog.Discard())
			if err := s.SetProfileImage(context.Background(), tc.data); !errors.Is(err, tc.want) {
				t.Errorf("expected %v, got %v", tc.want, err)
			}
			if len(kv.Snapshot()) != 0 {
				t.Error("expected nothing stored")
			}
		})
	}
}

func TestParseDataURL_Invalid(t *testing.T) {
	for _, in := range []string{"", "image/png;base64,AA==", "data:image/png,raw", "data:image/png;base64,***"} {
		if _, _, err := ParseDataURL(in); err == nil {
			t.Errorf("expected error for %q", in)
		}
	}
}
