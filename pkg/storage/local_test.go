package storage

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func newTestStore(t *testing.T) *LocalStore {
	t.Helper()
	store, err := NewLocalStore(t.TempDir(), zap.NewNop())
	require.NoError(t, err)
	return store
}

func TestLocalStore_SaveAndOpen(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	key, err := store.Save(ctx, "SHP123456_1", "image/png", bytes.NewReader(pngHeader))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(key, "SHP123456_1_"))
	assert.True(t, strings.HasSuffix(key, ".png"))

	rc, mime, err := store.Open(ctx, key)
	require.NoError(t, err)
	defer rc.Close()
	assert.Equal(t, "image/png", mime)

	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, pngHeader, data)
}

func TestLocalStore_Delete(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	key, err := store.Save(ctx, "img", "image/jpeg", strings.NewReader("jpeg bytes"))
	require.NoError(t, err)

	require.NoError(t, store.Delete(ctx, key))

	_, _, err = store.Open(ctx, key)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, store.Delete(ctx, key), ErrNotFound)
}

func TestLocalStore_RejectsTraversal(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for _, key := range []string{"../../etc/passwd", "..", "", "a/b.jpg", `..\x.jpg`} {
		_, _, err := store.Open(ctx, key)
		assert.ErrorIs(t, err, ErrInvalidKey, "key %q", key)
	}
}

func TestDetectImageMIME(t *testing.T) {
	cases := []struct {
		name string
		head []byte
		mime string
		ok   bool
	}{
		{"png", pngHeader, "image/png", true},
		{"jpeg", []byte("\xff\xd8\xff\xe0\x00\x10JFIF\x00"), "image/jpeg", true},
		{"gif", []byte("GIF89a......"), "image/gif", true},
		{"webp", []byte("RIFF\x00\x00\x00\x00WEBPVP8 "), "image/webp", true},
		{"text", []byte("hello world"), "", false},
		{"pdf", []byte("%PDF-1.7\n"), "", false},
	}
	for _, tc := range cases {
		mime, ok := DetectImageMIME(tc.head)
		assert.Equal(t, tc.ok, ok, tc.name)
		assert.Equal(t, tc.mime, mime, tc.name)
	}
}
