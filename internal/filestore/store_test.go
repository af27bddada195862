package filestore

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Beeta/pynotex/internal/config"
)

func TestLocalStoreRoundTrip(t *testing.T) {
	dir := t.TempDir()
	store, err := New(config.FileStoreConfig{Type: "local", Dir: dir})
	require.NoError(t, err)

	content := "hello notebook"
	require.NoError(t, store.Save(context.Background(), "a.txt", strings.NewReader(content), int64(len(content))))

	f, err := store.Open(context.Background(), "a.txt")
	require.NoError(t, err)
	defer f.Close()
	data, err := io.ReadAll(f)
	require.NoError(t, err)
	require.Equal(t, content, string(data))
}

func TestLocalStoreRejectsPathKeys(t *testing.T) {
	store, err := New(config.FileStoreConfig{Type: "local", Dir: t.TempDir()})
	require.NoError(t, err)
	for _, key := range []string{"", "../escape", "a/b", `a\b`} {
		require.Error(t, store.Save(context.Background(), key, strings.NewReader("x"), 1))
	}
}

func TestLocalStoreURL(t *testing.T) {
	store, err := New(config.FileStoreConfig{Type: "local", Dir: t.TempDir()})
	require.NoError(t, err)
	require.Equal(t, "http://localhost:8080/api/v1/files/a.png", store.URL("a.png", "http://localhost:8080/"))

	store, err = New(config.FileStoreConfig{Type: "local", Dir: t.TempDir(), PublicURL: "https://cdn.example.com/files"})
	require.NoError(t, err)
	require.Equal(t, "https://cdn.example.com/files/a.png", store.URL("a.png", "http://localhost:8080"))
}

func TestNewUnknownType(t *testing.T) {
	_, err := New(config.FileStoreConfig{Type: "ftp"})
	require.Error(t, err)
}

func TestImageSaver(t *testing.T) {
	dir := t.TempDir()
	store, err := New(config.FileStoreConfig{Type: "local", Dir: dir})
	require.NoError(t, err)

	saver := NewImageSaver(store, "http://localhost:8080")
	url, err := saver.SaveImage(context.Background(), "slide_1.png", []byte{0x89, 0x50, 0x4e, 0x47})
	require.NoError(t, err)
	require.Equal(t, "http://localhost:8080/api/v1/files/slide_1.png", url)

	f, err := store.Open(context.Background(), "slide_1.png")
	require.NoError(t, err)
	defer f.Close()
	data, err := io.ReadAll(f)
	require.NoError(t, err)
	require.Len(t, data, 4)
}
