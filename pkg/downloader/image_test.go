package downloader

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// PNG signature + IHDR chunk header, enough for type sniffing
var pngBytes = []byte{
	0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A,
	0x00, 0x00, 0x00, 0x0D, 0x49, 0x48, 0x44, 0x52,
	0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
	0x08, 0x06, 0x00, 0x00, 0x00,
}

func TestFetchImage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(pngBytes)
	}))
	defer server.Close()

	dest := filepath.Join(t.TempDir(), "thumb.png")

	d := NewImageDownloader()
	require.NoError(t, d.Fetch(server.URL+"/preview.png", dest))

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, pngBytes, data)
}

func TestFetchImageNon200(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	dest := filepath.Join(t.TempDir(), "thumb.png")

	d := NewImageDownloader()
	err := d.Fetch(server.URL+"/missing.png", dest)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 404")

	_, statErr := os.Stat(dest)
	assert.True(t, os.IsNotExist(statErr), "no file should be written on failure")
}

func TestFetchImageNotAnImage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>not an image</html>"))
	}))
	defer server.Close()

	dest := filepath.Join(t.TempDir(), "thumb.png")

	d := NewImageDownloader()
	err := d.Fetch(server.URL+"/page", dest)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a valid image")
}

func TestFetchImageInvalidURL(t *testing.T) {
	d := NewImageDownloader()
	assert.Error(t, d.Fetch("ftp://example.com/a.png", "/tmp/out.png"))
	assert.Error(t, d.Fetch("not-a-url", "/tmp/out.png"))
}
