package announcer

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComposeText(t *testing.T) {
	text := ComposeText("Cat video", "A cat.", "https://site/video/123")

	assert.Equal(t, "Cat video\n\nA cat....\n\nWatch here: https://site/video/123", text)
}

func TestComposeTextTruncatesDescription(t *testing.T) {
	long := strings.Repeat("a", 300)

	text := ComposeText("Title", long, "https://site/p/1")

	assert.Contains(t, text, strings.Repeat("a", 200)+"...")
	assert.NotContains(t, text, strings.Repeat("a", 201))
}

func TestComposeTextTruncatesByDisplayWidth(t *testing.T) {
	// Wide runes occupy two columns, so a 200-column budget keeps 100 of
	// them and never cuts one in half.
	wide := strings.Repeat("宽", 150)

	text := ComposeText("Title", wide, "https://site/p/1")

	assert.Contains(t, text, strings.Repeat("宽", 100)+"...")
	assert.NotContains(t, text, strings.Repeat("宽", 101))
}

func TestAnnounce(t *testing.T) {
	thumb := filepath.Join(t.TempDir(), "thumbnail.webp")
	require.NoError(t, os.WriteFile(thumb, []byte("webp-bytes"), 0o644))

	var statusText, mediaIDs string

	upload := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		_, header, err := r.FormFile("media")
		require.NoError(t, err)
		assert.Equal(t, "thumbnail.webp", header.Filename)

		_, _ = w.Write([]byte(`{"media_id_string":"710511363345354753"}`))
	}))
	defer upload.Close()

	status := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		statusText = r.FormValue("status")
		mediaIDs = r.FormValue("media_ids")
		_, _ = w.Write([]byte(`{"id_str":"1"}`))
	}))
	defer status.Close()

	a := NewWithEndpoints(upload.URL, status.URL)

	err := a.Announce(context.Background(), "Cat video", "A cat.", "https://site/video/123", thumb)
	require.NoError(t, err)

	assert.Contains(t, statusText, "Cat video")
	assert.Contains(t, statusText, "Watch here: https://site/video/123")
	assert.Equal(t, "710511363345354753", mediaIDs)
}

func TestAnnounceUploadFailurePropagates(t *testing.T) {
	thumb := filepath.Join(t.TempDir(), "thumbnail.webp")
	require.NoError(t, os.WriteFile(thumb, []byte("webp-bytes"), 0o644))

	upload := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer upload.Close()

	a := NewWithEndpoints(upload.URL, "http://unused.invalid")

	err := a.Announce(context.Background(), "t", "d", "https://site/p", thumb)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "media upload failed")
}
