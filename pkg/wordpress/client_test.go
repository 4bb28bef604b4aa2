package wordpress

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requireBasicAuth(t *testing.T, r *http.Request) {
	t.Helper()
	user, pass, ok := r.BasicAuth()
	require.True(t, ok, "basic auth must be set")
	assert.Equal(t, "editor", user)
	assert.Equal(t, "secret", pass)
}

func TestCreatePost(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requireBasicAuth(t, r)
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/posts", r.URL.Path)

		var payload PostPayload
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "Cat video", payload.Title)
		assert.Equal(t, "publish", payload.Status)
		assert.Equal(t, []int{38}, payload.Categories)
		assert.Empty(t, payload.Content)

		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]any{"id": 55, "status": "publish"})
	}))
	defer server.Close()

	c := NewClient(server.URL, "editor", "secret")

	post, err := c.CreatePost(context.Background(), PostPayload{
		Title:      "Cat video",
		Excerpt:    "A cat.",
		Status:     "publish",
		Categories: []int{38},
		Meta:       map[string]string{"tie_embed_code": ""},
	})
	require.NoError(t, err)
	assert.Equal(t, 55, post.ID)
}

func TestCreatePostNon2xx(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"code":"rest_cannot_create"}`))
	}))
	defer server.Close()

	c := NewClient(server.URL, "editor", "secret")

	_, err := c.CreatePost(context.Background(), PostPayload{Title: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 403")
}

func TestUpdatePost(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requireBasicAuth(t, r)
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/posts/55", r.URL.Path)

		var fields map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&fields))
		assert.Contains(t, fields, "meta")

		_ = json.NewEncoder(w).Encode(map[string]any{"id": 55})
	}))
	defer server.Close()

	c := NewClient(server.URL, "editor", "secret")

	post, err := c.UpdatePost(context.Background(), 55, map[string]any{
		"meta": map[string]string{"tie_embed_code": "<iframe></iframe>"},
	})
	require.NoError(t, err)
	assert.Equal(t, 55, post.ID)
}

func TestGetPost(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requireBasicAuth(t, r)
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "/posts/55", r.URL.Path)
		assert.Equal(t, "edit", r.URL.Query().Get("context"))

		_ = json.NewEncoder(w).Encode(map[string]any{"id": 55, "status": "draft"})
	}))
	defer server.Close()

	c := NewClient(server.URL, "editor", "secret")

	post, err := c.GetPost(context.Background(), 55)
	require.NoError(t, err)
	assert.Equal(t, "draft", post.Status)
}

func TestUploadMedia(t *testing.T) {
	thumb := filepath.Join(t.TempDir(), "thumbnail.webp")
	require.NoError(t, os.WriteFile(thumb, []byte("webp-bytes"), 0o644))

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requireBasicAuth(t, r)
		require.Equal(t, "/media", r.URL.Path)

		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "Cat video Thumbnail", r.FormValue("title"))
		assert.Equal(t, "Cat video", r.FormValue("alt_text"))

		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		assert.Equal(t, "thumbnail.webp", header.Filename)

		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]any{"id": 90})
	}))
	defer server.Close()

	c := NewClient(server.URL, "editor", "secret")

	mediaID, err := c.UploadMedia(context.Background(), thumb, "Cat video")
	require.NoError(t, err)
	assert.Equal(t, 90, mediaID)
}

func TestUploadMediaFails(t *testing.T) {
	thumb := filepath.Join(t.TempDir(), "thumbnail.webp")
	require.NoError(t, os.WriteFile(thumb, []byte("webp-bytes"), 0o644))

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusRequestEntityTooLarge)
		_, _ = w.Write([]byte(`{"code":"rest_upload_file_too_big"}`))
	}))
	defer server.Close()

	c := NewClient(server.URL, "editor", "secret")

	_, err := c.UploadMedia(context.Background(), thumb, "Cat video")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 413")
}
