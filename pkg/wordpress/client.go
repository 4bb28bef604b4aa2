package wordpress

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Post is a content-management post as returned by the REST API.
type Post struct {
	ID            int             `json:"id"`
	Title         json.RawMessage `json:"title,omitempty"`
	Status        string          `json:"status,omitempty"`
	FeaturedMedia int             `json:"featured_media,omitempty"`
}

// PostPayload is the body for creating a post.
type PostPayload struct {
	Title      string            `json:"title"`
	Content    string            `json:"content"`
	Excerpt    string            `json:"excerpt"`
	Status     string            `json:"status"`
	Categories []int             `json:"categories"`
	Meta       map[string]string `json:"meta"`
}

// Client talks to a WordPress REST API with fixed basic-auth credentials.
// The site URL points at the posts/media resource root, e.g.
// https://example.com/wp-json/wp/v2.
type Client struct {
	siteURL    string
	username   string
	password   string
	httpClient *http.Client
}

// NewClient creates a Client.
func NewClient(siteURL, username, password string) *Client {
	return &Client{
		siteURL:  siteURL,
		username: username,
		password: password,
		httpClient: &http.Client{
			Timeout: 2 * time.Minute,
		},
	}
}

// GetPost fetches a post in edit context.
func (c *Client) GetPost(ctx context.Context, postID int) (*Post, error) {
	url := fmt.Sprintf("%s/posts/%d?context=edit", c.siteURL, postID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create request")
	}

	return c.doPostRequest(req)
}

// CreatePost creates a new post and returns it.
func (c *Client) CreatePost(ctx context.Context, payload PostPayload) (*Post, error) {
	logrus.Info("creating post")

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal post payload")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.siteURL+"/posts", bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create request")
	}
	req.Header.Set("Content-Type", "application/json")

	post, err := c.doPostRequest(req)
	if err != nil {
		return nil, err
	}
	logrus.Infof("post created: id=%d", post.ID)
	return post, nil
}

// UpdatePost applies a partial update to an existing post. The REST API
// accepts POST on the post resource for updates.
func (c *Client) UpdatePost(ctx context.Context, postID int, fields map[string]any) (*Post, error) {
	logrus.Infof("updating post %d", postID)

	body, err := json.Marshal(fields)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal update payload")
	}

	url := fmt.Sprintf("%s/posts/%d", c.siteURL, postID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create request")
	}
	req.Header.Set("Content-Type", "application/json")

	return c.doPostRequest(req)
}

// UploadMedia pushes the file at localPath to the media library and returns
// the attachment id. The media title carries a "Thumbnail" suffix and the
// alt text is the bare title.
func (c *Client) UploadMedia(ctx context.Context, localPath, title string) (int, error) {
	logrus.Infof("uploading media %s", localPath)

	file, err := os.Open(localPath)
	if err != nil {
		return 0, errors.Wrapf(err, "failed to open %s", localPath)
	}
	defer file.Close()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("file", filepath.Base(localPath))
	if err != nil {
		return 0, errors.Wrap(err, "failed to build multipart body")
	}
	if _, err := io.Copy(part, file); err != nil {
		return 0, errors.Wrap(err, "failed to read media file")
	}
	_ = writer.WriteField("title", title+" Thumbnail")
	_ = writer.WriteField("alt_text", title)
	if err := writer.Close(); err != nil {
		return 0, errors.Wrap(err, "failed to finalize multipart body")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.siteURL+"/media", &buf)
	if err != nil {
		return 0, errors.Wrap(err, "failed to create request")
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.SetBasicAuth(c.username, c.password)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, errors.Wrap(err, "media upload request failed")
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		logrus.Errorf("media upload failed: %s", string(respBody))
		return 0, errors.Errorf("media upload failed with status %d", resp.StatusCode)
	}

	var media struct {
		ID int `json:"id"`
	}
	if err := json.Unmarshal(respBody, &media); err != nil {
		return 0, errors.Wrap(err, "failed to parse media response")
	}

	logrus.Infof("media uploaded: id=%d", media.ID)
	return media.ID, nil
}

// doPostRequest sends req with basic auth and decodes a Post from a 2xx
// response. Non-2xx responses are logged with their parsed body.
func (c *Client) doPostRequest(req *http.Request) (*Post, error) {
	req.SetBasicAuth(c.username, c.password)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "request failed")
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		logrus.Errorf("post request failed: %s %s -> %d: %s",
			req.Method, req.URL.Path, resp.StatusCode, string(body))
		return nil, errors.Errorf("post request failed with status %d", resp.StatusCode)
	}

	var post Post
	if err := json.Unmarshal(body, &post); err != nil {
		return nil, errors.Wrap(err, "failed to parse post response")
	}
	return &post, nil
}
