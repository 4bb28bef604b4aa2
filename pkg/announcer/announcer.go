package announcer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dghubble/oauth1"
	"github.com/mattn/go-runewidth"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const (
	defaultUploadURL = "https://upload.twitter.com/1.1/media/upload.json"
	defaultStatusURL = "https://api.twitter.com/1.1/statuses/update.json"

	// how much of the description makes it into the announcement
	descriptionWidth = 200
)

// Credentials are the OAuth1 tokens for the posting account.
type Credentials struct {
	APIKey       string
	APISecret    string
	AccessToken  string
	AccessSecret string
}

// Announcer composes and submits social-media posts that point readers at a
// published content post.
type Announcer struct {
	uploadURL  string
	statusURL  string
	httpClient *http.Client
}

// New creates an Announcer authenticated with creds.
func New(creds Credentials) *Announcer {
	config := oauth1.NewConfig(creds.APIKey, creds.APISecret)
	token := oauth1.NewToken(creds.AccessToken, creds.AccessSecret)

	client := config.Client(oauth1.NoContext, token)
	client.Timeout = time.Minute

	return &Announcer{
		uploadURL:  defaultUploadURL,
		statusURL:  defaultStatusURL,
		httpClient: client,
	}
}

// NewWithEndpoints creates an Announcer against custom API endpoints,
// bypassing OAuth signing. Test use only.
func NewWithEndpoints(uploadURL, statusURL string) *Announcer {
	return &Announcer{
		uploadURL:  uploadURL,
		statusURL:  statusURL,
		httpClient: &http.Client{Timeout: time.Minute},
	}
}

// Announce uploads the thumbnail at thumbnailPath and posts a status linking
// to postURL. Failures are returned unwrapped to the caller; there is no
// retry.
func (a *Announcer) Announce(ctx context.Context, title, description, postURL, thumbnailPath string) error {
	mediaID, err := a.uploadMedia(ctx, thumbnailPath)
	if err != nil {
		return err
	}

	text := ComposeText(title, description, postURL)
	if err := a.postStatus(ctx, text, mediaID); err != nil {
		return err
	}

	logrus.Infof("announcement posted for %s", postURL)
	return nil
}

// ComposeText builds the fixed-template announcement text: title, truncated
// description, call-to-action link.
func ComposeText(title, description, postURL string) string {
	return fmt.Sprintf("%s\n\n%s...\n\nWatch here: %s",
		title,
		runewidth.Truncate(description, descriptionWidth, ""),
		postURL,
	)
}

func (a *Announcer) uploadMedia(ctx context.Context, path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", errors.Wrapf(err, "failed to open %s", path)
	}
	defer file.Close()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("media", filepath.Base(path))
	if err != nil {
		return "", errors.Wrap(err, "failed to build multipart body")
	}
	if _, err := io.Copy(part, file); err != nil {
		return "", errors.Wrap(err, "failed to read media file")
	}
	if err := writer.Close(); err != nil {
		return "", errors.Wrap(err, "failed to finalize multipart body")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.uploadURL, &buf)
	if err != nil {
		return "", errors.Wrap(err, "failed to create upload request")
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return "", errors.Wrap(err, "media upload request failed")
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", errors.Errorf("media upload failed with status %d: %s",
			resp.StatusCode, string(body))
	}

	var uploaded struct {
		MediaIDString string `json:"media_id_string"`
	}
	if err := json.Unmarshal(body, &uploaded); err != nil {
		return "", errors.Wrap(err, "failed to parse media upload response")
	}
	if uploaded.MediaIDString == "" {
		return "", errors.New("media upload returned no id")
	}
	return uploaded.MediaIDString, nil
}

func (a *Announcer) postStatus(ctx context.Context, text, mediaID string) error {
	form := url.Values{}
	form.Set("status", text)
	form.Set("media_ids", mediaID)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.statusURL,
		strings.NewReader(form.Encode()))
	if err != nil {
		return errors.Wrap(err, "failed to create status request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(err, "status post request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return errors.Errorf("status post failed with status %d: %s",
			resp.StatusCode, string(body))
	}
	return nil
}
