package bunny

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const (
	defaultBaseURL = "https://video.bunnycdn.com"
	embedBaseURL   = "https://iframe.mediadelivery.net/embed"
)

// Upload is the durable result of pushing a video to the CDN.
type Upload struct {
	VideoID    string
	PreviewURL string
}

// Client talks to the Bunny Stream API for one video library.
type Client struct {
	baseURL    string
	apiKey     string
	libraryID  string
	httpClient *http.Client
}

// NewClient creates a Client for the given library.
func NewClient(apiKey, libraryID string) *Client {
	return &Client{
		baseURL:   defaultBaseURL,
		apiKey:    apiKey,
		libraryID: libraryID,
		httpClient: &http.Client{
			// Uploads stream whole video files.
			Timeout: 30 * time.Minute,
		},
	}
}

// NewClientWithBaseURL creates a Client pointed at a custom API endpoint.
func NewClientWithBaseURL(apiKey, libraryID, baseURL string) *Client {
	c := NewClient(apiKey, libraryID)
	c.baseURL = baseURL
	return c
}

// createResponse mirrors the fields we consume from the video creation call.
type createResponse struct {
	GUID                string `json:"guid"`
	PreviewAnimationURL string `json:"previewAnimationUrl"`
}

// CreateAndUpload registers a new video entry titled title and uploads the
// file at filePath into it. Both phases authenticate with the AccessKey
// header; a failure in either phase aborts the whole operation.
func (c *Client) CreateAndUpload(ctx context.Context, filePath, title string) (*Upload, error) {
	logrus.Infof("uploading video to CDN: %s", filePath)

	created, err := c.createVideo(ctx, title)
	if err != nil {
		return nil, err
	}
	if created.GUID == "" {
		return nil, errors.New("video creation returned no id")
	}

	if err := c.uploadFile(ctx, created.GUID, filePath); err != nil {
		return nil, err
	}

	logrus.Infof("video uploaded to CDN: id=%s", created.GUID)

	return &Upload{
		VideoID:    created.GUID,
		PreviewURL: created.PreviewAnimationURL,
	}, nil
}

func (c *Client) createVideo(ctx context.Context, title string) (*createResponse, error) {
	payload, err := json.Marshal(map[string]string{
		"title": strings.TrimSpace(title),
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal creation payload")
	}

	url := fmt.Sprintf("%s/library/%s/videos", c.baseURL, c.libraryID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create request")
	}
	req.Header.Set("AccessKey", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "video creation request failed")
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, errors.Errorf("video creation failed with status %d: %s",
			resp.StatusCode, string(body))
	}

	var created createResponse
	if err := json.Unmarshal(body, &created); err != nil {
		return nil, errors.Wrap(err, "failed to parse creation response")
	}
	return &created, nil
}

func (c *Client) uploadFile(ctx context.Context, videoID, filePath string) error {
	file, err := os.Open(filePath)
	if err != nil {
		return errors.Wrapf(err, "failed to open %s", filePath)
	}
	defer file.Close()

	url := fmt.Sprintf("%s/library/%s/videos/%s", c.baseURL, c.libraryID, videoID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, file)
	if err != nil {
		return errors.Wrap(err, "failed to create upload request")
	}
	req.Header.Set("AccessKey", c.apiKey)
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(err, "video upload request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return errors.Errorf("video upload failed with status %d: %s",
			resp.StatusCode, string(body))
	}
	return nil
}

// EmbedCode builds the iframe snippet referencing videoID in this client's
// library.
func (c *Client) EmbedCode(videoID string) string {
	return fmt.Sprintf(
		"<iframe src='%s/%s/%s' width='100%%' height='500px' allowfullscreen></iframe>",
		embedBaseURL, c.libraryID, videoID,
	)
}
