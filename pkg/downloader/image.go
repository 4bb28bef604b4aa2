package downloader

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/h2non/filetype"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// browser-like UA; some CDNs refuse the default Go client string
const imageUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// ImageDownloader fetches still or animated images over plain HTTP.
type ImageDownloader struct {
	httpClient *http.Client
}

// NewImageDownloader creates an ImageDownloader.
func NewImageDownloader() *ImageDownloader {
	return &ImageDownloader{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Fetch downloads the image at imageURL into destPath. The response must be
// a 200 and the bytes must sniff as an image.
func (d *ImageDownloader) Fetch(imageURL, destPath string) error {
	if err := validateURL(imageURL); err != nil {
		return err
	}

	logrus.Infof("downloading image from %s", imageURL)

	req, err := http.NewRequest(http.MethodGet, imageURL, nil)
	if err != nil {
		return errors.Wrap(err, "failed to create request")
	}
	req.Header.Set("User-Agent", imageUserAgent)
	if parsed, _ := url.Parse(imageURL); parsed != nil {
		req.Header.Set("Referer", fmt.Sprintf("%s://%s/", parsed.Scheme, parsed.Host))
	}

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return errors.Wrapf(err, "failed to download image from %s", imageURL)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return errors.Errorf("image download failed with status %d for %s",
			resp.StatusCode, imageURL)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrap(err, "failed to read image data")
	}

	if !filetype.IsImage(data) {
		return errors.New("downloaded file is not a valid image")
	}

	if err := os.WriteFile(destPath, data, 0o644); err != nil {
		return errors.Wrapf(err, "failed to save image to %s", destPath)
	}

	logrus.Infof("image downloaded to %s", destPath)
	return nil
}

func validateURL(rawURL string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return errors.Wrap(err, "invalid image URL")
	}
	if (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return errors.Errorf("invalid image URL format: %s", rawURL)
	}
	return nil
}
