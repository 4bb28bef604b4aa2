package extractor

import (
	"context"
	"encoding/json"
	"os"
	"os/exec"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const userAgent = "Mozilla/5.0"

// Media is the resolved result for a source page URL: a directly fetchable
// media URL plus descriptive metadata.
type Media struct {
	DirectURL   string
	Title       string
	Description string
}

// Extractor resolves source page URLs with the yt-dlp binary.
type Extractor struct {
	binaryPath  string
	cookiesPath string
}

// New creates an Extractor. cookiesPath points at the session cookie file
// handed to yt-dlp for restricted sources.
func New(cookiesPath string) *Extractor {
	return &Extractor{
		binaryPath:  "yt-dlp",
		cookiesPath: cookiesPath,
	}
}

// dumpedInfo mirrors the subset of yt-dlp's --dump-json output we consume.
type dumpedInfo struct {
	URL         string `json:"url"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Extract resolves url to a direct media URL, title and description. Every
// internal failure is returned as an error; callers map it to a single
// extraction-failed outcome.
func (e *Extractor) Extract(ctx context.Context, url string) (*Media, error) {
	args := []string{
		"--dump-json",
		"--quiet",
		"--format", "best",
		"--no-playlist",
		"--no-check-certificates",
		"--user-agent", userAgent,
	}
	// Only hand over cookies that actually exist; yt-dlp fails hard on a
	// missing file.
	if e.cookiesPath != "" {
		if _, err := os.Stat(e.cookiesPath); err == nil {
			args = append(args, "--cookies", e.cookiesPath)
		}
	}
	args = append(args, url)

	cmd := exec.CommandContext(ctx, e.binaryPath, args...)

	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, errors.Wrapf(err, "yt-dlp extraction failed: %s",
			strings.TrimSpace(stderr.String()))
	}

	var info dumpedInfo
	if err := json.Unmarshal([]byte(stdout.String()), &info); err != nil {
		return nil, errors.Wrap(err, "failed to parse yt-dlp output")
	}

	if info.URL == "" {
		return nil, errors.Errorf("yt-dlp returned no direct URL for %s", url)
	}

	logrus.Infof("extracted media info for %s: title=%q", url, info.Title)

	return &Media{
		DirectURL:   info.URL,
		Title:       info.Title,
		Description: info.Description,
	}, nil
}
