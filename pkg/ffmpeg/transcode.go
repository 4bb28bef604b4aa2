package ffmpeg

import (
	"context"
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// ThumbnailOptions control animated thumbnail generation. Zero values fall
// back to the defaults used for preview images.
type ThumbnailOptions struct {
	// Position is the capture start in seconds, formatted as a decimal
	// string. Empty means "midpoint of the source".
	Position string
	Duration string
	FPS      string
	Scale    string
}

func (o *ThumbnailOptions) applyDefaults() {
	if o.Duration == "" {
		o.Duration = "3"
	}
	if o.FPS == "" {
		o.FPS = "10"
	}
	if o.Scale == "" {
		o.Scale = "320:-1"
	}
}

// Transcoder re-encodes media files and derives animated thumbnails with
// ffmpeg.
type Transcoder struct {
	prober *Prober
}

// NewTranscoder creates a Transcoder that uses prober to determine thumbnail
// capture positions.
func NewTranscoder(prober *Prober) *Transcoder {
	return &Transcoder{prober: prober}
}

// Encode re-encodes inputPath into a broadly compatible H.264/AAC MP4 at
// outputPath, laid out for progressive playback. The output file's existence
// is verified after the tool exits.
func (t *Transcoder) Encode(ctx context.Context, inputPath, outputPath string) error {
	logrus.Infof("encoding %s -> %s", inputPath, outputPath)

	_, runErr := runCommand(ctx, "ffmpeg",
		"-y",
		"-i", inputPath,
		"-c:v", "libx264",
		"-preset", "slow",
		"-crf", "23",
		"-b:a", "128k",
		"-c:a", "aac",
		"-movflags", "+faststart",
		outputPath,
	)

	if _, err := os.Stat(outputPath); err != nil {
		if runErr != nil {
			return runErr
		}
		return errors.Wrapf(err, "encode produced no output at %s", outputPath)
	}
	if runErr != nil {
		// Output exists despite the non-zero exit; keep it but surface the
		// exit for diagnostics.
		logrus.Warnf("ffmpeg exited non-zero but produced %s: %v", outputPath, runErr)
	}

	logrus.Infof("encoding finished: %s", outputPath)
	return nil
}

// GenerateThumbnail captures a short looping animated image from videoPath
// at thumbnailPath. When no position is given, the capture starts at the
// video's midpoint.
func (t *Transcoder) GenerateThumbnail(ctx context.Context, videoPath, thumbnailPath string, opts ThumbnailOptions) error {
	opts.applyDefaults()

	if opts.Position == "" {
		duration, err := t.prober.Duration(ctx, videoPath)
		if err != nil {
			return errors.Wrap(err, "could not determine video duration for thumbnail position")
		}
		opts.Position = fmt.Sprintf("%.2f", duration/2)
	}

	logrus.Infof("generating animated thumbnail from %s at %ss", videoPath, opts.Position)

	_, runErr := runCommand(ctx, "ffmpeg",
		"-y",
		"-i", videoPath,
		"-ss", opts.Position,
		"-t", opts.Duration,
		"-vf", fmt.Sprintf("fps=%s,scale=%s:flags=lanczos", opts.FPS, opts.Scale),
		"-loop", "0",
		thumbnailPath,
	)

	if _, err := os.Stat(thumbnailPath); err != nil {
		if runErr != nil {
			return runErr
		}
		return errors.Wrapf(err, "thumbnail generation produced no output at %s", thumbnailPath)
	}

	logrus.Infof("thumbnail generated: %s", thumbnailPath)
	return nil
}
