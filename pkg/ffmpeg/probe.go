package ffmpeg

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const (
	// Codecs the delivery player accepts without re-encoding.
	compatibleVideoCodec = "h264"
	compatibleAudioCodec = "aac"
)

// Verdict holds the codec identities of the first video and audio stream of
// a media file.
type Verdict struct {
	VideoCodec string
	AudioCodec string
}

// Compatible reports whether the file can be delivered as-is, skipping the
// transcode step.
func (v Verdict) Compatible() bool {
	return v.VideoCodec == compatibleVideoCodec && v.AudioCodec == compatibleAudioCodec
}

// Prober inspects local media files with ffprobe.
type Prober struct{}

// NewProber creates a Prober.
func NewProber() *Prober {
	return &Prober{}
}

// probeOutput mirrors the subset of ffprobe's -show_streams JSON we consume.
type probeOutput struct {
	Streams []struct {
		CodecType string `json:"codec_type"`
		CodecName string `json:"codec_name"`
	} `json:"streams"`
}

// Duration returns the duration of the first video stream in seconds.
func (p *Prober) Duration(ctx context.Context, path string) (float64, error) {
	result, err := runCommand(ctx, "ffprobe",
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "stream=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)
	if err != nil {
		return 0, err
	}

	// ffprobe sometimes prints additional lines; the first non-empty one is
	// the duration.
	for _, line := range strings.Split(result.Stdout, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		duration, err := strconv.ParseFloat(line, 64)
		if err != nil {
			return 0, errors.Wrapf(err, "unexpected ffprobe duration output %q", line)
		}
		logrus.Debugf("probed duration of %s: %.2fs", path, duration)
		return duration, nil
	}

	return 0, errors.Errorf("no duration reported for %s", path)
}

// Streams probes the full stream metadata of path and returns the codec
// names of the first video and first audio stream.
func (p *Prober) Streams(ctx context.Context, path string) (Verdict, error) {
	result, err := runCommand(ctx, "ffprobe",
		"-v", "error",
		"-print_format", "json",
		"-show_streams",
		path,
	)
	if err != nil {
		return Verdict{}, err
	}

	verdict, err := parseVerdict([]byte(result.Stdout))
	if err != nil {
		return Verdict{}, err
	}

	logrus.Debugf("probed codecs of %s: video=%s audio=%s",
		path, verdict.VideoCodec, verdict.AudioCodec)
	return verdict, nil
}

// parseVerdict extracts the first video and first audio codec from ffprobe's
// -show_streams JSON.
func parseVerdict(data []byte) (Verdict, error) {
	var output probeOutput
	if err := json.Unmarshal(data, &output); err != nil {
		return Verdict{}, errors.Wrap(err, "failed to parse ffprobe output")
	}

	var verdict Verdict
	for _, stream := range output.Streams {
		switch stream.CodecType {
		case "video":
			if verdict.VideoCodec == "" {
				verdict.VideoCodec = stream.CodecName
			}
		case "audio":
			if verdict.AudioCodec == "" {
				verdict.AudioCodec = stream.CodecName
			}
		}
	}
	return verdict, nil
}
