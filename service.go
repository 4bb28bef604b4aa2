package main

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/vidpress/crawler/configs"
	"github.com/vidpress/crawler/pkg/announcer"
	"github.com/vidpress/crawler/pkg/bunny"
	"github.com/vidpress/crawler/pkg/downloader"
	"github.com/vidpress/crawler/pkg/extractor"
	"github.com/vidpress/crawler/pkg/ffmpeg"
	"github.com/vidpress/crawler/pkg/inflight"
	"github.com/vidpress/crawler/pkg/wordpress"
	"github.com/vidpress/crawler/pkg/workspace"
)

// post meta field the theme reads the player embed from
const embedMetaKey = "tie_embed_code"

// ErrDuplicateInFlight rejects a request whose source URL is already being
// processed. It is a caller-correctable race, not a pipeline failure.
var ErrDuplicateInFlight = errors.New("video is already being processed")

// MediaExtractor resolves a source page URL to a direct media URL plus
// metadata.
type MediaExtractor interface {
	Extract(ctx context.Context, url string) (*extractor.Media, error)
}

// VideoFetcher downloads remote media to a local path.
type VideoFetcher interface {
	Fetch(ctx context.Context, url, destPath string) error
}

// ImageFetcher downloads still/animated images to a local path.
type ImageFetcher interface {
	Fetch(imageURL, destPath string) error
}

// MediaProber reports the codec identities of a local media file.
type MediaProber interface {
	Streams(ctx context.Context, path string) (ffmpeg.Verdict, error)
}

// MediaTranscoder re-encodes media and derives animated thumbnails.
type MediaTranscoder interface {
	Encode(ctx context.Context, inputPath, outputPath string) error
	GenerateThumbnail(ctx context.Context, videoPath, thumbnailPath string, opts ffmpeg.ThumbnailOptions) error
}

// VideoHost creates remote video entries and uploads encoded bytes.
type VideoHost interface {
	CreateAndUpload(ctx context.Context, filePath, title string) (*bunny.Upload, error)
	EmbedCode(videoID string) string
}

// PostPublisher manages content-management posts and media attachments.
type PostPublisher interface {
	CreatePost(ctx context.Context, payload wordpress.PostPayload) (*wordpress.Post, error)
	UpdatePost(ctx context.Context, postID int, fields map[string]any) (*wordpress.Post, error)
	UploadMedia(ctx context.Context, localPath, title string) (int, error)
}

// SocialAnnouncer submits a social-media post referencing published content.
type SocialAnnouncer interface {
	Announce(ctx context.Context, title, description, postURL, thumbnailPath string) error
}

// CrawlerService coordinates the video ingestion pipeline: extraction,
// download, compatibility gate, upload, thumbnail acquisition and post
// publishing.
type CrawlerService struct {
	extractor    MediaExtractor
	videoFetcher VideoFetcher
	imageFetcher ImageFetcher
	prober       MediaProber
	transcoder   MediaTranscoder
	videoHost    VideoHost
	publisher    PostPublisher
	announcer    SocialAnnouncer

	inFlight  *inflight.Set
	workspace *workspace.Workspace

	postStatus  string
	categories  []int
	previewWait time.Duration

	// caps concurrent pipeline runs so the request layer is not starved
	sem chan struct{}
}

// NewCrawlerService wires the service from configuration with the real
// collaborators.
func NewCrawlerService(cfg *configs.Config) *CrawlerService {
	prober := ffmpeg.NewProber()

	return newCrawlerService(serviceDeps{
		extractor:    extractor.New(cfg.CookiesPath),
		videoFetcher: downloader.NewVideoDownloader(),
		imageFetcher: downloader.NewImageDownloader(),
		prober:       prober,
		transcoder:   ffmpeg.NewTranscoder(prober),
		videoHost:    bunny.NewClient(cfg.BunnyAPIKey, cfg.BunnyLibraryID),
		publisher:    wordpress.NewClient(cfg.WPSite, cfg.WPUsername, cfg.WPPassword),
		announcer: announcer.New(announcer.Credentials{
			APIKey:       cfg.TwitterAPIKey,
			APISecret:    cfg.TwitterAPISecret,
			AccessToken:  cfg.TwitterAccessToken,
			AccessSecret: cfg.TwitterAccessSecret,
		}),
		workspace: workspace.New(cfg.WorkDir, cfg.RawVideoName,
			cfg.EncodedVideoName, cfg.ThumbnailName),
		postStatus:  cfg.WPPostStatus,
		categories:  cfg.WPCategoryIDs,
		previewWait: time.Duration(cfg.PreviewWaitSeconds) * time.Second,
		maxRuns:     cfg.MaxConcurrentRuns,
	})
}

// serviceDeps carries the injectable collaborators; tests substitute fakes.
type serviceDeps struct {
	extractor    MediaExtractor
	videoFetcher VideoFetcher
	imageFetcher ImageFetcher
	prober       MediaProber
	transcoder   MediaTranscoder
	videoHost    VideoHost
	publisher    PostPublisher
	announcer    SocialAnnouncer
	workspace    *workspace.Workspace
	postStatus   string
	categories   []int
	previewWait  time.Duration
	maxRuns      int
}

func newCrawlerService(deps serviceDeps) *CrawlerService {
	if deps.maxRuns <= 0 {
		deps.maxRuns = 1
	}
	return &CrawlerService{
		extractor:    deps.extractor,
		videoFetcher: deps.videoFetcher,
		imageFetcher: deps.imageFetcher,
		prober:       deps.prober,
		transcoder:   deps.transcoder,
		videoHost:    deps.videoHost,
		publisher:    deps.publisher,
		announcer:    deps.announcer,
		inFlight:     inflight.NewSet(),
		workspace:    deps.workspace,
		postStatus:   deps.postStatus,
		categories:   deps.categories,
		previewWait:  deps.previewWait,
		sem:          make(chan struct{}, deps.maxRuns),
	}
}

func failed(message string) *ProcessResult {
	return &ProcessResult{Status: "failed", Message: message}
}

// ProcessVideo runs the full pipeline for sourceURL. Stage failures are
// reported inside the result; the only error returned is
// ErrDuplicateInFlight when the URL is already being processed.
func (s *CrawlerService) ProcessVideo(ctx context.Context, sourceURL string) (*ProcessResult, error) {
	if !s.inFlight.TryAcquire(sourceURL) {
		logrus.Warnf("rejecting duplicate in-flight request for %s", sourceURL)
		return nil, ErrDuplicateInFlight
	}
	defer s.inFlight.Release(sourceURL)

	s.sem <- struct{}{}
	defer func() { <-s.sem }()

	log := logrus.WithField("source_url", sourceURL)

	run, err := s.workspace.NewRun()
	if err != nil {
		log.Errorf("failed to allocate run workspace: %v", err)
		return failed("Could not allocate working storage."), nil
	}
	defer run.Cleanup()
	log = log.WithField("run_id", run.ID)

	// Step 1: resolve the direct media URL and metadata.
	media, err := s.extractor.Extract(ctx, sourceURL)
	if err != nil || media == nil || media.DirectURL == "" {
		log.Errorf("extraction failed: %v", err)
		return failed("Could not extract video information."), nil
	}

	// Step 2: download the media.
	if err := s.videoFetcher.Fetch(ctx, media.DirectURL, run.RawVideoPath); err != nil {
		log.Errorf("download failed: %v", err)
		return failed("Video download failed."), nil
	}

	// Step 3: compatibility gate. A compatible file skips the transcode and
	// may use the CDN-generated preview as its thumbnail.
	uploadPath := run.RawVideoPath
	thumbSource := run.RawVideoPath
	useCdnPreview := true

	verdict, probeErr := s.prober.Streams(ctx, run.RawVideoPath)
	if probeErr != nil {
		// An unprobeable file is treated as incompatible; the encoder
		// decides whether it is salvageable.
		log.Warnf("compatibility probe failed, forcing encode: %v", probeErr)
	} else if !verdict.Compatible() {
		log.Infof("video not compatible (video=%s audio=%s), encoding",
			verdict.VideoCodec, verdict.AudioCodec)
	}
	if probeErr != nil || !verdict.Compatible() {
		if err := s.transcoder.Encode(ctx, run.RawVideoPath, run.EncodedPath); err != nil {
			log.Errorf("encoding failed: %v", err)
			return failed("Video encoding failed."), nil
		}
		uploadPath = run.EncodedPath
		thumbSource = run.EncodedPath
		useCdnPreview = false
	} else {
		log.Info("video is compatible, skipping encode")
	}

	// Step 4: upload to the CDN.
	upload, err := s.videoHost.CreateAndUpload(ctx, uploadPath, media.Title)
	if err != nil {
		log.Errorf("upload failed: %v", err)
		return failed("Video upload failed."), nil
	}
	embedCode := s.videoHost.EmbedCode(upload.VideoID)

	// Step 5: acquire a thumbnail, preferring the CDN preview.
	if err := s.acquireThumbnail(ctx, upload, useCdnPreview, thumbSource, run.ThumbnailPath); err != nil {
		log.Errorf("thumbnail acquisition failed: %v", err)
		return failed("Thumbnail generation failed."), nil
	}

	// Step 6: create the post. Content stays empty so the player embed
	// lives only in post meta.
	post, err := s.publisher.CreatePost(ctx, wordpress.PostPayload{
		Title:      media.Title,
		Content:    "",
		Excerpt:    media.Description,
		Status:     s.postStatus,
		Categories: s.categories,
		Meta:       map[string]string{embedMetaKey: ""},
	})
	if err != nil || post == nil || post.ID == 0 {
		log.Errorf("post creation failed: %v", err)
		return failed("Failed to create new post."), nil
	}

	// Step 7: enrich the post. Failures here downgrade to warnings; the
	// video and post already exist.
	warnings := s.enrichPost(ctx, log, post.ID, embedCode, media, run.ThumbnailPath)

	log.Infof("pipeline finished: video_id=%s post_id=%d", upload.VideoID, post.ID)

	return &ProcessResult{
		Status:   "success",
		VideoID:  upload.VideoID,
		PostID:   post.ID,
		Warnings: warnings,
	}, nil
}

// acquireThumbnail downloads the CDN preview when available, falling back to
// local generation from the video's midpoint.
func (s *CrawlerService) acquireThumbnail(ctx context.Context, upload *bunny.Upload, useCdnPreview bool, thumbSource, destPath string) error {
	if useCdnPreview && upload.PreviewURL != "" {
		// The CDN renders the preview asynchronously after upload.
		time.Sleep(s.previewWait)

		if err := s.imageFetcher.Fetch(upload.PreviewURL, destPath); err == nil {
			logrus.Info("using CDN preview animation as thumbnail")
			return nil
		} else {
			logrus.Warnf("CDN preview download failed, generating locally: %v", err)
		}
	}
	return s.transcoder.GenerateThumbnail(ctx, thumbSource, destPath, ffmpeg.ThumbnailOptions{})
}

// enrichPost writes the embed code into post meta and attaches the
// thumbnail as featured media. Each failure is collected as a warning.
func (s *CrawlerService) enrichPost(ctx context.Context, log *logrus.Entry, postID int, embedCode string, media *extractor.Media, thumbnailPath string) []string {
	var warnings []string

	if _, err := s.publisher.UpdatePost(ctx, postID, map[string]any{
		"meta":    map[string]string{embedMetaKey: embedCode},
		"excerpt": media.Description,
	}); err != nil {
		log.Warnf("embed meta update failed: %v", err)
		warnings = append(warnings, "embed code update failed")
	}

	mediaID, err := s.publisher.UploadMedia(ctx, thumbnailPath, media.Title)
	if err != nil {
		log.Warnf("thumbnail upload failed: %v", err)
		warnings = append(warnings, "thumbnail upload failed")
		return warnings
	}

	if _, err := s.publisher.UpdatePost(ctx, postID, map[string]any{
		"featured_media": mediaID,
	}); err != nil {
		log.Warnf("featured media update failed: %v", err)
		warnings = append(warnings, "featured media update failed")
	}

	return warnings
}

// Announce composes and submits the social announcement for a published
// post. When thumbnail is an http(s) URL it is downloaded first; otherwise
// it is used as a local path. Errors propagate to the caller untouched.
func (s *CrawlerService) Announce(ctx context.Context, req *AnnounceRequest) error {
	thumbnailPath := req.Thumbnail

	if strings.HasPrefix(strings.ToLower(req.Thumbnail), "http://") ||
		strings.HasPrefix(strings.ToLower(req.Thumbnail), "https://") {
		run, err := s.workspace.NewRun()
		if err != nil {
			return errors.Wrap(err, "failed to allocate working storage")
		}
		defer run.Cleanup()

		if err := s.imageFetcher.Fetch(req.Thumbnail, run.ThumbnailPath); err != nil {
			return errors.Wrap(err, "failed to download announcement thumbnail")
		}
		thumbnailPath = run.ThumbnailPath
	}

	return s.announcer.Announce(ctx, req.Title, req.Description, req.PostURL, thumbnailPath)
}
