package configs

import (
	"os"
	"path/filepath"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Config is the full runtime configuration, read from the environment after
// the optional env file has been loaded into it.
type Config struct {
	Port string `env:"PORT" env-default:":18070"`

	// CDN video hosting
	BunnyAPIKey    string `env:"BUNNY_API_KEY"`
	BunnyLibraryID string `env:"LIBRARY_ID"`

	// Content-management REST API
	WPSite        string `env:"WP_SITE"`
	WPUsername    string `env:"WP_USERNAME"`
	WPPassword    string `env:"WP_PASSWORD"`
	WPCategoryIDs []int  `env:"WP_CATEGORY_IDS" env-default:"38"`
	WPPostStatus  string `env:"WP_POST_STATUS" env-default:"publish"`

	// Social announcements
	TwitterAPIKey       string `env:"TWITTER_API_KEY"`
	TwitterAPISecret    string `env:"TWITTER_API_SECRET"`
	TwitterAccessToken  string `env:"TWITTER_ACCESS_TOKEN"`
	TwitterAccessSecret string `env:"TWITTER_ACCESS_SECRET"`

	// Working files. The three names are placed inside a per-run directory
	// under WorkDir, so concurrent runs never collide.
	WorkDir            string `env:"WORK_DIR"`
	RawVideoName       string `env:"RAW_VIDEO_PATH" env-default:"test_video.mp4"`
	EncodedVideoName   string `env:"ENCODED_VIDEO_PATH" env-default:"test_video_encoded.mp4"`
	ThumbnailName      string `env:"LOCAL_THUMBNAIL_PATH" env-default:"thumbnail.webp"`
	CookiesPath        string `env:"COOKIES_PATH" env-default:"cookies.txt"`
	PreviewWaitSeconds int    `env:"PREVIEW_WAIT_SECONDS" env-default:"2"`
	MaxConcurrentRuns  int    `env:"MAX_CONCURRENT_RUNS" env-default:"4"`
}

// Load reads envFile (ignored when missing) and then the process environment
// into a Config.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if !os.IsNotExist(err) {
				return nil, errors.Wrapf(err, "failed to load env file %s", envFile)
			}
			logrus.Debugf("env file %s not found, using process environment", envFile)
		}
	}

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to read environment")
	}

	if cfg.WorkDir == "" {
		cfg.WorkDir = filepath.Join(os.TempDir(), "vidpress-crawler")
	}

	return &cfg, nil
}
