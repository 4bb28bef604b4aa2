package workspace

import (
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Workspace hands out per-run working directories so that concurrent
// pipeline runs never share intermediate files.
type Workspace struct {
	baseDir       string
	rawName       string
	encodedName   string
	thumbnailName string
}

// Run is the set of working paths for a single pipeline run. All files live
// inside one directory that is removed by Cleanup.
type Run struct {
	ID            string
	Dir           string
	RawVideoPath  string
	EncodedPath   string
	ThumbnailPath string
}

// New creates a workspace rooted at baseDir. The three file names are used
// for every run's raw video, encoded video and thumbnail.
func New(baseDir, rawName, encodedName, thumbnailName string) *Workspace {
	return &Workspace{
		baseDir:       baseDir,
		rawName:       rawName,
		encodedName:   encodedName,
		thumbnailName: thumbnailName,
	}
}

// NewRun allocates a fresh run directory keyed by a generated run ID.
func (w *Workspace) NewRun() (*Run, error) {
	id := uuid.New().String()
	dir := filepath.Join(w.baseDir, id)

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "failed to create run directory %s", dir)
	}

	return &Run{
		ID:            id,
		Dir:           dir,
		RawVideoPath:  filepath.Join(dir, w.rawName),
		EncodedPath:   filepath.Join(dir, w.encodedName),
		ThumbnailPath: filepath.Join(dir, w.thumbnailName),
	}, nil
}

// Cleanup removes the run directory and everything in it.
func (r *Run) Cleanup() {
	_ = os.RemoveAll(r.Dir)
}
