package port

import (
	"context"
	"image"

	"github.com/fiapx/fiapx-frame-sampler/internal/domain/entity"
)

// VideoSource yields decoded frames front to back. Next returns io.EOF once
// the source is exhausted. A frame is only valid until the following Next call.
type VideoSource interface {
	Info() entity.VideoInfo
	Next() (*entity.Frame, error)
	Close() error
}

type VideoOpener interface {
	Open(ctx context.Context, videoPath string) (VideoSource, error)
}

// FrameWriter persists a single image to path.
type FrameWriter interface {
	WriteFrame(path string, img image.Image) error
}

// ProgressFunc receives the fraction of declared frames consumed so far, in [0,1].
type ProgressFunc func(fraction float64)

type FrameExtractor interface {
	ExtractFrames(ctx context.Context, videoPath string, intervalSeconds float64, outputDir string, progress ProgressFunc) (*entity.ExtractionResult, error)
}

type ArchiveBuilder interface {
	BuildArchive(ctx context.Context, sourceDir string, archiveName string) (string, error)
}
