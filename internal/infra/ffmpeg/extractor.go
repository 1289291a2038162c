package ffmpeg

import (
	"context"
	"time"

	"github.com/fiapx/fiapx-frame-sampler/internal/domain/entity"
	"github.com/fiapx/fiapx-frame-sampler/internal/domain/port"
	"github.com/fiapx/fiapx-frame-sampler/internal/sampling"
	"go.uber.org/zap"
)

// Extractor samples a video file into a directory of numbered JPEG images.
type Extractor struct {
	opener  port.VideoOpener
	sampler *sampling.Sampler
	logger  *zap.Logger
}

func NewExtractor(opener port.VideoOpener, sampler *sampling.Sampler, logger *zap.Logger) *Extractor {
	return &Extractor{opener: opener, sampler: sampler, logger: logger}
}

// ExtractFrames saves one frame every intervalSeconds of video into outputDir.
// Errors carry the extraction stage and one of entity.ErrInvalidInput,
// entity.ErrIO or entity.ErrEmptyResult. A partial result may accompany an error.
func (e *Extractor) ExtractFrames(ctx context.Context, videoPath string, intervalSeconds float64, outputDir string, progress port.ProgressFunc) (res *entity.ExtractionResult, err error) {
	defer func() {
		err = entity.AtStage(entity.StageExtraction, err)
	}()

	if err := sampling.ValidateInterval(intervalSeconds); err != nil {
		return nil, err
	}

	start := time.Now()
	src, err := e.opener.Open(ctx, videoPath)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := src.Close(); cerr != nil {
			e.logger.Warn("failed to close video source", zap.Error(cerr))
		}
	}()

	info := src.Info()
	step, err := sampling.ComputeFrameStep(info.FrameRate, intervalSeconds)
	if err != nil {
		return nil, err
	}

	e.logger.Info("sampling video",
		zap.Float64("fps", info.FrameRate),
		zap.Float64("interval_secs", intervalSeconds),
		zap.Int("frame_step", step),
		zap.Int("declared_frames", info.DeclaredFrames),
	)

	res, err = e.sampler.Sample(src, step, outputDir, progress)
	if err != nil {
		fields := []zap.Field{zap.Error(err)}
		if res != nil {
			fields = append(fields, zap.Int("saved", res.SavedCount), zap.Int("consumed", res.FramesConsumed))
		}
		e.logger.Warn("frame sampling stopped", fields...)
		return res, err
	}

	e.logger.Info("frames extracted",
		zap.Int("count", res.SavedCount),
		zap.Int("frames_consumed", res.FramesConsumed),
		zap.Float64("video_duration", info.Duration.Seconds()),
		zap.Duration("elapsed", time.Since(start)),
	)
	return res, nil
}
